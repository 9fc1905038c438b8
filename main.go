package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"btctui/pkg/config"
	"btctui/pkg/jsonv"
	"btctui/pkg/rpc"
	"btctui/pkg/server"
	"btctui/pkg/tui"
	"btctui/pkg/watcher"
)

// Version should be set during build
var Version = "dev"

func main() {
	hostFlag := flag.String("host", "", "RPC host (default 127.0.0.1)")
	portFlag := flag.Int("port", 0, "RPC port (default per network)")
	userFlag := flag.String("user", "", "RPC username")
	passwordFlag := flag.String("password", "", "RPC password")
	cookieFlag := flag.String("cookie", "", "Path to the daemon's .cookie file")
	datadirFlag := flag.String("datadir", "", "Daemon data directory (for cookie lookup)")
	testnetFlag := flag.Bool("testnet", false, "Connect to testnet3")
	signetFlag := flag.Bool("signet", false, "Connect to signet")
	regtestFlag := flag.Bool("regtest", false, "Connect to regtest")
	refreshFlag := flag.Duration("refresh", 5*time.Second, "Poll interval")
	timeoutFlag := flag.Duration("timeout", 10*time.Second, "RPC timeout")
	testFlag := flag.Bool("test", false, "Test the daemon connection and exit")
	jsonFlag := flag.Bool("json", false, "Output test results as JSON")
	serverFlag := flag.Bool("server", false, "Run in headless server mode")
	apiPortFlag := flag.Int("api-port", 9332, "Port for the status API server")
	logFileFlag := flag.String("log-file", "", "Append logs to this file")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("btctui version %s\n", Version)
		os.Exit(0)
	}

	cfg := config.Default()
	switch {
	case *testnetFlag:
		cfg.Network = config.NetworkTestnet
	case *signetFlag:
		cfg.Network = config.NetworkSignet
	case *regtestFlag:
		cfg.Network = config.NetworkRegtest
	}
	cfg.Port = cfg.Network.DefaultPort()

	if *hostFlag != "" {
		cfg.Host = *hostFlag
	}
	if *portFlag != 0 {
		cfg.Port = *portFlag
	}
	cfg.User = *userFlag
	cfg.Password = *passwordFlag
	cfg.Refresh = *refreshFlag
	cfg.Timeout = *timeoutFlag

	if cfg.User == "" && cfg.Password == "" {
		if *cookieFlag != "" {
			// An explicit cookie path that cannot be read is fatal.
			if err := config.ApplyCookie(&cfg, *cookieFlag); err != nil {
				fmt.Printf("Error: %v\n", err)
				os.Exit(1)
			}
		} else if path, err := config.CookiePath(cfg.Network, *datadirFlag); err == nil {
			// Best effort: the daemon may use rpcuser/rpcpassword instead.
			_ = config.ApplyCookie(&cfg, path)
		}
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	if *logFileFlag != "" {
		f, err := os.OpenFile(*logFileFlag, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Printf("Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
		log.SetLevel(logrus.DebugLevel)
	}

	client := rpc.New(rpc.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Timeout:  cfg.Timeout,
	})

	if *testFlag {
		os.Exit(testConnection(client, cfg, *jsonFlag))
	}

	// Lookups fetch full blocks and can outlast a poll timeout.
	searchClient := client.WithTimeout(30 * time.Second)

	w := watcher.New(client, searchClient, cfg.Refresh, log)
	ctx := context.Background()
	w.Start(ctx)
	defer w.Stop()

	srv := server.New(w, log)
	if *serverFlag {
		fmt.Printf("Running in server mode on port %d...\n", *apiPortFlag)
		if err := srv.Start(*apiPortFlag); err != nil {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	go func() {
		if err := srv.Start(*apiPortFlag); err != nil {
			log.WithError(err).Error("api server stopped")
		}
	}()

	tui.Start(w, Version)
}

// testConnection probes the daemon once and reports what it found.
func testConnection(client *rpc.Client, cfg config.Config, asJSON bool) int {
	if !asJSON {
		fmt.Printf("Testing connection to %s:%d (%s) ... ", cfg.Host, cfg.Port, cfg.Network)
	}

	report := jsonv.Object{
		"host":    jsonv.String(cfg.Host),
		"port":    jsonv.Int(int64(cfg.Port)),
		"network": jsonv.String(string(cfg.Network)),
	}

	env, err := client.Call("getblockchaininfo")
	if err != nil {
		report["ok"] = jsonv.Bool(false)
		report["error"] = jsonv.String(err.Error())
		if asJSON {
			fmt.Println(jsonv.EncodeIndent(report, 2))
		} else {
			fmt.Printf("Failed: %v\n", err)
		}
		return 1
	}

	info := jsonv.Get(env, "result")
	report["ok"] = jsonv.Bool(true)
	report["chain"] = jsonv.String(jsonv.StrOr(info, "chain", "?"))
	report["blocks"] = jsonv.Int(jsonv.IntOr(info, "blocks", 0))
	if asJSON {
		fmt.Println(jsonv.EncodeIndent(report, 2))
	} else {
		fmt.Printf("OK (chain: %s, height: %d)\n",
			jsonv.StrOr(info, "chain", "?"), jsonv.IntOr(info, "blocks", 0))
	}
	return 0
}
