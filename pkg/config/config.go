// Package config resolves the daemon connection parameters: explicit flags,
// network selection (which implies a default port and cookie subdirectory)
// and Bitcoin Core cookie-file authentication.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Network identifies which chain the daemon runs, for port and cookie-path
// defaults.
type Network string

const (
	NetworkMain    Network = "main"
	NetworkTestnet Network = "testnet3"
	NetworkSignet  Network = "signet"
	NetworkRegtest Network = "regtest"
)

// DefaultPort returns the daemon's default RPC port for the network.
func (n Network) DefaultPort() int {
	switch n {
	case NetworkTestnet:
		return 18332
	case NetworkSignet:
		return 38332
	case NetworkRegtest:
		return 18443
	}
	return 8332
}

// cookieSubdir returns the network's subdirectory inside the data dir.
func (n Network) cookieSubdir() string {
	if n == NetworkMain {
		return ""
	}
	return string(n)
}

// Config holds everything needed to talk to the daemon plus the dashboard
// refresh cadence.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
	Refresh  time.Duration
	Network  Network
}

// Default returns the mainnet defaults.
func Default() Config {
	return Config{
		Host:    "127.0.0.1",
		Port:    NetworkMain.DefaultPort(),
		Timeout: 10 * time.Second,
		Refresh: 5 * time.Second,
		Network: NetworkMain,
	}
}

// CookiePath returns the default path of the daemon's .cookie file for the
// network. datadir overrides the platform default location.
func CookiePath(network Network, datadir string) (string, error) {
	base := datadir
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot locate home directory (use --datadir or --cookie): %w", err)
		}
		if runtime.GOOS == "darwin" {
			base = filepath.Join(home, "Library", "Application Support", "Bitcoin")
		} else {
			base = filepath.Join(home, ".bitcoin")
		}
	}
	return filepath.Join(base, network.cookieSubdir(), ".cookie"), nil
}

// ReadCookie parses a cookie file's single name:secret line.
func ReadCookie(r io.Reader) (user, password string, err error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", "", err
		}
		return "", "", fmt.Errorf("cookie file is empty")
	}
	line := strings.TrimSuffix(scanner.Text(), "\r")
	user, password, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", fmt.Errorf("invalid cookie file (no ':' found)")
	}
	return user, password, nil
}

// ApplyCookie loads credentials from the cookie file at path into cfg.
func ApplyCookie(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot open cookie file: %w", err)
	}
	defer f.Close()
	user, password, err := ReadCookie(f)
	if err != nil {
		return fmt.Errorf("cookie file %s: %w", path, err)
	}
	cfg.User = user
	cfg.Password = password
	return nil
}
