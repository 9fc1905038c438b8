// Package rpc implements the JSON-RPC transport to a Bitcoin Core daemon:
// one fresh connection per call, an HTTP/1.0 POST carrying the envelope with
// Basic authentication, and a response read until the peer closes. HTTP/1.0
// keeps the daemon from switching to chunked transfer encoding, so the body
// is simply everything after the header separator.
package rpc

import (
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"btctui/pkg/jsonv"
)

// Config holds the connection parameters for a daemon.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

// Caller is the calling surface the watcher and search resolver depend on.
// Tests substitute mocks for the real client.
type Caller interface {
	Call(method string, params ...jsonv.Value) (jsonv.Value, error)
}

// Client issues JSON-RPC 1.1 calls over raw HTTP/1.0. Each call is
// synchronous and owns its connection exclusively; the only shared state is
// the id counter, so a Client is safe for concurrent use.
type Client struct {
	cfg    Config
	nextID atomic.Int64
}

// New returns a client for the given daemon.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{cfg: cfg}
}

// WithTimeout returns a client sharing the same endpoint and credentials
// but a different per-call timeout. Lookups fetch more data per call than
// the metrics poller and get a looser bound.
func (c *Client) WithTimeout(d time.Duration) *Client {
	cfg := c.cfg
	cfg.Timeout = d
	return New(cfg)
}

// Call performs one JSON-RPC call and returns the decoded envelope. A
// non-null error field in the envelope becomes an *RPCError.
func (c *Client) Call(method string, params ...jsonv.Value) (jsonv.Value, error) {
	req := jsonv.Object{
		"jsonrpc": jsonv.String("1.1"),
		"id":      jsonv.Int(c.nextID.Add(1)),
		"method":  jsonv.String(method),
		"params":  jsonv.Array(params),
	}

	body, err := c.post(jsonv.Encode(req))
	if err != nil {
		return nil, err
	}

	envelope, err := jsonv.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("decoding RPC response: %w", err)
	}

	if rpcErr := jsonv.Get(envelope, "error"); !jsonv.IsNull(rpcErr) {
		return nil, &RPCError{Message: jsonv.StrOr(rpcErr, "message", "RPC error")}
	}
	return envelope, nil
}

// post sends the request body over a fresh connection and returns the HTTP
// response body. Status 500 is passed through: the daemon uses it to carry
// RPC-level errors with a JSON body.
func (c *Client) post(body string) (string, error) {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	conn, err := net.DialTimeout("tcp", addr, c.cfg.Timeout)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", addr, err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(c.cfg.Timeout)); err != nil {
		return "", err
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.cfg.User + ":" + c.cfg.Password))
	var req strings.Builder
	req.WriteString("POST / HTTP/1.0\r\n")
	req.WriteString("Host: " + c.cfg.Host + "\r\n")
	req.WriteString("Authorization: Basic " + auth + "\r\n")
	req.WriteString("Content-Type: application/json\r\n")
	req.WriteString("Content-Length: " + strconv.Itoa(len(body)) + "\r\n")
	req.WriteString("\r\n")
	req.WriteString(body)

	if _, err := io.WriteString(conn, req.String()); err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response from %s", addr)
	}

	status, respBody, err := splitResponse(string(raw))
	if err != nil {
		return "", err
	}

	switch {
	case status == 401:
		return "", &AuthError{Host: c.cfg.Host, Port: c.cfg.Port}
	case status == 200 || status == 500:
		return respBody, nil
	default:
		return "", &HTTPError{Status: status}
	}
}

// splitResponse parses the status line and separates headers from body.
func splitResponse(raw string) (status int, body string, err error) {
	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok {
		return 0, "", fmt.Errorf("missing HTTP header separator")
	}
	line, _, _ := strings.Cut(head, "\r\n")
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return 0, "", fmt.Errorf("malformed HTTP status line %q", line)
	}
	status, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, "", fmt.Errorf("malformed HTTP status %q", fields[1])
	}
	return status, body, nil
}
