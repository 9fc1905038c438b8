package rpc

import (
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btctui/pkg/jsonv"
)

// fixture is a one-connection-at-a-time HTTP/1.0 server that records the
// request and answers with a canned response.
type fixture struct {
	listener net.Listener
	response string
	requests chan string
}

func newFixture(t *testing.T, response string) *fixture {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fixture{listener: ln, response: response, requests: make(chan string, 8)}
	go f.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fixture) serve() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		go func(c net.Conn) {
			defer c.Close()
			buf := make([]byte, 64*1024)
			n, _ := c.Read(buf)
			f.requests <- string(buf[:n])
			_, _ = io.WriteString(c, f.response)
		}(conn)
	}
}

func (f *fixture) client() *Client {
	addr := f.listener.Addr().(*net.TCPAddr)
	return New(Config{
		Host:     "127.0.0.1",
		Port:     addr.Port,
		User:     "alice",
		Password: "secret",
		Timeout:  2 * time.Second,
	})
}

func httpResponse(status, statusText, body string) string {
	return fmt.Sprintf("HTTP/1.0 %s %s\r\nContent-Length: %d\r\n\r\n%s",
		status, statusText, len(body), body)
}

func TestCallSuccess(t *testing.T) {
	body := `{"result":{"blocks":850000},"error":null,"id":1}`
	f := newFixture(t, httpResponse("200", "OK", body))

	env, err := f.client().Call("getblockchaininfo")
	require.NoError(t, err)
	assert.Equal(t, int64(850000), jsonv.IntOr(jsonv.Get(env, "result"), "blocks", 0))
}

func TestCallSendsAuthAndEnvelope(t *testing.T) {
	f := newFixture(t, httpResponse("200", "OK", `{"result":null,"error":null,"id":1}`))

	_, err := f.client().Call("getblockhash", jsonv.Int(5))
	require.NoError(t, err)

	req := <-f.requests
	assert.True(t, strings.HasPrefix(req, "POST / HTTP/1.0\r\n"))
	// base64("alice:secret")
	assert.Contains(t, req, "Authorization: Basic YWxpY2U6c2VjcmV0\r\n")

	_, body, ok := strings.Cut(req, "\r\n\r\n")
	require.True(t, ok)
	env, err := jsonv.Parse(body)
	require.NoError(t, err)
	assert.Equal(t, "getblockhash", jsonv.StrOr(env, "method", ""))
	assert.Equal(t, "1.1", jsonv.StrOr(env, "jsonrpc", ""))
	assert.Equal(t, jsonv.Int(5), jsonv.At(jsonv.Get(env, "params"), 0))
}

func TestCallAuthError(t *testing.T) {
	f := newFixture(t, httpResponse("401", "Unauthorized", ""))

	_, err := f.client().Call("getblockchaininfo")
	require.Error(t, err)
	var authErr *AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestCallRPCErrorOn500(t *testing.T) {
	body := `{"result":null,"error":{"code":-5,"message":"Block not found"},"id":1}`
	f := newFixture(t, httpResponse("500", "Internal Server Error", body))

	_, err := f.client().Call("getblock", jsonv.String("deadbeef"))
	require.Error(t, err)
	var rpcErr *RPCError
	assert.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "Block not found", rpcErr.Message)
}

func TestCallHTTPError(t *testing.T) {
	f := newFixture(t, httpResponse("404", "Not Found", ""))

	_, err := f.client().Call("getblockchaininfo")
	require.Error(t, err)
	var httpErr *HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 404, httpErr.Status)
}

func TestCallConnectionRefused(t *testing.T) {
	c := New(Config{Host: "127.0.0.1", Port: 1, Timeout: time.Second})
	_, err := c.Call("getblockchaininfo")
	assert.Error(t, err)
}

func TestCallIDsIncrease(t *testing.T) {
	f := newFixture(t, httpResponse("200", "OK", `{"result":null,"error":null,"id":1}`))
	c := f.client()

	_, _ = c.Call("uptime")
	_, _ = c.Call("uptime")

	first := <-f.requests
	second := <-f.requests
	id := func(raw string) int64 {
		_, body, _ := strings.Cut(raw, "\r\n\r\n")
		env, _ := jsonv.Parse(body)
		return jsonv.IntOr(env, "id", -1)
	}
	assert.Equal(t, id(first)+1, id(second))
}

func TestSplitResponse(t *testing.T) {
	status, body, err := splitResponse("HTTP/1.0 200 OK\r\nX: y\r\n\r\n{}")
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, "{}", body)

	// No headers at all is still well formed.
	status, body, err = splitResponse("HTTP/1.0 401 Unauthorized\r\n\r\n")
	require.NoError(t, err)
	assert.Equal(t, 401, status)
	assert.Equal(t, "", body)

	_, _, err = splitResponse("garbage")
	assert.Error(t, err)
}
