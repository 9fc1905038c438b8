package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestDefaultPorts(t *testing.T) {
	assert.Equal(t, 8332, NetworkMain.DefaultPort())
	assert.Equal(t, 18332, NetworkTestnet.DefaultPort())
	assert.Equal(t, 38332, NetworkSignet.DefaultPort())
	assert.Equal(t, 18443, NetworkRegtest.DefaultPort())
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8332, cfg.Port)
	assert.Equal(t, NetworkMain, cfg.Network)
}

func TestReadCookie(t *testing.T) {
	user, pass, err := ReadCookie(strings.NewReader("__cookie__:0d21a1c3f"))
	require.NoError(t, err)
	assert.Equal(t, "__cookie__", user)
	assert.Equal(t, "0d21a1c3f", pass)
}

func TestReadCookieCRLF(t *testing.T) {
	user, pass, err := ReadCookie(strings.NewReader("__cookie__:secret\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "__cookie__", user)
	assert.Equal(t, "secret", pass)
}

func TestReadCookiePasswordWithColon(t *testing.T) {
	// Only the first ':' separates; the secret may contain more.
	_, pass, err := ReadCookie(strings.NewReader("u:a:b:c"))
	require.NoError(t, err)
	assert.Equal(t, "a:b:c", pass)
}

func TestReadCookieInvalid(t *testing.T) {
	_, _, err := ReadCookie(strings.NewReader(""))
	assert.Error(t, err)

	_, _, err = ReadCookie(strings.NewReader("no separator here"))
	assert.Error(t, err)
}

func TestCookiePathByNetwork(t *testing.T) {
	base := filepath.Join("/", "data")

	path, err := CookiePath(NetworkMain, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, ".cookie"), path)

	path, err = CookiePath(NetworkTestnet, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "testnet3", ".cookie"), path)

	path, err = CookiePath(NetworkSignet, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "signet", ".cookie"), path)

	path, err = CookiePath(NetworkRegtest, base)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "regtest", ".cookie"), path)
}

func TestApplyCookie(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".cookie")
	require.NoError(t, writeFile(path, "__cookie__:hunter2"))

	cfg := Default()
	require.NoError(t, ApplyCookie(&cfg, path))
	assert.Equal(t, "__cookie__", cfg.User)
	assert.Equal(t, "hunter2", cfg.Password)
}

func TestApplyCookieMissingFile(t *testing.T) {
	cfg := Default()
	err := ApplyCookie(&cfg, filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
	assert.Empty(t, cfg.User)
}
