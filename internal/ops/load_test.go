package ops

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/errors"
)

func TestLoader_LoadLog_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irc.txt")
	writeFile(t, path, "09:00:01 <ivan> hello\n")

	l := NewLoader(config.DefaultConfig(), nil)
	got, err := l.LoadLog(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "09:00:01 <ivan> hello\n", got)
}

func TestLoader_LoadLog_Missing(t *testing.T) {
	l := NewLoader(config.DefaultConfig(), nil)

	_, err := l.LoadLog(context.Background(), "  ")
	assert.True(t, errors.Is(err, errors.ErrMissingInput), "empty source: got %v", err)

	_, err = l.LoadLog(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.True(t, errors.Is(err, errors.ErrFileNotFound), "missing file: got %v", err)

	empty := filepath.Join(t.TempDir(), "empty.txt")
	writeFile(t, empty, "\n\n")
	_, err = l.LoadLog(context.Background(), empty)
	assert.True(t, errors.Is(err, errors.ErrMissingInput), "empty log: got %v", err)
}

func TestLoader_LoadLog_Stdin(t *testing.T) {
	l := NewLoader(config.DefaultConfig(), nil)
	l.Stdin = strings.NewReader("<ivan> from stdin")

	got, err := l.LoadLog(context.Background(), StdinSource)
	require.NoError(t, err)
	assert.Equal(t, "<ivan> from stdin", got)

	l.Restricted = true
	_, err = l.LoadLog(context.Background(), StdinSource)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "restricted stdin: got %v", err)
}

func TestLoader_LoadLog_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2024/05/01-wpub-irc.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("09:00:01 <ivan> remote\n"))
	}))
	defer srv.Close()

	l := NewLoader(config.DefaultConfig(), nil)
	l.Client = srv.Client()

	got, err := l.LoadLog(context.Background(), srv.URL+"/2024/05/01-wpub-irc.txt")
	require.NoError(t, err)
	assert.Equal(t, "09:00:01 <ivan> remote\n", got)

	_, err = l.LoadLog(context.Background(), srv.URL+"/missing.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFetchFailed), "got %v", err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestLoader_Fetch_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	l := NewLoader(config.DefaultConfig(), nil)
	l.Client = srv.Client()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.LoadLog(ctx, srv.URL+"/irc.txt")
	assert.True(t, errors.Is(err, errors.ErrCancelled), "got %v", err)
}

func TestLoader_Restricted_ValidatesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irc.txt")
	writeFile(t, path, "<ivan> hi")

	l := NewLoader(config.DefaultConfig(), nil)
	l.Restricted = true

	_, err := l.LoadLog(context.Background(), path)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "outside allowed dirs: got %v", err)

	l.Config = &config.Config{AllowedPaths: []string{filepath.Dir(path)}}
	got, err := l.LoadLog(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "<ivan> hi", got)
}

func TestLoader_Restricted_RefusesInternalHosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("09:00:01 <ivan> internal\n"))
	}))
	defer srv.Close()

	l := NewLoader(config.DefaultConfig(), nil)
	l.Client = srv.Client()
	l.Restricted = true

	_, err := l.LoadLog(context.Background(), srv.URL+"/irc.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "loopback: got %v", err)

	_, err = l.LoadLog(context.Background(), "http://localhost:1/irc.txt")
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "localhost: got %v", err)

	l.Config = &config.Config{AllowedHosts: []string{"127.0.0.1"}}
	got, err := l.LoadLog(context.Background(), srv.URL+"/irc.txt")
	require.NoError(t, err)
	assert.Equal(t, "09:00:01 <ivan> internal\n", got)
}

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.215.14", true},
		{"2606:2800:21f:cb07:6820:80da:af6b:8b2c", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"192.168.0.10", false},
		{"172.16.5.5", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"0.0.0.0", false},
		{"::ffff:127.0.0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isPublicAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestLoader_LoadNicknames(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(config.DefaultConfig(), nil)

	table, err := l.LoadNicknames(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, table)

	good := filepath.Join(dir, "nicks.json")
	writeFile(t, good, `[{"name": "Ivan Herman", "nick": ["ivan", "IvanH"], "github": "iherman"}]`)
	table, err = l.LoadNicknames(context.Background(), good)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Ivan Herman", table[0].Name)
	assert.Equal(t, []string{"ivan", "ivanh"}, table[0].Nick)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "name: [unterminated")
	_, err = l.LoadNicknames(context.Background(), bad)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}
