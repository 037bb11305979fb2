package ops

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"slices"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/scribe/internal/config"
	"github.com/hpungsan/scribe/internal/errors"
	"github.com/hpungsan/scribe/internal/nick"
)

// MaxSourceBytes bounds the size of a log or nickname table.
const MaxSourceBytes = 16 << 20

// StdinSource reads the source from the loader's Stdin.
const StdinSource = "-"

// DefaultFetchTimeout applies when the Loader has no client of its own.
const DefaultFetchTimeout = 30 * time.Second

// Loader resolves log and nickname sources: a file path, "-" for stdin, or an
// http(s) URL.
type Loader struct {
	Client *http.Client
	Stdin  io.Reader
	Config *config.Config

	// Restricted applies ValidatePath to local files, refuses stdin and
	// refuses URLs that resolve to loopback, private or link-local addresses
	// unless the host is in Config.AllowedHosts.
	// Set for sources named by MCP or web callers.
	Restricted bool

	Logger *zap.Logger
}

// NewLoader creates a loader with a default HTTP client reading stdin from os.Stdin.
func NewLoader(cfg *config.Config, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		Client: &http.Client{Timeout: DefaultFetchTimeout},
		Stdin:  os.Stdin,
		Config: cfg,
		Logger: logger,
	}
}

// IsURL reports whether source is fetched over HTTP.
func IsURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Load returns the raw content of source.
func (l *Loader) Load(ctx context.Context, source string) ([]byte, error) {
	switch {
	case source == StdinSource:
		return l.readStdin()
	case IsURL(source):
		return l.fetch(ctx, source)
	default:
		return l.readFile(source)
	}
}

// LoadLog loads an IRC log. An empty source or an empty log is MISSING_INPUT.
func (l *Loader) LoadLog(ctx context.Context, source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", errors.NewMissingInput("IRC log")
	}
	data, err := l.Load(ctx, source)
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", errors.NewMissingInput("IRC log")
	}
	l.logger().Debug("log loaded", zap.String("source", source), zap.Int("bytes", len(data)))
	return string(data), nil
}

// LoadNicknames loads and parses a nickname table. An empty source yields a nil table.
func (l *Loader) LoadNicknames(ctx context.Context, source string) ([]nick.Identity, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil
	}
	data, err := l.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	table, err := nick.ParseTable(data)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid nickname table %s: %v", source, err))
	}
	l.logger().Debug("nicknames loaded", zap.String("source", source), zap.Int("identities", len(table)))
	return table, nil
}

func (l *Loader) readStdin() ([]byte, error) {
	if l.Restricted {
		return nil, errors.NewInvalidRequest("stdin is not available for this request")
	}
	if l.Stdin == nil {
		return nil, errors.NewMissingInput("IRC log")
	}
	return readLimited(l.Stdin, StdinSource)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	if l.Restricted {
		if err := ValidatePath(path, PathCheckRead, l.Config); err != nil {
			return nil, err
		}
	}

	file, err := openFileNoFollowRead(path)
	if err != nil {
		var sErr *errors.ScribeError
		if stderrors.As(err, &sErr) {
			return nil, sErr
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open %s: %w", path, err))
	}
	defer file.Close()

	return readLimited(file, path)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid URL: %v", err))
	}

	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	if l.Restricted && !l.hostAllowed(req.URL) {
		client = publicOnlyClient(client)
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("fetch")
		}
		if stderrors.Is(err, errBlockedAddress) {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("%s: %v", rawURL, errBlockedAddress))
		}
		return nil, errors.NewFetchFailed(rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewFetchFailed(rawURL, fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := readLimited(resp.Body, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled("fetch")
		}
		if errors.Is(err, errors.ErrInvalidRequest) {
			return nil, err
		}
		return nil, errors.NewFetchFailed(rawURL, err)
	}
	return data, nil
}

var errBlockedAddress = stderrors.New("host resolves to a non-public address")

func (l *Loader) hostAllowed(u *url.URL) bool {
	if l.Config == nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return slices.ContainsFunc(l.Config.AllowedHosts, func(h string) bool {
		return strings.ToLower(h) == host
	})
}

// publicOnlyClient copies base with a transport that refuses to connect to
// non-public addresses. The check runs on the dialed address, so redirects
// and DNS answers are covered as well.
func publicOnlyClient(base *http.Client) *http.Client {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(network, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return err
			}
			addr, err := netip.ParseAddr(host)
			if err != nil || !isPublicAddr(addr) {
				return errBlockedAddress
			}
			return nil
		},
	}
	guarded := *base
	guarded.Transport = &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &guarded
}

func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		!addr.IsLoopback() &&
		!addr.IsPrivate() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsInterfaceLocalMulticast() &&
		!addr.IsMulticast() &&
		!addr.IsUnspecified()
}

// readLimited reads r up to MaxSourceBytes.
func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSourceBytes+1))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read %s: %w", name, err))
	}
	if len(data) > MaxSourceBytes {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("%s exceeds %d bytes", name, MaxSourceBytes))
	}
	return data, nil
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
