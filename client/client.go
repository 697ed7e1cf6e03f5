// Package client issues the outbound GET requests used by the resolver and
// classifies their failures.
//
// TLS certificate verification is skipped unless Config.VerifyTLS is set.
// This is a deliberate trust trade-off; deployments that need peer
// verification must opt in (see YTINFO_TLS_VERIFY in internal/config).
package client

import (
	"compress/gzip"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ytget/ytinfo/errs"
	"github.com/ytget/ytinfo/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second

	userAgentValue = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	acceptEncoding = "gzip, br"
)

// defaultTransport is a tuned HTTP transport reused across clients.
// Compression is negotiated by hand so br can be decoded too.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
	DisableCompression:    true,
	ReadBufferSize:        16 * 1024,
	WriteBufferSize:       16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Getter fetches a URL and returns the decoded body of a 200 response.
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Config holds optional client parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	ProxyURL  string
	// VerifyTLS enables peer certificate verification. Off by default.
	VerifyTLS bool
}

// Client wraps http.Client with default headers and response classification.
// It never retries; a 429 is reported as errs.ErrTooManyRequests so callers
// can throttle themselves.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
}

// New creates a new Client with a tuned Transport and the default timeout.
func New() *Client {
	return NewWith(Config{})
}

// NewWith creates a new client with provided config. Zero values use defaults.
func NewWith(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	tr := defaultTransport.Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS} //nolint:gosec // opt-in verification
	if cfg.ProxyURL != "" {
		if proxyFunc, err := proxyFromURLString(cfg.ProxyURL); err == nil {
			tr.Proxy = proxyFunc
		} else {
			logger.WithComponent(logger.ComponentClient).Warn("ignoring invalid proxy url", map[string]interface{}{
				"proxy": cfg.ProxyURL,
				"error": err.Error(),
			})
		}
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
		UserAgent: ua,
	}
}

// Get performs a single GET request. A 200 response yields the decoded body;
// any other status yields *errs.StatusError and network failures yield
// *errs.TransportError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	log := logger.WithComponent(logger.ComponentClient)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &errs.TransportError{URL: rawURL, Err: err}
	}

	ua := c.UserAgent
	if ua == "" {
		ua = userAgentValue
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout, Transport: defaultTransport}
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		log.Debug("request failed", map[string]interface{}{"url": rawURL, "error": err.Error()})
		return nil, &errs.TransportError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug("response", map[string]interface{}{
		"url":      rawURL,
		"status":   resp.StatusCode,
		"encoding": resp.Header.Get("Content-Encoding"),
		"elapsed":  time.Since(start).String(),
	})

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &errs.StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	reader, err := decodedBody(resp)
	if err != nil {
		return nil, &errs.TransportError{URL: rawURL, Err: err}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &errs.TransportError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}

// decodedBody wraps the response body according to its Content-Encoding.
func decodedBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gz, nil
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("proxy url must have scheme and host: %q", raw)
	}
	return http.ProxyURL(u), nil
}
