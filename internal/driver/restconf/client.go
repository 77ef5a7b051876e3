// Package restconf implements the switch driver over the Cisco IOS-XE
// RESTCONF API.
package restconf

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/HerbHall/switchconnector/internal/driver"
	"github.com/HerbHall/switchconnector/internal/vault"
	"github.com/HerbHall/switchconnector/internal/version"
	"github.com/HerbHall/switchconnector/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	mediaType = "application/yang-data+json"

	// DefaultTimeout bounds every RESTCONF request.
	DefaultTimeout = 5 * time.Second
	// DefaultPort is the HTTPS port switches expose RESTCONF on.
	DefaultPort = 443
)

// HTTPRequester is the minimum HTTP client contract used by the driver.
type HTTPRequester interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures RESTCONF drivers.
type Options struct {
	Port    int
	Timeout time.Duration
	// RateLimit caps requests per second to a single device. Zero disables it.
	RateLimit float64
	Burst     int
	// HTTPClient overrides the default client, which skips certificate
	// verification because switches present self-signed certificates.
	HTTPClient HTTPRequester
}

func (o Options) withDefaults() Options {
	if o.Port <= 0 {
		o.Port = DefaultPort
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
	return o
}

// Client is a RESTCONF driver bound to one device.
type Client struct {
	addr    string
	baseURL string
	creds   vault.Credentials
	timeout time.Duration
	http    HTTPRequester
	limiter *rate.Limiter
	logger  *zap.Logger
}

// Compile-time interface guard.
var _ driver.Driver = (*Client)(nil)

// New returns a driver for addr using creds.
func New(addr string, creds vault.Credentials, opts Options, logger *zap.Logger) *Client {
	opts = opts.withDefaults()

	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // switches use self-signed certificates
		httpClient = &http.Client{Timeout: opts.Timeout, Transport: transport}
	}

	c := &Client{
		addr:    addr,
		baseURL: "https://" + net.JoinHostPort(addr, strconv.Itoa(opts.Port)),
		creds:   creds,
		timeout: opts.Timeout,
		http:    httpClient,
		logger:  logger.With(zap.String("device", addr)),
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst)
	}
	return c
}

// Close drops idle connections to the device.
func (c *Client) Close() error {
	if hc, ok := c.http.(*http.Client); ok {
		hc.CloseIdleConnections()
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, path string, dst any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, dst)
}

func (c *Client) patch(ctx context.Context, op, path string, body any) error {
	return c.do(ctx, op, http.MethodPatch, path, body, nil)
}

// patchWithLegacy writes body to path and, when the device refuses it with
// an HTTP status, retries once against legacyPath. Older firmware models the
// switchport container without the switchport-config wrapper.
func (c *Client) patchWithLegacy(ctx context.Context, op, path, legacyPath string, body any) error {
	err := c.patch(ctx, op, path, body)
	if err == nil {
		return nil
	}
	if k, _ := driver.KindOf(err); k != driver.KindStatus {
		return err
	}
	c.logger.Info("retrying on legacy path", zap.String("op", op), zap.Error(err))
	if err := c.patch(ctx, op, legacyPath, body); err != nil {
		c.logger.Error("legacy path failed", zap.String("op", op), zap.Error(err))
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.fail(op, driver.KindTimeout, 0, fmt.Errorf("rate limiter: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return c.fail(op, driver.KindParse, 0, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return c.fail(op, driver.KindConnect, 0, err)
	}
	req.Header.Set("Accept", mediaType)
	req.Header.Set("User-Agent", version.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", mediaType)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)

	c.logger.Debug("restconf request", zap.String("method", method), zap.String("path", path))

	resp, err := c.http.Do(req)
	if err != nil {
		return c.fail(op, classifyRequestError(err), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		kind := driver.KindStatus
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = driver.KindAuth
		}
		return c.fail(op, kind, resp.StatusCode, errors.New(resp.Status))
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return c.fail(op, driver.KindParse, 0, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) fail(op string, kind driver.Kind, status int, err error) error {
	return &driver.TransportError{
		Protocol: models.ProtocolRESTCONF,
		Op:       op,
		Kind:     kind,
		Status:   status,
		Err:      err,
	}
}

func classifyRequestError(err error) driver.Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return driver.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return driver.KindTimeout
	}
	return driver.KindConnect
}

// isNotFound reports whether err is a 404 answer from the device.
func isNotFound(err error) bool {
	var te *driver.TransportError
	return errors.As(err, &te) && te.Kind == driver.KindStatus && te.Status == http.StatusNotFound
}
