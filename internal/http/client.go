package http

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// RemoteFetchError is returned when a server answers with a non-2xx status.
type RemoteFetchError struct {
	URL        string
	StatusCode int
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("%s: HTTP error %d", e.URL, e.StatusCode)
}

// Config holds the client settings shared by page and image requests.
type Config struct {
	// Headers are added to every request.
	Headers http.Header

	// Timeout bounds a whole request including the body. Zero means no timeout.
	Timeout time.Duration

	// MaxConnsPerHost caps open connections per host. Zero means no cap.
	MaxConnsPerHost int
}

// Client wraps HTTP operations with Portale Antenati specific configuration.
//
// Example usage:
//
//	client := NewClient(Config{Headers: HeaderSet(DefaultHeaderConfig())})
//
//	// Fetch HTML content
//	html, err := client.GetText(ctx, "https://antenati.cultura.gov.it/ark:/12657/an_ua18772719/")
//
//	// Fetch JSON content
//	data, err := client.Get(ctx, manifestURL)
type Client struct {
	httpClient *http.Client
	headers    http.Header
}

// NewClient creates a new HTTP client.
//
// TLS certificates are always verified, against the system trust store.
func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(cfg.MaxConnsPerHost),
		},
		headers: cfg.Headers.Clone(),
	}
}

func newTransport(maxConns int) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if roots, err := x509.SystemCertPool(); err == nil {
		tlsCfg.RootCAs = roots
	}
	t.TLSClientConfig = tlsCfg

	if maxConns > 0 {
		t.MaxConnsPerHost = maxConns
		t.MaxIdleConnsPerHost = maxConns
	}
	return t
}

// Open performs a GET request and returns the response with an unread body.
//
// The caller must close the body. Returns *RemoteFetchError if the status
// is not 2xx; in that case the body is already closed.
func (c *Client) Open(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range c.headers {
		req.Header[key] = values
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &RemoteFetchError{URL: url, StatusCode: resp.StatusCode}
	}

	return resp, nil
}

// Get performs a GET request and returns the raw response body.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// GetText performs a GET request and returns the body decoded to UTF-8 using
// the charset advertised in the response Content-Type.
//
// Without a charset parameter the body is taken as UTF-8, the encoding of
// JSON documents and of the portal pages. The content is never sniffed.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	resp, err := c.Open(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	r, err := decodeBody(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%s: %w", url, err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// decodeBody wraps body in a decoder for the charset named by contentType.
func decodeBody(body io.Reader, contentType string) (io.Reader, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body, nil
	}
	label := params["charset"]
	if label == "" {
		return body, nil
	}

	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	if name == "utf-8" {
		return body, nil
	}
	return enc.NewDecoder().Reader(body), nil
}
