// Package http provides the HTTP plumbing used to talk to Portale Antenati.
//
// The package handles:
//   - The browser-like header set the SAN servers require (Referer in particular)
//   - TLS with certificate verification against the system trust store
//   - Charset-aware decoding of HTML pages
//   - A bounded connection pool shared by all image downloads
//
// # Basic Usage
//
//	client := http.NewClient(http.Config{Headers: http.HeaderSet(http.DefaultHeaderConfig())})
//
//	// Fetch a gallery page, decoded with the charset from its Content-Type
//	page, err := client.GetText(ctx, galleryURL)
//
// # Connection Pool
//
// ConnPool bounds the number of simultaneous image requests. Opening a
// response blocks until a slot is free and the slot is returned when the
// response body is closed:
//
//	pool := http.NewConnPool(cfg, 4)
//	resp, err := pool.Open(ctx, imageURL)
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//
// Non-2xx responses are reported as *RemoteFetchError.
package http
