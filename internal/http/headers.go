package http

import (
	"fmt"
	"math/rand/v2"
	"net/http"
)

// HeaderConfig holds the values of the spoofed browser headers.
type HeaderConfig struct {
	Referer string
	Origin  string
}

// DefaultHeaderConfig returns the headers accepted by the Portale Antenati servers.
func DefaultHeaderConfig() HeaderConfig {
	return HeaderConfig{
		Referer: "https://www.antenati.san.beniculturali.it/",
		Origin:  "https://www.antenati.san.beniculturali.it",
	}
}

// HeaderSet builds the request headers sent with every request.
//
// The image server answers 403 without a Referer. User-Agent and Origin are
// not required today but are kept in case new filters are added. Keep-alive
// and compression are left to the transport, which negotiates gzip itself
// and decompresses transparently.
func HeaderSet(cfg HeaderConfig) http.Header {
	ver := fmt.Sprintf("%d.0", 80+rand.IntN(18))

	h := make(http.Header)
	h.Set("User-Agent", fmt.Sprintf("Mozilla/5.0 (Mobile; rv:%s) Gecko/%s Firefox/%s", ver, ver, ver))
	if cfg.Referer != "" {
		h.Set("Referer", cfg.Referer)
	}
	if cfg.Origin != "" {
		h.Set("Origin", cfg.Origin)
	}
	return h
}
