package model

import (
	"fmt"

	ioutils "github.com/handiism/antenati-downloader/internal/io"
)

// Page represents a single image of a gallery.
//
// Example:
//
//	page := &Page{Label: "pag. 1", ImageURL: "https://iiif-antenati.san.beniculturali.it/iiif/2/abc/full/full/0/default.jpg"}
//	page.FileName(".jpg") // "pag-1.jpg"
type Page struct {
	// Index is the 1-based position of the page in its gallery.
	Index int

	// Label is the human-readable canvas label.
	Label string

	// ImageURL is the full-resolution image resource.
	ImageURL string
}

// FileName returns the local file name for the page: the slugified label
// followed by ext. Pages whose label slugifies to nothing are named after
// their index.
func (p *Page) FileName(ext string) string {
	name := ioutils.Slugify(p.Label)
	if name == "" {
		name = fmt.Sprintf("%04d", p.Index)
	}
	return name + ext
}

func (p *Page) String() string {
	return fmt.Sprintf("%d: %s", p.Index, p.Label)
}
