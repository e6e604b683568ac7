package model

import (
	"errors"
	"fmt"
	"regexp"

	ioutils "github.com/handiism/antenati-downloader/internal/io"
)

// Metadata labels used to build the output directory name.
const (
	LabelArchivalContext = "Contesto archivistico"
	LabelTitle           = "Titolo"
	LabelTypology        = "Tipologia"
)

// ErrArchiveIDNotFound is returned when a gallery URL contains no digits.
var ErrArchiveIDNotFound = errors.New("cannot get archive ID from URL")

var archiveIDPattern = regexp.MustCompile(`\d+`)

// MetadataFieldMissingError is returned when a manifest has no metadata entry
// with the requested label.
type MetadataFieldMissingError struct {
	Label string
}

func (e *MetadataFieldMissingError) Error() string {
	return fmt.Sprintf("cannot get %s from manifest", e.Label)
}

// MetadataEntry is one label/value pair of the manifest metadata.
type MetadataEntry struct {
	Label string
	Value string
}

// Gallery represents a resolved gallery with its pages and metadata.
//
// A Gallery is immutable once returned by the resolver. Pages are stored in
// manifest order; Pages[i].Index is always i+1.
type Gallery struct {
	// URL is the gallery page address the catalog was resolved from.
	URL string

	// ArchiveID is the first run of digits found in URL.
	ArchiveID string

	// Pages holds one entry per canvas, in manifest order.
	Pages []*Page

	// Metadata holds the manifest metadata in document order.
	Metadata []MetadataEntry
}

// NewGallery creates a Gallery and assigns 1-based indices to its pages.
func NewGallery(url string, pages []*Page, metadata []MetadataEntry) (*Gallery, error) {
	archiveID, err := ArchiveID(url)
	if err != nil {
		return nil, err
	}

	for i, page := range pages {
		page.Index = i + 1
	}

	return &Gallery{
		URL:       url,
		ArchiveID: archiveID,
		Pages:     pages,
		Metadata:  metadata,
	}, nil
}

// Len returns the number of pages in the gallery.
func (g *Gallery) Len() int {
	return len(g.Pages)
}

// Page returns the page at the given 1-based index, or nil if out of range.
func (g *Gallery) Page(index int) *Page {
	if index < 1 || index > len(g.Pages) {
		return nil
	}
	return g.Pages[index-1]
}

// MetadataValue returns the value of the first metadata entry whose label
// matches exactly.
//
// Returns *MetadataFieldMissingError if no entry has that label.
func (g *Gallery) MetadataValue(label string) (string, error) {
	for _, entry := range g.Metadata {
		if entry.Label == label {
			return entry.Value, nil
		}
	}
	return "", &MetadataFieldMissingError{Label: label}
}

// DirName builds the output directory name from the archival context, title
// and typology metadata plus the archive ID, slugified.
//
// Example:
//
//	// "Archivio di Stato di Lucca > Stato civile", "1866", "Nati", "12345"
//	dir, _ := gallery.DirName() // "archivio-di-stato-di-lucca-stato-civile-1866-nati-12345"
func (g *Gallery) DirName() (string, error) {
	var parts []string
	for _, label := range []string{LabelArchivalContext, LabelTitle, LabelTypology} {
		value, err := g.MetadataValue(label)
		if err != nil {
			return "", err
		}
		parts = append(parts, value)
	}

	return ioutils.Slugify(fmt.Sprintf("%s-%s-%s-%s", parts[0], parts[1], parts[2], g.ArchiveID)), nil
}

// ArchiveID extracts the numeric archive identifier from a gallery URL: the
// first run of digits found anywhere in it.
func ArchiveID(url string) (string, error) {
	id := archiveIDPattern.FindString(url)
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrArchiveIDNotFound, url)
	}
	return id, nil
}
