// Package dto holds the typed IIIF manifest schema decoded from Portale
// Antenati. Validate is the single place where the shape of a manifest is
// checked; code past it can index the documented paths safely.
package dto

import (
	"fmt"

	"github.com/handiism/antenati-downloader/internal/model"
)

// SchemaError is returned when a manifest does not have the expected shape.
type SchemaError struct {
	// Path locates the offending element, e.g. "sequences[0].canvases[3].images".
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid manifest at %s: %s", e.Path, e.Reason)
}

// Manifest is the subset of a IIIF Presentation 2 manifest used here.
type Manifest struct {
	ID        string          `json:"@id"`
	Label     *Text           `json:"label"`
	Metadata  []MetadataEntry `json:"metadata"`
	Sequences []Sequence      `json:"sequences"`
}

// MetadataEntry is one label/value pair.
type MetadataEntry struct {
	Label *Text `json:"label"`
	Value *Text `json:"value"`
}

// Sequence holds the ordered canvases.
type Sequence struct {
	Canvases []Canvas `json:"canvases"`
}

// Canvas is one page of the gallery.
type Canvas struct {
	ID     string  `json:"@id"`
	Label  *Text   `json:"label"`
	Images []Image `json:"images"`
}

// Image annotates a canvas with its image resource.
type Image struct {
	Resource *Resource `json:"resource"`
}

// Resource is the full-resolution image.
type Resource struct {
	ID     string `json:"@id"`
	Format string `json:"format"`
}

// Validate checks that every path used by ToGallery is present.
//
// Required: a non-empty sequences array whose first element has a canvases
// array; every canvas has a label and images[0].resource.@id; every metadata
// entry has a label and a value.
func (m *Manifest) Validate() error {
	if len(m.Sequences) == 0 {
		return &SchemaError{Path: "sequences", Reason: "missing or empty"}
	}

	canvases := m.Sequences[0].Canvases
	if canvases == nil {
		return &SchemaError{Path: "sequences[0].canvases", Reason: "missing"}
	}

	for i, canvas := range canvases {
		path := fmt.Sprintf("sequences[0].canvases[%d]", i)
		if canvas.Label == nil {
			return &SchemaError{Path: path + ".label", Reason: "missing"}
		}
		if len(canvas.Images) == 0 {
			return &SchemaError{Path: path + ".images", Reason: "missing or empty"}
		}
		if canvas.Images[0].Resource == nil {
			return &SchemaError{Path: path + ".images[0].resource", Reason: "missing"}
		}
		if canvas.Images[0].Resource.ID == "" {
			return &SchemaError{Path: path + ".images[0].resource.@id", Reason: "missing"}
		}
	}

	for i, entry := range m.Metadata {
		if entry.Label == nil || entry.Value == nil {
			return &SchemaError{Path: fmt.Sprintf("metadata[%d]", i), Reason: "label or value missing"}
		}
	}

	return nil
}

// ToGallery converts a validated manifest into a model.Gallery.
func (m *Manifest) ToGallery(galleryURL string) (*model.Gallery, error) {
	canvases := m.Sequences[0].Canvases

	pages := make([]*model.Page, 0, len(canvases))
	for _, canvas := range canvases {
		pages = append(pages, &model.Page{
			Label:    canvas.Label.String(),
			ImageURL: canvas.Images[0].Resource.ID,
		})
	}

	metadata := make([]model.MetadataEntry, 0, len(m.Metadata))
	for _, entry := range m.Metadata {
		metadata = append(metadata, model.MetadataEntry{
			Label: entry.Label.String(),
			Value: entry.Value.String(),
		})
	}

	return model.NewGallery(galleryURL, pages, metadata)
}
