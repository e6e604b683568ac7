package plan

import (
	"fmt"

	"github.com/handiism/antenati-downloader/internal/model"
)

// SelectionIndexOutOfRangeError is returned when a selected index is not a
// page of the gallery.
type SelectionIndexOutOfRangeError struct {
	Index  int
	Length int
}

func (e *SelectionIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d out of range: gallery has %d pages", e.Index, e.Length)
}

// Build returns the pages to download.
//
// With an empty selection every page is returned in gallery order. Otherwise
// the selected pages are returned in ascending index order, after checking
// every index is within 1..gallery.Len().
func Build(gallery *model.Gallery, sel Selection) ([]*model.Page, error) {
	if sel.IsAll() {
		pages := make([]*model.Page, len(gallery.Pages))
		copy(pages, gallery.Pages)
		return pages, nil
	}

	if i, outside := sel.firstOutside(gallery.Len()); outside {
		return nil, &SelectionIndexOutOfRangeError{Index: i, Length: gallery.Len()}
	}

	indices := sel.Indices()

	pages := make([]*model.Page, 0, len(indices))
	for _, i := range indices {
		pages = append(pages, gallery.Page(i))
	}
	return pages, nil
}
