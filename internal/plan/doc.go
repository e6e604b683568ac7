// Package plan builds the ordered list of pages to download.
//
// Selections use a compact range-list notation: a comma-separated list of
// positive page numbers or inclusive ranges.
//
//	sel, err := plan.ParseSelection("1,3-5,7") // pages 1, 3, 4, 5 and 7
//	pages, err := plan.Build(gallery, sel)
//
// An empty selection selects every page. Indices are validated against the
// gallery before anything is downloaded.
package plan
