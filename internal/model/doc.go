// Package model defines the core data structures used throughout
// the antenati-downloader application.
//
// # Gallery
//
// Gallery is the resolved catalog of a Portale Antenati gallery: the ordered
// pages plus the manifest metadata.
//
//	gallery := model.NewGallery(url, pages, metadata)
//	title, err := gallery.Metadata("Titolo")
//	fmt.Println(gallery.DirName()) // output directory name
//
// # Page
//
// Page is one downloadable image. Its Index is the 1-based position in the
// gallery, which is also the number used in page selections:
//
//	page := gallery.Page(3)
//	fmt.Println(page.Label, page.ImageURL)
package model
