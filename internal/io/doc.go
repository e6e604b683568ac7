// Package ioutils provides file system helpers for storing downloaded pages.
//
// This package contains functions for:
//   - Slugifying labels into file and directory names
//   - Mapping a response Content-Type to a file extension
//   - Writing a stream to a file without leaving partial files behind
//   - Preparing the output directory
//
// # File Naming
//
//	name := ioutils.Slugify("pag. 12")           // "pag-12"
//	ext, err := ioutils.ExtensionFor("image/jpeg") // ".jpg"
//
// # Writing
//
//	n, err := ioutils.WriteAtomic(dir, name+ext, resp.Body)
//
// The data is streamed into a temporary file in dir and renamed into place
// once complete. An existing file with the same name is replaced.
package ioutils
