package ioutils

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gosimple/slug"
)

// ErrDirDeclined is returned by PrepareDir when the user refuses to reuse an
// existing output directory.
var ErrDirDeclined = errors.New("output directory already exists")

// UnknownContentTypeError is returned when no file extension is known for a
// response Content-Type.
type UnknownContentTypeError struct {
	MIME string
}

func (e *UnknownContentTypeError) Error() string {
	return fmt.Sprintf("unable to guess extension %q", e.MIME)
}

// Slugify converts arbitrary text into a lowercase, hyphen-separated name that
// is safe to use as a file or directory name.
//
// Example:
//
//	Slugify("Archivio di Stato di Lucca > Stato civile") // "archivio-di-stato-di-lucca-stato-civile"
func Slugify(text string) string {
	return slug.Make(text)
}

// ExtensionFor returns the file extension, including the dot, for a
// Content-Type header value. Parameters such as charset are ignored.
//
// Returns *UnknownContentTypeError when the media type cannot be parsed or no
// extension is registered for it.
func ExtensionFor(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", &UnknownContentTypeError{MIME: contentType}
	}

	m := mimetype.Lookup(mediaType)
	if m == nil || m.Extension() == "" {
		return "", &UnknownContentTypeError{MIME: mediaType}
	}

	return m.Extension(), nil
}

// WriteAtomic streams r into dir/name and returns the number of bytes written.
//
// The content is first written to a temporary file in dir, which is renamed
// over dir/name only after the copy succeeds. On any error the temporary file
// is removed, so a failed or interrupted write never leaves a truncated file.
func WriteAtomic(dir, name string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}

	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}

	return n, nil
}

// PrepareDir makes sure path exists as a directory.
//
// A missing directory is created. An existing one is only reused when confirm
// returns true; a nil confirm accepts it without asking. Returns
// ErrDirDeclined if confirm refuses.
func PrepareDir(path string, confirm func(path string) bool) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s exists and is not a directory", path)
	case err == nil:
		if confirm != nil && !confirm(path) {
			return fmt.Errorf("%w: %s", ErrDirDeclined, path)
		}
		return nil
	case errors.Is(err, os.ErrNotExist):
		return EnsureDir(path)
	default:
		return err
	}
}

// EnsureDir creates a directory and all parent directories if they don't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// IsPartial reports whether name is a temporary file left by WriteAtomic.
func IsPartial(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, ".part")
}
