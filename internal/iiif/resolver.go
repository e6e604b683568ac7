package iiif

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	antenatihttp "github.com/handiism/antenati-downloader/internal/http"
	"github.com/handiism/antenati-downloader/internal/iiif/dto"
	"github.com/handiism/antenati-downloader/internal/model"
	"go.uber.org/zap"
)

// manifestMarker identifies the gallery page line holding the manifest URL.
const manifestMarker = "manifestId"

var (
	// ErrManifestNotFound is returned when the gallery page has no manifest line.
	ErrManifestNotFound = errors.New("no IIIF manifest found")

	// ErrManifestURLUnparseable is returned when the manifest line holds no
	// single-quoted URL.
	ErrManifestURLUnparseable = errors.New("invalid IIIF manifest line")
)

var manifestURLPattern = regexp.MustCompile(`'([A-Za-z0-9.:/-]+)'`)

// Fetcher retrieves documents over HTTP. *antenatihttp.Client implements it.
type Fetcher interface {
	GetText(ctx context.Context, url string) (string, error)
}

var _ Fetcher = (*antenatihttp.Client)(nil)

// Resolver turns a gallery page address into a model.Gallery.
//
// Resolving performs exactly two reads: the gallery page and the manifest.
// Both must answer 2xx; otherwise the *antenatihttp.RemoteFetchError is returned.
type Resolver struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(fetcher Fetcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Resolve fetches the gallery page and its manifest and returns the catalog.
//
// This method performs the following steps:
//  1. Extracts the archive ID from the URL (no network I/O if that fails)
//  2. Fetches the gallery page and locates the manifest URL
//  3. Fetches the manifest and validates it against the expected schema
//  4. Converts it into a model.Gallery
func (r *Resolver) Resolve(ctx context.Context, galleryURL string) (*model.Gallery, error) {
	if _, err := model.ArchiveID(galleryURL); err != nil {
		return nil, err
	}

	page, err := r.fetcher.GetText(ctx, galleryURL)
	if err != nil {
		return nil, fmt.Errorf("could not fetch gallery page: %w", err)
	}

	manifestURL, err := FindManifestURL(page)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", galleryURL, err)
	}
	r.logger.Debug("found manifest", zap.String("gallery", galleryURL), zap.String("manifest", manifestURL))

	body, err := r.fetcher.GetText(ctx, manifestURL)
	if err != nil {
		return nil, fmt.Errorf("could not fetch manifest: %w", err)
	}

	manifest, err := ParseManifest(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestURL, err)
	}

	gallery, err := manifest.ToGallery(galleryURL)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved gallery",
		zap.String("archive_id", gallery.ArchiveID),
		zap.Int("pages", gallery.Len()),
		zap.Int("metadata", len(gallery.Metadata)),
	)
	return gallery, nil
}

// FindManifestURL extracts the manifest URL from a gallery page.
//
// The first line containing "manifestId" is used, and from it the first
// single-quoted token made of URL characters.
//
// Returns ErrManifestNotFound if no line mentions the manifest, and
// ErrManifestURLUnparseable if that line has no quoted URL.
func FindManifestURL(page string) (string, error) {
	for _, line := range strings.Split(page, "\n") {
		if !strings.Contains(line, manifestMarker) {
			continue
		}
		match := manifestURLPattern.FindStringSubmatch(line)
		if match == nil {
			return "", ErrManifestURLUnparseable
		}
		return match[1], nil
	}
	return "", ErrManifestNotFound
}

// ParseManifest decodes and validates a manifest document.
//
// Any shape problem is reported as *dto.SchemaError.
func ParseManifest(body string) (*dto.Manifest, error) {
	var manifest dto.Manifest
	if err := json.Unmarshal([]byte(body), &manifest); err != nil {
		return nil, &dto.SchemaError{Path: "$", Reason: err.Error()}
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}
