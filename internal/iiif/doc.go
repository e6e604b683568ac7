// Package iiif resolves Portale Antenati gallery pages into gallery catalogs.
//
// A gallery page embeds the address of its IIIF manifest in a line of inline
// JavaScript:
//
//	manifestId: 'https://dam-antenati.cultura.gov.it/antenati/containers/abc/manifest',
//
// The Resolver fetches the page, finds that line, fetches the manifest and
// decodes it into a model.Gallery:
//
//	resolver := iiif.NewResolver(client, logger)
//	gallery, err := resolver.Resolve(ctx, "https://antenati.cultura.gov.it/ark:/12657/an_ua18772719/")
//	if errors.Is(err, iiif.ErrManifestNotFound) {
//	    // not a gallery page
//	}
//
// # Manifest Format
//
// Only the parts of the IIIF Presentation 2 manifest needed to download the
// images are decoded; see package dto for the schema and its validation.
package iiif
