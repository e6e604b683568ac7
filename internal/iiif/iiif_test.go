package iiif

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	antenatihttp "github.com/handiism/antenati-downloader/internal/http"
	"github.com/handiism/antenati-downloader/internal/iiif/dto"
	"github.com/handiism/antenati-downloader/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testManifest = `{
	"@id": "https://example.com/manifest",
	"label": "Registro",
	"metadata": [
		{"label": "Contesto archivistico", "value": "Archivio di Stato di Lucca"},
		{"label": "Titolo", "value": "1866"},
		{"label": "Tipologia", "value": [{"@value": "Nati", "@language": "it"}]}
	],
	"sequences": [{
		"canvases": [
			{"label": "pag. 1", "images": [{"resource": {"@id": "https://img.example.com/1.jpg"}}]},
			{"label": "pag. 2", "images": [{"resource": {"@id": "https://img.example.com/2.jpg"}}]}
		]
	}]
}`

func TestFindManifestURL(t *testing.T) {
	tests := []struct {
		name    string
		page    string
		want    string
		wantErr error
	}{
		{
			name: "inline script",
			page: "<html>\n<script>\n  manifestId: 'https://dam-antenati.cultura.gov.it/antenati/containers/abc/manifest',\n</script>",
			want: "https://dam-antenati.cultura.gov.it/antenati/containers/abc/manifest",
		},
		{
			name: "first matching line wins",
			page: "var manifestId = 'https://a.example.com/1';\nvar manifestId = 'https://b.example.com/2';",
			want: "https://a.example.com/1",
		},
		{
			name:    "no marker",
			page:    "<html><body>Nothing here</body></html>",
			wantErr: ErrManifestNotFound,
		},
		{
			name:    "marker without quoted url",
			page:    "manifestId: undefined,",
			wantErr: ErrManifestURLUnparseable,
		},
		{
			name:    "empty quotes",
			page:    "manifestId: '',",
			wantErr: ErrManifestURLUnparseable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindManifestURL(tt.page)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest(testManifest)
	require.NoError(t, err)

	g, err := m.ToGallery("https://antenati.cultura.gov.it/ark:/12657/an_ua18772719/")
	require.NoError(t, err)
	require.Equal(t, 2, g.Len())
	assert.Equal(t, "pag. 2", g.Page(2).Label)
	assert.Equal(t, "https://img.example.com/2.jpg", g.Page(2).ImageURL)

	typology, err := g.MetadataValue(model.LabelTypology)
	require.NoError(t, err)
	assert.Equal(t, "Nati", typology)
}

func TestParseManifest_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
	}{
		{"not json", `<html>`, "$"},
		{"no sequences", `{"metadata": []}`, "sequences"},
		{"no canvases", `{"sequences": [{}]}`, "sequences[0].canvases"},
		{"canvases wrong type", `{"sequences": [{"canvases": {}}]}`, "$"},
		{"canvas without label", `{"sequences": [{"canvases": [{"images": [{"resource": {"@id": "x"}}]}]}]}`, "sequences[0].canvases[0].label"},
		{"canvas without images", `{"sequences": [{"canvases": [{"label": "a", "images": []}]}]}`, "sequences[0].canvases[0].images"},
		{"image without resource", `{"sequences": [{"canvases": [{"label": "a", "images": [{}]}]}]}`, "sequences[0].canvases[0].images[0].resource"},
		{"metadata without value", `{"metadata": [{"label": "Titolo"}], "sequences": [{"canvases": []}]}`, "metadata[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest(tt.body)
			var schemaErr *dto.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, tt.path, schemaErr.Path)
		})
	}
}

func newGalleryServer(t *testing.T, page string, manifestStatus int) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ark:/12657/an_ua18772719/":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(strings.ReplaceAll(page, "{{server}}", srv.URL)))
		case "/manifest":
			if manifestStatus != http.StatusOK {
				w.WriteHeader(manifestStatus)
				return
			}
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.Write([]byte(testManifest))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolver_Resolve(t *testing.T) {
	srv := newGalleryServer(t, "<script>\nmanifestId: '{{server}}/manifest',\n</script>", http.StatusOK)
	resolver := NewResolver(antenatihttp.NewClient(antenatihttp.Config{}), zaptest.NewLogger(t))

	g, err := resolver.Resolve(context.Background(), srv.URL+"/ark:/12657/an_ua18772719/")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len())

	dir, err := g.DirName()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dir, "archivio-di-stato-di-lucca-1866-nati-"))
}

func TestResolver_ManifestNotFound(t *testing.T) {
	srv := newGalleryServer(t, "<html>no manifest</html>", http.StatusOK)
	resolver := NewResolver(antenatihttp.NewClient(antenatihttp.Config{}), nil)

	_, err := resolver.Resolve(context.Background(), srv.URL+"/ark:/12657/an_ua18772719/")
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestResolver_ManifestFetchError(t *testing.T) {
	srv := newGalleryServer(t, "manifestId: '{{server}}/manifest'", http.StatusInternalServerError)
	resolver := NewResolver(antenatihttp.NewClient(antenatihttp.Config{}), nil)

	_, err := resolver.Resolve(context.Background(), srv.URL+"/ark:/12657/an_ua18772719/")
	var fetchErr *antenatihttp.RemoteFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
}

type countingFetcher struct{ calls int }

func (f *countingFetcher) GetText(context.Context, string) (string, error) {
	f.calls++
	return "", errors.New("unexpected fetch")
}

func TestResolver_NoArchiveIDSkipsNetwork(t *testing.T) {
	fetcher := &countingFetcher{}
	resolver := NewResolver(fetcher, nil)

	_, err := resolver.Resolve(context.Background(), "https://example.com/gallery/")
	assert.ErrorIs(t, err, model.ErrArchiveIDNotFound)
	assert.Zero(t, fetcher.calls)
}
