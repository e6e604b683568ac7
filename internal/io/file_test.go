package ioutils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"pag. 1", "pag-1"},
		{"Registro  Nati", "registro-nati"},
		{"Archivio di Stato di Lucca > Stato civile", "archivio-di-stato-di-lucca-stato-civile"},
		{"Città", "citta"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.input))
		})
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"image/jpeg", ".jpg", false},
		{"image/png", ".png", false},
		{"image/jpeg; charset=binary", ".jpg", false},
		{"application/x-antenati-unknown", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, err := ExtensionFor(tt.contentType)
			if tt.wantErr {
				var unknown *UnknownContentTypeError
				require.ErrorAs(t, err, &unknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()

	n, err := WriteAtomic(dir, "page.jpg", strings.NewReader("first version"))
	require.NoError(t, err)
	assert.EqualValues(t, len("first version"), n)

	n, err = WriteAtomic(dir, "page.jpg", strings.NewReader("second"))
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)

	data, err := os.ReadFile(filepath.Join(dir, "page.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data), "existing file is overwritten")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAtomic_FailedCopyLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("connection reset")

	_, err := WriteAtomic(dir, "page.jpg", iotest.ErrReader(boom))
	require.ErrorIs(t, err, boom)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrepareDir(t *testing.T) {
	root := t.TempDir()

	t.Run("creates missing directory", func(t *testing.T) {
		path := filepath.Join(root, "new")
		require.NoError(t, PrepareDir(path, func(string) bool {
			t.Fatal("confirm must not be called for a new directory")
			return false
		}))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("existing directory confirmed", func(t *testing.T) {
		asked := false
		require.NoError(t, PrepareDir(root, func(string) bool {
			asked = true
			return true
		}))
		assert.True(t, asked)
	})

	t.Run("existing directory declined", func(t *testing.T) {
		err := PrepareDir(root, func(string) bool { return false })
		assert.ErrorIs(t, err, ErrDirDeclined)
	})

	t.Run("file in the way", func(t *testing.T) {
		path := filepath.Join(root, "file")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		assert.Error(t, PrepareDir(path, nil))
	})
}

func TestIsPartial(t *testing.T) {
	assert.True(t, IsPartial(".page.jpg.12345.part"))
	assert.False(t, IsPartial("page.jpg"))
}
