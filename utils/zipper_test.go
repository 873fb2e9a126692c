package utils

import (
	"archive/zip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArchive_DuplicateNames(t *testing.T) {
	dir := t.TempDir()

	entries := []ZipEntry{
		{Name: "IMG_0001.jpg", Reader: strings.NewReader("first")},
		{Name: "IMG_0001.jpg", Reader: strings.NewReader("second")},
		{Name: "IMG_0001.jpg", Reader: strings.NewReader("third")},
		{Name: "notes", Reader: strings.NewReader("no extension")},
		{Name: "notes", Reader: strings.NewReader("again")},
	}

	path, size, err := CreateArchive(dir, entries)
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
		assert.Equal(t, zip.Store, f.Method)
	}
	assert.ElementsMatch(t, []string{
		"IMG_0001.jpg", "IMG_0001_1.jpg", "IMG_0001_2.jpg",
		"notes", "notes_1",
	}, names)
}

func TestCreateArchive_SuffixedNameCollision(t *testing.T) {
	dir := t.TempDir()

	// A literal a_1.jpg must not be shadowed by the dedupe suffix, in
	// either order.
	entries := []ZipEntry{
		{Name: "a.jpg", Reader: strings.NewReader("one")},
		{Name: "a.jpg", Reader: strings.NewReader("two")},
		{Name: "a_1.jpg", Reader: strings.NewReader("three")},
		{Name: "b_1.jpg", Reader: strings.NewReader("four")},
		{Name: "b.jpg", Reader: strings.NewReader("five")},
		{Name: "b.jpg", Reader: strings.NewReader("six")},
	}

	path, _, err := CreateArchive(dir, entries)
	require.NoError(t, err)

	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{
		"a.jpg", "a_1.jpg", "a_1_1.jpg",
		"b_1.jpg", "b.jpg", "b_2.jpg",
	}, names)
}

func TestCreateArchive_Empty(t *testing.T) {
	_, _, err := CreateArchive(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestSanitizeArchiveTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Summer Wedding 2024", "Summer Wedding 2024"},
		{"family/photos:final", "family_photos_final"},
		{"", "album"},
		{"///", "___"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeArchiveTitle(tt.in), "input: %q", tt.in)
	}
}
