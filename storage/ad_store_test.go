package storage

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeAdFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ad_data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validAdJSON = `{
	"title": "Mountain bike",
	"description": "Hardly used",
	"postcode": "SW1A 1AA",
	"price": "250",
	"contact_name": "Sam",
	"phone_number": "07700900000",
	"category_url": "https://www.gumtree.com/post-ad/bikes",
	"additional_fields": {"brand": "Trek"},
	"dropdowns": {"condition": "Used"},
	"image_paths": ["bike.jpg"]
}`

func TestLoadValidFile(t *testing.T) {
	store := NewAdStore(writeAdFile(t, validAdJSON), discardLogger())

	ad, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, "Mountain bike", ad.Title)
	assert.Equal(t, "Hardly used", ad.Description)
	assert.Equal(t, "SW1A 1AA", ad.Postcode)
	assert.Equal(t, "250", ad.Price)
	assert.Equal(t, "https://www.gumtree.com/post-ad/bikes", ad.CategoryURL)
	assert.Equal(t, map[string]string{"brand": "Trek"}, ad.AdditionalFields)
	assert.Equal(t, map[string]string{"condition": "Used"}, ad.Dropdowns)
	assert.Equal(t, []string{"bike.jpg"}, ad.ImagePaths)
	assert.Empty(t, ad.MissingRequiredFields())
}

func TestLoadMalformedJSON(t *testing.T) {
	store := NewAdStore(writeAdFile(t, `{"title": "broken`), discardLogger())

	ad, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse ad data file")
	assert.Nil(t, ad)
}

func TestLoadMissingFile(t *testing.T) {
	store := NewAdStore(filepath.Join(t.TempDir(), "nope.json"), discardLogger())

	ad, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read ad data file")
	assert.Nil(t, ad)
}

func TestLoadMissingRequiredFieldsIsNotFatal(t *testing.T) {
	store := NewAdStore(writeAdFile(t, `{"title": "Mountain bike"}`), discardLogger())

	ad, err := store.Load()
	require.NoError(t, err, "missing required fields warn but never block a run")
	assert.Equal(t, []string{"description", "postcode"}, ad.MissingRequiredFields())
}

func TestCheckIsIdempotent(t *testing.T) {
	path := writeAdFile(t, validAdJSON)
	store := NewAdStore(path, discardLogger())

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.Check())
	require.NoError(t, store.Check())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "--check must never mutate the ad data file")
}

func TestCheckReportsMissingImages(t *testing.T) {
	// The listed image does not exist on disk; check still passes, since
	// zero valid images is not an error.
	store := NewAdStore(writeAdFile(t, validAdJSON), discardLogger())
	assert.NoError(t, store.Check())
}
