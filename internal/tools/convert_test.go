package tools

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

func conversionInput(t *testing.T, in, out, format string) string {
	t.Helper()
	data, err := json.Marshal(map[string]string{
		"input_folder":  in,
		"output_folder": out,
		"target_format": format,
	})
	require.NoError(t, err)
	return string(data)
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestConvertTool_ConvertsImagesOnly(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(in, 0755))
	writeJPEG(t, filepath.Join(in, "a.jpg"))
	require.NoError(t, os.WriteFile(filepath.Join(in, "b.txt"), []byte("not an image"), 0644))

	tool := NewConvertTool(zerolog.Nop())
	res := tool.Invoke(context.Background(), conversionInput(t, in, out, "png"))

	require.False(t, res.Failed(), res.String())
	assert.Contains(t, res.String(), "PNG")
	assert.Contains(t, res.String(), out)
	assert.Equal(t, []string{"a.png"}, listNames(t, out))

	f, err := os.Open(filepath.Join(out, "a.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestConvertTool_InvalidJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	tool := NewConvertTool(zerolog.Nop())

	res := tool.Invoke(context.Background(), "convert my screenshots please")

	require.True(t, res.Failed())
	assert.Equal(t, ErrInvalidInput, res.Err.Kind)
	assert.Contains(t, res.String(), "not a valid JSON")
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestConvertTool_MissingTargetFormat(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	tool := NewConvertTool(zerolog.Nop())

	res := tool.Invoke(context.Background(), `{"input_folder": "`+dir+`", "output_folder": "`+out+`"}`)

	require.True(t, res.Failed())
	assert.Equal(t, ErrMissingParameter, res.Err.Kind)
	assert.Equal(t, "Error: Missing one or more required parameters.", res.String())
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestConvertTool_UnwrapsDescriptionEnvelope(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(in, 0755))
	writeJPEG(t, filepath.Join(in, "shot.JPEG"))

	envelope, err := json.Marshal(map[string]string{"description": conversionInput(t, in, out, "bmp")})
	require.NoError(t, err)

	res := NewConvertTool(zerolog.Nop()).Invoke(context.Background(), string(envelope))

	require.False(t, res.Failed(), res.String())
	assert.Equal(t, []string{"shot.bmp"}, listNames(t, out))
}

func TestConvertTool_PerFileFailuresAreSkipped(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(in, 0755))
	writeJPEG(t, filepath.Join(in, "good.jpg"))
	require.NoError(t, os.WriteFile(filepath.Join(in, "broken.png"), []byte("garbage"), 0644))

	res := NewConvertTool(zerolog.Nop()).Invoke(context.Background(), conversionInput(t, in, out, "gif"))

	require.False(t, res.Failed())
	assert.Equal(t, "All images converted to GIF and saved in "+out, res.String())
	assert.Equal(t, []string{"good.gif"}, listNames(t, out))
}

func TestConvertTool_UnsupportedFormatStillConfirms(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(in, 0755))
	writeJPEG(t, filepath.Join(in, "a.jpg"))

	res := NewConvertTool(zerolog.Nop()).Invoke(context.Background(), conversionInput(t, in, out, "xyz"))

	require.False(t, res.Failed())
	assert.Contains(t, res.String(), "XYZ")
	assert.Empty(t, listNames(t, out))
}

func TestConvertTool_MissingInputFolder(t *testing.T) {
	dir := t.TempDir()
	res := NewConvertTool(zerolog.Nop()).Invoke(context.Background(),
		conversionInput(t, filepath.Join(dir, "nope"), filepath.Join(dir, "out"), "png"))

	require.True(t, res.Failed())
	assert.Equal(t, ErrIO, res.Err.Kind)
}

func TestHasImageExtension(t *testing.T) {
	assert.True(t, hasImageExtension("A.PNG"))
	assert.True(t, hasImageExtension("photo.jpeg"))
	assert.False(t, hasImageExtension("notes.txt"))
	assert.False(t, hasImageExtension("image.webp"))
}
