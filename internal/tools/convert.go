package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// sourceExtensions are matched against the lowercased file name suffix.
var sourceExtensions = []string{"png", "jpg", "jpeg", "bmp", "gif"}

type imageEncoder func(w io.Writer, m image.Image) error

func encodeJPEG(w io.Writer, m image.Image) error {
	return jpeg.Encode(w, m, &jpeg.Options{Quality: 75})
}

var imageEncoders = map[string]imageEncoder{
	"png":  png.Encode,
	"jpeg": encodeJPEG,
	"jpg":  encodeJPEG,
	"gif": func(w io.Writer, m image.Image) error {
		return gif.Encode(w, m, nil)
	},
	"bmp": bmp.Encode,
	"tiff": func(w io.Writer, m image.Image) error {
		return tiff.Encode(w, m, nil)
	},
	"tif": func(w io.Writer, m image.Image) error {
		return tiff.Encode(w, m, nil)
	},
}

const (
	msgInvalidJSON    = "Description is not a valid JSON string with conversion parameters."
	msgMissingParams  = "Missing one or more required parameters."
	conversionToolKey = "convert_images"
)

// ConvertTool converts every image in a folder to a target format.
type ConvertTool struct {
	Logger zerolog.Logger
}

func NewConvertTool(logger zerolog.Logger) *ConvertTool {
	return &ConvertTool{Logger: logger.With().Str("tool", conversionToolKey).Logger()}
}

func (c *ConvertTool) Name() string {
	return conversionToolKey
}

func (c *ConvertTool) Description() string {
	return "Tool for converting image formats. Converts every png, jpg, jpeg, bmp and gif image in input_folder to target_format and writes the results into output_folder."
}

func (c *ConvertTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"input_folder": map[string]any{
				"type":        "string",
				"description": "Folder containing the source images",
			},
			"output_folder": map[string]any{
				"type":        "string",
				"description": "Folder the converted images are written to; created if missing",
			},
			"target_format": map[string]any{
				"type":        "string",
				"description": "Target image format, e.g. png, jpg, gif, bmp, tiff",
			},
		},
		"required": []string{"input_folder", "output_folder", "target_format"},
	}
}

type conversionParams struct {
	InputFolder  string `json:"input_folder"`
	OutputFolder string `json:"output_folder"`
	TargetFormat string `json:"target_format"`
}

// parseConversionParams accepts the parameter object directly or wrapped as
// {"description": "<json>"}.
func parseConversionParams(input string) (conversionParams, bool) {
	var p conversionParams

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		return p, false
	}
	if envelope, ok := raw["description"]; ok && len(raw) == 1 {
		var inner string
		if err := json.Unmarshal(envelope, &inner); err == nil {
			return parseConversionParams(inner)
		}
	}

	if err := json.Unmarshal([]byte(input), &p); err != nil {
		return p, false
	}
	return p, true
}

func (c *ConvertTool) Invoke(ctx context.Context, input string) Result {
	params, ok := parseConversionParams(input)
	if !ok {
		return Fail(ErrInvalidInput, msgInvalidJSON)
	}
	if params.InputFolder == "" || params.OutputFolder == "" || params.TargetFormat == "" {
		return Fail(ErrMissingParameter, msgMissingParams)
	}

	if err := os.MkdirAll(params.OutputFolder, 0755); err != nil {
		return Fail(ErrIO, fmt.Sprintf("failed to create output folder %s: %v", params.OutputFolder, err))
	}

	entries, err := os.ReadDir(params.InputFolder)
	if err != nil {
		return Fail(ErrIO, fmt.Sprintf("failed to read input folder %s: %v", params.InputFolder, err))
	}

	converted := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return Fail(ErrIO, fmt.Sprintf("conversion interrupted: %v", ctx.Err()))
		}
		filename := entry.Name()
		if !hasImageExtension(filename) {
			continue
		}
		inPath := filepath.Join(params.InputFolder, filename)
		base := strings.TrimSuffix(filename, filepath.Ext(filename))
		outPath := filepath.Join(params.OutputFolder, base+"."+params.TargetFormat)

		if err := convertImage(inPath, outPath, params.TargetFormat); err != nil {
			c.Logger.Warn().Err(err).Str("file", filename).Msg("Error converting image")
			continue
		}
		converted++
	}

	c.Logger.Info().
		Int("converted", converted).
		Str("format", params.TargetFormat).
		Str("output_folder", params.OutputFolder).
		Msg("Image batch converted")

	return Ok(fmt.Sprintf("All images converted to %s and saved in %s", strings.ToUpper(params.TargetFormat), params.OutputFolder))
}

func hasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func convertImage(inPath, outPath, format string) error {
	encode, ok := imageEncoders[strings.ToLower(format)]
	if !ok {
		return errors.Errorf("unsupported target format %q", format)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return errors.Wrap(err, "decode source")
	}

	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "create target")
	}
	if err := encode(out, flattenRGB(img)); err != nil {
		out.Close()
		_ = os.Remove(outPath)
		return errors.Wrapf(err, "encode %s", format)
	}
	return errors.Wrap(out.Close(), "close target")
}

// flattenRGB drops the alpha channel, leaving an opaque RGB image.
func flattenRGB(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return dst
}
