package media

import (
	"fmt"
	"image"
	_ "image/gif" // register decoders for DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// upload extensions accepted as project images
var rasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// IsRasterImage reports whether the filename carries one of the accepted
// raster image extensions
func IsRasterImage(filename string) bool {
	return rasterExtensions[strings.ToLower(filepath.Ext(filename))]
}

// helper to safely get a string tag (like Make, Model)
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil {
		return nil
	}
	val = strings.TrimSpace(strings.Trim(val, "\x00"))
	if val == "" {
		return nil
	}
	return &val
}

// ExtractMetadata reads image dimensions and the EXIF fields the image
// record stores. A missing or unparsable EXIF block is not an error; only
// a file that can't be opened or decoded at all is.
func ExtractMetadata(filePath string) (*Metadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for metadata extraction: %w", err)
	}
	defer file.Close()

	meta := &Metadata{}

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config for %s: %w", filePath, err)
	}
	meta.Width = &cfg.Width
	meta.Height = &cfg.Height

	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("failed to rewind file for EXIF decoding: %w", err)
	}

	exifData, err := exif.Decode(file)
	if err != nil {
		// no EXIF block (common for PNGs and processed outputs)
		return meta, nil
	}

	meta.CameraMake = getString(exifData, exif.Make)
	meta.CameraModel = getString(exifData, exif.Model)

	if takenTime, err := exifData.DateTime(); err == nil {
		unix := takenTime.Unix()
		meta.TakenAt = &unix
	}

	return meta, nil
}
