package media

import (
	"fmt"
	"image"
	"io"
	"log"

	"github.com/disintegration/imaging"
)

const (
	ResultJpegQuality   = 90
	ResultFileExtension = ".jpg"
)

// Processor persists algorithm outputs. it relies on a Store implementation
// for saving the results.
type Processor struct {
	store Store
}

func NewProcessor(store Store) *Processor {
	return &Processor{store: store}
}

// Open loads a stored asset as an image for processing
func (p *Processor) Open(relativePath string) (image.Image, error) {
	fullPath, err := p.store.GetFullPath(relativePath)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", relativePath, err)
	}
	return img, nil
}

// FullPath resolves a stored asset to its absolute path, for algorithms
// that read the file directly
func (p *Processor) FullPath(relativePath string) (string, error) {
	return p.store.GetFullPath(relativePath)
}

// SaveResult encodes an algorithm output as JPEG and stores it under the
// result asset type with a generated filename. Returns the relative path
// of the stored output.
func (p *Processor) SaveResult(img image.Image) (string, error) {
	reader, writer := io.Pipe()

	go func() {
		err := imaging.Encode(writer, img, imaging.JPEG, imaging.JPEGQuality(ResultJpegQuality))
		if err != nil {
			log.Printf("processor: Failed to encode result: %v", err)
			writer.CloseWithError(fmt.Errorf("result encoding failed: %w", err))
			return
		}
		writer.Close()
	}()

	relPath, err := p.store.Save(AssetTypeResult, "", ResultFileExtension, reader)
	if err != nil {
		reader.Close()
		return "", fmt.Errorf("failed to store result: %w", err)
	}
	return relPath, nil
}
