package media

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Algorithm labels accepted by Apply and the OpenCV dispatcher. These are
// the values recorded in the operation audit log.
const (
	AlgGrayscale  = "grayscale"
	AlgInvert     = "invert"
	AlgBlur       = "blur"
	AlgSharpen    = "sharpen"
	AlgResize     = "resize"
	AlgRotate     = "rotate"
	AlgFlipH      = "flip_horizontal"
	AlgFlipV      = "flip_vertical"
	AlgBrightness = "adjust_brightness"
	AlgContrast   = "adjust_contrast"
	AlgGamma      = "adjust_gamma"
	AlgThumbnail  = "thumbnail"

	// OpenCV-backed, see cv_algorithms.go
	AlgEdgeDetect = "edge_detect"
	AlgThreshold  = "threshold"
)

const defaultThumbnailSize = 300

// Params is the decoded form of an operation's parameters document.
type Params map[string]interface{}

// DecodeParams parses a raw JSON parameters document. Nil or empty input
// yields an empty map.
func DecodeParams(raw []byte) (Params, error) {
	if len(raw) == 0 {
		return Params{}, nil
	}
	var p Params
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters document: %w", err)
	}
	if p == nil {
		p = Params{}
	}
	return p, nil
}

// Float reads a numeric parameter, falling back to def when absent or of
// the wrong type. JSON numbers decode as float64.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

// Int reads an integer parameter, falling back to def
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

// IsCVAlgorithm reports whether the algorithm is dispatched to OpenCV
// instead of the in-process imaging registry
func IsCVAlgorithm(algorithm string) bool {
	return algorithm == AlgEdgeDetect || algorithm == AlgThreshold
}

// Apply runs a pure-Go image algorithm and returns the transformed image.
// Unknown labels are an error so that failed lookups end up recorded as
// failed operations rather than silently doing nothing.
func Apply(img image.Image, algorithm string, params Params) (image.Image, error) {
	switch algorithm {
	case AlgGrayscale:
		return imaging.Grayscale(img), nil
	case AlgInvert:
		return imaging.Invert(img), nil
	case AlgBlur:
		sigma := params.Float("sigma", 3.0)
		if sigma <= 0 {
			return nil, fmt.Errorf("blur: sigma must be positive, got %v", sigma)
		}
		return imaging.Blur(img, sigma), nil
	case AlgSharpen:
		sigma := params.Float("sigma", 1.0)
		if sigma <= 0 {
			return nil, fmt.Errorf("sharpen: sigma must be positive, got %v", sigma)
		}
		return imaging.Sharpen(img, sigma), nil
	case AlgResize:
		width := params.Int("width", 0)
		height := params.Int("height", 0)
		if width <= 0 && height <= 0 {
			return nil, fmt.Errorf("resize: width or height required")
		}
		// a zero dimension preserves aspect ratio
		return imaging.Resize(img, width, height, imaging.Lanczos), nil
	case AlgRotate:
		angle := params.Float("angle", 90)
		return imaging.Rotate(img, angle, color.Black), nil
	case AlgFlipH:
		return imaging.FlipH(img), nil
	case AlgFlipV:
		return imaging.FlipV(img), nil
	case AlgBrightness:
		percent := params.Float("percent", 10)
		return imaging.AdjustBrightness(img, percent), nil
	case AlgContrast:
		percent := params.Float("percent", 10)
		return imaging.AdjustContrast(img, percent), nil
	case AlgGamma:
		gamma := params.Float("gamma", 1.0)
		if gamma <= 0 {
			return nil, fmt.Errorf("adjust_gamma: gamma must be positive, got %v", gamma)
		}
		return imaging.AdjustGamma(img, gamma), nil
	case AlgThumbnail:
		maxSize := params.Int("max_size", defaultThumbnailSize)
		if maxSize <= 0 {
			return nil, fmt.Errorf("thumbnail: max_size must be positive, got %d", maxSize)
		}
		return imaging.Fit(img, maxSize, maxSize, imaging.Lanczos), nil
	default:
		return nil, fmt.Errorf("unknown algorithm %q", algorithm)
	}
}
