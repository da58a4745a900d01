package media

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// OpenCV-backed algorithms. These read the source file themselves since
// gocv decodes directly into a Mat; callers pass the absolute path.

// EdgeDetect runs Canny edge detection and returns the edge map as a
// grayscale image
func EdgeDetect(filePath string, params Params) (image.Image, error) {
	low := params.Float("low_threshold", 50)
	high := params.Float("high_threshold", 150)
	if low <= 0 || high <= low {
		return nil, fmt.Errorf("edge_detect: need 0 < low_threshold < high_threshold, got %v/%v", low, high)
	}

	mat := gocv.IMRead(filePath, gocv.IMReadGrayScale)
	if mat.Empty() {
		return nil, fmt.Errorf("edge_detect: failed to read image %s", filePath)
	}
	defer mat.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(mat, &edges, float32(low), float32(high))

	img, err := edges.ToImage()
	if err != nil {
		return nil, fmt.Errorf("edge_detect: failed to convert result: %w", err)
	}
	return img, nil
}

// Threshold binarizes the image at the given cutoff (0-255)
func Threshold(filePath string, params Params) (image.Image, error) {
	cutoff := params.Float("cutoff", 128)
	if cutoff < 0 || cutoff > 255 {
		return nil, fmt.Errorf("threshold: cutoff must be within 0-255, got %v", cutoff)
	}

	mat := gocv.IMRead(filePath, gocv.IMReadGrayScale)
	if mat.Empty() {
		return nil, fmt.Errorf("threshold: failed to read image %s", filePath)
	}
	defer mat.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.Threshold(mat, &out, float32(cutoff), 255, gocv.ThresholdBinary)

	img, err := out.ToImage()
	if err != nil {
		return nil, fmt.Errorf("threshold: failed to convert result: %w", err)
	}
	return img, nil
}

// ApplyCV dispatches an OpenCV algorithm by label
func ApplyCV(filePath, algorithm string, params Params) (image.Image, error) {
	switch algorithm {
	case AlgEdgeDetect:
		return EdgeDetect(filePath, params)
	case AlgThreshold:
		return Threshold(filePath, params)
	default:
		return nil, fmt.Errorf("unknown OpenCV algorithm %q", algorithm)
	}
}
