package media

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func testImage(w, h int) image.Image {
	return imaging.New(w, h, color.NRGBA{R: 200, G: 50, B: 50, A: 255})
}

func TestDecodeParams(t *testing.T) {
	p, err := DecodeParams(nil)
	if err != nil {
		t.Fatalf("nil input: %v", err)
	}
	if len(p) != 0 {
		t.Errorf("expected empty params for nil input")
	}

	p, err = DecodeParams([]byte(`{"sigma": 2.5, "width": 100}`))
	if err != nil {
		t.Fatalf("valid input: %v", err)
	}
	if got := p.Float("sigma", 0); got != 2.5 {
		t.Errorf("expected sigma 2.5, got %v", got)
	}
	if got := p.Int("width", 0); got != 100 {
		t.Errorf("expected width 100, got %v", got)
	}
	if got := p.Float("missing", 7); got != 7 {
		t.Errorf("expected default 7 for missing key, got %v", got)
	}

	if _, err := DecodeParams([]byte(`not json`)); err == nil {
		t.Errorf("expected error for invalid JSON")
	}
}

func TestApplyResize(t *testing.T) {
	out, err := Apply(testImage(40, 20), AlgResize, Params{"width": float64(20), "height": float64(10)})
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	bounds := out.Bounds()
	if bounds.Dx() != 20 || bounds.Dy() != 10 {
		t.Errorf("expected 20x10, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestApplyThumbnailFitsWithinMaxSize(t *testing.T) {
	out, err := Apply(testImage(400, 200), AlgThumbnail, Params{"max_size": float64(100)})
	if err != nil {
		t.Fatalf("thumbnail: %v", err)
	}
	bounds := out.Bounds()
	if bounds.Dx() > 100 || bounds.Dy() > 100 {
		t.Errorf("expected thumbnail within 100x100, got %dx%d", bounds.Dx(), bounds.Dy())
	}
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Errorf("expected aspect-preserving 100x50, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestApplyGrayscale(t *testing.T) {
	out, err := Apply(testImage(4, 4), AlgGrayscale, Params{})
	if err != nil {
		t.Fatalf("grayscale: %v", err)
	}
	r, g, b, _ := out.At(1, 1).RGBA()
	if r != g || g != b {
		t.Errorf("expected gray pixel, got r=%d g=%d b=%d", r, g, b)
	}
}

func TestApplyRejectsBadParameters(t *testing.T) {
	cases := []struct {
		algorithm string
		params    Params
	}{
		{AlgBlur, Params{"sigma": float64(-1)}},
		{AlgSharpen, Params{"sigma": float64(0)}},
		{AlgResize, Params{}},
		{AlgGamma, Params{"gamma": float64(0)}},
		{AlgThumbnail, Params{"max_size": float64(-5)}},
	}
	for _, tc := range cases {
		if _, err := Apply(testImage(4, 4), tc.algorithm, tc.params); err == nil {
			t.Errorf("%s: expected parameter error", tc.algorithm)
		}
	}
}

func TestApplyUnknownAlgorithm(t *testing.T) {
	_, err := Apply(testImage(4, 4), "definitely_not_real", Params{})
	if err == nil {
		t.Fatalf("expected error for unknown algorithm")
	}
	if !strings.Contains(err.Error(), "unknown algorithm") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsCVAlgorithm(t *testing.T) {
	if !IsCVAlgorithm(AlgEdgeDetect) || !IsCVAlgorithm(AlgThreshold) {
		t.Errorf("expected OpenCV algorithms to be recognized")
	}
	if IsCVAlgorithm(AlgGrayscale) {
		t.Errorf("grayscale is not an OpenCV algorithm")
	}
}
