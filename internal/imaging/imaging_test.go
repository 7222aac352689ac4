package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

// gradient builds a test image with enough detail that JPEG sizes respond
// to quality changes.
func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 7 % 256),
				G: uint8(y * 13 % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestFitExactDimensions(t *testing.T) {
	tests := []struct {
		srcW, srcH int
		dstW, dstH int
	}{
		{1200, 1600, 600, 800}, // same aspect, downscale
		{4000, 3000, 600, 800}, // landscape into portrait frame
		{100, 100, 800, 800},   // upscale
		{640, 480, 1260, 840},  // wide frame
	}

	for _, tt := range tests {
		out := Fit(gradient(tt.srcW, tt.srcH), tt.dstW, tt.dstH)
		b := out.Bounds()
		if b.Dx() != tt.dstW || b.Dy() != tt.dstH {
			t.Errorf("Fit(%dx%d -> %dx%d) produced %dx%d",
				tt.srcW, tt.srcH, tt.dstW, tt.dstH, b.Dx(), b.Dy())
		}
	}
}

func TestEncodeJPEGUnderCap(t *testing.T) {
	img := gradient(600, 800)

	data, err := EncodeJPEG(img, 105*1024)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}
	if len(data) > 105*1024 {
		t.Errorf("encoded size %d exceeds cap", len(data))
	}

	// Round-trips as a valid JPEG with the original dimensions.
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 600 || b.Dy() != 800 {
		t.Errorf("decoded dimensions = %dx%d, want 600x800", b.Dx(), b.Dy())
	}
}

func TestEncodeJPEGImpossibleCap(t *testing.T) {
	if _, err := EncodeJPEG(gradient(600, 800), 64); err == nil {
		t.Error("EncodeJPEG() with 64-byte cap succeeded, want error")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare(gradient(3000, 2000), 800, 800, 105*1024)
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 800 || b.Dy() != 800 {
		t.Errorf("prepared dimensions = %dx%d, want 800x800", b.Dx(), b.Dy())
	}
	if len(data) > 105*1024 {
		t.Errorf("prepared size %d exceeds cap", len(data))
	}
}
