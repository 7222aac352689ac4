// Package imaging prepares photos for an Instax frame: decode, scale and
// crop to the model's exact dimensions, and re-encode as JPEG under the
// printer's file size cap.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Load reads and decodes an image file. JPEG, PNG, GIF, BMP, and WebP are
// accepted.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", path, err)
	}
	return img, nil
}

// Fit scales img to cover width x height and crops the overflow centered,
// so the result has exactly the frame's dimensions.
func Fit(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	scaleW := float64(width) / float64(srcW)
	scaleH := float64(height) / float64(srcH)
	scale := scaleW
	if scaleH > scaleW {
		scale = scaleH
	}

	scaledW := int(float64(srcW)*scale + 0.5)
	scaledH := int(float64(srcH)*scale + 0.5)
	if scaledW < width {
		scaledW = width
	}
	if scaledH < height {
		scaledH = height
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Src, nil)

	offX := (scaledW - width) / 2
	offY := (scaledH - height) / 2
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), scaled, image.Pt(offX, offY), draw.Src)
	return dst
}

// EncodeJPEG encodes img as JPEG, stepping the quality down until the
// result fits maxBytes. The printer rejects oversized uploads outright, so
// a frame that cannot be brought under the cap is an error.
func EncodeJPEG(img image.Image, maxBytes int) ([]byte, error) {
	for quality := 95; quality >= 40; quality -= 5 {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("imaging: encode jpeg: %w", err)
		}
		if buf.Len() <= maxBytes {
			return buf.Bytes(), nil
		}
	}
	return nil, fmt.Errorf("imaging: image does not fit %d bytes at any quality", maxBytes)
}

// Prepare produces printer-ready JPEG bytes: exactly width x height and no
// larger than maxBytes.
func Prepare(img image.Image, width, height, maxBytes int) ([]byte, error) {
	return EncodeJPEG(Fit(img, width, height), maxBytes)
}
