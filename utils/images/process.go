package images

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// Scale resizes an image by a factor, preserving aspect ratio. A factor of 1
// (or anything non-positive) returns the image untouched.
func Scale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1.0 {
		return img
	}
	w := max(int(math.Round(float64(img.Bounds().Dx())*factor)), 1)
	return imaging.Resize(img, w, 0, imaging.Lanczos)
}

// EncodeJPEG encodes an image as JPEG. Grayscale sources are stored in a
// single channel, which print stock art often is and which cuts file size
// noticeably.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if IsGrayscale(img) {
		gray := image.NewGray(img.Bounds())
		draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
		img = gray
	}
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes an image as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads an image from raw bytes, whatever the registered format.
func Decode(data []byte) (image.Image, string, error) {
	return image.Decode(bytes.NewReader(data))
}
