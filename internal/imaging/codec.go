// Package imaging provides the image codec used by the upload pipeline.
// Compression is a pure transform with no bearing on sync correctness.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxDimension bounds the longest edge of a compressed image.
	MaxDimension = 2048
	// WebPQuality is the lossy encode quality.
	WebPQuality = 70
)

// Codec turns a raw image into its compact upload form.
type Codec interface {
	// Compress decodes raw, scales it down to fit MaxDimension and
	// re-encodes it. A nil, nil return means "nothing to upload" and the
	// pipeline skips blob storage for the post.
	Compress(raw []byte) ([]byte, error)
}

// WebP is the default codec: decode any registered format, resize to fit,
// encode lossy WebP.
type WebP struct{}

// NewWebP returns the default WebP codec.
func NewWebP() *WebP { return &WebP{} }

func (c *WebP) Compress(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	resized := resizeToFit(decoded, MaxDimension, MaxDimension)
	return encodeWebP(resized, WebPQuality)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
