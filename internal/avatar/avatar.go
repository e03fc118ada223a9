// Package avatar validates and normalizes uploaded profile images.
// Every stored avatar is a 200x200 PNG regardless of what was uploaded.
package avatar

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

const (
	// Side is the edge length of a stored avatar in pixels.
	Side = 200

	// DefaultMaxBytes caps uploads at 5MB.
	DefaultMaxBytes = 5 * 1024 * 1024
)

var (
	ErrTooLarge          = errors.New("avatar exceeds the maximum allowed size")
	ErrUnsupportedFormat = errors.New("avatar must be a JPEG or PNG image")
	ErrDecodeFailed      = errors.New("avatar image could not be decoded")
)

var allowedMIMETypes = []string{"image/jpeg", "image/png"}

// Processor resizes uploaded avatars to the canonical stored form.
type Processor struct {
	maxBytes int64
}

func NewProcessor(maxBytes int64) *Processor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Processor{maxBytes: maxBytes}
}

// Process validates the upload and returns the avatar scaled to Side x Side,
// re-encoded as PNG.
func (p *Processor) Process(data []byte) ([]byte, error) {
	if int64(len(data)) > p.maxBytes {
		return nil, ErrTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedMIMETypes...) {
		return nil, ErrUnsupportedFormat
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, Side, Side))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode avatar: %w", err)
	}

	return buf.Bytes(), nil
}

// DataURI encodes a stored avatar for JSON transport.
// Returns the empty string when no avatar is set.
func DataURI(avatar []byte) string {
	if len(avatar) == 0 {
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(avatar)
}
