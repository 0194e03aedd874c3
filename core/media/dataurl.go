// Package media decodes captured photos and burns audit watermarks onto them.
package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

// DefaultMaxPixels bounds the dimensions of decoded photos when no limit is configured.
const DefaultMaxPixels = 25_000_000

var (
	ErrInvalidDataURL   = errors.New("invalid data URL")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("photo too large")
)

// ParseDataURL splits a base64 data URL ("data:image/png;base64,...") into its mime type and payload.
func ParseDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.Wrap(ErrInvalidDataURL, "only base64 data URLs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Wrap(ErrInvalidDataURL, err.Error())
	}
	return strings.ToLower(mime), data, nil
}

// DataURL builds a base64 data URL.
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeImage decodes a JPEG or PNG data URL.
// Images whose header claims more than maxPixels pixels are rejected before decoding;
// a non-positive maxPixels means DefaultMaxPixels.
func DecodeImage(dataURL string, maxPixels int) (image.Image, string, error) {
	mime, data, err := ParseDataURL(dataURL)
	if err != nil {
		return nil, "", err
	}
	var decodeConfig func(io.Reader) (image.Config, error)
	var decode func(io.Reader) (image.Image, error)
	switch mime {
	case MimeJPEG, "image/jpg":
		mime = MimeJPEG
		decodeConfig, decode = jpeg.DecodeConfig, jpeg.Decode
	case MimePNG:
		decodeConfig, decode = png.DecodeConfig, png.Decode
	default:
		return nil, "", errors.Wrap(ErrUnsupportedImage, mime)
	}

	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(err, "decoding image")
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, "", errors.Wrapf(ErrImageTooLarge, "%dx%d", cfg.Width, cfg.Height)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", errors.Wrap(err, "decoding image")
	}
	return img, mime, nil
}

// EncodeImage renders img as a data URL of the given mime type.
func EncodeImage(img image.Image, mime string) (string, error) {
	var buf bytes.Buffer
	var err error
	switch mime {
	case MimeJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case MimePNG:
		err = png.Encode(&buf, img)
	default:
		return "", errors.Wrap(ErrUnsupportedImage, mime)
	}
	if err != nil {
		return "", errors.Wrap(err, "encoding image")
	}
	return DataURL(mime, buf.Bytes()), nil
}
