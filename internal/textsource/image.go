package textsource

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// nativeFormats are handed to the OCR engine as uploaded.
var nativeFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"tiff": true,
}

// prepareImage decodes an uploaded image and returns bytes the OCR engine
// can read, together with the detected format name.
func prepareImage(data []byte) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", unsupportedError("decode_image", err)
		}
		return nil, format, decodeError("decode_image", err)
	}

	if nativeFormats[format] {
		return data, format, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, format, fmt.Errorf("failed to re-encode %s image as png: %w", format, err)
	}
	return buf.Bytes(), "png", nil
}

// DetectImageFormat reports the image format of data without decoding pixels.
func DetectImageFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", unsupportedError("detect_image", err)
		}
		return "", decodeError("detect_image", err)
	}
	return format, nil
}
