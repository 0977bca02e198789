package compose

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"
)

// DecodeBase decodes a generated base image from raw bytes or a data: URL.
// An undecodable base image is fatal to the composition attempt.
func DecodeBase(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, &Error{Reason: "empty base image"}
	}
	if bytes.HasPrefix(data, []byte("data:")) {
		decoded, err := decodeDataURL(string(data))
		if err != nil {
			return nil, &Error{Reason: "invalid data URL", Err: err}
		}
		data = decoded
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Reason: "undecodable base image", Err: err}
	}
	return img, nil
}

// EncodePNG serializes a composed raster for persistence.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURL wraps PNG bytes in the data: scheme the frontend displays directly.
func DataURL(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func decodeDataURL(url string) ([]byte, error) {
	comma := strings.IndexByte(url, ',')
	if comma < 0 {
		return nil, fmt.Errorf("data URL has no payload")
	}
	meta, payload := url[:comma], url[comma+1:]
	if !strings.Contains(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URLs are supported")
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode base64 payload: %w", err)
	}
	return decoded, nil
}
