package reports

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const mimeLineLength = 76

// Compress deflates text without zlib headers and encodes it as MIME base64.
func Compress(text string) (string, error) {
	var buf bytes.Buffer

	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", errors.Wrap(err, "error creating compressor")
	}

	_, err = w.Write([]byte(text))
	if err != nil {
		return "", errors.Wrap(err, "error compressing report")
	}

	err = w.Close()
	if err != nil {
		return "", errors.Wrap(err, "error compressing report")
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())

	var result strings.Builder
	for len(encoded) > mimeLineLength {
		result.WriteString(encoded[:mimeLineLength])
		result.WriteString("\r\n")
		encoded = encoded[mimeLineLength:]
	}
	result.WriteString(encoded)

	return result.String(), nil
}

func Uncompress(text string) (string, error) {
	encoded := strings.Join(strings.Fields(text), "")

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Wrapf(ErrCorrupt, "invalid base64: %v", err)
	}

	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	result, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrapf(ErrCorrupt, "invalid deflate stream: %v", err)
	}

	return string(result), nil
}
