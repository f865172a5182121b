package service

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Upload gives access to the raw bytes of a client submitted file.
type Upload interface {
	Bytes() ([]byte, error)
}

// BytesUpload is an Upload backed by an in-memory payload.
type BytesUpload []byte

func (b BytesUpload) Bytes() ([]byte, error) {
	return b, nil
}

var utf8Decoder = unicode.UTF8BOM

// decodeText decodes data as UTF-8, dropping a leading byte order mark.
// In strict mode malformed input is rejected, otherwise it is replaced with U+FFFD.
func decodeText(data []byte, strict bool) (string, error) {
	if strict && !utf8.Valid(data) {
		return "", ErrUnreadableUpload
	}

	text, err := utf8Decoder.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}

	return string(text), nil
}

func readUpload(upload Upload) (string, error) {
	data, err := upload.Bytes()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableUpload, err)
	}

	return decodeText(data, true)
}
