package service

import "errors"

var (
	// ErrInvalidManual is returned when a submitted manual is missing required fields.
	ErrInvalidManual = errors.New("invalid manual")
	// ErrUnreadableUpload is returned when an uploaded file cannot be read as UTF-8 text.
	ErrUnreadableUpload = errors.New("upload is not readable as utf-8 text")
)
