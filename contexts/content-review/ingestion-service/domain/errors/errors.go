package errors

import "errors"

var (
	ErrInvalidJob      = errors.New("ingestion job missing required fields")
	ErrInvalidFile     = errors.New("uploaded file path is not stageable")
	ErrQueueClosed     = errors.New("ingestion queue closed")
	ErrQueueFull       = errors.New("ingestion queue at capacity")
	ErrTranscodeFailed = errors.New("transcode failed")
	ErrUploadFailed    = errors.New("storage upload failed")
)
