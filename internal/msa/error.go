package msa

import "errors"

// Error definitions for the msa package.
var (
	ErrJobFailed       = errors.New("remote search job failed")
	ErrNoTemplateMatch = errors.New("no templates matched the requested specifiers")
)
