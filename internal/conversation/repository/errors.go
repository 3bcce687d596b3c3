package repository

import "errors"

var (
	ErrNotFound        = errors.New("conversation not found")
	ErrFailedToGet     = errors.New("failed to get conversation")
	ErrFailedToSave    = errors.New("failed to save conversation")
	ErrFailedToDelete  = errors.New("failed to delete conversation")
	ErrUnsupportedKind = errors.New("unsupported store driver")
)
