package assistant

import "errors"

var (
	ErrInvalidTableOperation = errors.New("invalid table operation")
	ErrNoImages              = errors.New("no images could be fetched")
	ErrVideoDisabled         = errors.New("video generation is not configured")
)
