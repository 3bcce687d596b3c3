package gemini

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOutput     = errors.New("gemini: empty output")
	ErrVideoTimeout    = errors.New("gemini: video generation did not finish in time")
	ErrVideoFailed     = errors.New("gemini: video generation failed")
	ErrNoVideoProduced = errors.New("gemini: no video produced")
	ErrVideoSource     = errors.New("gemini: video request takes an image or a video, not both")
)

// APIError is a non-2xx answer from the REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: API error %d: %s", e.StatusCode, e.Body)
}
