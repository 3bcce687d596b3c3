package webhook

import "errors"

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("signature verification failed")
	ErrInvalidToken     = errors.New("invalid verification token")
	ErrIPNotAllowed     = errors.New("IP not whitelisted")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrEncryptKeyUnset  = errors.New("encrypted event received but no encrypt key configured")
	ErrInvalidCipher    = errors.New("invalid encrypted payload")
	ErrInvalidBody      = errors.New("invalid callback body")
)
