package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrSpeechUnavailable = errors.New("speech capture unavailable")
	ErrNoVoices          = errors.New("no synthesis voices available")
	ErrEmptyReply        = errors.New("model returned an empty reply")
	ErrNoAPIKey          = errors.New("missing API key")
)
