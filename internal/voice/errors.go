package voice

import (
	"errors"
	"fmt"
)

var (
	ErrDeviceUnavailable   = errors.New("audio device unavailable")
	ErrMonitorUnavailable  = errors.New("silence monitor unavailable")
	ErrTranscriptionFailed = errors.New("transcription failed")
	ErrNoSpeech            = errors.New("no speech heard")
	ErrTooManyAttempts     = errors.New("too many attempts")
	ErrAlreadyRecording    = errors.New("recorder already has an active session")
	ErrNotRecording        = errors.New("no active recording")
)

// ErrEmptyTranscription is a transcription that came back without text. It
// matches ErrTranscriptionFailed.
var ErrEmptyTranscription = fmt.Errorf("%w: empty text", ErrTranscriptionFailed)
