package service

import (
	"context"
	"strings"
)

// Dictation is the optional speech to text capability of the device.
// Listen records one utterance and returns its transcript.
type Dictation interface {
	Listen(ctx context.Context) (string, error)
}

// UnsupportedDictation is the capability of a device without speech recognition
type UnsupportedDictation struct{}

func (UnsupportedDictation) Listen(ctx context.Context) (string, error) {
	return "", ErrCapabilityUnsupported
}

// TranscriptDictation replays a transcript recognized by the caller
type TranscriptDictation string

func (t TranscriptDictation) Listen(ctx context.Context) (string, error) {
	return strings.TrimSpace(string(t)), nil
}

// appendTranscript joins a transcript onto a description with a single space
func appendTranscript(description, transcript string) string {
	if description == "" {
		return transcript
	}
	return description + " " + transcript
}
