package client

import (
	"context"
	"errors"
)

// ErrMediaNotConfigured is returned by uploads on an unconfigured media host
var ErrMediaNotConfigured = errors.New("media host not configured")

// MediaFile is an attachment payload on its way to the media host
type MediaFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// MediaUploader stores a file and returns its public URL
type MediaUploader interface {
	Upload(ctx context.Context, file MediaFile) (string, error)
	Configured() bool
}

// NoOpMediaUploader is used when no media host can be built
type NoOpMediaUploader struct{}

func NewNoOpMediaUploader() MediaUploader {
	return &NoOpMediaUploader{}
}

func (u *NoOpMediaUploader) Upload(ctx context.Context, file MediaFile) (string, error) {
	return "", ErrMediaNotConfigured
}

func (u *NoOpMediaUploader) Configured() bool {
	return false
}
