package domain

import "strings"

// AttachmentType is the media kind of an attachment
type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
	AttachmentAudio AttachmentType = "audio"
)

// Attachment is a media reference owned by a task.
// URL is either a remote HTTPS URL from the media host or a self-contained data URL.
type Attachment struct {
	ID   string         `json:"id"`
	Type AttachmentType `json:"type"`
	URL  string         `json:"url"`
	Name string         `json:"name"`
}

// AttachmentTypeFor derives the attachment type from a media type.
// Anything that is neither video nor audio is treated as an image.
func AttachmentTypeFor(contentType string) AttachmentType {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return AttachmentVideo
	case strings.HasPrefix(contentType, "audio/"):
		return AttachmentAudio
	default:
		return AttachmentImage
	}
}
