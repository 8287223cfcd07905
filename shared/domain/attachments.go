package domain

import "time"

// Attachment describes a file hosted by the asset service. Only the URL and
// metadata are kept here, bytes never pass through this system.
type Attachment struct {
	Url        string    `json:"url" validate:"required,url"`
	Filename   string    `json:"filename" validate:"required"`
	TypeTag    string    `json:"type_tag" validate:"required"`
	SizeBytes  int64     `json:"size_bytes" validate:"gte=0"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Attachments = []Attachment
