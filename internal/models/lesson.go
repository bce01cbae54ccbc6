package models

import (
	"time"
)

// Lesson holds the asset metadata the access gate needs: the object-store
// keys of a lesson's media. Course/chapter structure, titles and ordering
// live in the upstream catalog service and are not modeled here.
type Lesson struct {
	ID          int64  `gorm:"primaryKey"`
	VideoKey    string // object-store key of the lesson video, empty if none
	DocumentKey string // object-store key of the lesson document, empty if none

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasVideo returns true if the lesson has a video asset.
func (l *Lesson) HasVideo() bool {
	return l.VideoKey != ""
}

// HasDocument returns true if the lesson has a document asset.
func (l *Lesson) HasDocument() bool {
	return l.DocumentKey != ""
}
