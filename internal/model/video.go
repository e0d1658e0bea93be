package model

import (
	"slices"
	"time"
)

// MaxHashtags caps the normalized hashtag set of a video.
const MaxHashtags = 8

type Video struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`         // Media store object name
	Author      string    `json:"author,omitempty"` // Optional identity reference
	Description string    `json:"description"`
	Hashtags    []string  `json:"hashtags"`
	Comments    []Comment `json:"comments"` // Append-only
	Views       int       `json:"views"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Clone returns a deep copy so callers never share slices with the feed's in-memory state.
func (v *Video) Clone() *Video {
	if v == nil {
		return nil
	}
	c := *v
	c.Hashtags = slices.Clone(v.Hashtags)
	c.Comments = slices.Clone(v.Comments)
	if c.Hashtags == nil {
		c.Hashtags = []string{}
	}
	if c.Comments == nil {
		c.Comments = []Comment{}
	}
	return &c
}
