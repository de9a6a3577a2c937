package models

import "time"

// ImageAsset references an image whose bytes live in the remote object store.
// Only metadata is held locally; PublicID is the store's opaque identifier.
type ImageAsset struct {
	PublicID string `gorm:"size:255" json:"public_id"`
	URL      string `gorm:"size:512" json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `gorm:"size:16" json:"format"`
	Size     int64  `json:"size"`
}

// IsZero reports whether no asset is referenced.
func (a ImageAsset) IsZero() bool {
	return a.PublicID == ""
}

// PostImage is one image attached to a post, ordered by Position.
type PostImage struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	PostID     uint       `gorm:"not null;index" json:"post_id"`
	ImageAsset `gorm:"embedded"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}
