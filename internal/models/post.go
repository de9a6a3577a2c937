package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a published article.
type Post struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"size:300;not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`

	// Images are the attached remote assets, ordered by Position.
	Images []PostImage `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"images"`

	Tags []string `gorm:"serializer:json" json:"tags"`

	// ViewCount is monotonic; incremented once per retrieval by ID.
	ViewCount int64 `gorm:"not null;default:0" json:"view_count"`

	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked bool `gorm:"->" json:"liked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Assets returns the metadata of all attached images.
func (p *Post) Assets() []ImageAsset {
	assets := make([]ImageAsset, 0, len(p.Images))
	for _, img := range p.Images {
		assets = append(assets, img.ImageAsset)
	}
	return assets
}
