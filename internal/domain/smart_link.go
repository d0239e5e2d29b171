package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SmartLinkDestination is one streaming/store button on a smart-link page.
type SmartLinkDestination struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// SmartLink is a public marketing page pointing at a release on several platforms.
type SmartLink struct {
	ID           uuid.UUID                                 `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Slug         string                                    `gorm:"column:slug;size:191;not null;uniqueIndex" json:"slug"`
	SongID       *uuid.UUID                                `gorm:"column:song_id;type:char(36)" json:"song_id"`
	Title        string                                    `gorm:"column:title;not null" json:"title"`
	ArtistName   string                                    `gorm:"column:artist_name;not null" json:"artist_name"`
	ArtworkURL   *string                                   `gorm:"column:artwork_url" json:"artwork_url"`
	Destinations datatypes.JSONSlice[SmartLinkDestination] `gorm:"column:destinations" json:"destinations"`
	Published    bool                                      `gorm:"column:published;not null;default:false" json:"published"`
	CreatedAt    time.Time                                 `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time                                 `gorm:"column:updatedAt" json:"updatedAt"`
}

func (SmartLink) TableName() string {
	return "SmartLinks"
}

func (l *SmartLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
