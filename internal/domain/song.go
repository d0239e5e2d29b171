package domain

import (
	"errors"
	"fmt"
	"time"

	"rightsdesk-backend/internal/constants"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Song is a composition/recording tracked by the label. Lock fields are only written by the
// split workflow; Version is bumped on every split or lock mutation.
type Song struct {
	ID                 uuid.UUID              `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Title              string                 `gorm:"column:title;not null" json:"title"`
	ISRC               *string                `gorm:"column:isrc" json:"isrc"`
	ReleaseDate        *time.Time             `gorm:"column:release_date" json:"release_date"`
	PublishingLocked   bool                   `gorm:"column:publishing_locked;not null;default:false" json:"publishing_locked"`
	PublishingLockedAt *time.Time             `gorm:"column:publishing_locked_at" json:"publishing_locked_at"`
	MasterLocked       bool                   `gorm:"column:master_locked;not null;default:false" json:"master_locked"`
	MasterLockedAt     *time.Time             `gorm:"column:master_locked_at" json:"master_locked_at"`
	LabelMasterShare   decimal.NullDecimal    `gorm:"column:label_master_share;type:decimal(7,6)" json:"-"`
	Version            int                    `gorm:"column:version;not null;default:1" json:"version"`
	Collaborators      []SongCollaborator     `gorm:"foreignKey:SongID" json:"collaborators,omitempty"`
	PublishingEntities []SongPublishingEntity `gorm:"foreignKey:SongID" json:"publishing_entities,omitempty"`
	CreatedAt          time.Time              `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt          time.Time              `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Song) TableName() string {
	return "Songs"
}

func (s *Song) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Version == 0 {
		s.Version = 1
	}
	return nil
}

// ErrVersionConflict means the song row changed after it was read.
var ErrVersionConflict = errors.New("Song was changed by another request. Reload and try again")

// Advance applies updates to the song row and bumps its version, provided nobody else bumped it
// since s was loaded.
func (s *Song) Advance(tx *gorm.DB, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["version"] = s.Version + 1
	res := tx.Model(&Song{}).Where("id = ? AND version = ?", s.ID, s.Version).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("Failed to update song: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	s.Version++
	return nil
}

// SongCollaborator is one (song, collaborator, role) credit. Split percentages are stored here,
// never against the bare collaborator.
type SongCollaborator struct {
	ID                  uuid.UUID           `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	SongID              uuid.UUID           `gorm:"column:song_id;type:char(36);not null;uniqueIndex:idx_song_collaborator_role" json:"song_id"`
	CollaboratorID      uuid.UUID           `gorm:"column:collaborator_id;type:char(36);not null;uniqueIndex:idx_song_collaborator_role" json:"collaborator_id"`
	RoleInSong          constants.SongRole  `gorm:"column:role_in_song;type:varchar(20);not null;uniqueIndex:idx_song_collaborator_role" json:"role_in_song"`
	PublishingOwnership decimal.NullDecimal `gorm:"column:publishing_ownership;type:decimal(7,6)" json:"-"`
	MasterOwnership     decimal.NullDecimal `gorm:"column:master_ownership;type:decimal(7,6)" json:"-"`
	Collaborator        *Collaborator       `gorm:"foreignKey:CollaboratorID;references:ID" json:"collaborator,omitempty"`
	CreatedAt           time.Time           `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `gorm:"column:updatedAt" json:"updatedAt"`
}

func (SongCollaborator) TableName() string {
	return "SongCollaborators"
}

func (sc *SongCollaborator) BeforeCreate(tx *gorm.DB) error {
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	return nil
}

// SongPublishingEntity holds a publishing entity's share of the publisher's pool for a song.
type SongPublishingEntity struct {
	ID                  uuid.UUID           `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	SongID              uuid.UUID           `gorm:"column:song_id;type:char(36);not null;uniqueIndex:idx_song_publishing_entity" json:"song_id"`
	PublishingEntityID  uuid.UUID           `gorm:"column:publishing_entity_id;type:char(36);not null;uniqueIndex:idx_song_publishing_entity" json:"publishing_entity_id"`
	OwnershipPercentage decimal.NullDecimal `gorm:"column:ownership_percentage;type:decimal(7,6)" json:"-"`
	PublishingEntity    *PublishingEntity   `gorm:"foreignKey:PublishingEntityID;references:ID" json:"publishing_entity,omitempty"`
	CreatedAt           time.Time           `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt           time.Time           `gorm:"column:updatedAt" json:"updatedAt"`
}

func (SongPublishingEntity) TableName() string {
	return "SongPublishingEntities"
}

func (spe *SongPublishingEntity) BeforeCreate(tx *gorm.DB) error {
	if spe.ID == uuid.Nil {
		spe.ID = uuid.New()
	}
	return nil
}
