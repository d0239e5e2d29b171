package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	BroadcastStatusSending   = "sending"
	BroadcastStatusCompleted = "completed"
	BroadcastStatusPartial   = "partial"
	BroadcastStatusFailed    = "failed"
)

// EmailBroadcast records one bulk email sent to collaborators.
type EmailBroadcast struct {
	ID             uuid.UUID  `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Subject        string     `gorm:"column:subject;not null" json:"subject"`
	Body           string     `gorm:"column:body;type:text;not null" json:"body"`
	RecipientCount int        `gorm:"column:recipient_count;not null;default:0" json:"recipient_count"`
	SentCount      int        `gorm:"column:sent_count;not null;default:0" json:"sent_count"`
	FailedCount    int        `gorm:"column:failed_count;not null;default:0" json:"failed_count"`
	Status         string     `gorm:"column:status;type:varchar(20);not null" json:"status"`
	CreatedBy      *uuid.UUID `gorm:"column:created_by;type:char(36)" json:"created_by"`
	CreatedAt      time.Time  `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"column:updatedAt" json:"updatedAt"`
}

func (EmailBroadcast) TableName() string {
	return "EmailBroadcasts"
}

func (b *EmailBroadcast) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
