package domain

import (
	"time"

	"rightsdesk-backend/internal/constants"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// E-signature lifecycle of a contract.
const (
	ContractStatusPending  = "pending"
	ContractStatusDraft    = "draft"
	ContractStatusSent     = "sent"
	ContractStatusSigned   = "signed"
	ContractStatusDeclined = "declined"
)

// Contract is a generated agreement for one song credit.
type Contract struct {
	ID                 uuid.UUID              `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	SongID             uuid.UUID              `gorm:"column:song_id;type:char(36);not null;index" json:"song_id"`
	CollaboratorID     uuid.UUID              `gorm:"column:collaborator_id;type:char(36);not null;index" json:"collaborator_id"`
	SongCollaboratorID uuid.UUID              `gorm:"column:song_collaborator_id;type:char(36);not null" json:"song_collaborator_id"`
	TemplateType       constants.ContractType `gorm:"column:template_type;type:varchar(40);not null" json:"template_type"`
	ESignatureStatus   string                 `gorm:"column:esignature_status;type:varchar(20);not null;default:'pending'" json:"esignature_status"`
	ESignatureDocID    *string                `gorm:"column:esignature_doc_id;size:191;index" json:"esignature_doc_id"`
	SignedAt           *time.Time             `gorm:"column:signed_at" json:"signed_at"`
	HTML               string                 `gorm:"column:html;type:text" json:"html,omitempty"`
	Variables          datatypes.JSON         `gorm:"column:variables" json:"variables,omitempty"`
	CreatedAt          time.Time              `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt          time.Time              `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Contract) TableName() string {
	return "Contracts"
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
