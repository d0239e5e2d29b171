package domain

import (
	"strings"
	"time"

	"rightsdesk-backend/internal/constants"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Collaborator is a person (or company acting as one) credited on songs.
type Collaborator struct {
	ID             uuid.UUID                               `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	FirstName      string                                  `gorm:"column:first_name;not null" json:"first_name"`
	MiddleName     *string                                 `gorm:"column:middle_name" json:"middle_name"`
	LastName       string                                  `gorm:"column:last_name;not null" json:"last_name"`
	StageName      *string                                 `gorm:"column:stage_name" json:"stage_name"`
	Email          *string                                 `gorm:"column:email" json:"email"`
	CapableRoles   datatypes.JSONSlice[constants.SongRole] `gorm:"column:capable_roles" json:"capable_roles"`
	PROAffiliation *string                                 `gorm:"column:pro_affiliation" json:"pro_affiliation"`
	IPINumber      *string                                 `gorm:"column:ipi_number" json:"ipi_number"`
	PublisherName  *string                                 `gorm:"column:publisher_name" json:"publisher_name"`
	Address        *string                                 `gorm:"column:address" json:"address"`
	CreatedAt      time.Time                               `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time                               `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Collaborator) TableName() string {
	return "Collaborators"
}

func (c *Collaborator) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// LegalName joins first, middle and last names.
func (c *Collaborator) LegalName() string {
	parts := []string{c.FirstName}
	if c.MiddleName != nil && strings.TrimSpace(*c.MiddleName) != "" {
		parts = append(parts, strings.TrimSpace(*c.MiddleName))
	}
	parts = append(parts, c.LastName)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// DisplayName prefers the stage name.
func (c *Collaborator) DisplayName() string {
	if c.StageName != nil && strings.TrimSpace(*c.StageName) != "" {
		return strings.TrimSpace(*c.StageName)
	}
	return c.LegalName()
}

// CanPlay reports whether role is one of the collaborator's capable roles.
func (c *Collaborator) CanPlay(role constants.SongRole) bool {
	for _, r := range c.CapableRoles {
		if r == role {
			return true
		}
	}
	return false
}

// PublishingEntity is a publishing company that can hold publisher's share.
type PublishingEntity struct {
	ID             uuid.UUID `gorm:"column:id;type:char(36);primaryKey" json:"id"`
	Name           string    `gorm:"column:name;size:191;not null;uniqueIndex" json:"name"`
	IsInternal     bool      `gorm:"column:is_internal;not null;default:false" json:"is_internal"`
	PROAffiliation *string   `gorm:"column:pro_affiliation" json:"pro_affiliation"`
	IPINumber      *string   `gorm:"column:ipi_number" json:"ipi_number"`
	CreatedAt      time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (PublishingEntity) TableName() string {
	return "PublishingEntities"
}

func (p *PublishingEntity) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
