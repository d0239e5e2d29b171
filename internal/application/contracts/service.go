package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rightsdesk-backend/internal/application/esign"
	"rightsdesk-backend/internal/constants"
	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/pkg/template"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSongNotFound        = errors.New("Song not found")
	ErrCreditNotFound      = errors.New("Song collaborator not found")
	ErrContractNotFound    = errors.New("Contract not found")
	ErrMasterNotLocked     = errors.New("Master splits must be locked before contracts can be generated")
	ErrContractNotDraft    = errors.New("Contract has already been sent")
	ErrMissingSignerEmail  = errors.New("Collaborator has no email address")
	ErrESignNotConfigured  = errors.New("E-signature is not configured")
	ErrUnknownSignatureDoc = errors.New("No contract matches this document")
)

// Service generates contracts from locked splits and routes them through e-signature.
type Service struct {
	DB        *gorm.DB
	ESign     esign.Client
	LabelName string
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) labelName() string {
	if s.LabelName != "" {
		return s.LabelName
	}
	return "the Label"
}

// Generate renders the contract for one song credit and stores it as a draft.
func (s *Service) Generate(ctx context.Context, songID, songCollaboratorID uuid.UUID) (*domain.Contract, error) {
	db := s.DB.WithContext(ctx)
	var song domain.Song
	err := db.Preload("PublishingEntities.PublishingEntity").Where("id = ?", songID).First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("Failed to fetch song: %v", err)
	}
	if !song.MasterLocked {
		return nil, ErrMasterNotLocked
	}
	var credit domain.SongCollaborator
	err = db.Preload("Collaborator").Where("id = ? AND song_id = ?", songCollaboratorID, songID).First(&credit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCreditNotFound
		}
		return nil, fmt.Errorf("Failed to fetch song collaborator: %v", err)
	}
	if credit.Collaborator == nil {
		return nil, ErrCreditNotFound
	}

	contractType := constants.ContractTypeFor(credit.RoleInSong)
	tpl, err := TemplateFor(contractType)
	if err != nil {
		return nil, err
	}
	vars := BuildContractData(&song, &credit, credit.Collaborator, song.PublishingEntities, s.now())
	vars["label_name"] = s.labelName()
	html, err := template.RenderHTML(tpl, template.EscapeVars(vars))
	if err != nil {
		return nil, fmt.Errorf("Failed to render contract: %v", err)
	}
	varBytes, err := json.Marshal(vars)
	if err != nil {
		return nil, err
	}

	contract := &domain.Contract{
		SongID:             song.ID,
		CollaboratorID:     credit.CollaboratorID,
		SongCollaboratorID: credit.ID,
		TemplateType:       contractType,
		ESignatureStatus:   domain.ContractStatusDraft,
		HTML:               html,
		Variables:          datatypes.JSON(varBytes),
	}
	if err := db.Create(contract).Error; err != nil {
		return nil, fmt.Errorf("Failed to create contract: %v", err)
	}
	log.Info().Str("contract_id", contract.ID.String()).Str("song_id", song.ID.String()).Str("type", string(contractType)).Msg("contract generated")
	return contract, nil
}

// Send posts a draft contract to the e-signature vendor.
func (s *Service) Send(ctx context.Context, contractID uuid.UUID) (*domain.Contract, error) {
	if s.ESign == nil {
		return nil, ErrESignNotConfigured
	}
	contract, err := s.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.ESignatureStatus != domain.ContractStatusDraft && contract.ESignatureStatus != domain.ContractStatusPending {
		return nil, ErrContractNotDraft
	}
	var collaborator domain.Collaborator
	if err := s.DB.WithContext(ctx).Where("id = ?", contract.CollaboratorID).First(&collaborator).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch collaborator: %v", err)
	}
	if collaborator.Email == nil || *collaborator.Email == "" {
		return nil, ErrMissingSignerEmail
	}
	var song domain.Song
	if err := s.DB.WithContext(ctx).Where("id = ?", contract.SongID).First(&song).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch song: %v", err)
	}

	docID, err := s.ESign.CreateDocument(ctx, esign.DocumentRequest{
		Title:       fmt.Sprintf("%s - %s", song.Title, collaborator.LegalName()),
		HTML:        contract.HTML,
		SignerName:  collaborator.LegalName(),
		SignerEmail: *collaborator.Email,
		ExternalID:  contract.ID.String(),
	})
	if err != nil {
		log.Error().Err(err).Str("contract_id", contract.ID.String()).Msg("e-signature send failed")
		return nil, fmt.Errorf("Failed to send contract for signature: %v", err)
	}
	updates := map[string]interface{}{
		"esignature_doc_id": docID,
		"esignature_status": domain.ContractStatusSent,
	}
	if err := s.DB.WithContext(ctx).Model(contract).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("Failed to update contract: %v", err)
	}
	contract.ESignatureDocID = &docID
	contract.ESignatureStatus = domain.ContractStatusSent
	log.Info().Str("contract_id", contract.ID.String()).Str("doc_id", docID).Msg("contract sent for signature")
	return contract, nil
}

// HandleSignatureEvent applies a vendor callback. Events other than signed/declined are ignored.
func (s *Service) HandleSignatureEvent(ctx context.Context, ev esign.Event) error {
	var status string
	switch ev.Type {
	case esign.EventSigned:
		status = domain.ContractStatusSigned
	case esign.EventDeclined:
		status = domain.ContractStatusDeclined
	default:
		log.Debug().Str("event", ev.Type).Str("doc_id", ev.DocumentID).Msg("ignoring e-signature event")
		return nil
	}
	updates := map[string]interface{}{"esignature_status": status}
	if status == domain.ContractStatusSigned {
		at := s.now()
		if ev.OccurredAt != nil {
			at = ev.OccurredAt.UTC()
		}
		updates["signed_at"] = at
	}
	res := s.DB.WithContext(ctx).Model(&domain.Contract{}).Where("esignature_doc_id = ?", ev.DocumentID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("Failed to update contract: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUnknownSignatureDoc
	}
	log.Info().Str("doc_id", ev.DocumentID).Str("status", status).Msg("contract signature status updated")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Contract, error) {
	var c domain.Contract
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		return nil, fmt.Errorf("Failed to fetch contract: %v", err)
	}
	return &c, nil
}

// List returns contracts newest first, optionally for one song.
func (s *Service) List(ctx context.Context, songID *uuid.UUID) ([]domain.Contract, error) {
	q := s.DB.WithContext(ctx).Omit("html").Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true})
	if songID != nil {
		q = q.Where("song_id = ?", *songID)
	}
	var out []domain.Contract
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch contracts: %v", err)
	}
	return out, nil
}
