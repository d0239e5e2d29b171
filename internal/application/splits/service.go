package splits

import (
	"context"
	"errors"
	"fmt"
	"time"

	splitpolicy "rightsdesk-backend/internal/application/policies/splits"
	"rightsdesk-backend/internal/constants"
	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/pkg/percent"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ActionLock   = "lock"
	ActionUnlock = "unlock"
)

var (
	ErrSongNotFound            = errors.New("Song not found")
	ErrVersionConflict         = domain.ErrVersionConflict
	ErrUnknownSongCollaborator = errors.New("Song collaborator does not belong to this song")
	ErrUnknownPublishingEntity = errors.New("Publishing entity not found")
	ErrInvalidAction           = errors.New(`Action must be "lock" or "unlock"`)
)

// Service runs the publishing and master split workflow. Every mutation happens in one
// transaction guarded by the song's version column.
type Service struct {
	DB  *gorm.DB
	Now func() time.Time
}

type SplitInput struct {
	SongCollaboratorID uuid.UUID
	Percentage         float64
}

type EntityInput struct {
	PublishingEntityID uuid.UUID
	Percentage         float64
}

type SavePublishingInput struct {
	SongID   uuid.UUID
	Splits   []SplitInput
	Entities []EntityInput
	Version  *int
}

type SaveMasterInput struct {
	SongID           uuid.UUID
	Splits           []SplitInput
	LabelMasterShare *float64
	Version          *int
}

type LockInput struct {
	SongID  uuid.UUID
	Action  string
	Version *int
}

// CollaboratorShare is one song credit with its share in percentage units.
type CollaboratorShare struct {
	SongCollaboratorID uuid.UUID          `json:"songCollaboratorId"`
	CollaboratorID     uuid.UUID          `json:"collaboratorId"`
	Name               string             `json:"name"`
	Role               constants.SongRole `json:"role"`
	Percentage         *float64           `json:"percentage"`
}

type EntityShare struct {
	PublishingEntityID uuid.UUID `json:"publishingEntityId"`
	Name               string    `json:"name"`
	Percentage         *float64  `json:"percentage"`
}

// SplitsView is the read model of both ledgers for one song.
type SplitsView struct {
	SongID             uuid.UUID           `json:"songId"`
	Version            int                 `json:"version"`
	PublishingLocked   bool                `json:"publishingLocked"`
	PublishingLockedAt *time.Time          `json:"publishingLockedAt"`
	MasterLocked       bool                `json:"masterLocked"`
	MasterLockedAt     *time.Time          `json:"masterLockedAt"`
	Publishing         []CollaboratorShare `json:"publishing"`
	PublishingEntities []EntityShare       `json:"publishingEntities"`
	Master             []CollaboratorShare `json:"master"`
	LabelMasterShare   *float64            `json:"labelMasterShare"`
	Totals             map[string]float64  `json:"totals"`
	Warnings           []string            `json:"warnings,omitempty"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// SavePublishingSplits stores writer's-share and publisher's-share percentages without requiring
// either pool to balance yet.
func (s *Service) SavePublishingSplits(ctx context.Context, in SavePublishingInput) (*SplitsView, error) {
	var warnings []string
	err := s.withSong(ctx, in.SongID, in.Version, func(tx *gorm.DB, song *domain.Song) error {
		if err := lockState(song).CanEditPublishing(); err != nil {
			return err
		}
		rows, err := collaboratorRows(song, in.Splits)
		if err != nil {
			return err
		}
		entities, err := s.entityRows(tx, song, in.Entities)
		if err != nil {
			return err
		}

		merged := splitpolicy.CombinedPublishing{
			Collaborators: mergeShares(song, in.Splits, publishingShare),
			Entities:      mergeEntities(song, in.Entities),
		}
		result := splitpolicy.ValidateCombinedPublishingSplits(merged, true)
		if !result.IsValid {
			return &splitpolicy.ValidationError{Message: "Invalid publishing splits", Result: result}
		}
		warnings = result.Warnings

		for i, split := range in.Splits {
			if err := tx.Model(rows[i]).Update("publishing_ownership", percent.ToNullFraction(&split.Percentage)).Error; err != nil {
				return fmt.Errorf("Failed to save publishing split: %v", err)
			}
		}
		for i, e := range in.Entities {
			frac := percent.ToNullFraction(&e.Percentage)
			if entities[i] != nil {
				if err := tx.Model(entities[i]).Update("ownership_percentage", frac).Error; err != nil {
					return fmt.Errorf("Failed to save publisher share: %v", err)
				}
				continue
			}
			if err := tx.Create(&domain.SongPublishingEntity{
				SongID:              song.ID,
				PublishingEntityID:  e.PublishingEntityID,
				OwnershipPercentage: frac,
			}).Error; err != nil {
				return fmt.Errorf("Failed to save publisher share: %v", err)
			}
		}
		return song.Advance(tx, nil)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("song_id", in.SongID.String()).Int("splits", len(in.Splits)).Int("entities", len(in.Entities)).Msg("publishing splits saved")
	return s.viewWithWarnings(ctx, in.SongID, warnings)
}

// SetPublishingLock locks (after a strict 50/50 check of the stored ledger) or unlocks publishing.
// Unlocking always clears the master lock too.
func (s *Service) SetPublishingLock(ctx context.Context, in LockInput) (*SplitsView, error) {
	if in.Action != ActionLock && in.Action != ActionUnlock {
		return nil, ErrInvalidAction
	}
	err := s.withSong(ctx, in.SongID, in.Version, func(tx *gorm.DB, song *domain.Song) error {
		state := lockState(song)
		if in.Action == ActionUnlock {
			return song.Advance(tx, lockColumns(state.UnlockPublishing()))
		}
		next, err := state.LockPublishing(s.now())
		if err != nil {
			return err
		}
		merged := splitpolicy.CombinedPublishing{
			Collaborators: mergeShares(song, nil, publishingShare),
			Entities:      mergeEntities(song, nil),
		}
		result := splitpolicy.ValidateCombinedPublishingSplits(merged, false)
		if !result.IsValid {
			return &splitpolicy.ValidationError{Message: "Publishing splits cannot be locked", Result: result}
		}
		return song.Advance(tx, lockColumns(next))
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("song_id", in.SongID.String()).Str("action", in.Action).Msg("publishing lock changed")
	return s.GetSplits(ctx, in.SongID)
}

// SaveMasterSplits stores master percentages and the label's scalar share. Publishing must be
// locked first.
func (s *Service) SaveMasterSplits(ctx context.Context, in SaveMasterInput) (*SplitsView, error) {
	var warnings []string
	err := s.withSong(ctx, in.SongID, in.Version, func(tx *gorm.DB, song *domain.Song) error {
		if err := lockState(song).CanEditMaster(); err != nil {
			return err
		}
		rows, err := collaboratorRows(song, in.Splits)
		if err != nil {
			return err
		}

		label := in.LabelMasterShare
		if label == nil {
			label = percent.PtrFromNullable(song.LabelMasterShare)
		}
		result := splitpolicy.ValidateMasterSplits(mergeShares(song, in.Splits, masterShare), label, true)
		if !result.IsValid {
			return &splitpolicy.ValidationError{Message: "Invalid master splits", Result: result}
		}
		warnings = result.Warnings

		for i, split := range in.Splits {
			if err := tx.Model(rows[i]).Update("master_ownership", percent.ToNullFraction(&split.Percentage)).Error; err != nil {
				return fmt.Errorf("Failed to save master split: %v", err)
			}
		}
		var updates map[string]interface{}
		if in.LabelMasterShare != nil {
			updates = map[string]interface{}{"label_master_share": percent.ToNullFraction(in.LabelMasterShare)}
		}
		return song.Advance(tx, updates)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("song_id", in.SongID.String()).Int("splits", len(in.Splits)).Msg("master splits saved")
	return s.viewWithWarnings(ctx, in.SongID, warnings)
}

// SetMasterLock locks master once collaborator shares plus the label share reach 100%, or unlocks it.
func (s *Service) SetMasterLock(ctx context.Context, in LockInput) (*SplitsView, error) {
	if in.Action != ActionLock && in.Action != ActionUnlock {
		return nil, ErrInvalidAction
	}
	err := s.withSong(ctx, in.SongID, in.Version, func(tx *gorm.DB, song *domain.Song) error {
		state := lockState(song)
		if in.Action == ActionUnlock {
			return song.Advance(tx, lockColumns(state.UnlockMaster()))
		}
		next, err := state.LockMaster(s.now())
		if err != nil {
			return err
		}
		result := splitpolicy.ValidateMasterSplits(mergeShares(song, nil, masterShare), percent.PtrFromNullable(song.LabelMasterShare), false)
		if !result.IsValid {
			return &splitpolicy.ValidationError{Message: "Master splits cannot be locked", Result: result}
		}
		return song.Advance(tx, lockColumns(next))
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("song_id", in.SongID.String()).Str("action", in.Action).Msg("master lock changed")
	return s.GetSplits(ctx, in.SongID)
}

// GetSplits returns both ledgers in percentage units.
func (s *Service) GetSplits(ctx context.Context, songID uuid.UUID) (*SplitsView, error) {
	song, err := loadSong(s.DB.WithContext(ctx), songID)
	if err != nil {
		return nil, err
	}
	return buildView(song), nil
}

func (s *Service) viewWithWarnings(ctx context.Context, songID uuid.UUID, warnings []string) (*SplitsView, error) {
	view, err := s.GetSplits(ctx, songID)
	if err != nil {
		return nil, err
	}
	view.Warnings = warnings
	return view, nil
}

func (s *Service) withSong(ctx context.Context, songID uuid.UUID, version *int, fn func(tx *gorm.DB, song *domain.Song) error) error {
	tx := s.DB.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()
	song, err := loadSong(tx, songID)
	if err != nil {
		tx.Rollback()
		return err
	}
	if version != nil && *version != song.Version {
		tx.Rollback()
		return ErrVersionConflict
	}
	if err := fn(tx, song); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("Failed to save splits: %v", err)
	}
	return nil
}

func loadSong(db *gorm.DB, songID uuid.UUID) (*domain.Song, error) {
	var song domain.Song
	err := db.
		Preload("Collaborators", byCreatedAt).
		Preload("Collaborators.Collaborator").
		Preload("PublishingEntities", byCreatedAt).
		Preload("PublishingEntities.PublishingEntity").
		Where("id = ?", songID).
		First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("Failed to load song: %v", err)
	}
	return &song, nil
}

func byCreatedAt(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}})
}

func collaboratorRows(song *domain.Song, in []SplitInput) ([]*domain.SongCollaborator, error) {
	byID := make(map[uuid.UUID]*domain.SongCollaborator, len(song.Collaborators))
	for i := range song.Collaborators {
		byID[song.Collaborators[i].ID] = &song.Collaborators[i]
	}
	rows := make([]*domain.SongCollaborator, len(in))
	for i, split := range in {
		row, ok := byID[split.SongCollaboratorID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSongCollaborator, split.SongCollaboratorID)
		}
		rows[i] = row
	}
	return rows, nil
}

// entityRows resolves each submitted entity to its existing song row, or nil when it is new to the song.
func (s *Service) entityRows(tx *gorm.DB, song *domain.Song, in []EntityInput) ([]*domain.SongPublishingEntity, error) {
	byEntity := make(map[uuid.UUID]*domain.SongPublishingEntity, len(song.PublishingEntities))
	for i := range song.PublishingEntities {
		byEntity[song.PublishingEntities[i].PublishingEntityID] = &song.PublishingEntities[i]
	}
	rows := make([]*domain.SongPublishingEntity, len(in))
	for i, e := range in {
		if row, ok := byEntity[e.PublishingEntityID]; ok {
			rows[i] = row
			continue
		}
		var count int64
		if err := tx.Model(&domain.PublishingEntity{}).Where("id = ?", e.PublishingEntityID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("Failed to load publishing entity: %v", err)
		}
		if count == 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPublishingEntity, e.PublishingEntityID)
		}
	}
	return rows, nil
}

type shareFunc func(sc *domain.SongCollaborator) *float64

func publishingShare(sc *domain.SongCollaborator) *float64 {
	return percent.PtrFromNullable(sc.PublishingOwnership)
}

func masterShare(sc *domain.SongCollaborator) *float64 {
	return percent.PtrFromNullable(sc.MasterOwnership)
}

// mergeShares lays submitted rows over the stored ledger: submitted rows first (duplicates kept so
// the validator sees them), then every stored row with a share that was not resubmitted.
func mergeShares(song *domain.Song, in []SplitInput, share shareFunc) []splitpolicy.CollaboratorSplit {
	byID := make(map[uuid.UUID]*domain.SongCollaborator, len(song.Collaborators))
	for i := range song.Collaborators {
		byID[song.Collaborators[i].ID] = &song.Collaborators[i]
	}
	out := make([]splitpolicy.CollaboratorSplit, 0, len(song.Collaborators)+len(in))
	submitted := make(map[uuid.UUID]bool, len(in))
	for _, split := range in {
		submitted[split.SongCollaboratorID] = true
		out = append(out, toPolicySplit(song, byID[split.SongCollaboratorID], split.Percentage))
	}
	for i := range song.Collaborators {
		sc := &song.Collaborators[i]
		if submitted[sc.ID] {
			continue
		}
		if pct := share(sc); pct != nil {
			out = append(out, toPolicySplit(song, sc, *pct))
		}
	}
	return out
}

func mergeEntities(song *domain.Song, in []EntityInput) []splitpolicy.EntitySplit {
	out := make([]splitpolicy.EntitySplit, 0, len(song.PublishingEntities)+len(in))
	submitted := make(map[uuid.UUID]bool, len(in))
	for _, e := range in {
		submitted[e.PublishingEntityID] = true
		out = append(out, splitpolicy.EntitySplit{PublishingEntityID: e.PublishingEntityID.String(), Percentage: e.Percentage})
	}
	for _, spe := range song.PublishingEntities {
		if submitted[spe.PublishingEntityID] || !spe.OwnershipPercentage.Valid {
			continue
		}
		out = append(out, splitpolicy.EntitySplit{
			PublishingEntityID: spe.PublishingEntityID.String(),
			Percentage:         percent.ToPercent(spe.OwnershipPercentage.Decimal),
		})
	}
	return out
}

func toPolicySplit(song *domain.Song, sc *domain.SongCollaborator, pct float64) splitpolicy.CollaboratorSplit {
	return splitpolicy.CollaboratorSplit{
		SongCollaboratorID: sc.ID.String(),
		CollaboratorID:     sc.CollaboratorID.String(),
		Role:               sc.RoleInSong,
		OtherRoles:         otherRoles(song, sc),
		Percentage:         pct,
	}
}

// otherRoles lists the roles the same collaborator holds on other rows of the song.
func otherRoles(song *domain.Song, sc *domain.SongCollaborator) []constants.SongRole {
	var roles []constants.SongRole
	for _, other := range song.Collaborators {
		if other.ID != sc.ID && other.CollaboratorID == sc.CollaboratorID {
			roles = append(roles, other.RoleInSong)
		}
	}
	return roles
}

func buildView(song *domain.Song) *SplitsView {
	view := &SplitsView{
		SongID:             song.ID,
		Version:            song.Version,
		PublishingLocked:   song.PublishingLocked,
		PublishingLockedAt: song.PublishingLockedAt,
		MasterLocked:       song.MasterLocked,
		MasterLockedAt:     song.MasterLockedAt,
		Publishing:         []CollaboratorShare{},
		PublishingEntities: []EntityShare{},
		Master:             []CollaboratorShare{},
		LabelMasterShare:   percent.PtrFromNullable(song.LabelMasterShare),
		Totals:             map[string]float64{"writer": 0, "publisher": 0, "master": 0},
	}
	for i := range song.Collaborators {
		sc := &song.Collaborators[i]
		others := otherRoles(song, sc)
		share := CollaboratorShare{
			SongCollaboratorID: sc.ID,
			CollaboratorID:     sc.CollaboratorID,
			Role:               sc.RoleInSong,
		}
		if sc.Collaborator != nil {
			share.Name = sc.Collaborator.DisplayName()
		}
		if constants.PublishingEligible(sc.RoleInSong, others) {
			p := share
			p.Percentage = publishingShare(sc)
			if p.Percentage != nil {
				view.Totals["writer"] += *p.Percentage
			}
			view.Publishing = append(view.Publishing, p)
		}
		if sc.RoleInSong != constants.RoleLabel && constants.MasterEligible(sc.RoleInSong, others) {
			m := share
			m.Percentage = masterShare(sc)
			if m.Percentage != nil {
				view.Totals["master"] += *m.Percentage
			}
			view.Master = append(view.Master, m)
		}
	}
	for _, spe := range song.PublishingEntities {
		e := EntityShare{PublishingEntityID: spe.PublishingEntityID, Percentage: percent.PtrFromNullable(spe.OwnershipPercentage)}
		if spe.PublishingEntity != nil {
			e.Name = spe.PublishingEntity.Name
		}
		if e.Percentage != nil {
			view.Totals["publisher"] += *e.Percentage
		}
		view.PublishingEntities = append(view.PublishingEntities, e)
	}
	if view.LabelMasterShare != nil {
		view.Totals["master"] += *view.LabelMasterShare
	}
	return view
}

func lockState(song *domain.Song) splitpolicy.LockState {
	return splitpolicy.LockState{
		PublishingLocked:   song.PublishingLocked,
		PublishingLockedAt: song.PublishingLockedAt,
		MasterLocked:       song.MasterLocked,
		MasterLockedAt:     song.MasterLockedAt,
	}
}

// lockColumns maps a lock tuple to the song column updates persisting it.
func lockColumns(state splitpolicy.LockState) map[string]interface{} {
	return map[string]interface{}{
		"publishing_locked":    state.PublishingLocked,
		"publishing_locked_at": state.PublishingLockedAt,
		"master_locked":        state.MasterLocked,
		"master_locked_at":     state.MasterLockedAt,
	}
}
