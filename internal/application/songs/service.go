package songs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rightsdesk-backend/internal/constants"
	"rightsdesk-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSongNotFound             = errors.New("Song not found")
	ErrCollaboratorNotFound     = errors.New("Collaborator not found")
	ErrPublishingEntityNotFound = errors.New("Publishing entity not found")
	ErrCreditNotFound           = errors.New("Song collaborator not found")
	ErrInvalidRole              = errors.New("Invalid song role")
	ErrRoleNotCapable           = errors.New("Collaborator is not capable of this role")
	ErrDuplicateCredit          = errors.New("Collaborator already holds this role on the song")
	ErrDuplicateEntity          = errors.New("Publishing entity is already attached to the song")
	ErrDuplicateEntityName      = errors.New("A publishing entity with this name already exists")
	ErrSplitsLocked             = errors.New("Song splits are locked. Unlock publishing before changing credits")
)

// Service manages songs, collaborators, publishing entities and the credits between them.
type Service struct {
	DB *gorm.DB
}

type CreateSongInput struct {
	Title       string
	ISRC        *string
	ReleaseDate *time.Time
}

type CreateCollaboratorInput struct {
	FirstName      string
	MiddleName     *string
	LastName       string
	StageName      *string
	Email          *string
	CapableRoles   []constants.SongRole
	PROAffiliation *string
	IPINumber      *string
	PublisherName  *string
	Address        *string
}

type CreatePublishingEntityInput struct {
	Name           string
	IsInternal     bool
	PROAffiliation *string
	IPINumber      *string
}

func newest(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true})
}

func oldest(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}})
}

func (s *Service) CreateSong(ctx context.Context, in CreateSongInput) (*domain.Song, error) {
	song := &domain.Song{
		Title:       strings.TrimSpace(in.Title),
		ISRC:        in.ISRC,
		ReleaseDate: in.ReleaseDate,
	}
	if err := s.DB.WithContext(ctx).Create(song).Error; err != nil {
		return nil, fmt.Errorf("Failed to create song: %v", err)
	}
	log.Info().Str("song_id", song.ID.String()).Str("title", song.Title).Msg("song created")
	return song, nil
}

func (s *Service) ListSongs(ctx context.Context) ([]domain.Song, error) {
	var songs []domain.Song
	if err := newest(s.DB.WithContext(ctx)).Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch songs: %v", err)
	}
	return songs, nil
}

// GetSong loads a song with its credits and publishing entities.
func (s *Service) GetSong(ctx context.Context, id uuid.UUID) (*domain.Song, error) {
	var song domain.Song
	err := s.DB.WithContext(ctx).
		Preload("Collaborators", oldest).
		Preload("Collaborators.Collaborator").
		Preload("PublishingEntities", oldest).
		Preload("PublishingEntities.PublishingEntity").
		Where("id = ?", id).
		First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSongNotFound
		}
		return nil, fmt.Errorf("Failed to fetch song: %v", err)
	}
	return &song, nil
}

// AddCollaborator credits a collaborator on a song in one role. The collaborator must list the
// role among their capable roles.
func (s *Service) AddCollaborator(ctx context.Context, songID, collaboratorID uuid.UUID, role constants.SongRole) (*domain.SongCollaborator, error) {
	if !constants.IsValidSongRole(string(role)) {
		return nil, ErrInvalidRole
	}
	var credit *domain.SongCollaborator
	err := s.inUnlockedSong(ctx, songID, func(tx *gorm.DB, song *domain.Song) error {
		var collaborator domain.Collaborator
		if err := tx.Where("id = ?", collaboratorID).First(&collaborator).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCollaboratorNotFound
			}
			return err
		}
		if !collaborator.CanPlay(role) {
			return ErrRoleNotCapable
		}
		for _, existing := range song.Collaborators {
			if existing.CollaboratorID == collaboratorID && existing.RoleInSong == role {
				return ErrDuplicateCredit
			}
		}
		credit = &domain.SongCollaborator{SongID: song.ID, CollaboratorID: collaboratorID, RoleInSong: role}
		if err := tx.Create(credit).Error; err != nil {
			return fmt.Errorf("Failed to add collaborator: %v", err)
		}
		credit.Collaborator = &collaborator
		return song.Advance(tx, nil)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("song_id", songID.String()).Str("collaborator_id", collaboratorID.String()).Str("role", string(role)).Msg("collaborator credited")
	return credit, nil
}

func (s *Service) RemoveCollaborator(ctx context.Context, songID, songCollaboratorID uuid.UUID) error {
	return s.inUnlockedSong(ctx, songID, func(tx *gorm.DB, song *domain.Song) error {
		res := tx.Where("id = ? AND song_id = ?", songCollaboratorID, song.ID).Delete(&domain.SongCollaborator{})
		if res.Error != nil {
			return fmt.Errorf("Failed to remove collaborator: %v", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCreditNotFound
		}
		return song.Advance(tx, nil)
	})
}

// AttachPublishingEntity adds a publishing entity to the song's publisher pool with no share yet.
func (s *Service) AttachPublishingEntity(ctx context.Context, songID, entityID uuid.UUID) (*domain.SongPublishingEntity, error) {
	var row *domain.SongPublishingEntity
	err := s.inUnlockedSong(ctx, songID, func(tx *gorm.DB, song *domain.Song) error {
		var entity domain.PublishingEntity
		if err := tx.Where("id = ?", entityID).First(&entity).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPublishingEntityNotFound
			}
			return err
		}
		for _, existing := range song.PublishingEntities {
			if existing.PublishingEntityID == entityID {
				return ErrDuplicateEntity
			}
		}
		row = &domain.SongPublishingEntity{SongID: song.ID, PublishingEntityID: entityID}
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("Failed to attach publishing entity: %v", err)
		}
		row.PublishingEntity = &entity
		return song.Advance(tx, nil)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Service) inUnlockedSong(ctx context.Context, songID uuid.UUID, fn func(tx *gorm.DB, song *domain.Song) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var song domain.Song
		if err := tx.Preload("Collaborators").Preload("PublishingEntities").Where("id = ?", songID).First(&song).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSongNotFound
			}
			return fmt.Errorf("Failed to fetch song: %v", err)
		}
		if song.PublishingLocked {
			return ErrSplitsLocked
		}
		return fn(tx, &song)
	})
}

func (s *Service) CreateCollaborator(ctx context.Context, in CreateCollaboratorInput) (*domain.Collaborator, error) {
	for _, role := range in.CapableRoles {
		if !constants.IsValidSongRole(string(role)) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
		}
	}
	c := &domain.Collaborator{
		FirstName:      strings.TrimSpace(in.FirstName),
		MiddleName:     in.MiddleName,
		LastName:       strings.TrimSpace(in.LastName),
		StageName:      in.StageName,
		Email:          normalizeEmail(in.Email),
		CapableRoles:   in.CapableRoles,
		PROAffiliation: in.PROAffiliation,
		IPINumber:      in.IPINumber,
		PublisherName:  in.PublisherName,
		Address:        in.Address,
	}
	if c.CapableRoles == nil {
		c.CapableRoles = []constants.SongRole{}
	}
	if err := s.DB.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("Failed to create collaborator: %v", err)
	}
	return c, nil
}

func (s *Service) ListCollaborators(ctx context.Context) ([]domain.Collaborator, error) {
	var out []domain.Collaborator
	if err := s.DB.WithContext(ctx).Order("last_name ASC").Order("first_name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch collaborators: %v", err)
	}
	return out, nil
}

func (s *Service) CreatePublishingEntity(ctx context.Context, in CreatePublishingEntityInput) (*domain.PublishingEntity, error) {
	name := strings.TrimSpace(in.Name)
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.PublishingEntity{}).Where("LOWER(name) = ?", strings.ToLower(name)).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrDuplicateEntityName
	}
	e := &domain.PublishingEntity{
		Name:           name,
		IsInternal:     in.IsInternal,
		PROAffiliation: in.PROAffiliation,
		IPINumber:      in.IPINumber,
	}
	if err := s.DB.WithContext(ctx).Create(e).Error; err != nil {
		return nil, fmt.Errorf("Failed to create publishing entity: %v", err)
	}
	return e, nil
}

func (s *Service) ListPublishingEntities(ctx context.Context) ([]domain.PublishingEntity, error) {
	var out []domain.PublishingEntity
	if err := s.DB.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch publishing entities: %v", err)
	}
	return out, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	e := strings.ToLower(strings.TrimSpace(*email))
	if e == "" {
		return nil
	}
	return &e
}
