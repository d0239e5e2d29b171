package smartlinks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSmartLinkNotFound = errors.New("Smart link not found")
	ErrSongNotFound      = errors.New("Song not found")
	ErrInvalidSlug       = errors.New("Slug may only contain lowercase letters, digits and hyphens")
	ErrSlugTaken         = errors.New("Slug is already in use")
	ErrNoDestinations    = errors.New("At least one destination is required")
)

// ClicksPrefix keys the Redis click counter of a smart link by slug.
const ClicksPrefix = "smartlink:clicks:"

const maxSlugAttempts = 50

// Service manages smart links and their click counters.
type Service struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	BaseURL string
}

type Input struct {
	Slug         string
	SongID       *uuid.UUID
	Title        string
	ArtistName   string
	ArtworkURL   *string
	Destinations []domain.SmartLinkDestination
	Published    bool
}

// UpdateInput changes only the non-nil fields.
type UpdateInput struct {
	Slug         *string
	SongID       *uuid.UUID
	Title        *string
	ArtistName   *string
	ArtworkURL   *string
	Destinations []domain.SmartLinkDestination
	Published    *bool
}

// PublicPage is what GET /l/:slug renders.
type PublicPage struct {
	Slug         string                        `json:"slug"`
	URL          string                        `json:"url"`
	Title        string                        `json:"title"`
	ArtistName   string                        `json:"artist_name"`
	ArtworkURL   *string                       `json:"artwork_url"`
	Destinations []domain.SmartLinkDestination `json:"destinations"`
}

type Stats struct {
	ID     uuid.UUID `json:"id"`
	Slug   string    `json:"slug"`
	URL    string    `json:"url"`
	Clicks int64     `json:"clicks"`
}

// Slugify lowercases s, strips accents and joins the remaining letter/digit runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			dash = true
		}
	}
	out := b.String()
	if len(out) > 80 {
		out = strings.TrimRight(out[:80], "-")
	}
	return out
}

// Create stores a smart link. An empty Slug is derived from the title and suffixed until unique;
// an explicit Slug must be valid and free.
func (s *Service) Create(ctx context.Context, in Input) (*domain.SmartLink, error) {
	if len(in.Destinations) == 0 {
		return nil, ErrNoDestinations
	}
	if err := s.checkSong(ctx, in.SongID); err != nil {
		return nil, err
	}
	slug, err := s.resolveSlug(ctx, in.Slug, in.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}
	link := &domain.SmartLink{
		Slug:         slug,
		SongID:       in.SongID,
		Title:        strings.TrimSpace(in.Title),
		ArtistName:   strings.TrimSpace(in.ArtistName),
		ArtworkURL:   in.ArtworkURL,
		Destinations: in.Destinations,
		Published:    in.Published,
	}
	if err := s.DB.WithContext(ctx).Create(link).Error; err != nil {
		return nil, err
	}
	log.Info().Str("slug", link.Slug).Msg("smart link created")
	return link, nil
}

// Update applies in to the link. Changing the slug moves its click counter.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.SmartLink, error) {
	link, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := link.Slug

	if in.Slug != nil && *in.Slug != link.Slug {
		slug, err := s.resolveSlug(ctx, *in.Slug, link.Title, link.ID)
		if err != nil {
			return nil, err
		}
		link.Slug = slug
	}
	if in.SongID != nil {
		if err := s.checkSong(ctx, in.SongID); err != nil {
			return nil, err
		}
		link.SongID = in.SongID
	}
	if in.Title != nil {
		link.Title = strings.TrimSpace(*in.Title)
	}
	if in.ArtistName != nil {
		link.ArtistName = strings.TrimSpace(*in.ArtistName)
	}
	if in.ArtworkURL != nil {
		link.ArtworkURL = in.ArtworkURL
	}
	if in.Destinations != nil {
		if len(in.Destinations) == 0 {
			return nil, ErrNoDestinations
		}
		link.Destinations = in.Destinations
	}
	if in.Published != nil {
		link.Published = *in.Published
	}
	if err := s.DB.WithContext(ctx).Save(link).Error; err != nil {
		return nil, err
	}
	if link.Slug != oldSlug && s.Rdb != nil {
		if n, _ := s.Rdb.Exists(ctx, ClicksPrefix+oldSlug).Result(); n > 0 {
			if err := s.Rdb.Rename(ctx, ClicksPrefix+oldSlug, ClicksPrefix+link.Slug).Err(); err != nil {
				log.Warn().Err(err).Str("slug", link.Slug).Msg("failed to move click counter")
			}
		}
	}
	return link, nil
}

// List returns all smart links, newest first.
func (s *Service) List(ctx context.Context) ([]domain.SmartLink, error) {
	var links []domain.SmartLink
	err := s.DB.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true}).
		Find(&links).Error
	return links, err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.SmartLink, error) {
	var link domain.SmartLink
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSmartLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

// Delete removes the link and its click counter.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	link, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DB.WithContext(ctx).Delete(link).Error; err != nil {
		return err
	}
	if s.Rdb != nil {
		s.Rdb.Del(ctx, ClicksPrefix+link.Slug)
	}
	return nil
}

// Visit returns the public page of a published link and counts the click. Unpublished links
// are reported as not found.
func (s *Service) Visit(ctx context.Context, slug string) (*PublicPage, error) {
	var link domain.SmartLink
	if err := s.DB.WithContext(ctx).Where("slug = ? AND published = ?", slug, true).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSmartLinkNotFound
		}
		return nil, err
	}
	if s.Rdb != nil {
		if err := s.Rdb.Incr(ctx, ClicksPrefix+link.Slug).Err(); err != nil {
			log.Warn().Err(err).Str("slug", link.Slug).Msg("failed to count smart link click")
		}
	}
	return &PublicPage{
		Slug:         link.Slug,
		URL:          s.PublicURL(link.Slug),
		Title:        link.Title,
		ArtistName:   link.ArtistName,
		ArtworkURL:   link.ArtworkURL,
		Destinations: link.Destinations,
	}, nil
}

// Stats reads the click counter of a link.
func (s *Service) Stats(ctx context.Context, id uuid.UUID) (*Stats, error) {
	link, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &Stats{ID: link.ID, Slug: link.Slug, URL: s.PublicURL(link.Slug)}
	if s.Rdb != nil {
		n, err := s.Rdb.Get(ctx, ClicksPrefix+link.Slug).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		out.Clicks = n
	}
	return out, nil
}

// PublicURL is the shareable address of slug.
func (s *Service) PublicURL(slug string) string {
	return strings.TrimRight(s.BaseURL, "/") + "/l/" + slug
}

func (s *Service) checkSong(ctx context.Context, songID *uuid.UUID) error {
	if songID == nil {
		return nil
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Song{}).Where("id = ?", *songID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrSongNotFound
	}
	return nil
}

func (s *Service) resolveSlug(ctx context.Context, requested, title string, self uuid.UUID) (string, error) {
	if requested != "" {
		if !validation.IsValidSlug(requested) {
			return "", ErrInvalidSlug
		}
		taken, err := s.slugTaken(ctx, requested, self)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrSlugTaken
		}
		return requested, nil
	}

	base := Slugify(title)
	if base == "" {
		base = "link"
	}
	candidate := base
	for i := 2; i <= maxSlugAttempts; i++ {
		taken, err := s.slugTaken(ctx, candidate, self)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + strings.Split(uuid.NewString(), "-")[0], nil
}

func (s *Service) slugTaken(ctx context.Context, slug string, self uuid.UUID) (bool, error) {
	var count int64
	q := s.DB.WithContext(ctx).Model(&domain.SmartLink{}).Where("slug = ?", slug)
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
