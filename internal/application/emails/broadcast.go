package emails

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/pkg/template"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNoRecipients    = errors.New("No recipients with an email address")
	ErrInvalidTemplate = errors.New("Email body template is invalid")
)

// BroadcastService sends one templated email to many collaborators, throttled by Limiter.
type BroadcastService struct {
	DB      *gorm.DB
	Sender  Sender
	Limiter *rate.Limiter
	Brand   string
}

// NewLimiter allows perSecond sends per second with no bursting. Zero or less disables throttling.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

type BroadcastInput struct {
	Subject         string
	Body            string
	CollaboratorIDs []uuid.UUID
	CreatedBy       *uuid.UUID
}

// Send renders Body per recipient ({{first_name}}, {{last_name}}, {{stage_name}}, {{display_name}},
// {{email}}) and records the outcome. An empty CollaboratorIDs targets every collaborator with an email.
func (s *BroadcastService) Send(ctx context.Context, in BroadcastInput) (*domain.EmailBroadcast, error) {
	if s.Sender == nil {
		return nil, ErrNotConfigured
	}
	if _, err := template.Render(in.Body, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	if _, err := template.Render(in.Subject, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	q := s.DB.WithContext(ctx).Where("email IS NOT NULL AND email <> ''")
	if len(in.CollaboratorIDs) > 0 {
		q = q.Where("id IN ?", in.CollaboratorIDs)
	}
	var recipients []domain.Collaborator
	if err := q.Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch recipients: %v", err)
	}
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}

	b := &domain.EmailBroadcast{
		Subject:        in.Subject,
		Body:           in.Body,
		RecipientCount: len(recipients),
		Status:         domain.BroadcastStatusSending,
		CreatedBy:      in.CreatedBy,
	}
	if err := s.DB.WithContext(ctx).Create(b).Error; err != nil {
		return nil, fmt.Errorf("Failed to create broadcast: %v", err)
	}

	for _, r := range recipients {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				log.Warn().Err(err).Str("broadcast_id", b.ID.String()).Msg("broadcast interrupted")
				b.FailedCount += len(recipients) - b.SentCount - b.FailedCount
				break
			}
		}
		if err := s.sendOne(ctx, in, r); err != nil {
			b.FailedCount++
			log.Error().Err(err).Str("broadcast_id", b.ID.String()).Str("collaborator_id", r.ID.String()).Msg("broadcast email failed")
			continue
		}
		b.SentCount++
	}

	switch {
	case b.FailedCount == 0:
		b.Status = domain.BroadcastStatusCompleted
	case b.SentCount == 0:
		b.Status = domain.BroadcastStatusFailed
	default:
		b.Status = domain.BroadcastStatusPartial
	}
	// The request context may be done by now; the outcome still has to be recorded.
	if err := s.DB.WithContext(context.WithoutCancel(ctx)).Model(b).Updates(map[string]interface{}{
		"sent_count":   b.SentCount,
		"failed_count": b.FailedCount,
		"status":       b.Status,
	}).Error; err != nil {
		return nil, fmt.Errorf("Failed to update broadcast: %v", err)
	}
	log.Info().Str("broadcast_id", b.ID.String()).Int("sent", b.SentCount).Int("failed", b.FailedCount).Msg("broadcast finished")
	return b, nil
}

func (s *BroadcastService) sendOne(ctx context.Context, in BroadcastInput, c domain.Collaborator) error {
	vars := map[string]any{
		"first_name":   c.FirstName,
		"last_name":    c.LastName,
		"stage_name":   deref(c.StageName),
		"display_name": c.DisplayName(),
		"email":        deref(c.Email),
	}
	content, err := template.RenderHTML(in.Body, template.EscapeVars(vars))
	if err != nil {
		return err
	}
	subject, err := template.Render(in.Subject, vars)
	if err != nil {
		return err
	}
	return s.Sender.Send(ctx, Message{
		ToEmail: deref(c.Email),
		ToName:  c.DisplayName(),
		Subject: strings.TrimSpace(subject),
		HTML:    EmailLayout(s.Brand, content),
	})
}

func (s *BroadcastService) List(ctx context.Context) ([]domain.EmailBroadcast, error) {
	var out []domain.EmailBroadcast
	err := s.DB.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "createdAt"}, Desc: true}).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch broadcasts: %v", err)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
