package emails

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"rightsdesk-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type fakeSender struct {
	sent   []Message
	failTo string
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == f.failTo {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func setupBroadcastTest(t *testing.T) (*BroadcastService, *fakeSender, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Collaborator{}, &domain.EmailBroadcast{}))
	sender := &fakeSender{}
	return &BroadcastService{DB: db, Sender: sender, Limiter: NewLimiter(0), Brand: "Northside Records"}, sender, db
}

func addCollaborator(t *testing.T, db *gorm.DB, first string, email *string) domain.Collaborator {
	c := domain.Collaborator{FirstName: first, LastName: "Test", Email: email}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func strPtr(s string) *string { return &s }

// Test every collaborator with an email gets a personalised message and the broadcast is recorded.
func TestBroadcast_SendsToAll(t *testing.T) {
	svc, sender, db := setupBroadcastTest(t)
	addCollaborator(t, db, "Ada", strPtr("ada@example.com"))
	addCollaborator(t, db, "Ben", strPtr("ben@example.com"))
	addCollaborator(t, db, "Cy", nil)

	b, err := svc.Send(context.Background(), BroadcastInput{
		Subject: "News for {{first_name}}",
		Body:    "# Hello {{first_name}}\n\nA new release is **coming**.",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BroadcastStatusCompleted, b.Status)
	assert.Equal(t, 2, b.RecipientCount)
	assert.Equal(t, 2, b.SentCount)
	require.Len(t, sender.sent, 2)

	var subjects []string
	for _, m := range sender.sent {
		subjects = append(subjects, m.Subject)
		assert.Contains(t, m.HTML, "Northside Records")
		assert.Contains(t, m.HTML, "<strong>coming</strong>")
	}
	assert.ElementsMatch(t, []string{"News for Ada", "News for Ben"}, subjects)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].SentCount)
}

// Test a failed recipient marks the broadcast partial.
func TestBroadcast_Partial(t *testing.T) {
	svc, sender, db := setupBroadcastTest(t)
	a := addCollaborator(t, db, "Ada", strPtr("ada@example.com"))
	b := addCollaborator(t, db, "Ben", strPtr("ben@example.com"))
	addCollaborator(t, db, "Dee", strPtr("dee@example.com"))
	sender.failTo = "ben@example.com"

	out, err := svc.Send(context.Background(), BroadcastInput{
		Subject: "Hi", Body: "Hello {{display_name}}", CollaboratorIDs: []uuid.UUID{a.ID, b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BroadcastStatusPartial, out.Status)
	assert.Equal(t, 2, out.RecipientCount)
	assert.Equal(t, 1, out.SentCount)
	assert.Equal(t, 1, out.FailedCount)
}

// Test user-supplied names are escaped before landing in HTML.
func TestBroadcast_EscapesNames(t *testing.T) {
	svc, sender, db := setupBroadcastTest(t)
	addCollaborator(t, db, "<b>Ada</b>", strPtr("ada@example.com"))

	_, err := svc.Send(context.Background(), BroadcastInput{Subject: "Hi", Body: "Hello {{first_name}}"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.NotContains(t, sender.sent[0].HTML, "<b>Ada</b>")
}

func TestBroadcast_Errors(t *testing.T) {
	svc, _, db := setupBroadcastTest(t)
	_, err := svc.Send(context.Background(), BroadcastInput{Subject: "Hi", Body: "Hello"})
	assert.ErrorIs(t, err, ErrNoRecipients)

	addCollaborator(t, db, "Ada", strPtr("ada@example.com"))
	_, err = svc.Send(context.Background(), BroadcastInput{Subject: "Hi", Body: "{% if x %}open"})
	assert.ErrorIs(t, err, ErrInvalidTemplate)

	svc.Sender = nil
	_, err = svc.Send(context.Background(), BroadcastInput{Subject: "Hi", Body: "Hello"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// Test a cancelled request context sends nothing.
func TestBroadcast_CancelledContext(t *testing.T) {
	svc, sender, db := setupBroadcastTest(t)
	addCollaborator(t, db, "Ada", strPtr("ada@example.com"))
	addCollaborator(t, db, "Ben", strPtr("ben@example.com"))
	svc.Limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := svc.Send(ctx, BroadcastInput{Subject: "Hi", Body: "Hello"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Empty(t, sender.sent)
}

func TestBrevoClient_Send(t *testing.T) {
	var got BrevoSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := &BrevoClient{APIKey: "key-1", MailFrom: "label@example.com", SenderName: "Northside", Endpoint: srv.URL}
	require.NoError(t, c.Send(context.Background(), Message{ToEmail: "ada@example.com", Subject: "Hi", HTML: "<p>x</p>"}))
	assert.Equal(t, "label@example.com", got.Sender.Email)
	assert.Equal(t, "ada@example.com", got.To[0].Email)

	assert.ErrorIs(t, (&BrevoClient{}).Send(context.Background(), Message{}), ErrNotConfigured)
}

func TestEmailLayout(t *testing.T) {
	html := EmailLayout("A&B Records", "<p>body</p>")
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "A&amp;B Records")
	assert.Contains(t, html, "<p>body</p>")
}
