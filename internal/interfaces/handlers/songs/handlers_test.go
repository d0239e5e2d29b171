package songs

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	songsvc "rightsdesk-backend/internal/application/songs"
	"rightsdesk-backend/internal/domain"
	"rightsdesk-backend/internal/infrastructure/database"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Success  bool                   `json:"success"`
	Error    string                 `json:"error"`
	Code     string                 `json:"code"`
	Details  json.RawMessage        `json:"details"`
	Data     json.RawMessage        `json:"data"`
	Metadata map[string]interface{} `json:"metadata"`
}

func setup(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	h := &Handlers{Service: &songsvc.Service{DB: db}}
	app := fiber.New()
	app.Post("/api/songs", h.CreateSong)
	app.Get("/api/songs", h.ListSongs)
	app.Get("/api/songs/:id", h.GetSong)
	app.Post("/api/songs/:id/collaborators", h.AddCollaborator)
	app.Delete("/api/songs/:id/collaborators/:scId", h.RemoveCollaborator)
	app.Post("/api/songs/:id/publishing-entities", h.AttachPublishingEntity)
	app.Post("/api/collaborators", h.CreateCollaborator)
	app.Get("/api/collaborators", h.ListCollaborators)
	app.Post("/api/publishing-entities", h.CreatePublishingEntity)
	app.Get("/api/publishing-entities", h.ListPublishingEntities)
	return app, db
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out envelope
	b, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(b, &out), string(b))
	return resp.StatusCode, out
}

func decodeID(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var v struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &v))
	require.NotEmpty(t, v.ID)
	return v.ID
}

func TestCreateSong(t *testing.T) {
	app, _ := setup(t)

	status, out := call(t, app, "POST", "/api/songs", map[string]interface{}{"title": "  Night Drive ", "releaseDate": "2024-05-01"})
	require.Equal(t, fiber.StatusCreated, status, out.Error)
	var song domain.Song
	require.NoError(t, json.Unmarshal(out.Data, &song))
	assert.Equal(t, "Night Drive", song.Title)
	require.NotNil(t, song.ReleaseDate)
	assert.Equal(t, 2024, song.ReleaseDate.Year())

	status, out = call(t, app, "POST", "/api/songs", map[string]interface{}{"title": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUIRED", out.Code)

	status, out = call(t, app, "POST", "/api/songs", map[string]interface{}{"title": "x", "releaseDate": "May 1"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_DATETIME", out.Code)

	status, out = call(t, app, "GET", "/api/songs", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, out.Metadata["count"])
}

func TestGetSong_NotFoundAndBadID(t *testing.T) {
	app, _ := setup(t)

	status, _ := call(t, app, "GET", "/api/songs/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out := call(t, app, "GET", "/api/songs/3f1c2a7e-9b4d-4c8e-a1f0-1234567890ab", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Song not found", out.Error)
}

func TestCreditsFlow(t *testing.T) {
	app, db := setup(t)

	_, out := call(t, app, "POST", "/api/songs", map[string]interface{}{"title": "Night Drive"})
	songID := decodeID(t, out.Data)

	status, out := call(t, app, "POST", "/api/collaborators", map[string]interface{}{
		"firstName": "Ada", "lastName": "Lane", "capableRoles": []string{"writer", "drummer"},
	})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_SONG_ROLE", out.Code)
	assert.Contains(t, string(out.Details), "capableRoles[1]")

	status, out = call(t, app, "POST", "/api/collaborators", map[string]interface{}{
		"firstName": "Ada", "lastName": "Lane", "email": "ADA@Example.com", "capableRoles": []string{"writer"},
	})
	require.Equal(t, fiber.StatusCreated, status, out.Error)
	collabID := decodeID(t, out.Data)

	status, out = call(t, app, "POST", "/api/songs/"+songID+"/collaborators", map[string]interface{}{"collaboratorId": collabID, "role": "producer"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, songsvc.ErrRoleNotCapable.Error(), out.Error)

	status, out = call(t, app, "POST", "/api/songs/"+songID+"/collaborators", map[string]interface{}{"collaboratorId": collabID, "role": "writer"})
	require.Equal(t, fiber.StatusCreated, status, out.Error)
	creditID := decodeID(t, out.Data)

	status, _ = call(t, app, "POST", "/api/songs/"+songID+"/collaborators", map[string]interface{}{"collaboratorId": collabID, "role": "writer"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, out = call(t, app, "POST", "/api/publishing-entities", map[string]interface{}{"name": "North Pub", "isInternal": true})
	require.Equal(t, fiber.StatusCreated, status, out.Error)
	entityID := decodeID(t, out.Data)

	status, _ = call(t, app, "POST", "/api/publishing-entities", map[string]interface{}{"name": "north pub"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = call(t, app, "POST", "/api/songs/"+songID+"/publishing-entities", map[string]interface{}{"publishingEntityId": entityID})
	assert.Equal(t, fiber.StatusCreated, status)

	status, out = call(t, app, "GET", "/api/songs/"+songID, nil)
	require.Equal(t, fiber.StatusOK, status)
	var song domain.Song
	require.NoError(t, json.Unmarshal(out.Data, &song))
	require.Len(t, song.Collaborators, 1)
	require.Len(t, song.PublishingEntities, 1)
	require.NotNil(t, song.Collaborators[0].Collaborator)
	assert.Equal(t, "ada@example.com", *song.Collaborators[0].Collaborator.Email)

	// credits are frozen once publishing is locked
	require.NoError(t, db.Model(&domain.Song{}).Where("id = ?", songID).Update("publishing_locked", true).Error)
	status, out = call(t, app, "DELETE", "/api/songs/"+songID+"/collaborators/"+creditID, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, songsvc.ErrSplitsLocked.Error(), out.Error)

	require.NoError(t, db.Model(&domain.Song{}).Where("id = ?", songID).Update("publishing_locked", false).Error)
	status, _ = call(t, app, "DELETE", "/api/songs/"+songID+"/collaborators/"+creditID, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, app, "DELETE", "/api/songs/"+songID+"/collaborators/"+creditID, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, out = call(t, app, "GET", "/api/collaborators", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, out.Metadata["count"])

	status, out = call(t, app, "GET", "/api/publishing-entities", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, out.Metadata["count"])
}

func TestAddCollaborator_UnknownCollaborator(t *testing.T) {
	app, _ := setup(t)
	_, out := call(t, app, "POST", "/api/songs", map[string]interface{}{"title": "Night Drive"})
	songID := decodeID(t, out.Data)

	status, out := call(t, app, "POST", "/api/songs/"+songID+"/collaborators", map[string]interface{}{
		"collaboratorId": "3f1c2a7e-9b4d-4c8e-a1f0-1234567890ab", "role": "writer",
	})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, songsvc.ErrCollaboratorNotFound.Error(), out.Error)
}
