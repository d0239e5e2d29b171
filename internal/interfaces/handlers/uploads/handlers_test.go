package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	uploadsvc "rightsdesk-backend/internal/application/uploads"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStorage struct {
	err  error
	path string
}

func (s *stubStorage) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.path = objectPath
	return "https://storage.test/upload/" + objectPath + "?token=t", nil
}

func newApp(storage uploadsvc.StorageClient) *fiber.App {
	h := &Handlers{Service: &uploadsvc.ArtworkService{
		Client:     storage,
		StorageURL: "https://storage.test",
		Bucket:     "artwork",
		Now:        func() time.Time { return time.UnixMilli(1700000000000) },
	}}
	app := fiber.New()
	app.Post("/api/uploads/artwork", h.UploadArtwork)
	return app
}

func post(t *testing.T, app *fiber.App, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/uploads/artwork", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out), string(b))
	return resp.StatusCode, out
}

func TestUploadArtwork(t *testing.T) {
	storage := &stubStorage{}
	app := newApp(storage)

	status, out := post(t, app, `{"file_name":"Cover Art.PNG"}`)
	require.Equal(t, fiber.StatusOK, status, out)
	assert.Equal(t, "artwork/1700000000000-cover-art.png", storage.path)
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "https://storage.test/storage/v1/object/public/artwork/artwork/1700000000000-cover-art.png", data["publicUrl"])
	assert.Contains(t, data["uploadUrl"], "token=t")
}

func TestUploadArtwork_Errors(t *testing.T) {
	app := newApp(&stubStorage{})
	status, _ := post(t, app, `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, out := post(t, app, `{"file_name":"notes.pdf"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, uploadsvc.ErrInvalidFileName.Error(), out["error"])

	status, _ = post(t, newApp(&stubStorage{err: uploadsvc.ErrStorageNotConfigured}), `{"file_name":"a.png"}`)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	status, _ = post(t, newApp(&stubStorage{err: errors.New("boom")}), `{"file_name":"a.png"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
}
