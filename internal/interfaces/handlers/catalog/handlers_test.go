package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	catalogsvc "rightsdesk-backend/internal/application/catalog"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	err       error
	lastLimit int
}

func (s *stubSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]catalogsvc.Track, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastLimit = limit
	return []catalogsvc.Track{{ID: "t1", Name: query, ISRC: "USRC17607839"}}, nil
}

func get(t *testing.T, s catalogsvc.Searcher, target string) (int, map[string]interface{}) {
	t.Helper()
	h := &Handlers{Service: &catalogsvc.Service{Searcher: s}}
	app := fiber.New()
	app.Get("/api/catalog/search", h.Search)
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out), string(b))
	return resp.StatusCode, out
}

func TestSearch(t *testing.T) {
	s := &stubSearcher{}
	status, out := get(t, s, "/api/catalog/search?q=night+drive&limit=5")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 5, s.lastLimit)
	assert.EqualValues(t, 1, out["metadata"].(map[string]interface{})["count"])
}

func TestSearch_Errors(t *testing.T) {
	status, _ := get(t, &stubSearcher{}, "/api/catalog/search")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = get(t, &stubSearcher{err: catalogsvc.ErrNotConfigured}, "/api/catalog/search?q=x")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	status, _ = get(t, &stubSearcher{err: errors.New("spotify down")}, "/api/catalog/search?q=x")
	assert.Equal(t, fiber.StatusBadGateway, status)
}
