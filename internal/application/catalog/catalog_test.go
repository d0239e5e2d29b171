package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{"tracks":{"items":[{
  "id":"t1","name":"Night Drive",
  "artists":[{"name":"Ana"},{"name":"Bo"}],
  "album":{"name":"Roads","images":[{"url":"https://img/1.jpg"},{"url":"https://img/2.jpg"}]},
  "external_ids":{"isrc":"USABC2400001"},
  "external_urls":{"spotify":"https://open.spotify.com/track/t1"}
}]}}`

func fakeSpotify(t *testing.T, tokenCalls, searchCalls *int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		id, secret, ok := r.BasicAuth()
		if !ok || id != "id" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(searchCalls, 1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(searchBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSpotifyClient_SearchTracks(t *testing.T) {
	var tokenCalls, searchCalls int32
	srv := fakeSpotify(t, &tokenCalls, &searchCalls)
	c := &SpotifyClient{ClientID: "id", ClientSecret: "secret", AuthURL: srv.URL + "/api/token", APIURL: srv.URL}

	tracks, err := c.SearchTracks(context.Background(), "night drive", 5)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, Track{
		ID: "t1", Name: "Night Drive", Artists: []string{"Ana", "Bo"}, Album: "Roads",
		ISRC: "USABC2400001", URL: "https://open.spotify.com/track/t1", Artwork: "https://img/1.jpg",
	}, tracks[0])

	_, err = c.SearchTracks(context.Background(), "isrc:USABC2400001", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&searchCalls))
}

func TestSpotifyClient_Errors(t *testing.T) {
	_, err := (&SpotifyClient{}).SearchTracks(context.Background(), "x", 5)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = (&SpotifyClient{ClientID: "id", ClientSecret: "secret"}).SearchTracks(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)

	var tokenCalls, searchCalls int32
	srv := fakeSpotify(t, &tokenCalls, &searchCalls)
	c := &SpotifyClient{ClientID: "id", ClientSecret: "wrong", AuthURL: srv.URL + "/api/token", APIURL: srv.URL}
	_, err = c.SearchTracks(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Equal(t, int32(0), atomic.LoadInt32(&searchCalls))
}

type countingSearcher struct{ calls int }

func (s *countingSearcher) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	s.calls++
	return []Track{{ID: "t1", Name: query}}, nil
}

func TestService_CachesResults(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	searcher := &countingSearcher{}
	svc := &Service{Searcher: searcher, Rdb: rdb}
	ctx := context.Background()

	first, err := svc.Search(ctx, "Night Drive", 10)
	require.NoError(t, err)
	second, err := svc.Search(ctx, "night drive", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, searcher.calls)
	assert.Len(t, mr.Keys(), 1)

	_, err = svc.Search(ctx, "", 10)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}
