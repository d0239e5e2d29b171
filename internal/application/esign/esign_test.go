package esign

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_CreateDocument(t *testing.T) {
	var got DocumentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/documents", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"doc_123"}`))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL + "/", APIKey: "key-1"}
	id, err := c.CreateDocument(context.Background(), DocumentRequest{Title: "Split Sheet", SignerEmail: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "doc_123", id)
	assert.Equal(t, "ada@example.com", got.SignerEmail)
}

func TestHTTPClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"bad html"}`))
	}))
	defer srv.Close()

	_, err := (&HTTPClient{BaseURL: srv.URL, APIKey: "k"}).CreateDocument(context.Background(), DocumentRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")

	_, err = (&HTTPClient{APIKey: "k"}).CreateDocument(context.Background(), DocumentRequest{})
	assert.Error(t, err)
}

func TestParseEvent(t *testing.T) {
	body := []byte(`{"event":"document.signed","document_id":"doc_123"}`)
	sig := Sign("whsec", body)

	ev, err := ParseEvent("whsec", body, sig)
	require.NoError(t, err)
	assert.Equal(t, EventSigned, ev.Type)
	assert.Equal(t, "doc_123", ev.DocumentID)

	_, err = ParseEvent("other", body, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = ParseEvent("whsec", body, "not-hex")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = ParseEvent("", body, sig)
	assert.ErrorIs(t, err, ErrMissingSecret)

	bad := []byte(`{"event":"document.signed"}`)
	_, err = ParseEvent("whsec", bad, Sign("whsec", bad))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
