package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DocumentRequest is one contract sent out for signature.
type DocumentRequest struct {
	Title       string `json:"title"`
	HTML        string `json:"html"`
	SignerName  string `json:"signer_name"`
	SignerEmail string `json:"signer_email"`
	ExternalID  string `json:"external_id"`
}

// Client creates signature requests at the e-signature vendor.
type Client interface {
	CreateDocument(ctx context.Context, req DocumentRequest) (string, error)
}

// HTTPClient is a Client backed by the vendor's REST API.
type HTTPClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

type createDocumentResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
}

func (c *HTTPClient) CreateDocument(ctx context.Context, in DocumentRequest) (string, error) {
	if c.BaseURL == "" {
		return "", fmt.Errorf("esign: ESIGN_BASE_URL is not set")
	}
	if c.APIKey == "" {
		return "", fmt.Errorf("esign: ESIGN_API_KEY is not set")
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return "", err
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/v1/documents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("esign request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("esign error: status %d body: %s", resp.StatusCode, string(respBody))
	}
	var data createDocumentResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("esign response decode: %w", err)
	}
	if data.ID != "" {
		return data.ID, nil
	}
	if data.DocumentID != "" {
		return data.DocumentID, nil
	}
	return "", fmt.Errorf("esign returned no document id, body: %s", string(respBody))
}
