package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"
)

var (
	ErrStorageNotConfigured = errors.New("artwork storage is not configured")
	ErrInvalidFileName      = errors.New("file_name must end in .jpg, .jpeg, .png or .webp")
)

// StorageClient issues signed upload URLs for a bucket.
type StorageClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error)
}

// SupabaseClient is a StorageClient backed by the Supabase Storage HTTP API.
type SupabaseClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"`
}

func (c *SupabaseClient) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	if c.BaseURL == "" || c.SecretKey == "" {
		return "", ErrStorageNotConfigured
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, objectPath)

	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	// storage expects the service key both as apikey and as bearer token
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("storage error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var data signedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("storage response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		// relative, e.g. /object/upload/sign/...?token=
		u := data.URL
		if !strings.HasPrefix(u, "/") {
			u = "/" + u
		}
		if !strings.HasPrefix(u, "/storage/v1") {
			u = "/storage/v1" + u
		}
		return base + u, nil
	}
	return "", fmt.Errorf("storage returned no signed URL, body: %s", string(respBody))
}

// ArtworkService hands out signed upload URLs for smart-link and release artwork.
type ArtworkService struct {
	Client     StorageClient
	StorageURL string
	Bucket     string
	Now        func() time.Time
}

// UploadResult is returned to the client, which PUTs the file to UploadURL and stores PublicURL.
type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

var unsafeName = regexp.MustCompile(`[^a-z0-9._-]+`)

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// SanitizeFileName lowercases name, drops any directory part and replaces unsafe runs with "-".
func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = unsafeName.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(name, "-.")
}

// SignArtworkUpload returns a signed URL for a new artwork object named after fileName.
func (s *ArtworkService) SignArtworkUpload(ctx context.Context, fileName string) (*UploadResult, error) {
	clean := SanitizeFileName(fileName)
	if !imageExts[path.Ext(clean)] {
		return nil, ErrInvalidFileName
	}
	if s.Client == nil {
		return nil, ErrStorageNotConfigured
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	objectPath := fmt.Sprintf("artwork/%d-%s", now().UnixMilli(), clean)

	signedURL, err := s.Client.CreateSignedUploadURL(ctx, s.Bucket, objectPath)
	if err != nil {
		return nil, err
	}
	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(s.StorageURL, "/"), s.Bucket, objectPath)
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: publicURL,
		Path:      objectPath,
	}, nil
}
