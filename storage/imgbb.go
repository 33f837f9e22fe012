package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultImgBBEndpoint = "https://api.imgbb.com/1/upload"

type ImgBBUploaderConfig struct {
	APIKey string
	// Endpoint overrides the ImgBB API URL, used in tests.
	Endpoint string
	// Client overrides the HTTP client, used in tests.
	Client *http.Client
}

// imgBBUploader stores images on the ImgBB hosting service. ImgBB keeps
// the object forever and addresses it by the URL it returns, so the
// stored key IS the public URL and Delete is a no-op.
type imgBBUploader struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewImgBBUploader(cfg ImgBBUploaderConfig) (FileUploader, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("invalid ImgBB configuration: APIKey is required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultImgBBEndpoint
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &imgBBUploader{apiKey: cfg.APIKey, endpoint: endpoint, client: client}, nil
}

type imgBBResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
	Status  int  `json:"status"`
}

func (u *imgBBUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", key)
	if err != nil {
		return nil, fmt.Errorf("failed to build ImgBB form: %w", err)
	}
	if _, err = io.Copy(part, reader); err != nil {
		return nil, fmt.Errorf("failed to read upload payload: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize ImgBB form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint+"?key="+u.apiKey, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build ImgBB request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ImgBB: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ImgBB upload failed with status %d", resp.StatusCode)
	}

	var parsed imgBBResponse
	if err = json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode ImgBB response: %w", err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		return nil, fmt.Errorf("ImgBB upload rejected with status %d", parsed.Status)
	}

	return &UploadResult{
		Key:      parsed.Data.URL,
		Location: parsed.Data.URL,
	}, nil
}

// Delete is a no-op: the free ImgBB API has no delete endpoint.
func (u *imgBBUploader) Delete(ctx context.Context, key string) error {
	return nil
}

func (u *imgBBUploader) GetPublicURL(key string) string {
	return key
}
