package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultContentURL = "https://content.dropboxapi.com"

// Dropbox implements Store against the Dropbox content API.
type Dropbox struct {
	token   string
	baseURL string
	client  *http.Client
}

// NewDropbox creates a client with the given access token.
func NewDropbox(token string) *Dropbox {
	return &Dropbox{
		token:   token,
		baseURL: defaultContentURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// WithBaseURL redirects API calls, used by tests.
func (d *Dropbox) WithBaseURL(url string) *Dropbox {
	d.baseURL = url
	return d
}

// Download fetches the file at the given Dropbox path.
func (d *Dropbox) Download(ctx context.Context, path string) ([]byte, error) {
	arg, err := json.Marshal(map[string]string{"path": path})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/2/files/download", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dropbox download %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("download", path, resp)
	}
	return io.ReadAll(resp.Body)
}

// Upload overwrites the file at the given Dropbox path.
func (d *Dropbox) Upload(ctx context.Context, path string, data []byte) error {
	arg, err := json.Marshal(map[string]any{"path": path, "mode": "overwrite", "mute": true})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/2/files/upload", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+d.token)
	req.Header.Set("Dropbox-API-Arg", string(arg))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("dropbox upload %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError("upload", path, resp)
	}
	return nil
}

func apiError(op, path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("dropbox %s %s: status %d: %s", op, path, resp.StatusCode, bytes.TrimSpace(body))
}
