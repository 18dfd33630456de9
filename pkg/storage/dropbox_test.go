package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropboxDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/files/download", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var arg map[string]string
		require.NoError(t, json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg))
		assert.Equal(t, "/Bills.xlsm", arg["path"])

		_, _ = w.Write([]byte("workbook-bytes"))
	}))
	defer srv.Close()

	client := NewDropbox("tok").WithBaseURL(srv.URL)
	data, err := client.Download(context.Background(), "/Bills.xlsm")
	require.NoError(t, err)
	assert.Equal(t, []byte("workbook-bytes"), data)
}

func TestDropboxDownloadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error_summary": "path/not_found"}`, http.StatusConflict)
	}))
	defer srv.Close()

	client := NewDropbox("tok").WithBaseURL(srv.URL)
	_, err := client.Download(context.Background(), "/missing.xlsm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
}

func TestDropboxUpload(t *testing.T) {
	var uploaded []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/files/upload", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		var arg map[string]any
		require.NoError(t, json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg))
		assert.Equal(t, "overwrite", arg["mode"])

		uploaded, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewDropbox("tok").WithBaseURL(srv.URL)
	require.NoError(t, client.Upload(context.Background(), "/Bills.xlsm", []byte("new-bytes")))
	assert.Equal(t, []byte("new-bytes"), uploaded)
}
