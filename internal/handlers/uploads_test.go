package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clipstream/backend/internal/storage"
)

type mediaStorageStub struct {
	key         string
	contentType string
	body        []byte
}

func (s *mediaStorageStub) Save(_ context.Context, key, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.key, s.contentType, s.body = key, contentType, data
	return "https://cdn.example.com/" + key, nil
}

func (s *mediaStorageStub) PresignUpload(_ context.Context, key, contentType string) (storage.PresignedUpload, error) {
	s.key, s.contentType = key, contentType
	return storage.PresignedUpload{Key: key, UploadURL: "https://bucket/" + key, Method: http.MethodPut}, nil
}

func TestUploadHandlerAuthorize(t *testing.T) {
	stub := &mediaStorageStub{}
	handler := UploadHandler{Storage: stub}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads/auth?name=clip.mp4&contentType=video/mp4", nil)
	handler.Authorize(rec, withPrincipal(req, ownerPrincipal))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.HasPrefix(stub.key, "uploads/"+ownerPrincipal.UserID+"/") || !strings.HasSuffix(stub.key, ".mp4") {
		t.Fatalf("unexpected key %q", stub.key)
	}

	var upload storage.PresignedUpload
	if err := json.NewDecoder(rec.Body).Decode(&upload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if upload.Key != stub.key || upload.Method != http.MethodPut {
		t.Fatalf("unexpected upload %+v", upload)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/uploads/auth?name=doc.pdf&contentType=application/pdf", nil)
	handler.Authorize(rec, withPrincipal(req, ownerPrincipal))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestUploadHandlerUnconfigured(t *testing.T) {
	handler := UploadHandler{}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/uploads/auth?name=clip.mp4&contentType=video/mp4", nil)
	handler.Authorize(rec, withPrincipal(req, ownerPrincipal))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rec.Code)
	}
}

func TestUploadHandlerUpload(t *testing.T) {
	stub := &mediaStorageStub{}
	handler := UploadHandler{Storage: stub, MaxSize: 16}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads?name=thumb.jpg", bytes.NewReader([]byte("jpegdata")))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := httptest.NewRecorder()
	handler.Upload(rec, withPrincipal(req, ownerPrincipal))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if string(stub.body) != "jpegdata" || stub.contentType != "image/jpeg" {
		t.Fatalf("unexpected stored upload %q %q", stub.body, stub.contentType)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["url"] != "https://cdn.example.com/"+stub.key {
		t.Fatalf("unexpected url %q", resp["url"])
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/uploads?name=big.mp4", bytes.NewReader(make([]byte, 64)))
	req.Header.Set("Content-Type", "video/mp4")
	rec = httptest.NewRecorder()
	handler.Upload(rec, withPrincipal(req, ownerPrincipal))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", rec.Code)
	}
}
