package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/studiocoach/course-api/internal/application/progress"
	"github.com/studiocoach/course-api/internal/config"
	"github.com/studiocoach/course-api/internal/domain"
	jwtinfra "github.com/studiocoach/course-api/internal/infrastructure/jwt"
	"github.com/studiocoach/course-api/internal/transport/http/middleware"
)

// --- mock ---

type mockProgressSvc struct{ mock.Mock }

func (m *mockProgressSvc) RecordCompletion(ctx context.Context, req progress.CompletionRequest) (*progress.CompletionResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*progress.CompletionResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProgressSvc) GetProgress(ctx context.Context, userEmail string) (*progress.Report, error) {
	args := m.Called(ctx, userEmail)
	if r, _ := args.Get(0).(*progress.Report); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

// newTestJWTProvider generates a fresh RSA key pair and returns a *jwtinfra.Provider.
func newTestJWTProvider(t *testing.T) *jwtinfra.Provider {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath := filepath.Join(dir, "private.pem")
	pubPath := filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privKey)})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&privKey.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	p, err := jwtinfra.NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		JWTExpiry:         24 * time.Hour,
	})
	require.NoError(t, err)
	return p
}

// bearerReq builds a request with a signed Bearer token for the given email.
func bearerReq(t *testing.T, p *jwtinfra.Provider, method, target, email string, body []byte) *http.Request {
	t.Helper()
	token, err := p.Sign("u1", email, "Ada B")
	require.NoError(t, err)
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

// serveAuthed wraps the handler with middleware.Auth before serving.
func serveAuthed(p *jwtinfra.Provider, h http.Handler, w http.ResponseWriter, r *http.Request) {
	middleware.Auth(p)(h).ServeHTTP(w, r)
}

// --- GetProgress tests ---

func TestGetProgress_MissingUserEmailParam(t *testing.T) {
	h := NewProgressHandler(&mockProgressSvc{})
	r := httptest.NewRequest(http.MethodGet, "/v1/progress", nil)
	rr := httptest.NewRecorder()
	h.GetProgress(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "User email is required", resp["error"])
}

func TestGetProgress_MissingClaims(t *testing.T) {
	h := NewProgressHandler(&mockProgressSvc{})
	r := httptest.NewRequest(http.MethodGet, "/v1/progress?userEmail=a@b.com", nil)
	rr := httptest.NewRecorder()
	h.GetProgress(rr, r) // called directly, no claims in context
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetProgress_TokenEmailMismatch(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewProgressHandler(&mockProgressSvc{})

	r := bearerReq(t, p, http.MethodGet, "/v1/progress?userEmail=other@b.com", "a@b.com", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.GetProgress), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestGetProgress_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockProgressSvc{}
	svc.On("GetProgress", mock.Anything, "a@b.com").Return(&progress.Report{
		Progress: []domain.UserProgress{{ProgressID: "p1", Completed: true}},
		Stats:    domain.ProgressStats{TotalChapters: 1, CompletedChapters: 1, TotalWatchTime: 12},
	}, nil)
	h := NewProgressHandler(svc)

	r := bearerReq(t, p, http.MethodGet, "/v1/progress?userEmail=a@b.com", "a@b.com", nil)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.GetProgress), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp progress.Report
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 12, resp.Stats.TotalWatchTime)
	svc.AssertExpectations(t)
}

// --- RecordCompletion tests ---

func TestRecordCompletion_InvalidBody(t *testing.T) {
	h := NewProgressHandler(&mockProgressSvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/progress", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.RecordCompletion(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecordCompletion_MissingClaims(t *testing.T) {
	h := NewProgressHandler(&mockProgressSvc{})
	body, _ := json.Marshal(progress.CompletionRequest{
		UserEmail: "a@b.com", ChapterID: "ch1", ChapterTitle: "T", CourseID: "co1", CourseTitle: "C",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/progress", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.RecordCompletion(rr, r) // no claims in context
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRecordCompletion_TokenEmailMismatch(t *testing.T) {
	p := newTestJWTProvider(t)
	h := NewProgressHandler(&mockProgressSvc{})

	body, _ := json.Marshal(progress.CompletionRequest{
		UserEmail: "other@b.com", ChapterID: "ch1", ChapterTitle: "T", CourseID: "co1", CourseTitle: "C",
	})
	r := bearerReq(t, p, http.MethodPost, "/v1/progress", "a@b.com", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.RecordCompletion), rr, r)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRecordCompletion_WritesDisabled_Returns500(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockProgressSvc{}
	svc.On("RecordCompletion", mock.Anything, mock.Anything).Return(nil, domain.ErrMisconfigured)
	h := NewProgressHandler(svc)

	body, _ := json.Marshal(progress.CompletionRequest{
		UserEmail: "a@b.com", ChapterID: "ch1", ChapterTitle: "T", CourseID: "co1", CourseTitle: "C",
	})
	r := bearerReq(t, p, http.MethodPost, "/v1/progress", "a@b.com", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.RecordCompletion), rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "Server configuration error", resp["error"])
}

func TestRecordCompletion_HappyPath(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockProgressSvc{}
	rec := &domain.UserProgress{ProgressID: "p1", UserEmail: "a@b.com", ChapterID: "ch1", Completed: true}
	svc.On("RecordCompletion", mock.Anything, mock.Anything).Return(&progress.CompletionResult{
		Progress:        rec,
		RevalidatedTags: []string{"progress-a@b.com"},
	}, nil)
	h := NewProgressHandler(svc)

	body, _ := json.Marshal(progress.CompletionRequest{
		UserEmail: "a@b.com", ChapterID: "ch1", ChapterTitle: "T", CourseID: "co1", CourseTitle: "C",
	})
	r := bearerReq(t, p, http.MethodPost, "/v1/progress", "a@b.com", body)
	rr := httptest.NewRecorder()
	serveAuthed(p, http.HandlerFunc(h.RecordCompletion), rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp recordCompletionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"progress-a@b.com"}, resp.RevalidatedTags)
	svc.AssertExpectations(t)
}
