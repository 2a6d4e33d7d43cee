package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"adscout/internal/classifier"
	"adscout/internal/config"
	"adscout/internal/datastore"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	result   classifier.Result
	err      error
	gotURL   string
	gotToken string
}

func (s *stubClassifier) Classify(_ context.Context, rawURL, accessToken string) (classifier.Result, error) {
	s.gotURL = rawURL
	s.gotToken = accessToken
	return s.result, s.err
}

func newTestServer(t *testing.T, stub *stubClassifier) *Server {
	t.Helper()
	cfg := config.NewDefaultServerConfig()
	cfg.SessionJWTSecret = "test-secret"
	sessions := NewSessionReader(cfg.SessionCookieName, cfg.SessionJWTSecret, zerolog.Nop())
	return NewServer(cfg, stub, sessions, nil, zerolog.Nop())
}

func postClassify(t *testing.T, s *Server, body string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/classify", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &body))
	return body
}

func TestHandleClassify_Success(t *testing.T) {
	stub := &stubClassifier{result: classifier.Result{
		Type:                  classifier.TypeVideo,
		URL:                   "https://youtube.com/watch?v=abc123",
		SuggestedCampaignType: classifier.CampaignVideo,
		VideoID:               "abc123",
	}}
	s := newTestServer(t, stub)

	resp := postClassify(t, s, `{"url":"https://youtube.com/watch?v=abc123"}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "video", body["type"])
	assert.Equal(t, "VIDEO", body["suggestedCampaignType"])
	assert.Equal(t, "abc123", body["videoId"])
	assert.Equal(t, "https://youtube.com/watch?v=abc123", stub.gotURL)
}

func TestHandleClassify_MissingURL(t *testing.T) {
	s := newTestServer(t, &stubClassifier{})

	resp := postClassify(t, s, `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
}

func TestHandleClassify_MalformedBody(t *testing.T) {
	s := newTestServer(t, &stubClassifier{})

	resp := postClassify(t, s, `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleClassify_InvalidAndUnsafeShareGenericError(t *testing.T) {
	for _, stubErr := range []error{classifier.ErrInvalidURL, classifier.ErrUnsafeURL} {
		s := newTestServer(t, &stubClassifier{err: stubErr})

		resp := postClassify(t, s, `{"url":"http://169.254.169.254"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Invalid URL", body["error"])
	}
}

func TestHandleClassify_InternalErrorReturnsSafeDefault(t *testing.T) {
	s := newTestServer(t, &stubClassifier{err: assert.AnError})

	resp := postClassify(t, s, `{"url":"https://example.com"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "website", body["type"])
	assert.Equal(t, "SEARCH", body["suggestedCampaignType"])
}

func TestHandleClassify_SessionTokenForwarded(t *testing.T) {
	stub := &stubClassifier{result: classifier.DefaultResult("https://example.com")}
	s := newTestServer(t, stub)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"access_token": "ya29.test-token",
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	resp := postClassify(t, s, `{"url":"https://example.com"}`, &http.Cookie{
		Name:  config.DefaultSessionCookieName,
		Value: signed,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ya29.test-token", stub.gotToken)
}

func TestHandleClassify_TamperedSessionIgnored(t *testing.T) {
	stub := &stubClassifier{result: classifier.DefaultResult("https://example.com")}
	s := newTestServer(t, stub)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"access_token": "ya29.test-token",
	})
	signed, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	resp := postClassify(t, s, `{"url":"https://example.com"}`, &http.Cookie{
		Name:  config.DefaultSessionCookieName,
		Value: signed,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, stub.gotToken)
}

func TestHandleClassify_AuditRecordedWithoutBlockingResponse(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	store, err := datastore.NewAuditStore(config.AuditConfig{Enabled: true, SQLiteDBPath: dbPath}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.NewDefaultServerConfig()
	stub := &stubClassifier{result: classifier.DefaultResult("https://example.com")}
	s := NewServer(cfg, stub, nil, store, zerolog.Nop())

	resp := postClassify(t, s, `{"url":"https://example.com"}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The write happens off the request path, so poll for it.
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assert.Eventually(t, func() bool {
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM classification_audit`).Scan(&count); err != nil {
			return false
		}
		return count == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &stubClassifier{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDHeaderSet(t *testing.T) {
	s := newTestServer(t, &stubClassifier{result: classifier.DefaultResult("https://example.com")})

	resp := postClassify(t, s, `{"url":"https://example.com"}`, nil)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
