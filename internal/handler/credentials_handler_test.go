package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeamc/skool/internal/middleware"
	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

type credentialsServiceMock struct {
	setResp   *models.PublicCredentials
	setErr    error
	getResp   *models.PublicCredentials
	getErr    error
	deleteErr error
	lastSet   *models.Private
}

func (m *credentialsServiceMock) Set(ctx context.Context, userID uuid.UUID, private models.Private) (*models.PublicCredentials, error) {
	m.lastSet = &private
	if m.setErr != nil {
		return nil, m.setErr
	}
	return m.setResp, nil
}

func (m *credentialsServiceMock) Get(ctx context.Context, userID uuid.UUID) (*models.PublicCredentials, error) {
	return m.getResp, m.getErr
}

func (m *credentialsServiceMock) Delete(ctx context.Context, userID uuid.UUID) error {
	return m.deleteErr
}

func authedContext(t *testing.T, w *httptest.ResponseRecorder, method, path string, body []byte) (*gin.Context, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	userID := uuid.New()
	c.Set(middleware.ContextUserKey, userID)
	return c, userID
}

// authedRouter mounts a handler behind a stubbed identity so the response,
// including status-only replies, is flushed the way it is in production.
func authedRouter(t *testing.T, method, path string, h gin.HandlerFunc) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, userID)
	}, h)
	return r, userID
}

func TestCredentialsHandlerSet(t *testing.T) {
	svc := &credentialsServiceMock{setResp: &models.PublicCredentials{
		UpdatedAt: time.Now(),
		Public:    models.Public{Service: models.ServiceSkolplattformen, Username: "alice"},
	}}
	h := NewCredentialsHandler(svc)

	w := httptest.NewRecorder()
	body, _ := json.Marshal(map[string]string{
		"service":  "skolplattformen",
		"username": "alice",
		"password": "hunter2",
	})
	c, _ := authedContext(t, w, http.MethodPut, "/credentials", body)

	h.Set(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.lastSet)
	assert.Equal(t, "hunter2", svc.lastSet.Password)

	// Password never appears in the response body.
	assert.NotContains(t, w.Body.String(), "hunter2")
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
}

func TestCredentialsHandlerSetRejectsUnknownService(t *testing.T) {
	h := NewCredentialsHandler(&credentialsServiceMock{})

	w := httptest.NewRecorder()
	body, _ := json.Marshal(map[string]string{
		"service":  "unknown",
		"username": "alice",
		"password": "hunter2",
	})
	c, _ := authedContext(t, w, http.MethodPut, "/credentials", body)

	h.Set(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCredentialsHandlerSetBadCredentials(t *testing.T) {
	h := NewCredentialsHandler(&credentialsServiceMock{setErr: appErrors.ErrBadCredentials})

	w := httptest.NewRecorder()
	body, _ := json.Marshal(map[string]string{
		"service":  "skolplattformen",
		"username": "alice",
		"password": "wrong",
	})
	c, _ := authedContext(t, w, http.MethodPut, "/credentials", body)

	h.Set(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "BAD_CREDENTIALS")
}

func TestCredentialsHandlerGetAbsent(t *testing.T) {
	h := NewCredentialsHandler(&credentialsServiceMock{
		getErr: appErrors.Clone(appErrors.ErrNotFound, "no credentials set"),
	})

	w := httptest.NewRecorder()
	c, _ := authedContext(t, w, http.MethodGet, "/credentials", nil)

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no credentials set")
}

func TestCredentialsHandlerDelete(t *testing.T) {
	h := NewCredentialsHandler(&credentialsServiceMock{})
	r, _ := authedRouter(t, http.MethodDelete, "/credentials", h.Delete)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodDelete, "/credentials", nil)
	require.NoError(t, err)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
