package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
)

type fakeTokenSrv struct {
	status    *dto.TokenStatusResponse
	statusErr error
	saved     string
}

func (f *fakeTokenSrv) Status(context.Context, string) (*dto.TokenStatusResponse, error) {
	return f.status, f.statusErr
}

func (f *fakeTokenSrv) Save(_ context.Context, _ string, canvasToken string) (*dto.TokenStatusResponse, error) {
	f.saved = canvasToken
	return &dto.TokenStatusResponse{HasToken: true, Last4: "1234", MaskedToken: "****...1234"}, nil
}

func TestTokenHandlerStatusConnected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTokenHandler(&fakeTokenSrv{
		status: &dto.TokenStatusResponse{HasToken: true, Last4: "1234", MaskedToken: "****...1234"},
	})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, httptest.NewRequest(http.MethodGet, "/profile/token", nil))

	handler.Status(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, true, envelope.Data["hasToken"])
	assert.Equal(t, "****...1234", envelope.Data["maskedToken"])
}

func TestTokenHandlerSaveRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTokenHandler(&fakeTokenSrv{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profile/token", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	c := authedContext(t, rec, req)

	handler.Save(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenHandlerSaveSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeTokenSrv{}
	handler := NewTokenHandler(srv)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profile/token", strings.NewReader(`{"canvasToken":"canvas-token-1234"}`))
	req.Header.Set("Content-Type", "application/json")
	c := authedContext(t, rec, req)

	handler.Save(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "canvas-token-1234", srv.saved)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, "****...1234", envelope.Data["maskedToken"])
}
