package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/progressnav/canvas-pulse-api/internal/dto"
	"github.com/progressnav/canvas-pulse-api/internal/models"
	appErrors "github.com/progressnav/canvas-pulse-api/pkg/errors"
)

type tokenGateway interface {
	TokenStatus(ctx context.Context, teacherID string) (models.TokenStatus, error)
	SaveToken(ctx context.Context, teacherID, canvasToken string) (models.TokenStatus, error)
}

// TokenService fronts the backend's Canvas token storage. The raw token only
// travels inbound on save; everything outbound is the masked tail.
type TokenService struct {
	gateway  tokenGateway
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewTokenService(gateway tokenGateway, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *TokenService {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{gateway: gateway, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Status reports whether the teacher has a Canvas token stored.
func (s *TokenService) Status(ctx context.Context, teacherID string) (*dto.TokenStatusResponse, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}

	cacheKey := tokenStatusCacheKey(teacherID)
	if s.cache.Enabled() {
		var cached models.TokenStatus
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return buildTokenResponse(cached), nil
		}
	}

	status, err := s.gateway.TokenStatus(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, status, s.cacheTTL); err != nil {
			s.logger.Warn("token status cache write failed", zap.Error(err))
		}
	}
	return buildTokenResponse(status), nil
}

// Save stores a new Canvas token with the backend. The token must be
// non-blank after trimming; whitespace padding is stripped before storage.
func (s *TokenService) Save(ctx context.Context, teacherID, canvasToken string) (*dto.TokenStatusResponse, error) {
	if teacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	canvasToken = strings.TrimSpace(canvasToken)
	if canvasToken == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "canvas token must not be blank")
	}

	status, err := s.gateway.SaveToken(ctx, teacherID, canvasToken)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, tokenStatusCacheKey(teacherID), status, s.cacheTTL); err != nil {
			s.logger.Warn("token status cache write failed", zap.Error(err))
		}
	}
	s.logger.Info("canvas token saved", zap.String("teacher_id", teacherID))
	return buildTokenResponse(status), nil
}

// MaskToken renders a token's tail as ****...NNNN, the only form this service
// ever returns.
func MaskToken(last4 string) string {
	if last4 == "" {
		return ""
	}
	return fmt.Sprintf("****...%s", last4)
}

func buildTokenResponse(status models.TokenStatus) *dto.TokenStatusResponse {
	resp := &dto.TokenStatusResponse{HasToken: status.HasToken}
	if status.HasToken {
		resp.Last4 = status.Last4
		resp.MaskedToken = MaskToken(status.Last4)
	}
	return resp
}

func tokenStatusCacheKey(teacherID string) string {
	return fmt.Sprintf("token-status:%s", teacherID)
}
