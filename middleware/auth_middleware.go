package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/upb/agent-cost-control/auth"
	"github.com/upb/agent-cost-control/services"
	"github.com/upb/agent-cost-control/utils"
	"go.uber.org/zap"
)

// APIKeyHeader carries the static API key
const APIKeyHeader = "X-API-Key"

// TokenValidator defines the interface for validating bearer tokens
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthConfig configures AuthMiddleware
type AuthConfig struct {
	// APIKey accepted in the X-API-Key header. Empty disables key auth.
	APIKey string
	// Validator for bearer tokens. Nil disables bearer auth.
	Validator TokenValidator
	// Disabled lets every request through as an anonymous principal.
	Disabled bool
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	apiKey    []byte
	validator TokenValidator
	disabled  bool
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(cfg AuthConfig, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		apiKey:    []byte(cfg.APIKey),
		validator: cfg.Validator,
		disabled:  cfg.Disabled,
		logger:    logger,
	}
}

// RequireAuth requires a valid API key or bearer token. The API key is
// checked first when both are sent.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		if m.disabled {
			ctx = WithPrincipal(ctx, &Principal{Subject: "anonymous", Method: AuthMethodDisabled})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		if key := r.Header.Get(APIKeyHeader); key != "" {
			if len(m.apiKey) == 0 || subtle.ConstantTimeCompare([]byte(key), m.apiKey) != 1 {
				m.logger.Warn("invalid API key",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, services.ErrInvalidAPIKey.Message)
				return
			}
			ctx = WithPrincipal(ctx, &Principal{Subject: "api-key", Method: AuthMethodAPIKey})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token := extractBearerToken(r)
		if token == "" || m.validator == nil {
			m.logger.Warn("missing credentials",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, services.ErrUnauthorized.Message)
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, services.ErrInvalidToken.Message)
			return
		}

		ctx = WithPrincipal(ctx, &Principal{
			Subject:    claims.Subject,
			CustomerID: claims.CustomerID,
			Method:     AuthMethodBearer,
		})

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", claims.Subject))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
