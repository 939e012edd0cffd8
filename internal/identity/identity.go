package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/threadline/threadline/pkg/config"
	"github.com/threadline/threadline/pkg/logging"
)

// Claims is the JWT payload carrying the caller's user id.
type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// Provider resolves bearer tokens to user ids and mints tokens.
type Provider struct {
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
}

// NewProvider creates an identity provider from auth configuration
func NewProvider(cfg *config.AuthConfig) *Provider {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "default-secret"
	}
	return &Provider{
		secret: []byte(secret),
		ttl:    cfg.TokenTTL,
		logger: logging.GetLogger().With(zap.String("component", "identity")),
	}
}

// SignToken mints a token for a user id
func (p *Provider) SignToken(userID int64) (string, error) {
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// ParseToken validates a token and returns the user id it carries
func (p *Provider) ParseToken(tokenString string) (int64, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}

	return claims.UserID, nil
}

// Middleware resolves an optional Bearer token into the request context. A
// missing token resolves to anonymous; a present but invalid token is
// rejected with 401.
func (p *Provider) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = authHeader[7:]
		}

		if token == "" {
			c.Next()
			return
		}

		userID, err := p.ParseToken(token)
		if err != nil {
			p.logger.Debug("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

type ctxKey struct{}

// WithUserID attaches an authenticated user id to a context
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID returns the authenticated user id from the context, if any
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
