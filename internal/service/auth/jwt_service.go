package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/ports"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims represents the custom JWT claims used by the application.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	Type string `json:"type"` // "access" or "refresh"
}

// JWTService issues and checks the bearer tokens that guard saved trips.
// Revoked token ids live in the cache until the token would have expired.
type JWTService struct {
	secret          []byte
	issuer          string
	accessDuration  time.Duration
	refreshDuration time.Duration
	cache           ports.Cache
	log             *zap.Logger
}

// NewJWTService creates a new JWTService instance. cache may be nil, in
// which case revocation is unavailable.
func NewJWTService(secret, issuer string, accessDuration, refreshDuration time.Duration, cache ports.Cache, log *zap.Logger) *JWTService {
	log.Info("JWT service initialized",
		zap.Duration("access_duration", accessDuration),
		zap.Duration("refresh_duration", refreshDuration),
	)

	return &JWTService{
		secret:          []byte(secret),
		issuer:          issuer,
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		cache:           cache,
		log:             log,
	}
}

// GenerateAccessToken creates a signed access token carrying the user id and role
func (s *JWTService) GenerateAccessToken(userID string, role domain.UserRole) (string, error) {
	return s.sign(userID, string(role), tokenTypeAccess, s.accessDuration)
}

func (s *JWTService) GenerateRefreshToken(userID string, role domain.UserRole) (string, error) {
	return s.sign(userID, string(role), tokenTypeRefresh, s.refreshDuration)
}

func (s *JWTService) sign(userID, role, typ string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", domain.NewValidationError("user_id", "is required")
	}

	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		Role: role,
		Type: typ,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secret)
	if err != nil {
		s.log.Error("Failed to sign token",
			zap.String("user_id", userID),
			zap.String("type", typ),
			zap.Error(err),
		)
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	s.log.Debug("Token generated",
		zap.String("user_id", userID),
		zap.String("type", typ),
		zap.String("jti", jti),
	)
	return signedToken, nil
}

// ParseClaims checks signature, expiry and issuer without looking at revocation
func (s *JWTService) ParseClaims(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		s.log.Debug("Token validation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken accepts only unrevoked access tokens
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*domain.Principal, error) {
	claims, err := s.ParseClaims(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeAccess {
		return nil, fmt.Errorf("%w: expected access token", ErrInvalidToken)
	}
	if s.IsTokenRevoked(ctx, claims.ID) {
		return nil, ErrTokenRevoked
	}

	role := domain.UserRole(claims.Role)
	if role == "" {
		role = domain.UserRoleUser
	}
	return &domain.Principal{
		UserID:  claims.Subject,
		Role:    role,
		TokenID: claims.ID,
	}, nil
}

// RefreshToken trades a valid refresh token for a new access token
func (s *JWTService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.ParseClaims(refreshToken)
	if err != nil {
		return "", err
	}
	if claims.Type != tokenTypeRefresh {
		return "", fmt.Errorf("%w: expected refresh token", ErrInvalidToken)
	}
	if s.IsTokenRevoked(ctx, claims.ID) {
		return "", ErrTokenRevoked
	}
	return s.GenerateAccessToken(claims.Subject, domain.UserRole(claims.Role))
}

// RevokeToken stores the token ID in the cache with a TTL, blacklisting it
// until it would have naturally expired.
func (s *JWTService) RevokeToken(ctx context.Context, tokenID string) error {
	if s.cache == nil {
		return errors.New("token revocation requires a cache")
	}

	ttl := s.refreshDuration
	if s.accessDuration > ttl {
		ttl = s.accessDuration
	}

	if err := s.cache.Set(ctx, revokedKey(tokenID), "revoked", ttl); err != nil {
		s.log.Error("Failed to revoke token",
			zap.String("token_id", tokenID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.log.Info("Token revoked", zap.String("token_id", tokenID))
	return nil
}

// IsTokenRevoked treats cache errors as not revoked
func (s *JWTService) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	if s.cache == nil {
		return false
	}
	val, err := s.cache.Get(ctx, revokedKey(tokenID))
	if err != nil {
		return false
	}
	return val == "revoked"
}

func revokedKey(tokenID string) string {
	return "revoked_token:" + tokenID
}
