package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SignedReportToken grants single-use access to one entity's sync report.
type SignedReportToken struct {
	ProductID   string
	ProductType string
	TokenID     string
	ExpiresAt   time.Time
}

// URLSignerService generates and validates presigned URLs so sync reports can
// be shared without handing out API credentials.
type URLSignerService struct {
	secretKey []byte
	redis     *redis.Client
}

// NewURLSignerService creates a new URL signer service
func NewURLSignerService(secretKey []byte, redis *redis.Client) *URLSignerService {
	return &URLSignerService{
		secretKey: secretKey,
		redis:     redis,
	}
}

// GenerateReportToken generates a single-use presigned report token.
func (s *URLSignerService) GenerateReportToken(productID, productType string, ttl time.Duration) (string, error) {
	tokenID := uuid.New().String()
	expiresAt := time.Now().Add(ttl)

	claims := jwt.MapClaims{
		"product_id":   productID,
		"product_type": productType,
		"jti":          tokenID,
		"exp":          expiresAt.Unix(),
		"iat":          time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a presigned report token
func (s *URLSignerService) ValidateToken(ctx context.Context, tokenString string) (*SignedReportToken, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	productID, ok := (*claims)["product_id"].(string)
	if !ok {
		return nil, errors.New("missing or invalid product_id claim")
	}

	productType, ok := (*claims)["product_type"].(string)
	if !ok {
		return nil, errors.New("missing or invalid product_type claim")
	}

	tokenID, ok := (*claims)["jti"].(string)
	if !ok {
		return nil, errors.New("missing or invalid jti claim")
	}

	expFloat, ok := (*claims)["exp"].(float64)
	if !ok {
		return nil, errors.New("missing or invalid exp claim")
	}
	expiresAt := time.Unix(int64(expFloat), 0)

	if time.Now().After(expiresAt) {
		return nil, errors.New("token expired")
	}

	used, err := s.isTokenUsed(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token usage: %w", err)
	}
	if used {
		return nil, errors.New("token already used")
	}

	return &SignedReportToken{
		ProductID:   productID,
		ProductType: productType,
		TokenID:     tokenID,
		ExpiresAt:   expiresAt,
	}, nil
}

// MarkTokenAsUsed marks a token as used (single-use enforcement)
func (s *URLSignerService) MarkTokenAsUsed(ctx context.Context, tokenID string) error {
	ttl := 15 * time.Minute

	if err := s.redis.Set(ctx, "used_token:"+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}

	return nil
}

func (s *URLSignerService) isTokenUsed(ctx context.Context, tokenID string) (bool, error) {
	res, err := s.redis.Exists(ctx, "used_token:"+tokenID).Result()
	if err != nil {
		return false, err
	}
	return res > 0, nil
}
