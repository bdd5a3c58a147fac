package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultSecret = "hostel-meals-dev-secret"

var (
	JWTSecret = []byte(defaultSecret)
	TokenTTL  = 24 * time.Hour
)

// ConfigureJWT sets the signing secret and token lifetime. An empty secret
// keeps the development default.
func ConfigureJWT(secret string, ttl time.Duration) {
	if secret == "" {
		ErrorLogger.Warn("JWT_SECRET not set, using development secret")
		secret = defaultSecret
	}
	JWTSecret = []byte(secret)
	if ttl > 0 {
		TokenTTL = ttl
	}
}

type CustomClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(userID uint, role string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "hostel-meals",
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(JWTSecret)
	if err != nil {
		ErrorLogger.Errorf("Error generating token: %v", err)
		return "", err
	}
	return tokenString, nil
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.Mutex
)

// BlacklistToken revokes the token with the given id (jti) until it would
// have expired anyway.
func BlacklistToken(tokenID string, expiry time.Time) {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	blacklistedTokens[tokenID] = expiry

	// drop entries that have expired on their own
	now := time.Now()
	for id, exp := range blacklistedTokens {
		if now.After(exp) {
			delete(blacklistedTokens, id)
		}
	}
}

func IsTokenBlacklisted(tokenID string) bool {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()

	if expiry, exists := blacklistedTokens[tokenID]; exists {
		if time.Now().Before(expiry) {
			return true
		}
		delete(blacklistedTokens, tokenID)
	}
	return false
}

// ValidateToken parses a token and rejects revoked ones. Tokens without an
// id cannot be revoked and are refused.
func ValidateToken(tokenString string) (*CustomClaims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("token has no id")
	}
	if IsTokenBlacklisted(claims.ID) {
		return nil, errors.New("token has been revoked")
	}
	return claims, nil
}
