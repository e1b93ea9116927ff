package jwt

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("missing authorization token")
)

// PurposeRegistration marks a token that may only complete a freshly registered profile.
const PurposeRegistration = "registration"

const (
	sessionTTL      = 24 * time.Hour
	registrationTTL = 30 * time.Minute
	issuer          = "pharma-exchange"
)

// Claims represents the JWT claims structure
type Claims struct {
	PharmacyID   int64  `json:"pharmacy_id,omitempty"`
	Email        string `json:"email"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
	AdminUID     string `json:"admin_uid,omitempty"`
	TokenVersion string `json:"token_version"`
	Purpose      string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

var (
	secretMu sync.RWMutex
	secret   []byte
)

// SetSecretKey overrides the signing secret, normally from configuration.
func SetSecretKey(key string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = []byte(key)
}

// GetSecretKey returns the configured secret, falling back to JWT_SECRET.
func GetSecretKey() []byte {
	secretMu.RLock()
	defer secretMu.RUnlock()
	if len(secret) > 0 {
		return secret
	}
	s := os.Getenv("JWT_SECRET")
	if s == "" {
		s = "your-super-secret-key-change-in-production"
	}
	return []byte(s)
}

func sign(claims *Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(GetSecretKey())
}

// GeneratePharmacyToken creates a session token for a pharmacy credential.
func GeneratePharmacyToken(pharmacyID int64, email, tokenVersion string) (string, error) {
	return sign(&Claims{PharmacyID: pharmacyID, Email: email, TokenVersion: tokenVersion}, sessionTTL)
}

// GenerateAdminToken creates a session token for a moderation account.
func GenerateAdminToken(uid, email, tokenVersion string) (string, error) {
	return sign(&Claims{Email: email, IsAdmin: true, AdminUID: uid, TokenVersion: tokenVersion}, sessionTTL)
}

// GenerateRegistrationToken is handed out by registration and only accepted by profile completion.
func GenerateRegistrationToken(pharmacyID int64, email string) (string, error) {
	return sign(&Claims{PharmacyID: pharmacyID, Email: email, Purpose: PurposeRegistration}, registrationTTL)
}

// ValidateToken parses and validates a JWT token
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return GetSecretKey(), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
