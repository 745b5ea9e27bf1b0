package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token expired")
	ErrMissingSubject   = errors.New("token has no subject")
	ErrTemporarySession = errors.New("temporary sessions are not accepted")
)

// Claims JWT claims structure
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims

	// Temporary is derived from the subject prefix, never read from the token.
	Temporary bool `json:"-"`
}

// Config JWT validation settings
type Config struct {
	Secret    string
	Algorithm string // HS256, HS384 or HS512
	Issuer    string // checked when set
	// TempSubjectPrefix marks subjects that belong to temporary sessions.
	TempSubjectPrefix      string
	AllowTemporarySessions bool
	AccessExpiry           time.Duration
}

// JWTManager JWT token manager
type JWTManager struct {
	secretKey      []byte
	method         jwt.SigningMethod
	issuer         string
	tempPrefix     string
	allowTemporary bool
	accessExpiry   time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(cfg Config) *JWTManager {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		method = jwt.SigningMethodHS256
	}
	if cfg.AccessExpiry == 0 {
		cfg.AccessExpiry = time.Hour
	}

	return &JWTManager{
		secretKey:      []byte(cfg.Secret),
		method:         method,
		issuer:         cfg.Issuer,
		tempPrefix:     cfg.TempSubjectPrefix,
		allowTemporary: cfg.AllowTemporarySessions,
		accessExpiry:   cfg.AccessExpiry,
	}
}

// GenerateAccessToken generates an access token for subject
func (m *JWTManager) GenerateAccessToken(subject, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(m.method, claims)
	return token.SignedString(m.secretKey)
}

// ValidateToken validates a token and returns claims
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{m.method.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}

	claims.Temporary = m.IsTemporary(claims.Subject)
	if claims.Temporary && !m.allowTemporary {
		return nil, ErrTemporarySession
	}

	return claims, nil
}

// IsTemporary reports whether subject belongs to a temporary session.
func (m *JWTManager) IsTemporary(subject string) bool {
	return m.tempPrefix != "" && strings.HasPrefix(subject, m.tempPrefix)
}
