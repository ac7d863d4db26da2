package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/realty-service/internal/domain"
)

// ErrInvalidToken is the only error ValidateToken returns.
var ErrInvalidToken = errors.New("invalid token")

const tokenIssuer = "realty-service"

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Claims describes JWT payload.
type Claims struct {
	Role      domain.Role `json:"role"`
	CompanyID string      `json:"cid,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs a token for subjectID acting as role. A non-positive ttl
// uses the manager default.
func (tm *TokenManager) IssueToken(subjectID string, role domain.Role, companyID string, ttl time.Duration) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("unrecognized role %q", role)
	}
	if subjectID == "" {
		return "", time.Time{}, errors.New("subject id required")
	}
	if ttl <= 0 {
		ttl = tm.ttl
	}

	now := tm.now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Role:      role,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken verifies signature, expiry and claim shape. Any failure
// yields ErrInvalidToken.
func (tm *TokenManager) ValidateToken(tokenStr string) (*domain.Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	if claims.Role == domain.RoleAgent && claims.CompanyID == "" {
		return nil, ErrInvalidToken
	}

	return &domain.Identity{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		CompanyID: claims.CompanyID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
