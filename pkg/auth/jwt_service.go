package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleHost  Role = "host"
)

var ErrWrongRole = errors.New("token role does not grant access")

type JWTService struct {
	secretKey     []byte
	tokenLifespan time.Duration
}

type CustomClaims struct {
	Role      Role   `json:"role"`
	WeddingID string `json:"wedding_id"`
	GuestID   string `json:"guest_id,omitempty"`
	jwt.RegisteredClaims
}

func NewJWTService(secretKey string, tokenLifespan time.Duration) *JWTService {
	if tokenLifespan <= 0 {
		tokenLifespan = 12 * time.Hour
	}
	return &JWTService{
		secretKey:     []byte(secretKey),
		tokenLifespan: tokenLifespan,
	}
}

func (s *JWTService) GenerateGuestToken(weddingID, guestID string) (string, error) {
	return s.generate(RoleGuest, weddingID, guestID, guestID)
}

func (s *JWTService) GenerateHostToken(weddingID string) (string, error) {
	return s.generate(RoleHost, weddingID, "", weddingID)
}

func (s *JWTService) generate(role Role, weddingID, guestID, subject string) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		Role:      role,
		WeddingID: weddingID,
		GuestID:   guestID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenLifespan)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   subject,
			Issuer:    "wedding-memories-kiosk",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("cannot sign token: %w", err)
	}

	return signedString, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signature algorithm: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("error when parsing token claims")
}

// ValidateRole parses the token and checks it was issued for role.
func (s *JWTService) ValidateRole(tokenString string, role Role) (*CustomClaims, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, ErrWrongRole
	}
	if claims.WeddingID == "" || (role == RoleGuest && claims.GuestID == "") {
		return nil, fmt.Errorf("token is missing capture identifiers")
	}
	return claims, nil
}
