package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "restaurant-ordering"

var (
	JWTSecret = []byte("dev-secret-change-me")
	JWTTTL    = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid or expired token")

// InitJWT sets the signing secret and token lifetime.
func InitJWT(secret string, ttl time.Duration) {
	if secret != "" {
		JWTSecret = []byte(secret)
	}
	if ttl > 0 {
		JWTTTL = ttl
	}
}

type CustomClaims struct {
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	RestaurantID uint   `json:"restaurant_id"`
	jwt.RegisteredClaims
}

func GenerateToken(userID uint, username, role string, restaurantID uint) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID:       userID,
		Username:     username,
		Role:         role,
		RestaurantID: restaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(JWTTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Expiry returns the token's expiry, or now+JWTTTL when it has none.
func (c *CustomClaims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Now().Add(JWTTTL)
	}
	return c.ExpiresAt.Time
}
