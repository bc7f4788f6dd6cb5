package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TokenTTL = 2 * time.Hour

var (
	keyMu     sync.RWMutex
	secretKey = []byte("supersecret")
)

// SetSecretKey replaces the HMAC key used to sign and verify tokens.
func SetSecretKey(key string) {
	keyMu.Lock()
	defer keyMu.Unlock()
	secretKey = []byte(key)
}

func key() []byte {
	keyMu.RLock()
	defer keyMu.RUnlock()
	return secretKey
}

type Claims struct {
	Email  string `json:"email"`
	UserID int64  `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateToken(email string, userId int64, role string) (string, error) {
	claims := Claims{
		Email:  email,
		UserID: userId,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key())
}

// VerifyToken 檢查簽章、演算法和過期時間，回傳 payload
func VerifyToken(token string) (Claims, error) {
	var claims Claims
	parsedToken, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key(), nil
	})
	if err != nil {
		return Claims{}, errors.New("could not parse token")
	}
	// 簽章正確也可能已過期
	if !parsedToken.Valid {
		return Claims{}, errors.New("invalid token")
	}
	if claims.Email == "" || claims.UserID == 0 {
		return Claims{}, errors.New("invalid token claims")
	}
	return claims, nil
}
