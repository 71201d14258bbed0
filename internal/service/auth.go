package service

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSecret []byte

// срок жизни гостевого токена: дольше TTL комнаты, чтобы игрок
// мог вернуться к незаконченной партии с тем же player_id
const tokenTTL = 48 * time.Hour

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// dev-режим без секрета: токены подписываются известным ключом
		secret = "dev-insecure-secret"
	}
	jwtSecret = []byte(secret)
}

// IssueGuestToken выпускает анонимную личность: subject - случайный uuid,
// он же становится player_id во всех комнатах
func IssueGuestToken() (string, string, error) {
	playerID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}
	return token, playerID, nil
}

// ParseJWT проверяет подпись и срок и возвращает player_id
func ParseJWT(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
