package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGuestToken_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, playerID, err := IssueGuestToken()
	if err != nil {
		t.Fatalf("выпуск токена: %v", err)
	}
	if playerID == "" {
		t.Fatalf("player_id не должен быть пустым")
	}

	got, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("разбор токена: %v", err)
	}
	if got != playerID {
		t.Fatalf("subject должен совпадать: %q != %q", got, playerID)
	}
}

func TestGuestToken_DistinctIdentities(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	_, id1, _ := IssueGuestToken()
	_, id2, _ := IssueGuestToken()
	if id1 == id2 {
		t.Fatalf("каждый гость получает свою личность")
	}
}

func TestParseJWT_RejectsGarbageAndWrongKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	if _, err := ParseJWT("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("мусор должен отклоняться: %v", err)
	}

	// токен, подписанный чужим ключом
	claims := jwt.RegisteredClaims{
		Subject:   "someone",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if _, err := ParseJWT(forged); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("чужая подпись должна отклоняться: %v", err)
	}
}

func TestParseJWT_RejectsExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	claims := jwt.RegisteredClaims{
		Subject:   "someone",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if _, err := ParseJWT(expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("просроченный токен должен отклоняться: %v", err)
	}
}
