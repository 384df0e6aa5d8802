package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessToken_RoundTrip(t *testing.T) {
	tok, err := MakeAccess("s3cret", "64b7f0c2a1b2c3d4e5f60718", "ada@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	c, err := ParseAccess("s3cret", tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.UID != "64b7f0c2a1b2c3d4e5f60718" || c.Subject != c.UID || c.Email != "ada@example.com" {
		t.Fatalf("claims %+v", c)
	}
	if got := c.ExpiresAt.Sub(c.IssuedAt.Time); got != time.Hour {
		t.Fatalf("ttl %s", got)
	}
}

func TestAccessToken_DefaultTTL(t *testing.T) {
	tok, _ := MakeAccess("k", "uid", "", 0)
	c, err := ParseAccess("k", tok)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.ExpiresAt.Sub(c.IssuedAt.Time); got != 24*time.Hour {
		t.Fatalf("ttl %s", got)
	}
}

func TestAccessToken_Rejects(t *testing.T) {
	tok, _ := MakeAccess("right", "uid", "", time.Hour)
	if _, err := ParseAccess("wrong", tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: %v", err)
	}

	past := time.Now().Add(-2 * time.Hour)
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UID: "uid",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
	}).SignedString([]byte("right"))
	if _, err := ParseAccess("right", expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired: %v", err)
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UID: "uid"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ParseAccess("right", none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("alg none: %v", err)
	}
	if _, err := ParseAccess("right", "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: %v", err)
	}
}

func TestPassword(t *testing.T) {
	h, err := HashPassword("StrongP@ss1")
	if err != nil {
		t.Fatal(err)
	}
	if h == "StrongP@ss1" || !CheckPassword(h, "StrongP@ss1") {
		t.Fatal("hash check failed")
	}
	if CheckPassword(h, "other") || CheckPassword("", "StrongP@ss1") {
		t.Fatal("accepted wrong password")
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes)); err != nil {
		t.Fatalf("72 bytes: %v", err)
	}
	if _, err := HashPassword(strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("73 bytes: %v", err)
	}
}

func TestNewID(t *testing.T) {
	a, _ := NewID()
	b, _ := NewID()
	if a == "" || a == b {
		t.Fatalf("ids %q %q", a, b)
	}
}
