package oauth

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestState_SignAndVerify(t *testing.T) {
	g := NewGoogle("cid", "sec", "http://localhost/cb", "state-key")
	st := g.MakeState("abc123")
	if !g.VerifyState(st) {
		t.Fatal("own state rejected")
	}
	other := NewGoogle("cid", "sec", "http://localhost/cb", "other-key")
	if other.VerifyState(st) {
		t.Fatal("state from another key accepted")
	}
	for _, bad := range []string{"", "abc123", "abc123.", ".sig", "abc124." + strings.SplitN(st, ".", 2)[1]} {
		if g.VerifyState(bad) {
			t.Fatalf("accepted %q", bad)
		}
	}
}

func TestAuthURL(t *testing.T) {
	g := NewGoogle("cid", "sec", "http://localhost/cb", "k")
	u := g.AuthURL("st")
	if !strings.Contains(u, "client_id=cid") || !strings.Contains(u, "state=st") {
		t.Fatalf("url %s", u)
	}
}

func idToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseIDToken(t *testing.T) {
	good := jwt.MapClaims{
		"iss": "https://accounts.google.com", "aud": "cid", "sub": "1234",
		"email": "ada@example.com", "email_verified": true,
		"given_name": "Ada", "family_name": "Lovelace",
	}
	u, err := ParseIDToken(idToken(t, good), "cid")
	if err != nil {
		t.Fatal(err)
	}
	if u.Sub != "1234" || u.Email != "ada@example.com" || u.GivenName != "Ada" || u.FamilyName != "Lovelace" {
		t.Fatalf("user %+v", u)
	}

	mutate := func(k string, v any) jwt.MapClaims {
		c := jwt.MapClaims{}
		for kk, vv := range good {
			c[kk] = vv
		}
		c[k] = v
		return c
	}
	for name, c := range map[string]jwt.MapClaims{
		"issuer":     mutate("iss", "evil.example"),
		"audience":   mutate("aud", "other"),
		"unverified": mutate("email_verified", false),
		"no email":   mutate("email", ""),
	} {
		if _, err := ParseIDToken(idToken(t, c), "cid"); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
}
