package oauth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	ggoogle "golang.org/x/oauth2/google"
)

type GoogleOAuth struct {
	cfg      *oauth2.Config
	stateKey []byte
}

func NewGoogle(clientID, clientSecret, redirectURI, stateSecret string) *GoogleOAuth {
	return &GoogleOAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     ggoogle.Endpoint,
		},
		stateKey: []byte(stateSecret),
	}
}

// MakeState signs raw so the callback can tell our redirects from forged ones.
func (g *GoogleOAuth) MakeState(raw string) string {
	return raw + "." + base64.RawURLEncoding.EncodeToString(g.sign(raw))
}

func (g *GoogleOAuth) VerifyState(got string) bool {
	raw, sig, ok := strings.Cut(got, ".")
	if !ok || raw == "" {
		return false
	}
	b, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return false
	}
	return hmac.Equal(g.sign(raw), b)
}

func (g *GoogleOAuth) sign(raw string) []byte {
	mac := hmac.New(sha256.New, g.stateKey)
	mac.Write([]byte(raw))
	return mac.Sum(nil)
}

func (g *GoogleOAuth) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type GoogleUser struct {
	Sub           string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
}

// Exchange trades the authorization code for tokens and reads the identity
// out of the id_token.
func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("no id_token in token response")
	}
	return ParseIDToken(raw, g.cfg.ClientID)
}

// ParseIDToken checks issuer, audience and the identity claims of an id_token
// received directly from Google's token endpoint over TLS. The signature is
// not re-verified.
func ParseIDToken(raw, audience string) (*GoogleUser, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("parse id_token: %w", err)
	}
	iss, _ := claims["iss"].(string)
	if iss != "https://accounts.google.com" && iss != "accounts.google.com" {
		return nil, fmt.Errorf("unexpected issuer %q", iss)
	}
	aud, err := claims.GetAudience()
	if err != nil || !contains(aud, audience) {
		return nil, errors.New("id_token audience mismatch")
	}

	u := &GoogleUser{}
	u.Sub, _ = claims["sub"].(string)
	u.Email, _ = claims["email"].(string)
	u.EmailVerified, _ = claims["email_verified"].(bool)
	u.GivenName, _ = claims["given_name"].(string)
	u.FamilyName, _ = claims["family_name"].(string)
	if u.Sub == "" || u.Email == "" {
		return nil, errors.New("id_token missing sub or email")
	}
	if !u.EmailVerified {
		return nil, errors.New("google email not verified")
	}
	return u, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
