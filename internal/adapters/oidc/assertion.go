package oidc

// Package oidc provides the CIS2 identity-provider adapters: client-assertion
// signing, token-endpoint forwarding, ID-token verification, and userinfo
// decoding.

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// assertionTTL is the client assertion's validity window. Fixed by the
// provider's registration profile; not negotiated from input.
const assertionTTL = 300 * time.Second

// AssertionSigner signs client-assertion JWTs with the relying party's
// private key. The algorithm is pinned to RS512.
type AssertionSigner struct {
	clientID   string
	keyID      string
	privateKey *rsa.PrivateKey

	now func() time.Time
}

// AssertionSignerConfig holds configuration for the assertion signer.
type AssertionSignerConfig struct {
	ClientID      string
	KeyID         string
	PrivateKeyPEM []byte
}

// NewAssertionSigner parses the PEM private key and returns a signer.
func NewAssertionSigner(cfg AssertionSignerConfig) (*AssertionSigner, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.KeyID == "" {
		return nil, errors.New("key ID is required")
	}
	if len(cfg.PrivateKeyPEM) == 0 {
		return nil, errors.New("private key is required")
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return &AssertionSigner{
		clientID:   cfg.ClientID,
		keyID:      cfg.KeyID,
		privateKey: key,
		now:        time.Now,
	}, nil
}

// Sign produces a client assertion for the given audience (the provider's
// token endpoint).
func (s *AssertionSigner) Sign(audience string) (string, error) {
	if audience == "" {
		return "", errors.New("audience is required")
	}

	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    s.clientID,
		Subject:   s.clientID,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS512, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign client assertion: %w", err)
	}
	return signed, nil
}
