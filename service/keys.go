package service

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SigningKeys holds the RS256 key pair used for session tokens.
// Issuing needs the private key, verification only the public one.
type SigningKeys struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

func LoadSigningKeys(privatePEM []byte, publicPEM []byte) (SigningKeys, error) {
	private, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return SigningKeys{}, fmt.Errorf("failed to parse private key: %w", err)
	}

	public, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return SigningKeys{}, fmt.Errorf("failed to parse public key: %w", err)
	}

	return SigningKeys{Private: private, Public: public}, nil
}
