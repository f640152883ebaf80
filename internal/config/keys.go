package config

// keys.go loads the RSA signing keypair used by the token codec. The
// private key stays inside the issuing process; the public key may be
// handed to any verifier. Rotation is not handled here: keys are read once
// at startup.

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// KeyPair bundles the signing and verification halves of the keypair.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeys reads and parses both PEM files named in cfg. The private key
// is accepted in PKCS#1 or PKCS#8 encoding, the public key in PKIX or
// PKCS#1 encoding.
func LoadKeys(cfg Config) (KeyPair, error) {
	privPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return KeyPair{}, fmt.Errorf("read private key: %w", err)
	}
	priv, err := ParseRSAPrivateKey(privPEM)
	if err != nil {
		return KeyPair{}, fmt.Errorf("parse private key: %w", err)
	}
	pubPEM, err := os.ReadFile(cfg.PublicKeyPath)
	if err != nil {
		return KeyPair{}, fmt.Errorf("read public key: %w", err)
	}
	pub, err := ParseRSAPublicKey(pubPEM)
	if err != nil {
		return KeyPair{}, fmt.Errorf("parse public key: %w", err)
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

// ParseRSAPrivateKey decodes a PEM block and returns an RSA private key.
func ParseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("PEM is not an RSA private key")
	}
	return key, nil
}

// ParseRSAPublicKey decodes a PEM block and returns an RSA public key.
func ParseRSAPublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("PEM is not an RSA public key")
	}
	return key, nil
}
