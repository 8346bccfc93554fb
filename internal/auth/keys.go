package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// LoadKeysFromFiles reads the PEM encoded RSA keypair from disk. The paths
// usually come from PRIVATE_KEY_FILE / PUBLIC_KEY_FILE env vars.
func LoadKeysFromFiles(privatePath, publicPath string) (*Keys, error) {
	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key file: %w", err)
	}
	publicKey, err := parsePublicKey(publicPEM)
	if err != nil {
		return nil, err
	}

	var privateKey *rsa.PrivateKey
	if privatePath != "" {
		privatePEM, err := os.ReadFile(privatePath)
		if err != nil {
			return nil, fmt.Errorf("reading private key file: %w", err)
		}
		privateKey, err = parsePrivateKey(privatePEM)
		if err != nil {
			return nil, err
		}
	}

	return NewKeys(privateKey, publicKey)
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in private key")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		// keys generated with openssl genpkey are PKCS8
		parsed, err8 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err8 != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not RSA")
		}
		return rsaKey, nil
	}
	return key, nil
}

func parsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in public key")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not RSA")
	}
	return rsaKey, nil
}
