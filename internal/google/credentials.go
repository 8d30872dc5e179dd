package google

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	googleoauth "golang.org/x/oauth2/google"
)

// ServiceAccount holds the fields of a Google service-account key file that
// are needed to sign assertions.
type ServiceAccount struct {
	Type         string `json:"type"`
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	TokenURI     string `json:"token_uri"`
}

// LoadServiceAccount reads and parses a service-account key file.
func LoadServiceAccount(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account file: %w", err)
	}
	return ParseServiceAccount(data)
}

// ParseServiceAccount parses a service-account key file's JSON content.
func ParseServiceAccount(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}
	if sa.Type != "" && sa.Type != "service_account" {
		return nil, fmt.Errorf("unexpected credentials type %q, want service_account", sa.Type)
	}
	if sa.ClientEmail == "" {
		return nil, errors.New("service account is missing client_email")
	}
	if sa.PrivateKey == "" {
		return nil, errors.New("service account is missing private_key")
	}
	return &sa, nil
}

// TokenURL returns the token endpoint from the key file, falling back to
// Google's default endpoint.
func (sa *ServiceAccount) TokenURL() string {
	if sa.TokenURI != "" {
		return sa.TokenURI
	}
	return googleoauth.Endpoint.TokenURL
}

// RSAKey decodes the PEM private key (PKCS#1 or PKCS#8).
func (sa *ServiceAccount) RSAKey() (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account private key: %w", err)
	}
	return key, nil
}
