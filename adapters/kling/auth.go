package kling

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// tokenTTL is how long a signed Kling token stays valid
const tokenTTL = 30 * time.Minute

// credentials holds either an access/secret key pair, from which a JWT is
// signed per request, or a pre-issued bearer token
type credentials struct {
	accessKey string
	secretKey string
	token     string
}

// parseCredentials accepts "access_key,secret_key" or a plain bearer token
func parseCredentials(apiKey string) credentials {
	keyParts := strings.Split(apiKey, ",")
	if len(keyParts) == 2 {
		return credentials{
			accessKey: strings.TrimSpace(keyParts[0]),
			secretKey: strings.TrimSpace(keyParts[1]),
		}
	}
	return credentials{token: strings.TrimSpace(apiKey)}
}

func (c credentials) authorize(req *http.Request) error {
	token := c.token
	if c.secretKey != "" || c.accessKey != "" {
		signed, err := createJWTToken(c.accessKey, c.secretKey, time.Now())
		if err != nil {
			return err
		}
		token = signed
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// createJWTToken creates an HS256 token for the Kling API
func createJWTToken(accessKey, secretKey string, now time.Time) (string, error) {
	if accessKey == "" || secretKey == "" {
		return "", fmt.Errorf("access key and secret key are required")
	}

	claims := jwt.MapClaims{
		"iss": accessKey,
		"exp": now.Add(tokenTTL).Unix(),
		"nbf": now.Add(-5 * time.Second).Unix(), // tolerate clock skew
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["typ"] = "JWT"
	return token.SignedString([]byte(secretKey))
}
