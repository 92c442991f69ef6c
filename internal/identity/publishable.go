package identity

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// IssuerFromPublishableKey derives the token issuer from a publishable key of
// the form pk_<env>_<base64(frontend-api-host + "$")>.
func IssuerFromPublishableKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	var encoded string
	switch {
	case strings.HasPrefix(key, "pk_test_"):
		encoded = strings.TrimPrefix(key, "pk_test_")
	case strings.HasPrefix(key, "pk_live_"):
		encoded = strings.TrimPrefix(key, "pk_live_")
	default:
		return "", errors.New("publishable key must start with pk_test_ or pk_live_")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return "", fmt.Errorf("decode publishable key: %w", err)
		}
	}
	host := strings.TrimSuffix(string(raw), "$")
	if host == "" || strings.ContainsAny(host, "/ ") {
		return "", errors.New("publishable key does not encode a host")
	}
	return "https://" + host, nil
}
