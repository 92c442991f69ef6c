package identity

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const keySetTTL = time.Hour

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySet caches the identity provider's RSA signing keys, refreshing them
// hourly or when a token names an unknown kid.
type KeySet struct {
	issuer     string
	jwksURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	cache   map[string]*rsa.PublicKey
	fetched time.Time
}

// NewKeySet builds a key set for issuer. When jwksURL is empty it is
// discovered through the issuer's openid-configuration document.
func NewKeySet(issuer, jwksURL string, httpClient *http.Client) *KeySet {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &KeySet{
		issuer:     issuer,
		jwksURL:    jwksURL,
		httpClient: httpClient,
		cache:      make(map[string]*rsa.PublicKey),
	}
}

// Keyfunc adapts the key set to jwt.Parse.
func (k *KeySet) Keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		return k.key(ctx, kid)
	}
}

func (k *KeySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if err := k.ensureKeys(ctx); err != nil {
		return nil, err
	}
	if key, ok := k.keyFor(kid); ok {
		return key, nil
	}
	if err := k.refresh(ctx); err != nil {
		return nil, err
	}
	if key, ok := k.keyFor(kid); ok {
		return key, nil
	}
	return nil, errors.New("unknown kid")
}

func (k *KeySet) ensureKeys(ctx context.Context) error {
	k.mu.RLock()
	fresh := time.Since(k.fetched) < keySetTTL && len(k.cache) > 0
	k.mu.RUnlock()
	if fresh {
		return nil
	}
	return k.refresh(ctx)
}

func (k *KeySet) refresh(ctx context.Context) error {
	url := k.jwksURL
	if url == "" {
		discovered, err := k.discover(ctx)
		if err != nil {
			return err
		}
		url = discovered
	}
	var set jwks
	if err := k.getJSON(ctx, url, &set); err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey)
	for _, key := range set.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(key)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("no keys fetched")
	}
	k.mu.Lock()
	k.cache = keys
	k.fetched = time.Now()
	if k.jwksURL == "" {
		k.jwksURL = url
	}
	k.mu.Unlock()
	return nil
}

func (k *KeySet) discover(ctx context.Context) (string, error) {
	var cfg struct {
		JWKSURI string `json:"jwks_uri"`
	}
	if err := k.getJSON(ctx, k.issuer+"/.well-known/openid-configuration", &cfg); err != nil {
		return "", fmt.Errorf("fetch openid configuration: %w", err)
	}
	if cfg.JWKSURI == "" {
		return k.issuer + "/.well-known/jwks.json", nil
	}
	return cfg.JWKSURI, nil
}

func (k *KeySet) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (k *KeySet) keyFor(kid string) (*rsa.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	pk, ok := k.cache[kid]
	return pk, ok
}

func rsaKeyFromJWK(j jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
