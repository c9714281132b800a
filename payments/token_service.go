package payments

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// tokenSource caches the OAuth client-credentials token until shortly before
// it expires.
type tokenSource struct {
	client       *resty.Client
	clientID     string
	clientSecret string

	mu     sync.RWMutex
	token  string
	expiry time.Time
	now    func() time.Time
}

const tokenExpirySlack = 5 * time.Minute

func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.token != "" && s.now().Before(s.expiry) {
		token := s.token
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiry) {
		return s.token, nil
	}

	log.Println("Fetching new PayPal access token...")
	var tokenResp tokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.clientID, s.clientSecret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		SetResult(&tokenResp).
		Post("/v1/oauth2/token")
	if err != nil {
		return "", fmt.Errorf("requesting paypal token: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("paypal token API returned %s", resp.Status())
	}

	s.token = tokenResp.AccessToken
	s.expiry = s.now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpirySlack)
	return s.token, nil
}
