package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TokenClient acquires bearer tokens from the query gateway's login
// endpoint. The gateway authenticates the caller by user and group, with an
// optional TLS client certificate.
type TokenClient struct {
	httpClient *http.Client
}

// NewTokenClient builds a token client. certFile and keyFile may both be
// empty when the gateway does not require mutual TLS.
func NewTokenClient(certFile, keyFile string) (*TokenClient, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if certFile != "" || keyFile != "" {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		transport.TLSClientConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}
	return &TokenClient{
		httpClient: &http.Client{Transport: transport, Timeout: 30 * time.Second},
	}, nil
}

// GetToken posts the login form and returns the raw token body.
func (t *TokenClient) GetToken(ctx context.Context, loginURL, user, group string) (string, error) {
	u, err := url.Parse(loginURL)
	if err != nil {
		return "", fmt.Errorf("invalid login url: %w", err)
	}
	q := u.Query()
	q.Set("user", user)
	q.Set("group", group)
	q.Set("credential", "")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(""))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Gateway-Authn", "MT")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
