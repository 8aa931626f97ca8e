package ginblog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

var ErrInvalidToken = errors.New("invalid bearer token")

// ExtractBearerToken returns the token of an "Authorization: Bearer" header.
func ExtractBearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type JWTVerifier struct {
	secret string
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: secret, issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims, err := ParseToken(token, v.secret, v.issuer)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return Identity{
		UID:     claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// RemoteVerifier asks the hosted identity service to resolve an ID token
// through its account lookup endpoint.
type RemoteVerifier struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

func NewRemoteVerifier(endpoint, apiKey string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteVerifier{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

type lookupResponse struct {
	Users []struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoUrl"`
	} `json:"users"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	body, err := json.Marshal(map[string]string{"idToken": token})
	if err != nil {
		return Identity{}, err
	}
	endpoint, err := url.Parse(v.endpoint)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid lookup endpoint: %w", err)
	}
	if v.apiKey != "" {
		q := endpoint.Query()
		q.Set("key", v.apiKey)
		endpoint.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return Identity{}, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("identity lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Identity{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("identity lookup returned status %d", resp.StatusCode)
	}

	var lookup lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&lookup); err != nil {
		return Identity{}, fmt.Errorf("failed to decode lookup response: %w", err)
	}
	if len(lookup.Users) == 0 || lookup.Users[0].LocalID == "" {
		return Identity{}, ErrInvalidToken
	}
	user := lookup.Users[0]
	return Identity{
		UID:     user.LocalID,
		Email:   user.Email,
		Name:    user.DisplayName,
		Picture: user.PhotoURL,
	}, nil
}
