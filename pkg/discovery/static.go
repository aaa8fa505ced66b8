package discovery

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// StaticRegistry reports a single configured server once its REST API answers.
type StaticRegistry struct {
	rec    ServerRecord
	client *http.Client
}

// NewStaticRegistry makes a registry for a server known by url and token.
func NewStaticRegistry(serverURL, token string) *StaticRegistry {
	return &StaticRegistry{
		rec:    ServerRecord{URL: serverURL, Token: token, Source: "static"},
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Servers returns the configured server if GET api/status answers 200, nothing otherwise.
// connection failures are reported as "no server yet", not as errors.
func (s *StaticRegistry) Servers(ctx context.Context) ([]ServerRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.rec.Root()+"api/status", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("make status request: %w", err)
	}
	if s.rec.Token != "" {
		req.Header.Set("Authorization", "token "+s.rec.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return []ServerRecord{s.rec}, nil
	case http.StatusForbidden, http.StatusUnauthorized:
		return nil, fmt.Errorf("server %s rejected token: %s", s.rec.Redacted(), resp.Status)
	default:
		return nil, nil
	}
}
