// Package session centralizes authentication state. The auth provider
// has shipped the user's role under several metadata shapes over time;
// every consumer reads the normalized models.Session from here instead
// of re-deriving role and auth status per surface.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/nwerner/talentline/internal/models"
)

// Fetcher returns the raw session payload. Satisfied by *api.Client.
type Fetcher interface {
	RawSession(ctx context.Context) (map[string]any, error)
}

// Provider caches the normalized session for the process lifetime.
type Provider struct {
	fetcher Fetcher

	mu     sync.Mutex
	cached *models.Session
}

// NewProvider creates a session provider backed by fetcher.
func NewProvider(fetcher Fetcher) *Provider {
	return &Provider{fetcher: fetcher}
}

// Current returns the normalized session, fetching it on first use.
func (p *Provider) Current(ctx context.Context) (models.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		return *p.cached, nil
	}

	raw, err := p.fetcher.RawSession(ctx)
	if err != nil {
		return models.Session{}, err
	}

	s := Normalize(raw)
	p.cached = &s
	return s, nil
}

// Invalidate drops the cached session so the next Current re-fetches.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

// Normalize derives {Authenticated, UserID, Role} from a raw provider
// payload. All historic metadata shapes are accepted:
//
//	{"user_id": "...", "role": "recruiter"}
//	{"user": {"id": "...", "user_metadata": {"role": "candidate"}}}
//	{"user": {"id": "...", "publicMetadata": {"role": "recruiter"}}}
//
// A payload with no user id is unauthenticated; a user with no
// recognizable role gets RoleUnknown.
func Normalize(raw map[string]any) models.Session {
	if raw == nil {
		return models.Session{Role: models.RoleUnknown}
	}

	userID := str(raw["user_id"])
	role := str(raw["role"])

	if user, ok := raw["user"].(map[string]any); ok {
		if userID == "" {
			userID = str(user["id"])
		}
		if role == "" {
			role = str(user["role"])
		}
		for _, metaKey := range []string{"user_metadata", "publicMetadata", "public_metadata"} {
			if role != "" {
				break
			}
			if meta, ok := user[metaKey].(map[string]any); ok {
				role = str(meta["role"])
			}
		}
	}

	if userID == "" {
		return models.Session{Role: models.RoleUnknown}
	}

	return models.Session{
		Authenticated: true,
		UserID:        userID,
		Role:          parseRole(role),
	}
}

func parseRole(s string) models.Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "candidate":
		return models.RoleCandidate
	case "recruiter", "employer":
		return models.RoleRecruiter
	}
	return models.RoleUnknown
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
