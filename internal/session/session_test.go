package session

import (
	"context"
	"errors"
	"testing"

	"github.com/nwerner/talentline/internal/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want models.Session
	}{
		{
			name: "flat shape",
			raw:  map[string]any{"user_id": "u1", "role": "recruiter"},
			want: models.Session{Authenticated: true, UserID: "u1", Role: models.RoleRecruiter},
		},
		{
			name: "nested user_metadata shape",
			raw: map[string]any{
				"user": map[string]any{
					"id":            "u2",
					"user_metadata": map[string]any{"role": "candidate"},
				},
			},
			want: models.Session{Authenticated: true, UserID: "u2", Role: models.RoleCandidate},
		},
		{
			name: "nested publicMetadata shape",
			raw: map[string]any{
				"user": map[string]any{
					"id":             "u3",
					"publicMetadata": map[string]any{"role": "recruiter"},
				},
			},
			want: models.Session{Authenticated: true, UserID: "u3", Role: models.RoleRecruiter},
		},
		{
			name: "employer aliases recruiter",
			raw:  map[string]any{"user_id": "u4", "role": "Employer"},
			want: models.Session{Authenticated: true, UserID: "u4", Role: models.RoleRecruiter},
		},
		{
			name: "no user id means unauthenticated",
			raw:  map[string]any{"role": "candidate"},
			want: models.Session{Role: models.RoleUnknown},
		},
		{
			name: "unrecognized role",
			raw:  map[string]any{"user_id": "u5", "role": "admin"},
			want: models.Session{Authenticated: true, UserID: "u5", Role: models.RoleUnknown},
		},
		{
			name: "nil payload",
			raw:  nil,
			want: models.Session{Role: models.RoleUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

type fakeFetcher struct {
	raw   map[string]any
	err   error
	calls int
}

func (f *fakeFetcher) RawSession(ctx context.Context) (map[string]any, error) {
	f.calls++
	return f.raw, f.err
}

func TestProviderCaches(t *testing.T) {
	f := &fakeFetcher{raw: map[string]any{"user_id": "u1", "role": "candidate"}}
	p := NewProvider(f)

	for i := 0; i < 3; i++ {
		s, err := p.Current(t.Context())
		if err != nil {
			t.Fatalf("Current() error = %v", err)
		}
		if s.UserID != "u1" || s.Role != models.RoleCandidate {
			t.Errorf("session = %+v", s)
		}
	}
	if f.calls != 1 {
		t.Errorf("fetch calls = %d, want 1", f.calls)
	}

	p.Invalidate()
	if _, err := p.Current(t.Context()); err != nil {
		t.Fatal(err)
	}
	if f.calls != 2 {
		t.Errorf("fetch calls after Invalidate = %d, want 2", f.calls)
	}
}

func TestProviderError(t *testing.T) {
	wantErr := errors.New("boom")
	p := NewProvider(&fakeFetcher{err: wantErr})

	if _, err := p.Current(t.Context()); !errors.Is(err, wantErr) {
		t.Errorf("Current() error = %v, want %v", err, wantErr)
	}
}
