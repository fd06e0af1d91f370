package notify

import (
	"context"
	"fmt"

	"github.com/nwerner/talentline/internal/cache"
)

// ReadMarker issues the read-state mutations. Satisfied by *api.Client.
type ReadMarker interface {
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
}

// Invalidator marks cached resources stale. Satisfied by *cache.Cache.
type Invalidator interface {
	Invalidate(key string)
}

// Reconciler applies read-state changes fire-and-confirm: the request
// goes out first, then both the count and list caches are invalidated
// so the next read reflects server truth. No optimistic local mutation;
// the UI is briefly stale until the re-fetch resolves.
type Reconciler struct {
	marker ReadMarker
	inv    Invalidator
}

// NewReconciler creates a read-state reconciler.
func NewReconciler(marker ReadMarker, inv Invalidator) *Reconciler {
	return &Reconciler{marker: marker, inv: inv}
}

// MarkRead marks one notification read. Safe to call on an already-read
// notification.
func (r *Reconciler) MarkRead(ctx context.Context, id int64) error {
	if err := r.marker.MarkRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	r.invalidateBoth()
	return nil
}

// MarkAllRead marks every notification read.
func (r *Reconciler) MarkAllRead(ctx context.Context) error {
	if err := r.marker.MarkAllRead(ctx); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	r.invalidateBoth()
	return nil
}

func (r *Reconciler) invalidateBoth() {
	r.inv.Invalidate(cache.UnreadCountKey)
	r.inv.Invalidate(cache.NotificationListKey)
}
