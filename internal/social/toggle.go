// Package social provides the idempotent set-relationship toggle shared by
// post likes, comment likes and follows.
package social

import (
	"context"

	"github.com/devkrol/sociogram/internal/notify"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outcome of a toggle
type Outcome string

const (
	Added   Outcome = "added"
	Removed Outcome = "removed"
)

// Relationship is an idempotent set membership between an actor and a target
// resource. Implementations are bound to the actor and the fetched target at
// construction time.
type Relationship interface {
	// Exists reports current membership, by linear scan of the fetched set.
	Exists() bool
	// Add records the relationship.
	Add(ctx context.Context) error
	// Remove removes the relationship.
	Remove(ctx context.Context) error
	// Event returns the notification event emitted when the relationship is
	// added. The engine suppresses it for self-actions.
	Event() *notify.Event
}

// Toggle flips the relationship: present becomes absent (no notification),
// absent becomes present (notification event returned for the engine).
// Two toggles always return the set to its original state.
func Toggle(ctx context.Context, rel Relationship) (Outcome, *notify.Event, error) {
	if rel.Exists() {
		if err := rel.Remove(ctx); err != nil {
			return "", nil, err
		}
		return Removed, nil, nil
	}
	if err := rel.Add(ctx); err != nil {
		return "", nil, err
	}
	return Added, rel.Event(), nil
}

// contains scans a membership set for an actor. Sets are small; the scan is
// deterministic and order-independent.
func contains(set []primitive.ObjectID, actor primitive.ObjectID) bool {
	for _, id := range set {
		if id == actor {
			return true
		}
	}
	return false
}
