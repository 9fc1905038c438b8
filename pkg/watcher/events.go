package watcher

// EventType identifies what changed in the watcher's state.
type EventType string

const (
	// EventSnapshotUpdated fires after Phase 1 of a poll cycle commits the
	// core metrics, and on status changes (refreshing, errors).
	EventSnapshotUpdated EventType = "snapshot_updated"
	// EventBlocksUpdated fires after Phase 2 replaces the recent-block list.
	EventBlocksUpdated EventType = "blocks_updated"
	// EventAnimFrame fires when the block-arrival animation advanced.
	EventAnimFrame EventType = "anim_frame"
	// EventSearchUpdated fires when the search result or its navigation
	// sub-state changed.
	EventSearchUpdated EventType = "search_updated"
)

// Event is the redraw signal delivered to subscribers. Consumers re-read
// state through Snapshot()/SearchState(); the event carries no payload so a
// slow consumer can never observe torn data.
type Event struct {
	Type EventType
}

// Subscriber receives watcher events.
type Subscriber chan Event
