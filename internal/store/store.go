package store

// Store is a bounded per-channel pic cache. Each channel holds at most
// the cap configured at construction; pushing past the cap evicts the
// oldest entries.
type Store interface {
	// Push appends pic as the newest entry for channel, trimming to the cap.
	Push(channel, pic string) error
	// Range returns the cached pics for channel, oldest first. An unknown
	// channel yields an empty slice, not an error.
	Range(channel string) ([]string, error)
	// Close releases any resources held by the store.
	Close() error
}
