package store

import "context"

// Fixed keys in the persisted key/value space.
const (
	KeyProperties  = "realestateProperties"
	KeyLockout     = "adminLockout"
	// KeyUnpublished is present while the cached collection holds admin
	// edits that have not been published.
	KeyUnpublished = "unpublishedChanges"
)

// LockoutKey is the failed-attempt counter for one client. An empty client
// shares the plain KeyLockout entry.
func LockoutKey(client string) string {
	if client == "" {
		return KeyLockout
	}
	return KeyLockout + ":" + client
}

// Backend is a string key/value store with local-storage semantics: a
// missing key is not an error.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
