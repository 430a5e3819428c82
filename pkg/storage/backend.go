package storage

// Backend is a bucketed key-value store holding raw bytes. Callers choose
// the value encoding; JSONStore covers the common case.
type Backend interface {
	CreateBucket(name []byte) error
	BucketExists(name []byte) (bool, error)

	Put(bucket, key, value []byte) error
	// Get returns nil, nil for a missing key.
	Get(bucket, key []byte) ([]byte, error)

	// ForEach visits keys in byte order.
	ForEach(bucket []byte, fn func(k, v []byte) error) error

	Close() error
}
