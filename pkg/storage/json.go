package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBucketNotFound is returned when an operation names a missing bucket.
var ErrBucketNotFound = errors.New("bucket not found")

// JSONStore wraps a Backend with JSON-encoded values.
type JSONStore struct {
	backend Backend
}

func NewJSONStore(backend Backend) *JSONStore {
	return &JSONStore{backend: backend}
}

// Backend returns the underlying backend
func (j *JSONStore) Backend() Backend {
	return j.backend
}

// PutJSON stores a JSON-encoded value in a bucket
func (j *JSONStore) PutJSON(bucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return j.backend.Put(bucket, key, data)
}

// GetJSON decodes the value under key into v. It reports whether the key was
// present; v is left untouched when it is not.
func (j *JSONStore) GetJSON(bucket, key []byte, v any) (bool, error) {
	data, err := j.backend.Get(bucket, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return true, nil
}

// ForEachJSON calls fn with every key in bucket and a decode function for
// its value.
func (j *JSONStore) ForEachJSON(bucket []byte, fn func(k []byte, decode func(v any) error) error) error {
	return j.backend.ForEach(bucket, func(k, data []byte) error {
		return fn(k, func(v any) error {
			if err := json.Unmarshal(data, v); err != nil {
				return fmt.Errorf("failed to decode JSON for key %s: %w", k, err)
			}
			return nil
		})
	})
}

func (j *JSONStore) CreateBucket(name []byte) error {
	return j.backend.CreateBucket(name)
}

func (j *JSONStore) Close() error {
	return j.backend.Close()
}
