// Package kv is the durable key-value mapping behind the event registry and
// the claim ledger. One process-wide guard serializes read-modify-write
// sequences.
package kv

import "encoding/json"

// Store is a durable JSON-valued key-value mapping.
type Store interface {
	// Get unmarshals the value for key into out. Returns false if absent.
	Get(key string, out any) (bool, error)
	// Put marshals value and writes it under key.
	Put(key string, value any) error
	// Update runs one atomic read-modify-write: fn receives the current raw
	// value (nil if absent) and returns the replacement, or nil to leave the
	// key untouched. No other writer runs between the read and the write.
	Update(key string, fn func(current json.RawMessage) (any, error)) error
	// Keys returns all keys with the given prefix.
	Keys(prefix string) ([]string, error)
}
