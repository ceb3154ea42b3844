// Package cache holds key and payload helpers shared by cache-backed stores.
package cache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key joins parts under namespace with ':' separators.
func Key(namespace string, parts ...string) string {
	return strings.Join(append([]string{namespace}, parts...), ":")
}

func Serialize(data any) ([]byte, error) {
	res, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("cache.Serialize: marshal: %w", err)
	}

	return res, nil
}

// Deserialize decodes a payload written by Serialize.
func Deserialize[T any](data []byte) (T, error) {
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("cache.Deserialize: unmarshal: %w", err)
	}

	return out, nil
}
