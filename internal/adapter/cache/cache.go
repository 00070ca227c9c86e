package cache

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMiss is returned by Get for absent or expired keys
var ErrMiss = errors.New("cache miss")

// encode stores strings and bytes as-is and everything else as JSON
func encode(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal value: %w", err)
	}
	return string(data), nil
}
