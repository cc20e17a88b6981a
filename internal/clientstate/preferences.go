package clientstate

import (
	"encoding/json"
	"fmt"
)

// Preferences adapts the preferences table to domain.KVStore.
type Preferences struct {
	repo *Repository
}

// NewPreferences creates a KV store over the preferences table.
func NewPreferences(repo *Repository) *Preferences {
	return &Preferences{repo: repo}
}

// Get returns the stored value and whether it exists.
func (p *Preferences) Get(key string) (string, bool, error) {
	raw, err := p.repo.GetIfFresh(TablePreferences, key)
	if err != nil {
		return "", false, err
	}
	if raw == nil {
		return "", false, nil
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false, fmt.Errorf("failed to decode preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a value without expiry.
func (p *Preferences) Set(key, value string) error {
	return p.repo.Store(TablePreferences, key, value, 0)
}

// Remove deletes the value; removing a missing key is not an error.
func (p *Preferences) Remove(key string) error {
	return p.repo.Delete(TablePreferences, key)
}
