// Package contacts keeps a small per-wallet list of recently used
// transfer destinations, persisted as a JSON file.
package contacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gagliardetto/solana-go"
)

// maxEntries bounds the list; the oldest entry is evicted when a new
// destination would exceed it.
const maxEntries = 5

// Contact is one remembered destination.
type Contact struct {
	Address  solana.PublicKey `json:"address"`
	Label    string           `json:"label,omitempty"`
	LastUsed time.Time        `json:"last_used"`
}

type fileFormat struct {
	// Keyed by owner wallet so multiple wallets can share the file.
	Wallets map[string][]Contact `json:"wallets"`
}

// Store reads and writes the contacts file.
type Store struct {
	path string
}

// NewStore creates a Store at path. The file is created on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns owner's contacts, most recently used first. A missing file
// is an empty list.
func (s *Store) List(owner solana.PublicKey) ([]Contact, error) {
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	return data.Wallets[owner.String()], nil
}

// Record remembers address as a destination for owner, moving it to the
// front if already present and evicting the oldest entry past the cap.
// The label is kept from a previous entry when the new one is empty.
func (s *Store) Record(owner, address solana.PublicKey, label string) error {
	data, err := s.load()
	if err != nil {
		return err
	}

	key := owner.String()
	existing := data.Wallets[key]

	entry := Contact{Address: address, Label: label, LastUsed: time.Now().UTC()}
	updated := []Contact{entry}
	for _, c := range existing {
		if c.Address.Equals(address) {
			if label == "" {
				updated[0].Label = c.Label
			}
			continue
		}
		updated = append(updated, c)
	}
	if len(updated) > maxEntries {
		updated = updated[:maxEntries]
	}

	data.Wallets[key] = updated
	return s.save(data)
}

// Remove forgets address for owner. Removing an unknown address is a
// no-op.
func (s *Store) Remove(owner, address solana.PublicKey) error {
	data, err := s.load()
	if err != nil {
		return err
	}

	key := owner.String()
	kept := data.Wallets[key][:0]
	for _, c := range data.Wallets[key] {
		if !c.Address.Equals(address) {
			kept = append(kept, c)
		}
	}
	data.Wallets[key] = kept
	return s.save(data)
}

func (s *Store) load() (*fileFormat, error) {
	data := &fileFormat{Wallets: map[string][]Contact{}}

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read contacts file: %w", err)
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("contacts file %s is corrupt: %w", s.path, err)
	}
	if data.Wallets == nil {
		data.Wallets = map[string][]Contact{}
	}
	return data, nil
}

func (s *Store) save(data *fileFormat) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create contacts directory: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write contacts file: %w", err)
	}
	return nil
}
