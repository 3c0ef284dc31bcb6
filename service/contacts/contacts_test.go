package contacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "contacts.json"))
}

func TestList_MissingFileIsEmpty(t *testing.T) {
	s := newStore(t)
	got, err := s.List(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecord_MostRecentFirst(t *testing.T) {
	s := newStore(t)
	owner := solana.NewWallet().PublicKey()
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()

	require.NoError(t, s.Record(owner, a, "alice"))
	require.NoError(t, s.Record(owner, b, "bob"))

	got, err := s.List(owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b, got[0].Address)
	assert.Equal(t, a, got[1].Address)
}

func TestRecord_DuplicateMovesToFrontKeepingLabel(t *testing.T) {
	s := newStore(t)
	owner := solana.NewWallet().PublicKey()
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()

	require.NoError(t, s.Record(owner, a, "alice"))
	require.NoError(t, s.Record(owner, b, ""))
	require.NoError(t, s.Record(owner, a, ""))

	got, err := s.List(owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].Address)
	assert.Equal(t, "alice", got[0].Label, "existing label survives an unlabeled re-record")
}

func TestRecord_EvictsOldestPastCap(t *testing.T) {
	s := newStore(t)
	owner := solana.NewWallet().PublicKey()

	first := solana.NewWallet().PublicKey()
	require.NoError(t, s.Record(owner, first, ""))
	for i := 0; i < maxEntries; i++ {
		require.NoError(t, s.Record(owner, solana.NewWallet().PublicKey(), ""))
	}

	got, err := s.List(owner)
	require.NoError(t, err)
	assert.Len(t, got, maxEntries)
	for _, c := range got {
		assert.NotEqual(t, first, c.Address, "oldest entry must be evicted")
	}
}

func TestRecord_SeparatePerOwner(t *testing.T) {
	s := newStore(t)
	owner1 := solana.NewWallet().PublicKey()
	owner2 := solana.NewWallet().PublicKey()

	require.NoError(t, s.Record(owner1, solana.NewWallet().PublicKey(), ""))

	got, err := s.List(owner2)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	owner := solana.NewWallet().PublicKey()
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()

	require.NoError(t, s.Record(owner, a, ""))
	require.NoError(t, s.Record(owner, b, ""))
	require.NoError(t, s.Remove(owner, a))

	got, err := s.List(owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b, got[0].Address)

	// Removing an unknown address is a no-op.
	require.NoError(t, s.Remove(owner, solana.NewWallet().PublicKey()))
}

func TestLoad_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contacts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewStore(path)
	_, err := s.List(solana.NewWallet().PublicKey())
	assert.ErrorContains(t, err, "corrupt")
}
