package vanity

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrinder() *Grinder {
	return NewGrinder(slog.New(slog.DiscardHandler), nil)
}

func TestValidatePrefix(t *testing.T) {
	assert.NoError(t, ValidatePrefix("A"))
	assert.NoError(t, ValidatePrefix("abc"))
	assert.NoError(t, ValidatePrefix("9z"))

	assert.Error(t, ValidatePrefix(""))
	assert.Error(t, ValidatePrefix("0"), "zero is not in the base58 alphabet")
	assert.Error(t, ValidatePrefix("O"))
	assert.Error(t, ValidatePrefix("I"))
	assert.Error(t, ValidatePrefix("l"))
	assert.Error(t, ValidatePrefix("A!B"))
	assert.Error(t, ValidatePrefix("AAAAAA"), "six characters exceeds the search cap")
}

func TestGrind_InvalidPrefixRejected(t *testing.T) {
	g := testGrinder()
	_, err := g.Grind(context.Background(), "0x", nil)
	assert.Error(t, err)
}

func TestGrind_SingleCharPrefixFindsMatches(t *testing.T) {
	g := testGrinder()
	g.ResultLimit = 1

	// A one character prefix matches 1 in 58 keys on average, well
	// within the scan limit.
	matches, err := g.Grind(context.Background(), "A", nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.True(t, strings.HasPrefix(matches[0].PublicKey.String(), "A"))
	assert.Equal(t, matches[0].PublicKey, matches[0].PrivateKey.PublicKey())
}

func TestGrind_ScanLimitBoundsSearch(t *testing.T) {
	g := testGrinder()
	g.ScanLimit = 200

	// Four character prefix is effectively unfindable in 200 scans.
	matches, err := g.Grind(context.Background(), "AAAA", nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestGrind_CancellationStopsPromptly(t *testing.T) {
	g := testGrinder()
	g.ScanLimit = 100_000_000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := g.Grind(ctx, "AAAAA", nil)
	assert.ErrorIs(t, err, context.Canceled)
	// Cancellation is observed at burst boundaries.
	assert.Less(t, time.Since(start), time.Second)
}

func TestGrind_ProgressReported(t *testing.T) {
	g := testGrinder()
	g.ScanLimit = 100_000_000

	var reported []Progress
	ctx, cancel := context.WithTimeout(context.Background(), 1200*time.Millisecond)
	defer cancel()

	_, err := g.Grind(ctx, "AAAAA", func(p Progress) {
		reported = append(reported, p)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NotEmpty(t, reported)
	last := reported[len(reported)-1]
	assert.Positive(t, last.Scanned)
	assert.Positive(t, last.KeysPerSecond)
	// Counts are cumulative and never decrease.
	for i := 1; i < len(reported); i++ {
		assert.GreaterOrEqual(t, reported[i].Scanned, reported[i-1].Scanned)
	}
}
