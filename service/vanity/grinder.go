// Package vanity searches for keypairs whose public key starts with a
// chosen base58 prefix. The search is brute force; expected time grows
// roughly 58x per prefix character.
package vanity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/dloomlabs/forge/service/metrics"
)

const (
	// base58Alphabet is the bitcoin alphabet: no 0, O, I, or l.
	base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

	// burstDuration bounds how long a scan runs between cancellation and
	// progress checks.
	burstDuration = 20 * time.Millisecond

	// statsInterval is how often a progress callback fires.
	statsInterval = 500 * time.Millisecond

	// DefaultScanLimit caps a single search so an improbable prefix does
	// not spin forever.
	DefaultScanLimit = 500_000

	// DefaultResultLimit is how many matches a search collects before
	// stopping on its own.
	DefaultResultLimit = 10

	// maxPrefixLength caps the search space. Expected work is 58^len, so
	// anything past 5 characters is not realistically findable.
	maxPrefixLength = 5
)

// Match is a found keypair whose public key carries the requested prefix.
type Match struct {
	PublicKey  solana.PublicKey
	PrivateKey solana.PrivateKey
}

// Progress is a snapshot of a running search, delivered at most every
// statsInterval.
type Progress struct {
	Scanned       int
	Matches       int
	KeysPerSecond float64
	Elapsed       time.Duration
}

// Grinder runs vanity prefix searches.
type Grinder struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	// ScanLimit and ResultLimit default to the package constants when
	// zero.
	ScanLimit   int
	ResultLimit int
}

// NewGrinder creates a Grinder with default limits.
func NewGrinder(logger *slog.Logger, m *metrics.Metrics) *Grinder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Grinder{
		logger:      logger,
		metrics:     m,
		ScanLimit:   DefaultScanLimit,
		ResultLimit: DefaultResultLimit,
	}
}

// ValidatePrefix reports whether prefix can ever appear at the start of a
// base58 encoded public key.
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	if len(prefix) > maxPrefixLength {
		return fmt.Errorf("prefix %q is longer than %d characters", prefix, maxPrefixLength)
	}
	for _, r := range prefix {
		if !strings.ContainsRune(base58Alphabet, r) {
			return fmt.Errorf("prefix contains %q, which never appears in base58 encoded keys", r)
		}
	}
	return nil
}

// Grind searches for keypairs whose public key starts with prefix. It
// returns the matches found so far when the result limit is hit, the scan
// limit is exhausted, or ctx is cancelled. Cancellation is observed at
// burst boundaries, so it takes effect within one burstDuration. The
// onProgress callback may be nil.
func (g *Grinder) Grind(ctx context.Context, prefix string, onProgress func(Progress)) ([]Match, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return nil, err
	}

	scanLimit := g.ScanLimit
	if scanLimit <= 0 {
		scanLimit = DefaultScanLimit
	}
	resultLimit := g.ResultLimit
	if resultLimit <= 0 {
		resultLimit = DefaultResultLimit
	}

	g.logger.Debug("starting vanity search",
		"prefix", prefix,
		"scan_limit", scanLimit,
		"result_limit", resultLimit)

	var matches []Match
	scanned := 0
	start := time.Now()
	lastStats := start

	for scanned < scanLimit && len(matches) < resultLimit {
		if err := ctx.Err(); err != nil {
			g.logger.Debug("vanity search cancelled", "scanned", scanned, "matches", len(matches))
			return matches, err
		}

		burstEnd := time.Now().Add(burstDuration)
		burstScanned := 0
		burstMatches := 0
		for time.Now().Before(burstEnd) && scanned < scanLimit && len(matches) < resultLimit {
			key, err := solana.NewRandomPrivateKey()
			if err != nil {
				return matches, fmt.Errorf("failed to generate keypair: %w", err)
			}
			scanned++
			burstScanned++
			pub := key.PublicKey()
			if strings.HasPrefix(pub.String(), prefix) {
				matches = append(matches, Match{PublicKey: pub, PrivateKey: key})
				burstMatches++
			}
		}

		elapsed := time.Since(start)
		rate := float64(scanned) / elapsed.Seconds()
		g.metrics.RecordVanityScan(burstScanned, burstMatches, rate)

		if onProgress != nil && time.Since(lastStats) >= statsInterval {
			lastStats = time.Now()
			onProgress(Progress{
				Scanned:       scanned,
				Matches:       len(matches),
				KeysPerSecond: rate,
				Elapsed:       elapsed,
			})
		}
	}

	g.logger.Debug("vanity search finished",
		"scanned", scanned,
		"matches", len(matches),
		"elapsed", time.Since(start))
	return matches, nil
}
