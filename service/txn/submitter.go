package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/dloomlabs/forge/service/metrics"
	solanaclient "github.com/dloomlabs/forge/service/solana"
)

// Phase is a stage in a transaction's lifecycle, reported through the
// submitter's phase hook so callers can surface progress.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseDeriving          Phase = "deriving"
	PhaseBuilding          Phase = "building"
	PhaseAwaitingSignature Phase = "awaiting_signature"
	PhaseBroadcasting      Phase = "broadcasting"
	PhaseConfirming        Phase = "confirming"
	PhaseSucceeded         Phase = "succeeded"
	PhaseFailed            Phase = "failed"
)

// PhaseFunc receives lifecycle transitions. May be nil.
type PhaseFunc func(Phase)

// maxBroadcastAttempts bounds resends of one signed transaction. Resending
// the same bytes is idempotent: the signature is derived from the content,
// so a duplicate landing twice is impossible.
const maxBroadcastAttempts = 5

// Submitter signs, broadcasts, and confirms prepared transactions.
type Submitter struct {
	client  *solanaclient.Client
	logger  *slog.Logger
	metrics *metrics.Metrics

	// PollInterval is the delay between confirmation status checks.
	PollInterval time.Duration
}

// NewSubmitter creates a Submitter.
func NewSubmitter(client *solanaclient.Client, logger *slog.Logger, m *metrics.Metrics) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{
		client:       client,
		logger:       logger,
		metrics:      m,
		PollInterval: 2 * time.Second,
	}
}

// Submit signs prepared with signer plus any co-signers, broadcasts it, and
// waits for confirmation. The returned signature identifies the transaction
// whether it ultimately succeeds or fails on chain.
func (s *Submitter) Submit(ctx context.Context, prepared *Prepared, signer Signer, onPhase PhaseFunc, cosigners ...solana.PrivateKey) (solana.Signature, error) {
	report := func(p Phase) {
		if onPhase != nil {
			onPhase(p)
		}
	}

	report(PhaseAwaitingSignature)
	for _, co := range cosigners {
		key := co
		if _, err := prepared.Tx.PartialSign(func(pk solana.PublicKey) *solana.PrivateKey {
			if pk.Equals(key.PublicKey()) {
				return &key
			}
			return nil
		}); err != nil {
			report(PhaseFailed)
			return solana.Signature{}, NewValidationError("co-signer %s failed: %v", key.PublicKey(), err)
		}
	}
	if err := signer.Sign(ctx, prepared.Tx); err != nil {
		report(PhaseFailed)
		if errors.Is(err, ErrUserRejected) {
			return solana.Signature{}, &Error{Kind: KindUserRejected, Err: err}
		}
		return solana.Signature{}, &Error{Kind: KindValidation, Err: err}
	}

	serialized, err := prepared.Tx.MarshalBinary()
	if err != nil {
		report(PhaseFailed)
		return solana.Signature{}, NewValidationError("failed to serialize transaction: %v", err)
	}

	report(PhaseBroadcasting)
	sig, attempts, err := s.broadcast(ctx, serialized)
	if err != nil {
		report(PhaseFailed)
		s.metrics.RecordSubmission("broadcast_failed", attempts)
		return sig, err
	}

	report(PhaseConfirming)
	if err := s.confirm(ctx, sig, prepared.LastValidBlockHeight); err != nil {
		report(PhaseFailed)
		s.metrics.RecordSubmission(s.outcomeLabel(err), attempts)
		return sig, err
	}

	report(PhaseSucceeded)
	s.metrics.RecordSubmission("confirmed", attempts)
	return sig, nil
}

func (s *Submitter) outcomeLabel(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.String()
	}
	return "error"
}

// broadcast sends the serialized transaction, retrying transient transport
// failures. Simulation rejections are terminal; the program's diagnostic is
// preserved.
func (s *Submitter) broadcast(ctx context.Context, serialized []byte) (solana.Signature, int, error) {
	maxRetries := uint(maxBroadcastAttempts)
	opts := rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentConfirmed,
		MaxRetries:          &maxRetries,
	}

	var lastErr error
	for attempt := 1; attempt <= maxBroadcastAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return solana.Signature{}, attempt, &Error{Kind: KindNetwork, Err: err}
		}

		sig, err := s.client.SendRawTransaction(ctx, serialized, opts)
		if err == nil {
			return sig, attempt, nil
		}

		classified := ClassifyRPCError(err)
		if classified.Kind == KindSimulation {
			return solana.Signature{}, attempt, classified
		}

		lastErr = classified
		s.metrics.RecordRPCRetry("broadcast")
		s.logger.Warn("broadcast attempt failed",
			"attempt", attempt,
			"error", err)
	}
	return solana.Signature{}, maxBroadcastAttempts, fmt.Errorf("broadcast failed after %d attempts: %w", maxBroadcastAttempts, lastErr)
}

// confirm polls signature status until the transaction confirms or its
// blockhash expires. Expiry is judged by block height, not wall time.
func (s *Submitter) confirm(ctx context.Context, sig solana.Signature, lastValidBlockHeight uint64) error {
	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for {
		statuses, err := s.client.GetSignatureStatuses(ctx, false, sig)
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return &Error{
					Kind:   KindSimulation,
					Detail: fmt.Sprintf("transaction %s failed on chain: %v", sig, status.Err),
				}
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
		if err != nil {
			s.logger.Debug("status poll failed", "signature", sig, "error", err)
		}

		height, err := s.client.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
		if err == nil && height > lastValidBlockHeight {
			return &Error{
				Kind:   KindExpired,
				Detail: fmt.Sprintf("blockhash expired at height %d before %s confirmed", lastValidBlockHeight, sig),
			}
		}

		select {
		case <-ctx.Done():
			return &Error{Kind: KindNetwork, Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}
