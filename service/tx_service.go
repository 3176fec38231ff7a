package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pollux-labs/garuda/core"
	"github.com/pollux-labs/garuda/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TxService drives the sponsored transaction execution pipeline: build,
// digest, sign, submit (sponsored or direct), confirm, with a single
// automatic sponsored-to-direct fallback.
type TxService struct {
	ledger  ports.Ledger
	sponsor ports.Sponsor
	signer  ports.Signer
	events  ports.EventPublisher
	log     zerolog.Logger

	chainID      uint8
	maxGasAmount uint64
	gasUnitPrice uint64
	txTTL        time.Duration

	pollInterval    time.Duration
	pollMaxInterval time.Duration
}

// NewTxService creates a new transaction service
func NewTxService(
	ledger ports.Ledger,
	sponsor ports.Sponsor,
	signer ports.Signer,
	events ports.EventPublisher,
	chainID uint8,
	log zerolog.Logger,
) *TxService {
	return &TxService{
		ledger:          ledger,
		sponsor:         sponsor,
		signer:          signer,
		events:          events,
		log:             log,
		chainID:         chainID,
		maxGasAmount:    20_000,
		gasUnitPrice:    100,
		txTTL:           2 * time.Minute,
		pollInterval:    250 * time.Millisecond,
		pollMaxInterval: 2 * time.Second,
	}
}

// SetGasParameters overrides the default gas budget applied to built
// transactions.
func (s *TxService) SetGasParameters(maxGasAmount, gasUnitPrice uint64) {
	s.maxGasAmount = maxGasAmount
	s.gasUnitPrice = gasUnitPrice
}

// Build turns a call intent into an unsigned transaction, querying the
// ledger for the sender's sequence number. The fee-payer flag participates
// in the canonical encoding, so sponsored and direct attempts are
// structurally different transactions.
func (s *TxService) Build(ctx context.Context, intent core.CallIntent, sender core.Address, feePayer bool) (*core.UnsignedTransaction, error) {
	if err := intent.Validate(); err != nil {
		return nil, err
	}

	account, err := s.ledger.Account(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBuildFailed, err)
	}

	return &core.UnsignedTransaction{
		Sender:                  sender,
		Intent:                  intent,
		FeePayer:                feePayer,
		SequenceNumber:          account.SequenceNumber,
		MaxGasAmount:            s.maxGasAmount,
		GasUnitPrice:            s.gasUnitPrice,
		ExpirationTimestampSecs: uint64(time.Now().Add(s.txTTL).Unix()),
		ChainID:                 s.chainID,
	}, nil
}

// sign obtains an authenticator for the transaction from whichever signer
// capability is bound to the session. The returned transaction is the one
// actually signed; the authenticator is valid only for its digest.
func (s *TxService) sign(ctx context.Context, tx *core.UnsignedTransaction) (*core.Authenticator, *core.UnsignedTransaction, error) {
	switch signer := s.signer.(type) {
	case ports.NativeSigner:
		// The native signer owns digest computation and authenticator
		// assembly.
		return signer.SignTransaction(ctx, tx, false)

	case ports.CustodialSigner:
		digest, err := core.ComputeDigest(tx)
		if err != nil {
			return nil, nil, err
		}

		sig, err := signer.SignDigest(ctx, signer.Address(), digest)
		if err != nil {
			return nil, nil, err
		}

		pk, err := core.PublicKeyFromHex(signer.PublicKeyHex())
		if err != nil {
			return nil, nil, fmt.Errorf("%w: custodial public key: %v", core.ErrSignerUnavailable, err)
		}

		auth, err := core.AssembleAuthenticator(pk[:], sig)
		if err != nil {
			return nil, nil, err
		}
		return auth, tx, nil

	default:
		return nil, nil, fmt.Errorf("%w: no signer bound to session", core.ErrSignerUnavailable)
	}
}

// ExecuteCall drives the full pipeline for one call intent and returns the
// terminal outcome. When preferSponsorship is set, the sponsored path is
// attempted first and falls back to self-paid direct submission at most
// once; a failure of the direct path propagates to the caller.
func (s *TxService) ExecuteCall(ctx context.Context, intent core.CallIntent, preferSponsorship bool) (*core.SubmissionOutcome, error) {
	if s.signer == nil {
		return nil, fmt.Errorf("%w: no signer bound to session", core.ErrSignerUnavailable)
	}
	sender := s.signer.Address()

	attemptID := uuid.New().String()
	log := s.log.With().
		Str("attempt_id", attemptID).
		Str("sender", sender.Hex()).
		Str("function", intent.Function).
		Logger()

	var (
		hash      string
		sponsored bool
	)

	if preferSponsorship {
		resp, err := s.attemptSponsored(ctx, intent, sender)
		switch {
		case err != nil:
			return nil, err
		case resp.Success:
			hash = resp.TransactionHash
			sponsored = true
			log.Info().Str("hash", hash).Msg("transaction sponsored")
		case !resp.FallbackRequired:
			// A policy decision, not a transient failure: terminal.
			reason := resp.Reason
			if reason == "" {
				reason = resp.Error
			}
			return nil, fmt.Errorf("%w: %s", core.ErrSponsorshipDenied, reason)
		default:
			log.Warn().
				Str("reason", resp.Reason).
				Str("error", resp.Error).
				Msg("sponsorship unavailable, falling back to direct submission")
		}
	}

	if hash == "" {
		// Direct path, either first-choice or fallback. The sponsored
		// attempt's transaction and authenticator are discarded: the
		// fee-payer flag changes the encoded bytes, so a fresh build and a
		// fresh signature are required.
		tx, err := s.Build(ctx, intent, sender, false)
		if err != nil {
			return nil, err
		}

		auth, signedTx, err := s.sign(ctx, tx)
		if err != nil {
			return nil, err
		}

		hash, err = s.ledger.Submit(ctx, signedTx, auth)
		if err != nil {
			return nil, err
		}
		log.Info().Str("hash", hash).Msg("transaction submitted directly")
	}

	status, err := s.WaitForOutcome(ctx, hash)
	if err != nil {
		return nil, err
	}

	fee := core.FeeOcta(status.GasUsed, s.gasUnitPrice)
	event := &core.OutcomeEvent{
		AttemptID:       attemptID,
		Sender:          sender.Hex(),
		Function:        intent.Function,
		TransactionHash: hash,
		Sponsored:       sponsored,
		Success:         status.Success,
		AbortReason:     status.AbortReason,
		FeeOcta:         fee.String(),
	}
	s.publishOutcome(ctx, log, event)

	if !status.Success {
		return nil, fmt.Errorf("%w: %s", core.ErrExecutionFailed, status.AbortReason)
	}

	return &core.SubmissionOutcome{
		Hash:      hash,
		Sponsored: sponsored,
		GasUsed:   status.GasUsed,
		FeeOcta:   fee.String(),
	}, nil
}

// attemptSponsored builds, signs, and submits the fee-payer shape of the
// intent through the sponsorship backend. Every failure of the attempt is
// reported through the response's fallback contract; only build and signing
// failures surface as errors.
func (s *TxService) attemptSponsored(ctx context.Context, intent core.CallIntent, sender core.Address) (*core.SponsorshipResponse, error) {
	tx, err := s.Build(ctx, intent, sender, true)
	if err != nil {
		return nil, err
	}

	auth, signedTx, err := s.sign(ctx, tx)
	if err != nil {
		return nil, err
	}

	txBytes, err := core.EncodeTransaction(signedTx)
	if err != nil {
		return nil, err
	}
	authBytes, err := core.EncodeAuthenticator(auth)
	if err != nil {
		return nil, err
	}

	resp, err := s.sponsor.SponsorTransaction(ctx, txBytes, authBytes, sender)
	if err != nil {
		// The sponsor port funnels transport failures into the response;
		// an error here is an adapter defect. Treat it like one more
		// fallback signal so the user's intent keeps moving.
		s.log.Error().Err(err).Msg("sponsor client returned an error instead of a fallback response")
		return &core.SponsorshipResponse{FallbackRequired: true, Error: err.Error()}, nil
	}
	return resp, nil
}

// WaitForOutcome polls the ledger until the transaction reaches a terminal
// status. No internal timeout is applied; callers bound the wait through
// ctx.
func (s *TxService) WaitForOutcome(ctx context.Context, hash string) (*ports.TransactionStatus, error) {
	interval := s.pollInterval

	for {
		status, err := s.ledger.TransactionByHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		if !status.Pending {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", core.ErrNetwork, ctx.Err())
		case <-time.After(interval):
		}

		if interval *= 2; interval > s.pollMaxInterval {
			interval = s.pollMaxInterval
		}
	}
}

// TransactionStatus returns the ledger's current view of a transaction
// without waiting for it to become terminal.
func (s *TxService) TransactionStatus(ctx context.Context, hash string) (*ports.TransactionStatus, error) {
	return s.ledger.TransactionByHash(ctx, hash)
}

// SponsorshipStatus proxies the backend's per-address standing and attaches
// an estimated self-paid fee per call, in whole coins, for display.
func (s *TxService) SponsorshipStatus(ctx context.Context, address core.Address) (*core.SponsorshipStatus, decimal.Decimal, error) {
	status, err := s.sponsor.Status(ctx, address)
	if err != nil {
		return nil, decimal.Zero, err
	}

	estimate := core.FeeCoins(core.FeeOcta(s.maxGasAmount, s.gasUnitPrice))
	return status, estimate, nil
}

// publishOutcome emits the outcome event. Publishing is best-effort: the
// outcome is already terminal, so a stream failure must not fail the call.
func (s *TxService) publishOutcome(ctx context.Context, log zerolog.Logger, event *core.OutcomeEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOutcome(ctx, event); err != nil {
		log.Warn().Err(err).Msg("failed to publish outcome event")
	}
}
