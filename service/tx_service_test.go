package service

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollux-labs/garuda/core"
	"github.com/pollux-labs/garuda/ports"
)

// fakeLedger serves a fixed account and records submissions. Submitted
// transactions confirm with the configured statuses, in order.
type fakeLedger struct {
	sequenceNumber uint64
	accountErr     error

	submitted []submission
	submitErr error

	statuses []ports.TransactionStatus
	statusAt int
}

type submission struct {
	tx   *core.UnsignedTransaction
	auth *core.Authenticator
}

func (l *fakeLedger) Account(ctx context.Context, address core.Address) (*ports.AccountState, error) {
	if l.accountErr != nil {
		return nil, l.accountErr
	}
	return &ports.AccountState{SequenceNumber: l.sequenceNumber}, nil
}

func (l *fakeLedger) Submit(ctx context.Context, tx *core.UnsignedTransaction, auth *core.Authenticator) (string, error) {
	if l.submitErr != nil {
		return "", l.submitErr
	}
	l.submitted = append(l.submitted, submission{tx: tx, auth: auth})
	return "0xdirect", nil
}

func (l *fakeLedger) TransactionByHash(ctx context.Context, hash string) (*ports.TransactionStatus, error) {
	if len(l.statuses) == 0 {
		return &ports.TransactionStatus{Success: true, GasUsed: 20}, nil
	}
	status := l.statuses[l.statusAt]
	if l.statusAt < len(l.statuses)-1 {
		l.statusAt++
	}
	return &status, nil
}

// fakeSponsor replays a scripted response and counts calls.
type fakeSponsor struct {
	response *core.SponsorshipResponse
	status   *core.SponsorshipStatus
	calls    int
}

func (s *fakeSponsor) SponsorTransaction(ctx context.Context, serializedTx, serializedAuth []byte, sender core.Address) (*core.SponsorshipResponse, error) {
	s.calls++
	return s.response, nil
}

func (s *fakeSponsor) Status(ctx context.Context, address core.Address) (*core.SponsorshipStatus, error) {
	return s.status, nil
}

// fakeNativeSigner signs with a real key, synchronously, like a browser
// extension wallet.
type fakeNativeSigner struct {
	priv    ed25519.PrivateKey
	public  core.PublicKeyMaterial
	address core.Address
	signed  []*core.UnsignedTransaction
}

func newFakeNativeSigner(t *testing.T) *fakeNativeSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var pk core.PublicKeyMaterial
	copy(pk[:], pub)
	return &fakeNativeSigner{priv: priv, public: pk, address: core.DeriveAddress(pk)}
}

func (s *fakeNativeSigner) Address() core.Address { return s.address }

func (s *fakeNativeSigner) SignTransaction(ctx context.Context, tx *core.UnsignedTransaction, asFeePayer bool) (*core.Authenticator, *core.UnsignedTransaction, error) {
	digest, err := core.ComputeDigest(tx)
	if err != nil {
		return nil, nil, err
	}
	auth, err := core.AssembleAuthenticator(s.public[:], &core.RawSignature{Signer: s.address, Bytes: ed25519.Sign(s.priv, digest[:])})
	if err != nil {
		return nil, nil, err
	}
	s.signed = append(s.signed, tx)
	return auth, tx, nil
}

// fakeCustodialSigner returns raw signatures over supplied digests, like a
// remote custody service.
type fakeCustodialSigner struct {
	priv    ed25519.PrivateKey
	pubHex  string
	address core.Address
	digests []core.SigningDigest
}

func newFakeCustodialSigner(t *testing.T) *fakeCustodialSigner {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var pk core.PublicKeyMaterial
	copy(pk[:], pub)
	return &fakeCustodialSigner{
		priv: priv,
		// 33-byte form with a leading scheme byte, as custody services
		// commonly report keys; normalization strips it.
		pubHex:  "0x00" + hex.EncodeToString(pub),
		address: core.DeriveAddress(pk),
	}
}

func (s *fakeCustodialSigner) Address() core.Address { return s.address }
func (s *fakeCustodialSigner) PublicKeyHex() string  { return s.pubHex }

func (s *fakeCustodialSigner) SignDigest(ctx context.Context, address core.Address, digest core.SigningDigest) (*core.RawSignature, error) {
	s.digests = append(s.digests, digest)
	return &core.RawSignature{Signer: address, Bytes: ed25519.Sign(s.priv, digest[:])}, nil
}

type fakePublisher struct {
	events []*core.OutcomeEvent
	err    error
}

func (p *fakePublisher) PublishOutcome(ctx context.Context, event *core.OutcomeEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func testIntent() core.CallIntent {
	return core.CallIntent{
		Function: "0x1::poll::vote",
		Args:     []any{uint64(7), "option-a"},
	}
}

func newTestService(ledger ports.Ledger, sponsor ports.Sponsor, s ports.Signer, pub ports.EventPublisher) *TxService {
	svc := NewTxService(ledger, sponsor, s, pub, 2, zerolog.Nop())
	svc.pollInterval = 0
	svc.pollMaxInterval = 0
	return svc
}

// Scenario A: native wallet, no sponsorship requested.
func TestExecuteCallDirectNative(t *testing.T) {
	ledger := &fakeLedger{sequenceNumber: 5}
	sponsor := &fakeSponsor{}
	nativeSigner := newFakeNativeSigner(t)
	pub := &fakePublisher{}
	svc := newTestService(ledger, sponsor, nativeSigner, pub)

	outcome, err := svc.ExecuteCall(context.Background(), testIntent(), false)
	require.NoError(t, err)

	assert.Equal(t, "0xdirect", outcome.Hash)
	assert.False(t, outcome.Sponsored)
	assert.Zero(t, sponsor.calls, "sponsor must not be contacted")

	require.Len(t, ledger.submitted, 1)
	sub := ledger.submitted[0]
	assert.False(t, sub.tx.FeePayer)
	assert.Equal(t, uint64(5), sub.tx.SequenceNumber)

	// The submitted authenticator verifies against the submitted
	// transaction's digest.
	digest, err := core.ComputeDigest(sub.tx)
	require.NoError(t, err)
	assert.True(t, core.VerifyAuthenticator(sub.auth, digest))

	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].Success)
	assert.False(t, pub.events[0].Sponsored)
}

// Scenario B: custodial wallet, sponsorship succeeds.
func TestExecuteCallSponsoredCustodial(t *testing.T) {
	ledger := &fakeLedger{}
	sponsor := &fakeSponsor{response: &core.SponsorshipResponse{Success: true, TransactionHash: "0xabc"}}
	custodial := newFakeCustodialSigner(t)
	pub := &fakePublisher{}
	svc := newTestService(ledger, sponsor, custodial, pub)

	outcome, err := svc.ExecuteCall(context.Background(), testIntent(), true)
	require.NoError(t, err)

	assert.Equal(t, "0xabc", outcome.Hash)
	assert.True(t, outcome.Sponsored)
	assert.Equal(t, 1, sponsor.calls)
	assert.Empty(t, ledger.submitted, "direct path must not run")
	require.Len(t, custodial.digests, 1)

	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].Sponsored)
}

// Scenario C: daily limit exceeded, fallback rebuild-and-resign, direct
// submission succeeds.
func TestExecuteCallFallbackRebuildsAndResigns(t *testing.T) {
	ledger := &fakeLedger{sequenceNumber: 9}
	sponsor := &fakeSponsor{response: &core.SponsorshipResponse{
		Success:          false,
		FallbackRequired: true,
		Reason:           "daily limit exceeded",
		DailyUsed:        50,
		DailyLimit:       50,
	}}
	custodial := newFakeCustodialSigner(t)
	svc := newTestService(ledger, sponsor, custodial, &fakePublisher{})

	outcome, err := svc.ExecuteCall(context.Background(), testIntent(), true)
	require.NoError(t, err)

	assert.Equal(t, "0xdirect", outcome.Hash)
	assert.False(t, outcome.Sponsored, "fallback outcome is self-paid")
	assert.Equal(t, 1, sponsor.calls, "sponsorship must not be retried")
	require.Len(t, ledger.submitted, 1, "direct submission exactly once")

	// The fallback signed a structurally different transaction: two signing
	// requests, over different digests.
	require.Len(t, custodial.digests, 2)
	assert.NotEqual(t, custodial.digests[0], custodial.digests[1])

	// The resubmitted transaction is the non-fee-payer shape, and its
	// authenticator was produced over the rebuilt digest, not the stale one.
	sub := ledger.submitted[0]
	assert.False(t, sub.tx.FeePayer)
	digest, err := core.ComputeDigest(sub.tx)
	require.NoError(t, err)
	assert.True(t, core.VerifyAuthenticator(sub.auth, digest))
}

// Scenario D: ledger aborts execution.
func TestExecuteCallChainExecutionFailure(t *testing.T) {
	ledger := &fakeLedger{statuses: []ports.TransactionStatus{
		{Success: false, AbortReason: "EINSUFFICIENT_VOTES_REMAINING"},
	}}
	nativeSigner := newFakeNativeSigner(t)
	pub := &fakePublisher{}
	svc := newTestService(ledger, &fakeSponsor{}, nativeSigner, pub)

	_, err := svc.ExecuteCall(context.Background(), testIntent(), false)
	require.ErrorIs(t, err, core.ErrExecutionFailed)
	assert.Contains(t, err.Error(), "EINSUFFICIENT_VOTES_REMAINING")

	// The failure is still reported downstream.
	require.Len(t, pub.events, 1)
	assert.False(t, pub.events[0].Success)
	assert.Equal(t, "EINSUFFICIENT_VOTES_REMAINING", pub.events[0].AbortReason)
}

// Scenario E: sponsor unreachable; the adapter's synthesized response takes
// the same fallback path as an explicit one.
func TestExecuteCallSponsorUnreachableFallsBack(t *testing.T) {
	ledger := &fakeLedger{}
	sponsor := &fakeSponsor{response: &core.SponsorshipResponse{
		Success:          false,
		FallbackRequired: true,
		Error:            "network error",
	}}
	nativeSigner := newFakeNativeSigner(t)
	svc := newTestService(ledger, sponsor, nativeSigner, &fakePublisher{})

	outcome, err := svc.ExecuteCall(context.Background(), testIntent(), true)
	require.NoError(t, err)

	assert.False(t, outcome.Sponsored)
	assert.Equal(t, 1, sponsor.calls)
	require.Len(t, ledger.submitted, 1)
}

func TestExecuteCallSponsorshipDeniedIsTerminal(t *testing.T) {
	ledger := &fakeLedger{}
	sponsor := &fakeSponsor{response: &core.SponsorshipResponse{
		Success: false,
		Reason:  "sponsorship disabled for this address",
	}}
	nativeSigner := newFakeNativeSigner(t)
	svc := newTestService(ledger, sponsor, nativeSigner, &fakePublisher{})

	_, err := svc.ExecuteCall(context.Background(), testIntent(), true)
	require.ErrorIs(t, err, core.ErrSponsorshipDenied)
	assert.Contains(t, err.Error(), "sponsorship disabled")
	assert.Empty(t, ledger.submitted, "a policy denial must not fall back")
}

func TestExecuteCallDirectFailureAfterFallbackPropagates(t *testing.T) {
	ledger := &fakeLedger{submitErr: errors.New("ledger rejected transaction: SEQUENCE_NUMBER_TOO_OLD")}
	sponsor := &fakeSponsor{response: &core.SponsorshipResponse{FallbackRequired: true}}
	nativeSigner := newFakeNativeSigner(t)
	svc := newTestService(ledger, sponsor, nativeSigner, &fakePublisher{})

	_, err := svc.ExecuteCall(context.Background(), testIntent(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEQUENCE_NUMBER_TOO_OLD")
	assert.Equal(t, 1, sponsor.calls, "no second sponsorship attempt after direct failure")
}

func TestExecuteCallBuildFailure(t *testing.T) {
	ledger := &fakeLedger{accountErr: errors.New("account 0x42 not found on ledger")}
	nativeSigner := newFakeNativeSigner(t)
	svc := newTestService(ledger, &fakeSponsor{}, nativeSigner, &fakePublisher{})

	_, err := svc.ExecuteCall(context.Background(), testIntent(), false)
	assert.ErrorIs(t, err, core.ErrBuildFailed)
}

func TestExecuteCallNoSignerBound(t *testing.T) {
	svc := newTestService(&fakeLedger{}, &fakeSponsor{}, nil, &fakePublisher{})

	_, err := svc.ExecuteCall(context.Background(), testIntent(), false)
	assert.ErrorIs(t, err, core.ErrSignerUnavailable)
}

func TestExecuteCallInvalidIntent(t *testing.T) {
	nativeSigner := newFakeNativeSigner(t)
	svc := newTestService(&fakeLedger{}, &fakeSponsor{}, nativeSigner, &fakePublisher{})

	_, err := svc.ExecuteCall(context.Background(), core.CallIntent{Function: "vote"}, false)
	assert.ErrorIs(t, err, core.ErrInvalidIntent)
}

func TestExecuteCallPublishFailureDoesNotFailCall(t *testing.T) {
	nativeSigner := newFakeNativeSigner(t)
	pub := &fakePublisher{err: errors.New("stream down")}
	svc := newTestService(&fakeLedger{}, &fakeSponsor{}, nativeSigner, pub)

	outcome, err := svc.ExecuteCall(context.Background(), testIntent(), false)
	require.NoError(t, err)
	assert.Equal(t, "0xdirect", outcome.Hash)
}

func TestWaitForOutcomePollsUntilTerminal(t *testing.T) {
	ledger := &fakeLedger{statuses: []ports.TransactionStatus{
		{Pending: true},
		{Pending: true},
		{Success: true, GasUsed: 31},
	}}
	nativeSigner := newFakeNativeSigner(t)
	svc := newTestService(ledger, &fakeSponsor{}, nativeSigner, &fakePublisher{})

	status, err := svc.WaitForOutcome(context.Background(), "0xfeed")
	require.NoError(t, err)
	assert.True(t, status.Success)
	assert.Equal(t, uint64(31), status.GasUsed)
}

func TestWaitForOutcomeRespectsContext(t *testing.T) {
	ledger := &fakeLedger{statuses: []ports.TransactionStatus{{Pending: true}}}
	nativeSigner := newFakeNativeSigner(t)
	svc := newTestService(ledger, &fakeSponsor{}, nativeSigner, &fakePublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.WaitForOutcome(ctx, "0xfeed")
	assert.ErrorIs(t, err, core.ErrNetwork)
}

func TestSponsorshipStatus(t *testing.T) {
	sponsor := &fakeSponsor{status: &core.SponsorshipStatus{
		Success:    true,
		DailyUsed:  3,
		DailyLimit: 50,
		Remaining:  47,
		Enabled:    true,
	}}
	nativeSigner := newFakeNativeSigner(t)
	svc := newTestService(&fakeLedger{}, sponsor, nativeSigner, &fakePublisher{})

	status, fee, err := svc.SponsorshipStatus(context.Background(), nativeSigner.Address())
	require.NoError(t, err)
	assert.Equal(t, 47, status.Remaining)
	// 20000 gas * 100 octa, shifted 8 decimal places.
	assert.Equal(t, "0.02", fee.String())
}
