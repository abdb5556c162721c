// Package hub is the server side of the wallet protocols. It receives the
// relayable actions a wallet sends to the hub, validates commitments against
// the stored channel state and answers with the hub's own signed commitments.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/channel"
	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/protocol"
	"github.com/compose-network/nitro-wallet/x/store"
)

// Response is the relay's answer to an action. Reply is set when the hub
// answers the counterparty; otherwise Echo carries the action unchanged.
type Response struct {
	Status int
	Reply  *communication.RelayMessage
	Echo   communication.RelayableAction
}

func (r Response) MarshalJSON() ([]byte, error) {
	if r.Reply != nil {
		return json.Marshal(*r.Reply)
	}
	if r.Echo != nil {
		return communication.MarshalAction(r.Echo)
	}
	return []byte("null"), nil
}

// Option configures a Relay.
type Option func(*Relay)

// WithAppRules registers rules for application channels of channelType.
func WithAppRules(channelType common.Address, rules AppRules) Option {
	return func(r *Relay) {
		r.rules.byType[channelType] = rules
	}
}

// WithDefaultRules replaces AcknowledgeRules for unregistered channel types.
func WithDefaultRules(rules AppRules) Option {
	return func(r *Relay) {
		r.rules.fallback = rules
	}
}

// WithLedgerChannelType restricts ledger channels to channelType.
func WithLedgerChannelType(channelType common.Address) Option {
	return func(r *Relay) {
		r.ledgerType = channelType
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// Relay handles the actions of ongoing processes. Requests for the same
// process are serialized; the repository's compare-and-swap guards against
// writers outside this instance.
type Relay struct {
	repo       store.Repository
	signer     channel.Signer
	rules      rulesRegistry
	ledgerType common.Address
	locks      *keyedMutex
	metrics    *Metrics
	log        zerolog.Logger
}

func NewRelay(repo store.Repository, signer channel.Signer, log zerolog.Logger, opts ...Option) *Relay {
	r := &Relay{
		repo:   repo,
		signer: signer,
		rules:  rulesRegistry{byType: make(map[common.Address]AppRules), fallback: AcknowledgeRules},
		locks:  newKeyedMutex(),
		log:    log.With().Str("component", "hub-relay").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Address is the hub's participant address.
func (r *Relay) Address() common.Address {
	return r.signer.Address()
}

// HandleOngoingProcessAction dispatches action by type.
func (r *Relay) HandleOngoingProcessAction(ctx context.Context, action communication.RelayableAction) (resp Response, err error) {
	start := time.Now()
	defer func() {
		r.observe(action, start, err)
	}()

	switch a := action.(type) {
	case communication.CommitmentReceived:
		return r.commitmentsReceived(ctx, a.ProcessID, []channel.SignedCommitment{a.SignedCommitment}, "", false)
	case communication.CommitmentsReceived:
		return r.commitmentsReceived(ctx, a.ProcessID, a.SignedCommitments, a.ProtocolLocator, true)
	case communication.StrategyProposed:
		p, err := r.process(ctx, a.ProcessID)
		if err != nil {
			return Response{}, err
		}
		reply := communication.SendStrategyApproved(p.TheirAddress, p.ID)
		return Response{Status: http.StatusOK, Reply: &reply}, nil
	case communication.ConcludeInstigated,
		communication.StrategyApproved,
		communication.KeepLedgerChannelApproved,
		communication.DefundRequested,
		communication.MultipleRelayableActions:
		return Response{Status: http.StatusOK, Echo: action}, nil
	default:
		protocol.Unreachable(action)
		return Response{}, nil
	}
}

func (r *Relay) process(ctx context.Context, processID string) (store.Process, error) {
	p, err := r.repo.GetProcess(ctx, processID)
	switch {
	case errors.Is(err, store.ErrProcessNotFound):
		return store.Process{}, newRelayError(processID, ErrProcessMissing, "")
	case err != nil:
		return store.Process{}, fmt.Errorf("get process %s: %w", processID, err)
	}
	return p, nil
}

func (r *Relay) commitmentsReceived(ctx context.Context, processID string, received []channel.SignedCommitment, locator string, multi bool) (Response, error) {
	if len(received) == 0 {
		return Response{}, newRelayError(processID, ErrValidation, "no commitments")
	}
	p, err := r.process(ctx, processID)
	if err != nil {
		return Response{}, err
	}

	newest := received[len(received)-1]
	signer, err := newest.Signer()
	if err != nil {
		return Response{}, newRelayError(processID, ErrSignatureOrTurnNumberInvalid, "%v", err)
	}
	if mover := newest.Commitment.Mover(); signer != mover {
		return Response{}, newRelayError(processID, ErrSignatureOrTurnNumberInvalid, "signed by %s, mover is %s", signer.Hex(), mover.Hex())
	}

	channelID := newest.Commitment.ChannelID()
	isApp := channelID == p.AppChannelID
	if newest.Commitment.Channel.IndexOf(r.Address()) < 0 {
		return Response{}, newRelayError(processID, ErrValidation, "hub is not a participant of %s", channelID.Hex())
	}
	if ct := newest.Commitment.Channel.ChannelType; !isApp && r.ledgerType != (common.Address{}) && ct != r.ledgerType {
		return Response{}, newRelayError(processID, ErrValidation, "ledger channel type %s, want %s", ct.Hex(), r.ledgerType.Hex())
	}

	unlock := r.locks.Lock(processID)
	defer unlock()

	stored, exists, err := r.repo.GetCurrentCommitment(ctx, channelID)
	if err != nil {
		return Response{}, fmt.Errorf("get current commitment %s: %w", channelID.Hex(), err)
	}
	var current *channel.Commitment
	var expected *uint32
	if exists {
		current = &stored.Commitment
		expected = store.Turn(stored.Commitment.TurnNum)
	}

	accepted, err := r.accept(processID, current, received, isApp)
	if err != nil {
		return Response{}, err
	}
	last := accepted[len(accepted)-1].Commitment

	toStore := accepted
	var ours *channel.SignedCommitment
	if last.Channel.Mover(last.TurnNum+1) == r.Address() {
		next, ok, err := r.respond(last, isApp)
		if err != nil {
			return Response{}, newRelayError(processID, ErrValidation, "%v", err)
		}
		if ok {
			sc, err := r.signer.SignCommitment(next)
			if err != nil {
				return Response{}, fmt.Errorf("sign commitment: %w", err)
			}
			ours = &sc
			toStore = append(toStore[:len(toStore):len(toStore)], sc)
		}
	}

	if err := r.repo.SaveCommitments(ctx, channelID, expected, toStore...); err != nil {
		if errors.Is(err, store.ErrTurnNumberConflict) {
			return Response{}, newRelayError(processID, ErrTurnNumberConflict, "%v", err)
		}
		return Response{}, fmt.Errorf("save commitments %s: %w", channelID.Hex(), err)
	}
	r.stored(isApp, len(toStore), len(accepted))

	r.log.Info().
		Str("process_id", processID).
		Str("channel_id", channelID.Hex()).
		Bool("app_channel", isApp).
		Uint32("turn", last.TurnNum).
		Bool("replied", ours != nil).
		Msg("Commitments accepted")

	return r.reply(p, accepted, ours, locator, multi, isApp), nil
}

// accept validates the received run against current, skipping commitments the
// hub already holds.
func (r *Relay) accept(processID string, current *channel.Commitment, received []channel.SignedCommitment, isApp bool) ([]channel.SignedCommitment, error) {
	accepted := make([]channel.SignedCommitment, 0, len(received))
	prev := current
	for _, sc := range received {
		if prev != nil && sc.Commitment.TurnNum <= prev.TurnNum {
			continue
		}
		if err := sc.Verify(); err != nil {
			return nil, newRelayError(processID, ErrSignatureOrTurnNumberInvalid, "%v", err)
		}
		if err := validateTransition(prev, sc.Commitment, isApp); err != nil {
			var re *RelayError
			if errors.As(err, &re) {
				return nil, err
			}
			return nil, &RelayError{Code: CodeOf(err), ProcessID: processID, Cause: err}
		}
		accepted = append(accepted, sc)
		c := sc.Commitment
		prev = &c
	}
	if len(accepted) == 0 {
		return nil, newRelayError(processID, ErrTurnNumberConflict, "channel already at turn %d", current.TurnNum)
	}
	return accepted, nil
}

func validateTransition(prev *channel.Commitment, next channel.Commitment, isApp bool) error {
	if prev == nil {
		if next.TurnNum != 0 {
			return fmt.Errorf("%w: first commitment at turn %d", ErrSignatureOrTurnNumberInvalid, next.TurnNum)
		}
		return validateSetup(nil, next)
	}
	if next.TurnNum != prev.TurnNum+1 {
		return fmt.Errorf("%w: turn %d does not follow %d", ErrSignatureOrTurnNumberInvalid, next.TurnNum, prev.TurnNum)
	}
	if !prev.Channel.Equal(next.Channel) {
		return fmt.Errorf("%w: channel changed", ErrValidation)
	}
	if isSetup(next.CommitmentType) {
		return validateSetup(prev, next)
	}
	if isApp {
		return validateAppMove(*prev, next)
	}
	if err := channel.ValidateConsensusTransition(*prev, next); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// respond builds the hub's commitment after last. The boolean is false when
// nothing is owed, as after the final commitment of a setup round.
func (r *Relay) respond(last channel.Commitment, isApp bool) (channel.Commitment, bool, error) {
	if isSetup(last.CommitmentType) {
		next, ok := nextSetup(last)
		return next, ok, nil
	}
	if !isApp {
		next, err := respondLedger(last)
		return next, err == nil, err
	}
	next, err := r.rules.forType(last.Channel.ChannelType).Respond(last)
	if err != nil {
		return channel.Commitment{}, false, err
	}
	if next.TurnNum != last.TurnNum+1 {
		return channel.Commitment{}, false, fmt.Errorf("rules answered turn %d after %d", next.TurnNum, last.TurnNum)
	}
	return next, true, nil
}

func (r *Relay) reply(p store.Process, accepted []channel.SignedCommitment, ours *channel.SignedCommitment, locator string, multi, isApp bool) Response {
	status := http.StatusOK
	if !isApp {
		status = http.StatusCreated
	}
	newest := accepted[len(accepted)-1]

	var msg communication.RelayMessage
	switch {
	case multi:
		commitments := []channel.SignedCommitment{newest}
		if ours != nil {
			commitments = append(commitments, *ours)
		}
		msg = communication.SendCommitmentsReceived(p.TheirAddress, p.ID, commitments, locator)
	case ours != nil:
		msg = communication.SendCommitmentReceived(p.TheirAddress, p.ID, ours.Commitment, ours.Signature)
	default:
		msg = communication.SendCommitmentReceived(p.TheirAddress, p.ID, newest.Commitment, newest.Signature)
	}
	return Response{Status: status, Reply: &msg}
}

func (r *Relay) stored(isApp bool, stored, accepted int) {
	if r.metrics == nil {
		return
	}
	kind := "ledger"
	if isApp {
		kind = "app"
	}
	r.metrics.CommitmentsStored.WithLabelValues(kind).Add(float64(stored))
	r.metrics.CommitmentsPerRequest.Observe(float64(accepted))
}

func (r *Relay) observe(action communication.RelayableAction, start time.Time, err error) {
	if r.metrics == nil || action == nil {
		return
	}
	typ := string(action.Type())
	code := "ok"
	if err != nil {
		code = string(CodeOf(err))
	}
	r.metrics.RequestsTotal.WithLabelValues(typ, code).Inc()
	r.metrics.RequestDuration.WithLabelValues(typ).Observe(time.Since(start).Seconds())
}
