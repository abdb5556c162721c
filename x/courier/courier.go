// Package courier delivers the wallet's outboxes. It hands the head of each
// queue to the matching transport and confirms delivery back to the wallet,
// which then drops the head.
package courier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/compose-network/nitro-wallet/x/communication"
	"github.com/compose-network/nitro-wallet/x/outbox"
	"github.com/compose-network/nitro-wallet/x/wallet"
)

const (
	outboxDisplay     = "display"
	outboxMessage     = "message"
	outboxTransaction = "transaction"
)

var (
	ErrDeliveryFailed = errors.New("courier: delivery failed")
	errPermanent      = errors.New("permanent")
	errNoTransport    = errors.New("no transport attached")
)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", errPermanent, err)
}

// Sender delivers relay messages to a counterparty.
type Sender interface {
	Send(ctx context.Context, msg communication.RelayMessage) error
}

// Notifier hands wallet events to the embedding application.
type Notifier interface {
	Notify(ctx context.Context, event communication.WalletEvent) error
}

// Submitter submits transaction requests on chain.
type Submitter interface {
	Submit(ctx context.Context, tx outbox.TransactionRequest) error
}

// Display shows or hides the wallet UI.
type Display interface {
	Show(ctx context.Context, msg communication.DisplayMessage) error
}

// Wallet is the part of wallet.Wallet the courier drives.
type Wallet interface {
	Dispatch(action any) wallet.State
	Outbox() outbox.State
	Changed() <-chan struct{}
}

type Option func(*Courier)

// WithNotifier delivers wallet events. Without one they are logged and dropped.
func WithNotifier(n Notifier) Option {
	return func(c *Courier) { c.notifier = n }
}

// WithDisplay delivers display messages. Without one they are acknowledged
// immediately.
func WithDisplay(d Display) Option {
	return func(c *Courier) { c.display = d }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Courier) { c.metrics = m }
}

// Courier is the single consumer of a wallet's outboxes.
type Courier struct {
	cfg       Config
	wallet    Wallet
	sender    Sender
	submitter Submitter
	notifier  Notifier
	display   Display
	metrics   *Metrics
	log       zerolog.Logger
}

func New(cfg Config, w Wallet, sender Sender, submitter Submitter, log zerolog.Logger, opts ...Option) (*Courier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid courier config: %w", err)
	}
	if w == nil {
		return nil, fmt.Errorf("wallet is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sender is required")
	}
	if submitter == nil {
		return nil, fmt.Errorf("submitter is required")
	}

	c := &Courier{
		cfg:       cfg,
		wallet:    w,
		sender:    sender,
		submitter: submitter,
		log:       log.With().Str("component", "courier").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run flushes the outboxes whenever the wallet changes, until ctx is done or
// a delivery fails for good.
func (c *Courier) Run(ctx context.Context) error {
	c.log.Info().Msg("Courier started")
	defer c.log.Info().Msg("Courier stopped")

	for {
		if err := c.Flush(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.wallet.Changed():
		}
	}
}

// Flush delivers outbox heads until every outbox is empty. Each queue is
// delivered in order; a head is confirmed before the next one is read.
func (c *Courier) Flush(ctx context.Context) error {
	for {
		ob := c.wallet.Outbox()
		if ob.Empty() {
			return nil
		}

		switch {
		case len(ob.DisplayOutbox) > 0:
			msg := ob.DisplayOutbox[0]
			if err := c.deliver(ctx, outboxDisplay, func(ctx context.Context) error {
				return c.show(ctx, msg)
			}); err != nil {
				return err
			}
			c.wallet.Dispatch(outbox.DisplayMessageSent{})

		case len(ob.MessageOutbox) > 0:
			msg := ob.MessageOutbox[0]
			if err := c.deliver(ctx, outboxMessage, func(ctx context.Context) error {
				return c.send(ctx, msg)
			}); err != nil {
				return err
			}
			c.wallet.Dispatch(outbox.MessageSent{})

		default:
			tx := ob.TransactionOutbox[0]
			if err := c.deliver(ctx, outboxTransaction, func(ctx context.Context) error {
				return c.submitter.Submit(ctx, tx)
			}); err != nil {
				return err
			}
			c.wallet.Dispatch(outbox.TransactionSent{ProcessID: tx.ProcessID})
		}
	}
}

func (c *Courier) show(ctx context.Context, msg communication.DisplayMessage) error {
	if c.display == nil {
		c.log.Debug().Str("display", string(msg)).Msg("No display attached")
		return errNoTransport
	}
	return c.display.Show(ctx, msg)
}

func (c *Courier) send(ctx context.Context, msg communication.Message) error {
	switch m := msg.(type) {
	case communication.RelayMessage:
		return c.sender.Send(ctx, m)
	case communication.WalletEvent:
		if c.notifier == nil {
			c.log.Info().
				Str("event", string(m.Type)).
				Str("channel_id", m.ChannelID.Hex()).
				Str("reason", m.Reason).
				Msg("Wallet event")
			return errNoTransport
		}
		return c.notifier.Notify(ctx, m)
	default:
		return Permanent(fmt.Errorf("unsupported message %T", msg))
	}
}

// deliver runs attempt until it succeeds, fails permanently or runs out of
// retries.
func (c *Courier) deliver(ctx context.Context, kind string, attempt func(context.Context) error) error {
	var err error
	attempts := 0
	for n := 0; n <= c.cfg.MaxRetries; n++ {
		if n > 0 {
			timer := time.NewTimer(c.cfg.delay(n))
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		attempts++
		err = attempt(ctx)
		switch {
		case err == nil:
			c.observe(kind, "ok", attempts)
			return nil
		case errors.Is(err, errNoTransport):
			c.observe(kind, "dropped", attempts)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, errPermanent) {
			break
		}
		c.log.Warn().Err(err).
			Str("outbox", kind).
			Int("attempt", n+1).
			Msg("Delivery failed, retrying")
	}

	c.observe(kind, "failed", attempts)
	c.log.Error().Err(err).Str("outbox", kind).Msg("Delivery failed")
	return fmt.Errorf("%w: %s outbox: %w", ErrDeliveryFailed, kind, err)
}

func (c *Courier) observe(kind, result string, attempts int) {
	if c.metrics == nil {
		return
	}
	c.metrics.Deliveries.WithLabelValues(kind, result).Inc()
	c.metrics.DeliveryAttempts.WithLabelValues(kind).Observe(float64(attempts))
}
