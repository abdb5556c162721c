package lobby

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const DefaultSyncInterval = 2 * time.Second

// Syncer keeps a local view of the open channels current. Sync blocks until
// ctx is done.
type Syncer interface {
	Sync(ctx context.Context) error
}

// PollingSyncer lists the directory on a fixed interval and hands every
// listing to onSync.
type PollingSyncer struct {
	dir      Directory
	interval time.Duration
	onSync   func([]OpenChannel)
	log      zerolog.Logger
}

func NewPollingSyncer(dir Directory, interval time.Duration, onSync func([]OpenChannel), log zerolog.Logger) *PollingSyncer {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &PollingSyncer{
		dir:      dir,
		interval: interval,
		onSync:   onSync,
		log:      log.With().Str("component", "lobby-syncer").Logger(),
	}
}

// Sync lists immediately and then once per interval. Listing failures are
// logged and retried on the next tick.
func (s *PollingSyncer) Sync(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.poll(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *PollingSyncer) poll(ctx context.Context) {
	open, err := s.dir.List(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Warn().Err(err).Msg("Failed to list open channels")
		}
		return
	}
	s.onSync(open)
}
