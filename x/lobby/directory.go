package lobby

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrInvalidOpenChannel = errors.New("lobby: invalid open channel")

// OpenChannel is a player waiting for an opponent.
type OpenChannel struct {
	Address   common.Address `json:"address"`
	Name      string         `json:"name"`
	Stake     *hexutil.Big   `json:"stake"`
	CreatedAt time.Time      `json:"createdAt"`
	IsPublic  bool           `json:"isPublic"`
}

func (o OpenChannel) Validate() error {
	if o.Address == (common.Address{}) {
		return errors.Join(ErrInvalidOpenChannel, errors.New("address is required"))
	}
	if o.Stake == nil || o.Stake.ToInt().Sign() < 0 {
		return errors.Join(ErrInvalidOpenChannel, errors.New("stake must be non-negative"))
	}
	return nil
}

// Directory stores the open channels, keyed by address.
type Directory interface {
	List(ctx context.Context) ([]OpenChannel, error)
	Publish(ctx context.Context, oc OpenChannel) error
	Remove(ctx context.Context, address common.Address) error
}

// MemoryDirectory is an in-memory Directory.
type MemoryDirectory struct {
	mu   sync.RWMutex
	open map[common.Address]OpenChannel
	now  func() time.Time
}

var _ Directory = (*MemoryDirectory)(nil)

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		open: make(map[common.Address]OpenChannel),
		now:  time.Now,
	}
}

// List returns the open channels, oldest first.
func (d *MemoryDirectory) List(context.Context) ([]OpenChannel, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]OpenChannel, 0, len(d.open))
	for _, oc := range d.open {
		out = append(out, oc)
	}
	slices.SortFunc(out, func(a, b OpenChannel) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return a.Address.Cmp(b.Address)
	})
	return out, nil
}

// Publish adds or replaces the open channel of oc.Address. A zero CreatedAt is
// set to the current time.
func (d *MemoryDirectory) Publish(_ context.Context, oc OpenChannel) error {
	if err := oc.Validate(); err != nil {
		return err
	}
	if oc.CreatedAt.IsZero() {
		oc.CreatedAt = d.now().UTC()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.open[oc.Address] = oc
	return nil
}

// Remove deletes the open channel of address. Removing an absent entry is a
// no-op.
func (d *MemoryDirectory) Remove(_ context.Context, address common.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.open, address)
	return nil
}
