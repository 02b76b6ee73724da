package readyset

import (
	"github.com/pkg/errors"
	"sync"
)

// BlockDevice hands out request tokens for one block device and reports
// their completion through the registry.
type BlockDevice struct {
	ID       DeviceID
	registry *Registry

	mu       sync.Mutex
	inFlight bitSet
}

func NewBlockDevice(registry *Registry, id DeviceID) (*BlockDevice, error) {
	if id >= MaxBlockDevices {
		return nil, invalidBlockDevice(id)
	}
	return &BlockDevice{ID: id, registry: registry}, nil
}

// Acquire reserves the lowest free token.
func (b *BlockDevice) Acquire() (TokenID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	free := ^b.inFlight
	tok, ok := free.lowest(MaxBlockTokens)
	if !ok {
		return 0, errors.Wrapf(ErrTokensExhausted, "block device %d", b.ID)
	}
	b.inFlight.set(tok)
	return TokenID(tok), nil
}

// Complete marks an acquired token as ready for the consumer. The pool lock
// is held across the mark so a concurrent Release cannot free the token
// in between.
func (b *BlockDevice) Complete(tok TokenID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAcquiredLocked(tok); err != nil {
		return err
	}
	return b.registry.MarkBlockReady(b.ID, tok)
}

// Release clears the token's completion and returns it to the pool.
func (b *BlockDevice) Release(tok TokenID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAcquiredLocked(tok); err != nil {
		return err
	}
	if err := b.registry.ClearBlockCompleted(b.ID, tok); err != nil {
		return err
	}
	b.inFlight.clear(uint32(tok))
	return nil
}

func (b *BlockDevice) InFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inFlight.count()
}

func (b *BlockDevice) checkAcquiredLocked(tok TokenID) error {
	if tok >= MaxBlockTokens {
		return invalidToken(b.ID, tok)
	}
	if !b.inFlight.has(uint32(tok)) {
		return errors.Wrapf(ErrTokenNotAcquired, "token %d on block device %d", tok, b.ID)
	}
	return nil
}
