package events

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/ethereum/go-ethereum/core/types"
	lru "github.com/hashicorp/golang-lru"
)

// Index remembers recently delivered logs so overlapping polls and reorged
// re-deliveries are only handled once
type Index struct {
	cache *lru.Cache
}

// NewIndex creates a new index holding up to maxSize log keys
func NewIndex(maxSize int) (*Index, error) {
	cache, err := lru.New(maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Index{cache: cache}, nil
}

// LogKey identifies a log by its transaction hash and position in the block
func LogKey(log types.Log) uint64 {
	var buf [40]byte
	copy(buf[:32], log.TxHash[:])
	binary.BigEndian.PutUint64(buf[32:], uint64(log.Index))
	return xxhash.Sum64(buf[:])
}

// Seen reports whether log was already recorded, recording it if not
func (i *Index) Seen(log types.Log) bool {
	seen, _ := i.cache.ContainsOrAdd(LogKey(log), log.BlockNumber)
	return seen
}

// Len returns the number of remembered logs
func (i *Index) Len() int {
	return i.cache.Len()
}
