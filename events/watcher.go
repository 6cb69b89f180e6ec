// Package events follows the DEX's swap and liquidity logs by polling the
// node in bounded block ranges.
package events

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/michaelpento.lv/defidex/config"
	"github.com/michaelpento.lv/defidex/dex/contracts"
	"github.com/michaelpento.lv/defidex/utils/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LogSource is the subset of the eth client the watcher polls
type LogSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Decoder turns DEX logs into typed events. *contracts.DEX implements it.
type Decoder interface {
	Address() common.Address
	EventTopics() []common.Hash
	DecodeEvent(log types.Log) (contracts.Event, error)
}

// Handler receives each new event once
type Handler func(contracts.Event)

// Watcher polls for DEX events
type Watcher struct {
	source  LogSource
	decoder Decoder
	index   *Index
	limiter *rate.Limiter
	cfg     config.WatchConfig
	logger  *zap.Logger
	metrics *metrics.DexMetrics

	next    uint64
	started bool
}

// NewWatcher creates a new watcher. m may be nil.
func NewWatcher(source LogSource, decoder Decoder, cfg config.WatchConfig, logger *zap.Logger, m *metrics.DexMetrics) (*Watcher, error) {
	index, err := NewIndex(cfg.DedupeSize)
	if err != nil {
		return nil, err
	}
	if cfg.MaxBlockRange == 0 {
		return nil, fmt.Errorf("max block range must be positive")
	}

	return &Watcher{
		source:  source,
		decoder: decoder,
		index:   index,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}, nil
}

// Poll fetches every log from the last polled block up to the head and
// hands new events to handler. It returns how many events were delivered.
func (w *Watcher) Poll(ctx context.Context, handler Handler) (int, error) {
	head, err := w.source.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get block number: %w", err)
	}

	if !w.started {
		w.next = head
		if w.cfg.StartBlock != 0 {
			w.next = w.cfg.StartBlock
		}
		w.started = true
		w.logger.Info("Watching DEX events",
			zap.String("dex", w.decoder.Address().Hex()),
			zap.Uint64("fromBlock", w.next))
	}

	delivered := 0
	for w.next <= head {
		from := w.next
		to := from + w.cfg.MaxBlockRange - 1
		if to > head {
			to = head
		}

		n, err := w.pollRange(ctx, from, to, handler)
		delivered += n
		if err != nil {
			return delivered, err
		}
		w.next = to + 1
	}

	if w.metrics != nil {
		// next can sit past the head when the start block is ahead of the node
		var lag uint64
		if w.next <= head {
			lag = head + 1 - w.next
		}
		w.metrics.PollLag.Set(float64(lag))
	}
	return delivered, nil
}

func (w *Watcher) pollRange(ctx context.Context, from, to uint64, handler Handler) (int, error) {
	if err := w.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	logs, err := w.source.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{w.decoder.Address()},
		Topics:    [][]common.Hash{w.decoder.EventTopics()},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to filter logs %d-%d: %w", from, to, err)
	}

	delivered := 0
	for _, log := range logs {
		if log.Removed || w.index.Seen(log) {
			continue
		}

		event, err := w.decoder.DecodeEvent(log)
		if err != nil {
			w.logger.Warn("Skipping undecodable log",
				zap.String("tx", log.TxHash.Hex()),
				zap.Uint("index", log.Index),
				zap.Error(err))
			continue
		}

		if w.metrics != nil {
			w.metrics.Events.WithLabelValues(event.EventName()).Inc()
		}
		handler(event)
		delivered++
	}

	w.logger.Debug("Polled block range",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Int("logs", len(logs)),
		zap.Int("delivered", delivered))
	return delivered, nil
}

// Run polls every PollInterval until ctx is cancelled. Poll errors are
// logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.Poll(ctx, handler); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			w.logger.Error("Failed to poll events", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
