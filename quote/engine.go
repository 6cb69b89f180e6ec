// Package quote estimates the counter-amount of a swap from live pool
// reserves. Quotes are advisory: every failure degrades to an empty result.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/michaelpento.lv/defidex/dex"
	"github.com/michaelpento.lv/defidex/dex/amm"
	"github.com/michaelpento.lv/defidex/types"
	"github.com/michaelpento.lv/defidex/utils"
	"github.com/michaelpento.lv/defidex/utils/metrics"
	"go.uber.org/zap"
)

// Quote sources
const (
	SourceLocal    = "local"
	SourceContract = "contract"
)

// Pricer computes the output of selling xInput into a pool. The DEX
// contract binding satisfies it through its pure price view.
type Pricer interface {
	Price(ctx context.Context, xInput, xReserves, yReserves *big.Int) (*big.Int, error)
}

var errBadAmount = errors.New("failed to parse amount")

// expected reports whether err comes from the typed amount or the pool
// state rather than from the node or contract
func expected(err error) bool {
	for _, target := range []error{errBadAmount, dex.ErrEmptyReserves, amm.ErrZeroReserves, amm.ErrInsufficientReserves, amm.ErrInvalidAmount} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type localPricer struct{}

func (localPricer) Price(_ context.Context, xInput, xReserves, yReserves *big.Int) (*big.Int, error) {
	return amm.Price(xInput, xReserves, yReserves)
}

// Engine turns typed amounts into counter-amounts
type Engine struct {
	reserves dex.ReserveReader
	pricer   Pricer
	source   string
	logger   *zap.Logger
	metrics  *metrics.DexMetrics
}

// NewEngine creates a new quote engine. A nil pricer selects the local
// closed-form formula. m may be nil.
func NewEngine(reserves dex.ReserveReader, pricer Pricer, logger *zap.Logger, m *metrics.DexMetrics) *Engine {
	source := SourceContract
	if pricer == nil {
		pricer = localPricer{}
		source = SourceLocal
	}
	return &Engine{
		reserves: reserves,
		pricer:   pricer,
		source:   source,
		logger:   logger,
		metrics:  m,
	}
}

// Source returns the label of the forward pricing source
func (e *Engine) Source() string {
	return e.source
}

// Output returns how much of the other token selling amount of sell yields,
// as a decimal ether string. It returns "" for an empty amount and whenever
// the quote cannot be computed.
func (e *Engine) Output(ctx context.Context, sell types.Token, amount string) string {
	return e.run(ctx, e.source, "output", sell, amount, func(in *big.Int, reserves types.Reserves) (*big.Int, error) {
		x, y := reserves.For(sell)
		return e.pricer.Price(ctx, in, x, y)
	})
}

// RequiredInput returns how much of sell must be sold to receive amount of
// the other token. There is no contract view for this direction so it is
// always computed locally.
func (e *Engine) RequiredInput(ctx context.Context, sell types.Token, amount string) string {
	return e.run(ctx, SourceLocal, "input", sell, amount, func(out *big.Int, reserves types.Reserves) (*big.Int, error) {
		x, y := reserves.For(sell)
		return amm.InputFor(out, x, y)
	})
}

func (e *Engine) run(ctx context.Context, source, direction string, sell types.Token, amount string,
	compute func(*big.Int, types.Reserves) (*big.Int, error)) string {
	if strings.TrimSpace(amount) == "" {
		return ""
	}

	start := time.Now()
	result, err := e.quote(amount, func(wei *big.Int) (*big.Int, error) {
		reserves, err := e.reserves.Reserves(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read reserves: %w", err)
		}
		if reserves.Empty() {
			return nil, dex.ErrEmptyReserves
		}
		return compute(wei, reserves)
	})
	e.record(source, start, err)

	if err != nil {
		fields := []zap.Field{
			zap.String("source", source),
			zap.String("direction", direction),
			zap.Stringer("sell", sell),
			zap.String("amount", amount),
			zap.Error(err),
		}
		if expected(err) {
			e.logger.Debug("Quote unavailable", fields...)
		} else {
			e.logger.Warn("Quote failed", fields...)
		}
		return ""
	}
	return result
}

func (e *Engine) quote(amount string, compute func(*big.Int) (*big.Int, error)) (string, error) {
	wei, err := utils.ParseEther(amount)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errBadAmount, err)
	}

	out, err := compute(wei)
	if err != nil {
		return "", err
	}
	return utils.FormatEther(out), nil
}

func (e *Engine) record(source string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}
	e.metrics.Quotes.WithLabelValues(source, metrics.Result(err)).Inc()
	e.metrics.QuoteLatency.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
