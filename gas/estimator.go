package gas

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// FeeSource is the subset of the eth client used for fee suggestions
type FeeSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// Estimator provides EIP-1559 fee caps for outgoing transactions
type Estimator struct {
	client      FeeSource
	logger      *zap.Logger
	maxGasPrice *big.Int
	ttl         time.Duration

	mu        sync.Mutex
	baseFee   *big.Int
	tipCap    *big.Int
	updatedAt time.Time
	now       func() time.Time
}

// NewEstimator creates a new gas estimator. A nil or zero maxGasPrice
// leaves the fee cap unbounded.
func NewEstimator(client FeeSource, logger *zap.Logger, maxGasPrice *big.Int, ttl time.Duration) *Estimator {
	return &Estimator{
		client:      client,
		logger:      logger,
		maxGasPrice: maxGasPrice,
		ttl:         ttl,
		now:         time.Now,
	}
}

// update fetches latest base fee and tip suggestion
func (e *Estimator) update(ctx context.Context) error {
	header, err := e.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to get latest header: %w", err)
	}

	var tipCap *big.Int
	if header.BaseFee != nil {
		tipCap, err = e.client.SuggestGasTipCap(ctx)
		if err != nil {
			return fmt.Errorf("failed to get priority fee: %w", err)
		}
	}

	e.baseFee = header.BaseFee
	e.tipCap = tipCap
	e.updatedAt = e.now()

	e.logger.Debug("Updated gas prices",
		zap.Stringer("baseFee", e.baseFee),
		zap.Stringer("tipCap", e.tipCap))
	return nil
}

// FeeCaps returns the fee cap and tip cap to sign with. Both are nil on
// chains without a base fee, leaving bind to fall back to a legacy gas price.
func (e *Estimator) FeeCaps(ctx context.Context) (feeCap, tipCap *big.Int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.updatedAt.IsZero() || e.now().Sub(e.updatedAt) >= e.ttl {
		if err := e.update(ctx); err != nil {
			return nil, nil, err
		}
	}
	if e.baseFee == nil {
		return nil, nil, nil
	}

	tipCap = new(big.Int).Set(e.tipCap)
	feeCap = new(big.Int).Mul(e.baseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)

	if e.maxGasPrice != nil && e.maxGasPrice.Sign() > 0 && feeCap.Cmp(e.maxGasPrice) > 0 {
		feeCap.Set(e.maxGasPrice)
		if tipCap.Cmp(feeCap) > 0 {
			tipCap.Set(feeCap)
		}
	}
	return feeCap, tipCap, nil
}

// EstimateGasCost returns the worst-case cost of gasLimit at the current
// fee cap
func (e *Estimator) EstimateGasCost(ctx context.Context, gasLimit uint64) (*big.Int, error) {
	feeCap, _, err := e.FeeCaps(ctx)
	if err != nil {
		return nil, err
	}
	if feeCap == nil {
		return nil, fmt.Errorf("chain has no base fee")
	}
	return new(big.Int).Mul(feeCap, new(big.Int).SetUint64(gasLimit)), nil
}
