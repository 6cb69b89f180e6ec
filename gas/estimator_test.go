package gas

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/michaelpento.lv/defidex/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// The transactor reports fee ceilings through the estimator
var _ chain.CostEstimator = (*Estimator)(nil)

type mockFeeSource struct {
	baseFee    *big.Int
	tip        *big.Int
	headerErr  error
	headerHits int
}

func (m *mockFeeSource) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	m.headerHits++
	if m.headerErr != nil {
		return nil, m.headerErr
	}
	return &types.Header{Number: big.NewInt(1), BaseFee: m.baseFee}, nil
}

func (m *mockFeeSource) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return m.tip, nil
}

func TestFeeCaps(t *testing.T) {
	src := &mockFeeSource{baseFee: big.NewInt(10), tip: big.NewInt(2)}
	e := NewEstimator(src, zaptest.NewLogger(t), nil, time.Minute)

	feeCap, tipCap, err := e.FeeCaps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(22), feeCap.Int64())
	assert.Equal(t, int64(2), tipCap.Int64())

	cost, err := e.EstimateGasCost(context.Background(), 21000)
	require.NoError(t, err)
	assert.Equal(t, int64(22*21000), cost.Int64())
}

func TestFeeCapsCached(t *testing.T) {
	src := &mockFeeSource{baseFee: big.NewInt(10), tip: big.NewInt(2)}
	e := NewEstimator(src, zaptest.NewLogger(t), nil, time.Minute)

	now := time.Unix(1700000000, 0)
	e.now = func() time.Time { return now }

	_, _, err := e.FeeCaps(context.Background())
	require.NoError(t, err)
	_, _, err = e.FeeCaps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.headerHits)

	now = now.Add(2 * time.Minute)
	src.baseFee = big.NewInt(20)
	feeCap, _, err := e.FeeCaps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.headerHits)
	assert.Equal(t, int64(42), feeCap.Int64())
}

func TestFeeCapsBounded(t *testing.T) {
	src := &mockFeeSource{baseFee: big.NewInt(100), tip: big.NewInt(50)}
	e := NewEstimator(src, zaptest.NewLogger(t), big.NewInt(40), time.Minute)

	feeCap, tipCap, err := e.FeeCaps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(40), feeCap.Int64())
	assert.Equal(t, int64(40), tipCap.Int64())
}

func TestFeeCapsLegacyChain(t *testing.T) {
	src := &mockFeeSource{}
	e := NewEstimator(src, zaptest.NewLogger(t), nil, time.Minute)

	feeCap, tipCap, err := e.FeeCaps(context.Background())
	require.NoError(t, err)
	assert.Nil(t, feeCap)
	assert.Nil(t, tipCap)

	_, err = e.EstimateGasCost(context.Background(), 21000)
	assert.Error(t, err)
}

func TestFeeCapsError(t *testing.T) {
	src := &mockFeeSource{headerErr: errors.New("dial tcp: connection refused")}
	e := NewEstimator(src, zaptest.NewLogger(t), nil, time.Minute)

	_, _, err := e.FeeCaps(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get latest header")
}
