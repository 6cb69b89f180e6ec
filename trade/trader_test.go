package trade

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/michaelpento.lv/defidex/dex"
	"github.com/michaelpento.lv/defidex/dex/contracts"
	dextypes "github.com/michaelpento.lv/defidex/types"
	"github.com/michaelpento.lv/defidex/utils/metrics"
	"github.com/michaelpento.lv/defidex/utils/testutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type step struct {
	method string
	amount string
}

type recordingExchange struct {
	steps  []step
	failOn string
}

func (r *recordingExchange) record(method string, amount *big.Int) error {
	r.steps = append(r.steps, step{method: method, amount: amount.String()})
	if r.failOn == method {
		return errors.New("execution reverted")
	}
	return nil
}

func (r *recordingExchange) ApproveToken(ctx context.Context, amount *big.Int) error {
	return r.record("approve", amount)
}

func (r *recordingExchange) EthToToken(ctx context.Context, value *big.Int) error {
	return r.record("ethToToken", value)
}

func (r *recordingExchange) TokenToEth(ctx context.Context, tokenInput *big.Int) error {
	return r.record("tokenToEth", tokenInput)
}

func (r *recordingExchange) Deposit(ctx context.Context, value *big.Int) error {
	return r.record("deposit", value)
}

func (r *recordingExchange) Withdraw(ctx context.Context, lptAmount *big.Int) error {
	return r.record("withdraw", lptAmount)
}

type recordingNotifier struct {
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(title string) { n.successes = append(n.successes, title) }

func (n *recordingNotifier) Failure(title string, err error) { n.failures = append(n.failures, title) }

type fixedReserves struct {
	reserves dextypes.Reserves
	err      error
}

func (f fixedReserves) Reserves(ctx context.Context) (dextypes.Reserves, error) {
	return f.reserves, f.err
}

func newTestTrader(t *testing.T, reserves dex.ReserveReader, ex Exchange) (*Trader, *recordingNotifier, *metrics.DexMetrics) {
	notifier := &recordingNotifier{}
	m := metrics.NewDexMetrics("trade_test", prometheus.NewRegistry())
	return NewTrader(reserves, ex, notifier, zaptest.NewLogger(t), m), notifier, m
}

func TestSwapSellingBalloonApprovesFirst(t *testing.T) {
	ex := &recordingExchange{}
	trader, notifier, m := newTestTrader(t, fixedReserves{}, ex)

	require.NoError(t, trader.Swap(context.Background(), dextypes.BAL, "1.5"))
	assert.Equal(t, []step{
		{method: "approve", amount: "1500000000000000000"},
		{method: "tokenToEth", amount: "1500000000000000000"},
	}, ex.steps)
	assert.Equal(t, []string{"Swap successful"}, notifier.successes)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Submissions.WithLabelValues(FlowSwap, "success")))
}

func TestSwapSellingEth(t *testing.T) {
	ex := &recordingExchange{}
	trader, notifier, _ := newTestTrader(t, fixedReserves{}, ex)

	require.NoError(t, trader.Swap(context.Background(), dextypes.ETH, "2"))
	assert.Equal(t, []step{{method: "ethToToken", amount: "2000000000000000000"}}, ex.steps)
	assert.Len(t, notifier.successes, 1)
}

func TestSwapFailedApprovalStops(t *testing.T) {
	ex := &recordingExchange{failOn: "approve"}
	trader, notifier, m := newTestTrader(t, fixedReserves{}, ex)

	err := trader.Swap(context.Background(), dextypes.BAL, "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to approve")
	assert.Len(t, ex.steps, 1)
	assert.Equal(t, []string{"Swap failed"}, notifier.failures)
	assert.Empty(t, notifier.successes)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Submissions.WithLabelValues(FlowSwap, "failure")))
}

func TestSwapInvalidAmount(t *testing.T) {
	ex := &recordingExchange{}
	trader, notifier, _ := newTestTrader(t, fixedReserves{}, ex)

	require.Error(t, trader.Swap(context.Background(), dextypes.ETH, "lots"))
	assert.Empty(t, ex.steps)
	assert.Equal(t, []string{"Swap failed"}, notifier.failures)
}

func TestDeposit(t *testing.T) {
	reserves := fixedReserves{reserves: dextypes.Reserves{Eth: testutils.Ether(5), Token: testutils.Ether(10)}}

	t.Run("approves the ratio amount first", func(t *testing.T) {
		ex := &recordingExchange{}
		trader, notifier, _ := newTestTrader(t, reserves, ex)

		require.NoError(t, trader.Deposit(context.Background(), "1"))
		assert.Equal(t, []step{
			{method: "approve", amount: "2000000000000000001"},
			{method: "deposit", amount: "1000000000000000000"},
		}, ex.steps)
		assert.Equal(t, []string{"Deposit successful"}, notifier.successes)
	})

	t.Run("empty pool", func(t *testing.T) {
		ex := &recordingExchange{}
		trader, notifier, _ := newTestTrader(t, fixedReserves{reserves: dextypes.Reserves{Eth: big.NewInt(0), Token: big.NewInt(0)}}, ex)

		err := trader.Deposit(context.Background(), "1")
		assert.ErrorIs(t, err, dex.ErrEmptyReserves)
		assert.Empty(t, ex.steps)
		assert.Equal(t, []string{"Deposit failed"}, notifier.failures)
	})

	t.Run("deposit reverts", func(t *testing.T) {
		ex := &recordingExchange{failOn: "deposit"}
		trader, notifier, _ := newTestTrader(t, reserves, ex)

		require.Error(t, trader.Deposit(context.Background(), "1"))
		assert.Len(t, ex.steps, 2)
		assert.Equal(t, []string{"Deposit failed"}, notifier.failures)
	})
}

func TestWithdraw(t *testing.T) {
	ex := &recordingExchange{}
	trader, notifier, _ := newTestTrader(t, fixedReserves{}, ex)

	require.NoError(t, trader.Withdraw(context.Background(), "0.5"))
	assert.Equal(t, []step{{method: "withdraw", amount: "500000000000000000"}}, ex.steps)
	assert.Equal(t, []string{"Withdraw successful"}, notifier.successes)
}

// fakeSigner signs without a node and records every transaction it waits on
type fakeSigner struct {
	t      *testing.T
	waited []*types.Transaction
	revert int
	nonce  uint64
}

func (s *fakeSigner) Opts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	opts := testutils.NoSendOpts(s.t, s.nonce, value)
	opts.Context = ctx
	s.nonce++
	return opts, nil
}

func (s *fakeSigner) Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	s.waited = append(s.waited, tx)
	if len(s.waited) == s.revert {
		return nil, ErrReverted
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

type nopBackend struct {
	bind.ContractBackend
}

func methodName(t *testing.T, parsed abi.ABI, tx *types.Transaction) string {
	method, err := parsed.MethodById(tx.Data()[:4])
	require.NoError(t, err)
	return method.Name
}

func TestChainExecutorThroughTrader(t *testing.T) {
	dexAddr := common.HexToAddress("0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0")
	balloonAddr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	dexBinding, err := contracts.NewDEX(dexAddr, nopBackend{})
	require.NoError(t, err)
	balloon, err := contracts.NewBalloon(balloonAddr, nopBackend{})
	require.NoError(t, err)
	balloonABI, err := abi.JSON(strings.NewReader(contracts.BalloonABI))
	require.NoError(t, err)

	signer := &fakeSigner{t: t}
	executor := NewChainExecutor(dexBinding, balloon, signer, zaptest.NewLogger(t))
	reserves := fixedReserves{reserves: dextypes.Reserves{Eth: testutils.Ether(5), Token: testutils.Ether(5)}}
	trader, _, _ := newTestTrader(t, reserves, executor)
	ctx := context.Background()

	require.NoError(t, trader.Swap(ctx, dextypes.BAL, "1"))
	require.Len(t, signer.waited, 2)

	approve := signer.waited[0]
	assert.Equal(t, balloonAddr, *approve.To())
	assert.Equal(t, "approve", methodName(t, balloonABI, approve))
	args, err := balloonABI.Methods["approve"].Inputs.Unpack(approve.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, dexAddr, args[0])
	assert.Equal(t, testutils.Ether(1).String(), args[1].(*big.Int).String())

	swap := signer.waited[1]
	assert.Equal(t, dexAddr, *swap.To())
	assert.Equal(t, "tokenToEth", methodName(t, dexBinding.ABI(), swap))

	require.NoError(t, trader.Swap(ctx, dextypes.ETH, "0.25"))
	ethSwap := signer.waited[2]
	assert.Equal(t, "ethToToken", methodName(t, dexBinding.ABI(), ethSwap))
	assert.Equal(t, "250000000000000000", ethSwap.Value().String())

	require.NoError(t, trader.Deposit(ctx, "1"))
	assert.Equal(t, "approve", methodName(t, balloonABI, signer.waited[3]))
	deposit := signer.waited[4]
	assert.Equal(t, "deposit", methodName(t, dexBinding.ABI(), deposit))
	assert.Equal(t, testutils.Ether(1).String(), deposit.Value().String())

	require.NoError(t, trader.Withdraw(ctx, "1"))
	assert.Equal(t, "withdraw", methodName(t, dexBinding.ABI(), signer.waited[5]))
}

func TestChainExecutorStopsOnRevert(t *testing.T) {
	dexBinding, err := contracts.NewDEX(common.HexToAddress("0xd0"), nopBackend{})
	require.NoError(t, err)
	balloon, err := contracts.NewBalloon(common.HexToAddress("0xb0"), nopBackend{})
	require.NoError(t, err)

	signer := &fakeSigner{t: t, revert: 1}
	executor := NewChainExecutor(dexBinding, balloon, signer, zaptest.NewLogger(t))
	trader, notifier, _ := newTestTrader(t, fixedReserves{}, executor)

	err = trader.Swap(context.Background(), dextypes.BAL, "1")
	assert.ErrorIs(t, err, ErrReverted)
	assert.Len(t, signer.waited, 1)
	assert.Equal(t, []string{"Swap failed"}, notifier.failures)
}
