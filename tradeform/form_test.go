package tradeform

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/michaelpento.lv/defidex/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const testDelay = 15 * time.Millisecond

type call struct {
	method string
	sell   types.Token
	amount string
}

type fakeQuoter struct {
	mu      sync.Mutex
	calls   []call
	block   map[string]chan struct{}
	started chan string
}

func newFakeQuoter() *fakeQuoter {
	return &fakeQuoter{block: map[string]chan struct{}{}, started: make(chan string, 16)}
}

func (q *fakeQuoter) quote(method string, sell types.Token, amount string) string {
	q.mu.Lock()
	q.calls = append(q.calls, call{method: method, sell: sell, amount: amount})
	gate := q.block[amount]
	q.mu.Unlock()

	q.started <- amount
	if gate != nil {
		<-gate
	}
	return method + ":" + sell.String() + ":" + amount
}

func (q *fakeQuoter) Output(ctx context.Context, sell types.Token, amount string) string {
	return q.quote("out", sell, amount)
}

func (q *fakeQuoter) RequiredInput(ctx context.Context, sell types.Token, amount string) string {
	return q.quote("in", sell, amount)
}

func (q *fakeQuoter) Calls() []call {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]call(nil), q.calls...)
}

type fakeSubmitter struct {
	calls []call
	err   error
}

func (s *fakeSubmitter) Swap(ctx context.Context, sell types.Token, amount string) error {
	s.calls = append(s.calls, call{method: "swap", sell: sell, amount: amount})
	return s.err
}

func (s *fakeSubmitter) Deposit(ctx context.Context, ethAmount string) error {
	s.calls = append(s.calls, call{method: "deposit", amount: ethAmount})
	return s.err
}

func (s *fakeSubmitter) Withdraw(ctx context.Context, lptAmount string) error {
	s.calls = append(s.calls, call{method: "withdraw", amount: lptAmount})
	return s.err
}

func newTestForm(t *testing.T) (*Form, *fakeQuoter, *fakeSubmitter) {
	t.Helper()
	quoter := newFakeQuoter()
	submitter := &fakeSubmitter{}
	form := NewForm(context.Background(), quoter, submitter, testDelay, zaptest.NewLogger(t))
	t.Cleanup(form.Close)
	return form, quoter, submitter
}

func settled(form *Form) func() bool {
	return func() bool { return !form.Snapshot().Calculating }
}

func TestEditSellDebounces(t *testing.T) {
	form, quoter, _ := newTestForm(t)

	form.EditSell("1")
	form.EditSell("1.")
	form.EditSell("1.5")

	s := form.Snapshot()
	assert.Equal(t, "1.5", s.SellAmount)
	assert.True(t, s.Calculating)

	require.Eventually(t, settled(form), time.Second, time.Millisecond)
	assert.Equal(t, "out:ETH:1.5", form.Snapshot().BuyAmount)

	time.Sleep(3 * testDelay)
	assert.Equal(t, []call{{method: "out", sell: types.ETH, amount: "1.5"}}, quoter.Calls())
}

func TestEditBuyFillsSell(t *testing.T) {
	form, quoter, _ := newTestForm(t)

	form.ToggleSellToken()
	form.EditBuy("2")

	require.Eventually(t, settled(form), time.Second, time.Millisecond)
	s := form.Snapshot()
	assert.Equal(t, types.BAL, s.SellToken)
	assert.Equal(t, types.ETH, s.BuyToken())
	assert.Equal(t, "2", s.BuyAmount)
	assert.Equal(t, "in:BAL:2", s.SellAmount)
	assert.Equal(t, []call{{method: "in", sell: types.BAL, amount: "2"}}, quoter.Calls())
}

func TestEmptyEditClearsBoth(t *testing.T) {
	form, quoter, _ := newTestForm(t)

	form.EditSell("1")
	require.Eventually(t, settled(form), time.Second, time.Millisecond)

	form.EditSell("3")
	form.EditBuy("")

	s := form.Snapshot()
	assert.Equal(t, "", s.SellAmount)
	assert.Equal(t, "", s.BuyAmount)
	assert.False(t, s.Calculating)

	time.Sleep(3 * testDelay)
	assert.Len(t, quoter.Calls(), 1)
	assert.Equal(t, "", form.Snapshot().BuyAmount)
}

func TestToggleAndReset(t *testing.T) {
	form, quoter, _ := newTestForm(t)

	form.EditSell("1")
	form.ToggleSellToken()

	s := form.Snapshot()
	assert.Equal(t, types.BAL, s.SellToken)
	assert.Equal(t, "", s.SellAmount)
	assert.False(t, s.Calculating)

	form.EditSell("4")
	form.Reset()
	s = form.Snapshot()
	assert.Equal(t, types.ETH, s.SellToken)
	assert.Equal(t, "", s.SellAmount)
	assert.Equal(t, "", s.BuyAmount)

	time.Sleep(3 * testDelay)
	assert.Empty(t, quoter.Calls())
}

func TestStaleQuoteDiscarded(t *testing.T) {
	form, quoter, _ := newTestForm(t)
	release := make(chan struct{})
	quoter.block["1"] = release

	form.EditSell("1")
	select {
	case got := <-quoter.started:
		require.Equal(t, "1", got)
	case <-time.After(time.Second):
		t.Fatal("first quote never started")
	}

	form.EditSell("2")
	require.Eventually(t, settled(form), time.Second, time.Millisecond)
	assert.Equal(t, "out:ETH:2", form.Snapshot().BuyAmount)

	close(release)
	time.Sleep(3 * testDelay)
	assert.Equal(t, "out:ETH:2", form.Snapshot().BuyAmount)
}

func TestCloseDropsPendingWork(t *testing.T) {
	form, quoter, _ := newTestForm(t)

	var mu sync.Mutex
	published := 0
	form.OnChange(func(State) {
		mu.Lock()
		published++
		mu.Unlock()
	})

	form.EditSell("1")
	form.Close()
	form.EditSell("2")
	form.ToggleSellToken()

	time.Sleep(3 * testDelay)
	assert.Empty(t, quoter.Calls())

	s := form.Snapshot()
	assert.Equal(t, "1", s.SellAmount)
	assert.Equal(t, types.ETH, s.SellToken)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, published)
}

func TestCloseDiscardsQuoteInFlight(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	quoter := newFakeQuoter()
	form := NewForm(context.Background(), quoter, &fakeSubmitter{}, testDelay, zap.New(core))

	release := make(chan struct{})
	quoter.block["1"] = release

	form.EditSell("1")
	select {
	case got := <-quoter.started:
		require.Equal(t, "1", got)
	case <-time.After(time.Second):
		t.Fatal("quote never started")
	}

	var mu sync.Mutex
	published := 0
	form.OnChange(func(State) {
		mu.Lock()
		published++
		mu.Unlock()
	})

	form.Close()
	close(release)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("Discarding stale quote").Len() == 1
	}, time.Second, time.Millisecond)

	s := form.Snapshot()
	assert.Equal(t, "", s.BuyAmount)
	assert.True(t, s.Calculating)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, published)
}

func TestOnChangePublishes(t *testing.T) {
	form, _, _ := newTestForm(t)

	states := make(chan State, 8)
	form.OnChange(func(s State) { states <- s })

	form.EditSell("1")
	first := <-states
	assert.True(t, first.Calculating)
	assert.Equal(t, "1", first.SellAmount)

	select {
	case second := <-states:
		assert.False(t, second.Calculating)
		assert.Equal(t, "out:ETH:1", second.BuyAmount)
	case <-time.After(time.Second):
		t.Fatal("quote result never published")
	}
}

func TestSwapClearsFields(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		form, _, submitter := newTestForm(t)
		form.ToggleSellToken()
		form.EditSell("3")
		require.Eventually(t, settled(form), time.Second, time.Millisecond)

		require.NoError(t, form.Swap(ctx))
		assert.Equal(t, []call{{method: "swap", sell: types.BAL, amount: "3"}}, submitter.calls)

		s := form.Snapshot()
		assert.Equal(t, "", s.SellAmount)
		assert.Equal(t, "", s.BuyAmount)
		assert.Equal(t, types.BAL, s.SellToken)
	})

	t.Run("failure", func(t *testing.T) {
		form, _, submitter := newTestForm(t)
		submitter.err = errors.New("user rejected")
		form.EditSell("1")

		err := form.Swap(ctx)
		require.Error(t, err)
		assert.Equal(t, "", form.Snapshot().SellAmount)
		assert.False(t, form.Snapshot().Calculating)
	})

	t.Run("empty", func(t *testing.T) {
		form, _, submitter := newTestForm(t)
		assert.ErrorIs(t, form.Swap(ctx), ErrNoAmount)
		assert.Empty(t, submitter.calls)
	})
}

func TestDepositAndWithdraw(t *testing.T) {
	ctx := context.Background()
	form, _, submitter := newTestForm(t)

	form.SetDeposit("0.5")
	form.SetWithdraw("0.25")
	require.NoError(t, form.Deposit(ctx))
	assert.Equal(t, "", form.Snapshot().DepositAmount)
	assert.Equal(t, "0.25", form.Snapshot().WithdrawAmount)

	submitter.err = errors.New("execution reverted")
	require.Error(t, form.Withdraw(ctx))
	assert.Equal(t, "", form.Snapshot().WithdrawAmount)

	assert.Equal(t, []call{
		{method: "deposit", amount: "0.5"},
		{method: "withdraw", amount: "0.25"},
	}, submitter.calls)

	assert.ErrorIs(t, form.Deposit(ctx), ErrNoAmount)
}
