// Package tradeform is the sell/buy input state machine behind the swap
// card. Edits to one field schedule a debounced quote that fills the other.
package tradeform

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/michaelpento.lv/defidex/scheduler"
	"github.com/michaelpento.lv/defidex/types"
	"go.uber.org/zap"
)

// DefaultDelay is the quiet period before a quote is computed
const DefaultDelay = 300 * time.Millisecond

// ErrNoAmount is returned when a submission is attempted with an empty field
var ErrNoAmount = errors.New("no amount entered")

// Quoter computes counter-amounts. An empty result means no quote.
type Quoter interface {
	Output(ctx context.Context, sell types.Token, amount string) string
	RequiredInput(ctx context.Context, sell types.Token, amount string) string
}

// Submitter sends the form's transactions
type Submitter interface {
	Swap(ctx context.Context, sell types.Token, amount string) error
	Deposit(ctx context.Context, ethAmount string) error
	Withdraw(ctx context.Context, lptAmount string) error
}

// State is a snapshot of the form fields
type State struct {
	SellToken      types.Token
	SellAmount     string
	BuyAmount      string
	DepositAmount  string
	WithdrawAmount string
	Calculating    bool
}

// BuyToken returns the token received for SellToken
func (s State) BuyToken() types.Token {
	return s.SellToken.Other()
}

// Form holds the swap, deposit and withdraw fields
type Form struct {
	mu        sync.Mutex
	state     State
	gen       uint64
	closed    bool
	onChange  func(State)
	ctx       context.Context
	quoter    Quoter
	submitter Submitter
	debouncer *scheduler.Debouncer
	logger    *zap.Logger
}

// NewForm creates a new form selling ETH. Quotes run with ctx.
func NewForm(ctx context.Context, quoter Quoter, submitter Submitter, delay time.Duration, logger *zap.Logger) *Form {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Form{
		state:     State{SellToken: types.ETH},
		ctx:       ctx,
		quoter:    quoter,
		submitter: submitter,
		debouncer: scheduler.NewDebouncer(delay),
		logger:    logger,
	}
}

// OnChange registers fn to receive every published state
func (f *Form) OnChange(fn func(State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = fn
}

// Snapshot returns the current state
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// EditSell sets the sell field and schedules a recompute of the buy field
func (f *Form) EditSell(value string) {
	f.edit(value, func(s *State) *string { return &s.SellAmount }, func(s *State) *string { return &s.BuyAmount },
		f.quoter.Output)
}

// EditBuy sets the buy field and schedules a recompute of the sell field
func (f *Form) EditBuy(value string) {
	f.edit(value, func(s *State) *string { return &s.BuyAmount }, func(s *State) *string { return &s.SellAmount },
		f.quoter.RequiredInput)
}

func (f *Form) edit(value string, field, counter func(*State) *string,
	quote func(context.Context, types.Token, string) string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}

	f.gen++
	if strings.TrimSpace(value) == "" {
		f.clearSwapLocked()
		f.publishLocked()
		return
	}

	*field(&f.state) = value
	f.state.Calculating = true
	gen := f.gen
	sell := f.state.SellToken

	f.debouncer.Schedule(func() {
		result := quote(f.ctx, sell, value)
		f.apply(gen, func(s *State) {
			*counter(s) = result
			s.Calculating = false
		})
	})
	f.publishLocked()
}

// apply runs mutate only if no edit, toggle or close happened since gen
func (f *Form) apply(gen uint64, mutate func(*State)) {
	f.mu.Lock()
	if f.closed || f.gen != gen {
		f.mu.Unlock()
		f.logger.Debug("Discarding stale quote", zap.Uint64("generation", gen))
		return
	}
	mutate(&f.state)
	f.publishLocked()
}

// ToggleSellToken flips the sold token and clears both swap fields
func (f *Form) ToggleSellToken() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.gen++
	f.state.SellToken = f.state.SellToken.Other()
	f.clearSwapLocked()
	f.publishLocked()
}

// Reset returns the swap card to selling ETH with empty fields
func (f *Form) Reset() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.gen++
	f.state.SellToken = types.ETH
	f.clearSwapLocked()
	f.publishLocked()
}

// SetDeposit sets the deposit field
func (f *Form) SetDeposit(value string) {
	f.set(func(s *State) { s.DepositAmount = value })
}

// SetWithdraw sets the withdraw field
func (f *Form) SetWithdraw(value string) {
	f.set(func(s *State) { s.WithdrawAmount = value })
}

func (f *Form) set(mutate func(*State)) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	mutate(&f.state)
	f.publishLocked()
}

// Swap submits the current sell amount. Both swap fields are cleared
// afterwards whatever the outcome.
func (f *Form) Swap(ctx context.Context) error {
	s := f.Snapshot()
	defer f.set(func(*State) {
		f.gen++
		f.clearSwapLocked()
	})

	if strings.TrimSpace(s.SellAmount) == "" {
		return ErrNoAmount
	}
	return f.submitter.Swap(ctx, s.SellToken, s.SellAmount)
}

// Deposit submits the deposit field and clears it afterwards
func (f *Form) Deposit(ctx context.Context) error {
	s := f.Snapshot()
	defer f.set(func(s *State) { s.DepositAmount = "" })

	if strings.TrimSpace(s.DepositAmount) == "" {
		return ErrNoAmount
	}
	return f.submitter.Deposit(ctx, s.DepositAmount)
}

// Withdraw submits the withdraw field and clears it afterwards
func (f *Form) Withdraw(ctx context.Context) error {
	s := f.Snapshot()
	defer f.set(func(s *State) { s.WithdrawAmount = "" })

	if strings.TrimSpace(s.WithdrawAmount) == "" {
		return ErrNoAmount
	}
	return f.submitter.Withdraw(ctx, s.WithdrawAmount)
}

// Close cancels any pending recompute. Later edits and in-flight quote
// results are ignored.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.debouncer.Stop()
}

func (f *Form) clearSwapLocked() {
	f.debouncer.Cancel()
	f.state.SellAmount = ""
	f.state.BuyAmount = ""
	f.state.Calculating = false
}

// publishLocked releases the lock and hands the new state to the listener
func (f *Form) publishLocked() {
	state := f.state
	fn := f.onChange
	f.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}
