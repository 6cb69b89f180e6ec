package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/michaelpento.lv/defidex/api"
	"github.com/michaelpento.lv/defidex/tradeform"
	"github.com/spf13/cobra"
)

const replHelp = `Commands:
  sell <amount>      set the sell amount and quote the output
  buy <amount>       set the wanted output and quote the input
  toggle             switch the sold token
  reset              sell ETH and clear the swap fields
  swap               submit the swap
  deposit <eth>      add liquidity
  withdraw <lpt>     remove liquidity
  info               show pool and account
  state              show the form
  quit`

func newTradeCmd(a *app) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "trade",
		Short: "Interactive swap form with debounced quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			b, err := a.bind(ctx)
			if err != nil {
				return err
			}
			engine, err := a.quoteEngine(b, source)
			if err != nil {
				return err
			}
			out := newLockedWriter(cmd.OutOrStdout())
			trader, tx, err := a.trader(ctx, b, out)
			if err != nil {
				return err
			}

			form := tradeform.NewForm(ctx, engine, trader, a.cfg.Quote.Debounce, a.logger)
			defer form.Close()

			r := newREPL(form, b.pool, tx.From(), cmd.InOrStdin(), out)
			return r.run(ctx)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "quote source: local or contract (default from config)")
	return cmd
}

type repl struct {
	form *tradeform.Form
	pool api.PoolReader
	who  common.Address
	in   io.Reader
	out  *lockedWriter
}

// lockedWriter serializes the REPL's own output with the trader's
// notifications and the form's change listener
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newLockedWriter(w io.Writer) *lockedWriter {
	return &lockedWriter{w: w}
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// with holds the lock across several writes to w
func (l *lockedWriter) with(fn func(w io.Writer) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.w)
}

func newREPL(form *tradeform.Form, pool api.PoolReader, who common.Address, in io.Reader, out *lockedWriter) *repl {
	return &repl{
		form: form,
		pool: pool,
		who:  who,
		in:   in,
		out:  out,
	}
}

func (r *repl) run(ctx context.Context) error {
	r.form.OnChange(r.render)
	r.printf("%s\n", replHelp)

	scanner := bufio.NewScanner(r.in)
	r.printf("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		quit, err := r.exec(ctx, strings.Fields(scanner.Text()))
		if err != nil {
			r.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
		r.printf("> ")
	}
	return scanner.Err()
}

// exec runs one command line. Flow failures are already reported by the
// trader's notifier, so only form-level errors are returned.
func (r *repl) exec(ctx context.Context, fields []string) (quit bool, err error) {
	if len(fields) == 0 {
		return false, nil
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch strings.ToLower(fields[0]) {
	case "sell":
		r.form.EditSell(arg)
	case "buy":
		r.form.EditBuy(arg)
	case "toggle":
		r.form.ToggleSellToken()
	case "reset":
		r.form.Reset()
	case "swap":
		return false, formError(r.form.Swap(ctx))
	case "deposit":
		r.form.SetDeposit(arg)
		return false, formError(r.form.Deposit(ctx))
	case "withdraw":
		r.form.SetWithdraw(arg)
		return false, formError(r.form.Withdraw(ctx))
	case "info":
		return false, r.out.with(func(w io.Writer) error {
			return printInfo(ctx, w, r.pool, &r.who)
		})
	case "state":
		r.render(r.form.Snapshot())
	case "help":
		r.printf("%s\n", replHelp)
	case "quit", "exit":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %q, try help", fields[0])
	}
	return false, nil
}

func (r *repl) render(s tradeform.State) {
	if s.Calculating {
		r.printf("  calculating...\n")
		return
	}
	r.printf("  sell %s %s | buy %s %s\n", orDash(s.SellAmount), s.SellToken, orDash(s.BuyAmount), s.BuyToken())
}

func (r *repl) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func formError(err error) error {
	if errors.Is(err, tradeform.ErrNoAmount) {
		return err
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
