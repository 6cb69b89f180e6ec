package trade

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// ConsoleNotifier prints outcomes for an interactive user and logs them
type ConsoleNotifier struct {
	out    io.Writer
	logger *zap.Logger
}

// NewConsoleNotifier creates a new notifier writing to out
func NewConsoleNotifier(out io.Writer, logger *zap.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{out: out, logger: logger}
}

func (n *ConsoleNotifier) Success(title string) {
	fmt.Fprintf(n.out, "✔ %s\n", title)
}

func (n *ConsoleNotifier) Failure(title string, err error) {
	fmt.Fprintf(n.out, "✘ %s: %v\n", title, err)
	n.logger.Debug("Notified failure", zap.String("title", title), zap.Error(err))
}
