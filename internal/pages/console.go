package pages

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Notifier shows a blocking notice to the user
type Notifier interface {
	Notify(msg string)
}

// ConsoleNotifier prints notices on a writer, usually stderr
type ConsoleNotifier struct {
	w io.Writer
}

// NewConsoleNotifier creates a notifier writing to w
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (n *ConsoleNotifier) Notify(msg string) {
	fmt.Fprintf(n.w, "! %s\n", msg)
}

// ConsoleNavigator tracks the current page of a terminal session and prints
// every navigation so the user knows which command to run next.
type ConsoleNavigator struct {
	mu       sync.Mutex
	location string
	w        io.Writer
	logger   *zap.Logger
}

// NewConsoleNavigator starts at location
func NewConsoleNavigator(location string, w io.Writer, logger *zap.Logger) *ConsoleNavigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleNavigator{location: location, w: w, logger: logger}
}

func (n *ConsoleNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *ConsoleNavigator) Navigate(location string) {
	n.mu.Lock()
	from := n.location
	n.location = location
	n.mu.Unlock()

	n.logger.Debug("navigate", zap.String("from", from), zap.String("to", location))
	fmt.Fprintf(n.w, "-> %s\n", location)
}
