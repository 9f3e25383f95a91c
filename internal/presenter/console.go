package presenter

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"kraken-orderbook-watcher/internal/domain"
)

const (
	beginLine = "<------------------------------------>"
	endLine   = ">-------------------------------------<"
)

// ConsoleWriter prints book views as a price ladder: asks from the highest
// price down to the best ask, then bids from the best bid down.
type ConsoleWriter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{out: out, now: time.Now}
}

func (w *ConsoleWriter) Display(views ...domain.BookView) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buffered := bufio.NewWriter(w.out)
	for _, view := range views {
		fmt.Fprintln(buffered, beginLine)

		fmt.Fprintln(buffered, "asks:")
		asks := slices.Clone(view.Asks)
		slices.Reverse(asks)
		printLevels(buffered, asks)
		printBest(buffered, "asks", view.BestAsk)

		fmt.Fprintln(buffered, "bids:")
		printLevels(buffered, view.Bids)
		printBest(buffered, "bids", view.BestBid)

		fmt.Fprintln(buffered, view.Pair)
		fmt.Fprintln(buffered, w.now().Format(time.RFC3339Nano))
		fmt.Fprintln(buffered, endLine)
	}
	return buffered.Flush()
}

func printLevels(out io.Writer, levels []domain.PriceLevel) {
	for _, level := range levels {
		fmt.Fprintf(out, "[ %s, %s ]\n", level.Price, level.Volume)
	}
}

func printBest(out io.Writer, side string, level *domain.PriceLevel) {
	if level == nil {
		fmt.Fprintf(out, "best %s: none\n", side)
		return
	}
	fmt.Fprintf(out, "best %s: [%s, %s]\n", side, level.Price, level.Volume)
}
