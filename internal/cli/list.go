package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/rustyeddy/charti/exchange"
)

func listExchanges(w io.Writer) {
	fmt.Fprintln(w, "Supported Exchanges:")
	for _, id := range exchange.IDs() {
		fmt.Fprintf(w, "- %s\n", id)
	}
}

// listPairs prints every pair of one exchange. Failures are reported on w
// and swallowed.
func listPairs(ctx context.Context, w io.Writer, rc *RootConfig, id string) {
	pairs, err := loadPairs(ctx, rc, id)
	if err != nil {
		rc.log.WithError(err).WithField("exchange", id).Debug("list pairs failed")
		fmt.Fprintf(w, "Error: %v. Please ensure the exchange name is correct.\n", err)
		return
	}

	fmt.Fprintf(w, "Trading Pairs on %s:\n", id)
	for _, p := range pairs {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func loadPairs(ctx context.Context, rc *RootConfig, id string) ([]string, error) {
	opts, err := rc.exchangeOptions(id)
	if err != nil {
		return nil, err
	}
	ex, err := exchange.New(id, opts)
	if err != nil {
		return nil, err
	}
	markets, err := ex.LoadMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return markets.Pairs(), nil
}
