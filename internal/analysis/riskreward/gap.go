package riskreward

import (
	"context"
	"math"
	"time"

	"stockscan/internal/marketdata"
)

// gapThreshold is the fractional move from the last close beyond which the
// pre/post-market quote replaces it as the working entry.
const gapThreshold = 0.005

// AdjustedEntry returns the entry price to evaluate against, preferring a
// live pre/post-market quote over the last session close when the symbol
// has gapped. Stops and targets derived from yesterday's close are stale
// the moment a gap opens, so the quote wins whenever the move exceeds the
// threshold. A missing or zero quote leaves the close in place; quote
// lookups are best-effort and never fail the evaluation.
func AdjustedEntry(ctx context.Context, quotes marketdata.QuoteSource, symbol string, at time.Time, lastClose float64) (entry float64, gapped bool) {
	if quotes == nil || lastClose <= 0 {
		return lastClose, false
	}
	quote, err := quotes.GetQuoteAt(ctx, symbol, at)
	if err != nil || quote.Price <= 0 {
		return lastClose, false
	}
	if math.Abs(quote.Price-lastClose)/lastClose >= gapThreshold {
		return quote.Price, true
	}
	return lastClose, false
}
