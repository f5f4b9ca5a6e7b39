package match

import "time"

// Metrics is a snapshot of the engine's running counters and latency
// reservoir. It is colocated with the book under the same ownership
// regime: synchronous engines mutate it on the caller's thread, async
// engines mutate it only from the worker goroutine.
type Metrics struct {
	Version string

	AddOrders    uint64
	CancelOrders uint64
	Trades       uint64
	TradedQty    Qty

	BestBidPx  Price
	BestBidQty Qty
	BestAskPx  Price
	BestAskQty Qty

	AddMinNs   int64
	AddMaxNs   int64
	AddTotalNs int64
}

// recordAdd folds one add_order call's latency and counters into the
// metrics. elapsed is measured around the matching call only, per the
// spec's latency contract — validation and status derivation are cheap
// and excluded.
func (m *Metrics) recordAdd(elapsed time.Duration, trades []Trade) {
	m.AddOrders++

	ns := elapsed.Nanoseconds()
	if m.AddOrders == 1 || ns < m.AddMinNs {
		m.AddMinNs = ns
	}
	if ns > m.AddMaxNs {
		m.AddMaxNs = ns
	}
	m.AddTotalNs += ns

	for _, tr := range trades {
		m.Trades++
		m.TradedQty += tr.Qty
	}
}

// refreshBestOfSide recomputes the best-bid/ask cache from the book's
// best level on each side (the same values a depth-1 snapshot reports),
// zeroing whichever side is empty. Called after every
// successful add per §4.3.1.
func (m *Metrics) refreshBestOfSide(b *OrderBook) {
	if px, qty, ok := b.BestBid(); ok {
		m.BestBidPx, m.BestBidQty = px, qty
	} else {
		m.BestBidPx, m.BestBidQty = 0, 0
	}
	if px, qty, ok := b.BestAsk(); ok {
		m.BestAskPx, m.BestAskQty = px, qty
	} else {
		m.BestAskPx, m.BestAskQty = 0, 0
	}
}
