package match

import "sync"

// TradePublisher receives the trades produced by a single AddOrder call.
// MatchingEngine.AddOrder invokes the configured publisher itself,
// immediately after a match produces one or more trades; wire one in via
// WithTradePublisher. The default, DiscardTradePublisher, is a no-op, so
// publishing stays opt-in and costs nothing until a caller asks for it.
type TradePublisher interface {
	PublishTrades(trades ...Trade)
}

// MemoryTradePublisher accumulates every published trade in memory,
// guarded by an RWMutex so a reader goroutine can poll Count/Get/Trades
// while a producer keeps publishing.
type MemoryTradePublisher struct {
	mu     sync.RWMutex
	trades []Trade
}

// NewMemoryTradePublisher returns an empty publisher.
func NewMemoryTradePublisher() *MemoryTradePublisher {
	return &MemoryTradePublisher{trades: make([]Trade, 0)}
}

func (p *MemoryTradePublisher) PublishTrades(trades ...Trade) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trades = append(p.trades, trades...)
}

// Count returns the number of trades published so far.
func (p *MemoryTradePublisher) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.trades)
}

// Get returns the trade at index. It panics on an out-of-range index,
// same as a plain slice index would.
func (p *MemoryTradePublisher) Get(index int) Trade {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trades[index]
}

// Trades returns a copy of everything published so far; the caller's
// slice is safe to read without holding the publisher's lock.
func (p *MemoryTradePublisher) Trades() []Trade {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Trade, len(p.trades))
	copy(out, p.trades)
	return out
}

// DiscardTradePublisher drops every trade; useful for benchmarks and
// callers that only care about AddResult.
type DiscardTradePublisher struct{}

func NewDiscardTradePublisher() *DiscardTradePublisher {
	return &DiscardTradePublisher{}
}

func (*DiscardTradePublisher) PublishTrades(trades ...Trade) {}

var (
	_ TradePublisher = (*MemoryTradePublisher)(nil)
	_ TradePublisher = (*DiscardTradePublisher)(nil)
)
