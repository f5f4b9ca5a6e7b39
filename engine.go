package match

import "time"

// IEngine is the core's external contract. Both MatchingEngine (direct,
// synchronous calls) and AsyncEngineShell (ring-mediated calls from a
// worker goroutine) satisfy it.
type IEngine interface {
	AddOrder(cmd OrderCmd) AddResult
	CancelOrder(id Id) bool
	Snapshot(depth int) Snapshot
	Metrics() Metrics
}

// depthCacheRefreshLevels bounds how many price levels per side
// MatchingEngine mirrors into its DepthCache on every admission. It is
// deeper than a typical top-of-book read needs so the cache still serves
// callers asking a few levels past the best.
const depthCacheRefreshLevels = 50

// EngineConfig governs the two MARKET policy knobs this package exposes,
// plus the trade publisher every successful match is forwarded to. It is
// set once at construction and never mutated afterward.
type EngineConfig struct {
	marketGTCAsIOC  bool
	marketMaxLevels uint16
	publisher       TradePublisher
}

// EngineOption configures an EngineConfig at construction, in the
// functional-options style.
type EngineOption func(*EngineConfig)

// WithMarketGTCAsIOC controls whether a MARKET order submitted with
// TimeInForce GTC is treated as IOC (default true) or rejected outright.
func WithMarketGTCAsIOC(enabled bool) EngineOption {
	return func(c *EngineConfig) { c.marketGTCAsIOC = enabled }
}

// WithMarketMaxLevels bounds how many opposite-side levels a MARKET order
// may sweep, and what AvailableMarket considers for a MARKET+FOK
// pre-check. Zero (the default) means unlimited.
func WithMarketMaxLevels(levels uint16) EngineOption {
	return func(c *EngineConfig) { c.marketMaxLevels = levels }
}

// WithTradePublisher forwards every trade produced by a successful
// AddOrder to pub. The default is a DiscardTradePublisher, so publishing
// is opt-in and costs nothing until wired.
func WithTradePublisher(pub TradePublisher) EngineOption {
	return func(c *EngineConfig) { c.publisher = pub }
}

func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		marketGTCAsIOC:  true,
		marketMaxLevels: 0,
		publisher:       NewDiscardTradePublisher(),
	}
}

// MatchingEngine wires OrderCmd submissions through validation, id/seq
// assignment, FOK pre-checks, the book, and the status state-machine. It
// runs synchronously on the caller's goroutine; AsyncEngineShell is the
// optional wrapper for cross-goroutine submission.
type MatchingEngine struct {
	cfg     EngineConfig
	book    *OrderBook
	metrics Metrics
	depth   *DepthCache

	nextID Id
	seq    Seq
}

// NewMatchingEngine constructs an engine with an empty book.
func NewMatchingEngine(opts ...EngineOption) *MatchingEngine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MatchingEngine{
		cfg:    cfg,
		book:   NewOrderBook(0),
		depth:  NewDepthCache(),
		nextID: firstEngineAllocatedID,
	}
}

// DepthCache returns the engine's downstream depth mirror, refreshed
// after every AddOrder admission. Subscribers should read through this
// rather than Snapshot when they must not contend with the book's own
// locators.
func (e *MatchingEngine) DepthCache() *DepthCache {
	return e.depth
}

// AddOrder implements the add_order pipeline from §4.3: validate, assign
// identity, run any FOK pre-check, invoke the book, derive a status, and
// fold the result into metrics.
func (e *MatchingEngine) AddOrder(cmd OrderCmd) AddResult {
	if cmd.Qty <= 0 || (cmd.OrderType == Limit && cmd.Price <= 0) {
		return AddResult{Status: BadInput, OrderID: 0, Remaining: cmd.Qty}
	}

	orderID := cmd.OrderID
	if orderID == 0 {
		orderID = e.nextID
		e.nextID++
	}
	e.seq++
	seq := e.seq

	if cmd.OrderType == Limit && cmd.TimeInForce == FOK {
		available := e.availableFor(cmd.Side, cmd.Price)
		if available < cmd.Qty {
			return AddResult{Status: FOKFail, OrderID: orderID, Remaining: cmd.Qty}
		}
	}
	if cmd.OrderType == Market && cmd.TimeInForce == FOK {
		available := e.book.AvailableMarket(cmd.Side, int(e.cfg.marketMaxLevels))
		if available < cmd.Qty {
			return AddResult{Status: FOKFail, OrderID: orderID, Remaining: cmd.Qty}
		}
	}
	if cmd.OrderType == Market && cmd.TimeInForce == GTC && !e.cfg.marketGTCAsIOC {
		return AddResult{Status: Reject, OrderID: orderID, Remaining: cmd.Qty}
	}

	start := time.Now()
	var trades []Trade
	var emptyBook bool

	switch cmd.OrderType {
	case Limit:
		trades = e.book.AddLimit(orderID, cmd.Side, cmd.Price, cmd.Qty, cmd.TimeInForce, seq)
	case Market:
		trades, emptyBook = e.book.AddMarket(orderID, cmd.Side, cmd.Qty, seq, int(e.cfg.marketMaxLevels))
	}
	elapsed := time.Since(start)

	var filled Qty
	for _, tr := range trades {
		filled += tr.Qty
	}
	remaining := cmd.Qty - filled

	status := deriveStatus(cmd, filled, remaining, emptyBook)

	if len(trades) > 0 {
		e.cfg.publisher.PublishTrades(trades...)
	}
	e.metrics.recordAdd(elapsed, trades)
	e.metrics.refreshBestOfSide(e.book)
	e.depth.Refresh(uint64(seq), e.book.Snapshot(depthCacheRefreshLevels))

	return AddResult{
		Status:    status,
		OrderID:   orderID,
		Trades:    trades,
		Filled:    filled,
		Remaining: remaining,
	}
}

// availableFor returns the resting liquidity a LIMIT+FOK order at price
// could draw from: asks at or below price for a BUY, bids at or above
// price for a SELL.
func (e *MatchingEngine) availableFor(side Side, price Price) Qty {
	if side == Buy {
		return e.book.AvailableToBuyUpTo(price)
	}
	return e.book.AvailableToSellDownTo(price)
}

// deriveStatus maps (order_type, tif, filled, remaining, empty_book) to
// the OrderStatus table in §4.3. FOK's rejection path is handled before
// the book is ever invoked, so filled==0-with-remaining>0 never reaches
// here for a FOK order.
func deriveStatus(cmd OrderCmd, filled, remaining Qty, emptyBook bool) OrderStatus {
	switch cmd.OrderType {
	case Limit:
		switch cmd.TimeInForce {
		case FOK:
			return Filled
		case IOC:
			switch {
			case filled == 0:
				return OK
			case remaining == 0:
				return Filled
			default:
				return Partial
			}
		default: // GTC
			if remaining == 0 {
				return Filled
			}
			return OK // resting, with or without a partial fill first
		}
	case Market:
		if filled == 0 && emptyBook {
			return EmptyBook
		}
		switch {
		case remaining == 0:
			return Filled
		case filled > 0:
			return Partial
		default:
			return OK
		}
	}
	return BadInput
}

// CancelOrder delegates to the book and counts a successful cancel.
func (e *MatchingEngine) CancelOrder(id Id) bool {
	ok := e.book.Cancel(id)
	if ok {
		e.metrics.CancelOrders++
	}
	return ok
}

// Snapshot is a read-only accessor over the book.
func (e *MatchingEngine) Snapshot(depth int) Snapshot {
	return e.book.Snapshot(depth)
}

// Metrics is a read-only accessor returning the current counters.
func (e *MatchingEngine) Metrics() Metrics {
	m := e.metrics
	m.Version = EngineVersion
	return m
}

var _ IEngine = (*MatchingEngine)(nil)
