package match

import (
	"github.com/huandu/skiplist"

	"github.com/yy824/ScopeX/structure"
)

// defaultArenaCapacity is the number of resting-order slots preallocated
// for a fresh book; the arena grows on demand beyond this.
const defaultArenaCapacity = 1024

// PriceLevel is the FIFO of resting orders sharing one price. It is
// created on the first insert at that price and removed once its last
// order is erased, so an empty level never lingers in a skiplist.
type PriceLevel struct {
	Price Price
	Qty   Qty // aggregate remaining qty across the FIFO
	count int32
	head  *Order
	tail  *Order
}

// Locator is everything cancel needs to remove a resting order in O(1):
// which side it rests on, its price level's skiplist element (so an
// emptied level can be erased without a search), and the order's own
// arena-backed pointer (so the FIFO splice needs no search either).
type Locator struct {
	side  Side
	level *skiplist.Element
	order *Order
}

// OrderBook is the resting book for one instrument: two price-indexed
// skiplists (bids descending, asks ascending) of PriceLevels, plus an
// identity index for O(1) cancellation. It has no notion of time-in-force
// or order validation; that policy lives in MatchingEngine.
type OrderBook struct {
	bids  *skiplist.SkipList
	asks  *skiplist.SkipList
	index map[Id]Locator
	arena *structure.Arena[Order]
}

// NewOrderBook constructs an empty book. arenaCapacity seeds the resting
// order pool; pass 0 to use a reasonable default.
func NewOrderBook(arenaCapacity int32) *OrderBook {
	if arenaCapacity <= 0 {
		arenaCapacity = defaultArenaCapacity
	}
	return &OrderBook{
		bids: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			l, r := lhs.(Price), rhs.(Price)
			switch {
			case l > r:
				return -1
			case l < r:
				return 1
			default:
				return 0
			}
		})),
		asks: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			l, r := lhs.(Price), rhs.(Price)
			switch {
			case l < r:
				return -1
			case l > r:
				return 1
			default:
				return 0
			}
		})),
		index: make(map[Id]Locator),
		arena: structure.NewArena[Order](arenaCapacity),
	}
}

func (b *OrderBook) bookFor(side Side) *skiplist.SkipList {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func (b *OrderBook) opposite(side Side) *skiplist.SkipList {
	if side == Buy {
		return b.asks
	}
	return b.bids
}

// crosses reports whether an incoming order on side at price is eligible
// to trade against a resting level at levelPrice.
func crosses(side Side, price, levelPrice Price) bool {
	if side == Buy {
		return levelPrice <= price
	}
	return levelPrice >= price
}

// AddLimit matches a LIMIT order against the opposite side and, for a GTC
// residual, rests it on the book. IOC/FOK residuals are discarded by the
// caller's choice of tif; FOK pre-checks happen in the engine before this
// is ever called — by the time add_limit runs, a FOK order is assumed
// fillable in full.
func (b *OrderBook) AddLimit(id Id, side Side, price Price, qty Qty, tif TimeInForce, seq Seq) []Trade {
	if qty <= 0 {
		return nil
	}

	opp := b.opposite(side)
	trades := make([]Trade, 0, 4)
	remaining := qty

	for remaining > 0 {
		el := opp.Front()
		if el == nil {
			break
		}
		level := el.Value.(*PriceLevel)
		if !crosses(side, price, level.Price) {
			break
		}
		remaining = b.matchLevel(id, remaining, level, seq, &trades)
		if level.count == 0 {
			opp.RemoveElement(el)
		}
	}

	if remaining > 0 && tif == GTC {
		b.rest(b.bookFor(side), side, id, price, remaining, seq)
	}

	return trades
}

// AddMarket matches a MARKET order against up to maxLevels opposite-side
// levels (0 = unlimited), discarding any residual unconditionally.
// emptyBook reports whether the opposite side is empty once matching
// stops.
func (b *OrderBook) AddMarket(id Id, side Side, qty Qty, seq Seq, maxLevels int) (trades []Trade, emptyBook bool) {
	if qty <= 0 {
		return nil, b.opposite(side).Len() == 0
	}

	opp := b.opposite(side)
	trades = make([]Trade, 0, 4)
	remaining := qty
	levelsTouched := 0

	for remaining > 0 {
		if maxLevels > 0 && levelsTouched >= maxLevels {
			break
		}
		el := opp.Front()
		if el == nil {
			break
		}
		level := el.Value.(*PriceLevel)
		remaining = b.matchLevel(id, remaining, level, seq, &trades)
		levelsTouched++
		if level.count == 0 {
			opp.RemoveElement(el)
		}
	}

	return trades, opp.Len() == 0
}

// matchLevel drains makers at the head of level's FIFO against an
// aggressor with takerQty remaining, appending a Trade per maker touched,
// until either the aggressor is filled or the level runs dry. It returns
// the aggressor's qty still remaining after the level is exhausted or the
// aggressor is satisfied.
func (b *OrderBook) matchLevel(takerID Id, takerQty Qty, level *PriceLevel, seq Seq, trades *[]Trade) Qty {
	remaining := takerQty

	for remaining > 0 {
		maker := level.head
		if maker == nil {
			break
		}

		tradeQty := remaining
		if maker.Qty < tradeQty {
			tradeQty = maker.Qty
		}

		*trades = append(*trades, Trade{
			Taker: takerID,
			Maker: maker.ID,
			Price: level.Price,
			Qty:   tradeQty,
			Seq:   seq,
		})

		maker.Qty -= tradeQty
		level.Qty -= tradeQty
		remaining -= tradeQty

		if maker.Qty == 0 {
			b.popHead(level)
			delete(b.index, maker.ID)
			b.arena.Free(maker.handle)
		}
	}

	return remaining
}

// popHead detaches level's FIFO head in place; the caller has already
// determined the head is fully depleted.
func (b *OrderBook) popHead(level *PriceLevel) {
	head := level.head
	level.head = head.next
	if level.head != nil {
		level.head.prev = nil
	} else {
		level.tail = nil
	}
	head.next = nil
	level.count--
}

// rest allocates a resting Order from the arena, appends it to the back
// of its price level's FIFO (creating the level if this is the first
// order at that price), and records its Locator in the identity index.
func (b *OrderBook) rest(book *skiplist.SkipList, side Side, id Id, price Price, qty Qty, seq Seq) {
	handle, err := b.arena.Alloc()
	if err != nil {
		// The arena has a MaxCapacity configured (none by default); this
		// book never sets one, so Alloc only fails if a caller does.
		logger.Error("order book arena exhausted", "err", err, "order_id", id)
		return
	}
	o := b.arena.Get(handle)
	*o = Order{ID: id, Side: side, Price: price, Qty: qty, AdmitSeq: seq, handle: handle}

	var level *PriceLevel
	el := book.Get(price)
	if el != nil {
		level = el.Value.(*PriceLevel)
	} else {
		level = &PriceLevel{Price: price}
		el = book.Set(price, level)
	}

	o.prev = level.tail
	o.next = nil
	if level.tail != nil {
		level.tail.next = o
	}
	level.tail = o
	if level.head == nil {
		level.head = o
	}
	level.Qty += qty
	level.count++

	b.index[id] = Locator{side: side, level: el, order: o}
}

// Cancel removes a resting order in O(1) using its stored Locator. It
// returns false if id is unknown (never admitted, already filled, or
// already canceled).
func (b *OrderBook) Cancel(id Id) bool {
	loc, ok := b.index[id]
	if !ok {
		return false
	}

	o := loc.order
	level := loc.level.Value.(*PriceLevel)

	if o.prev != nil {
		o.prev.next = o.next
	} else {
		level.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		level.tail = o.prev
	}
	o.prev, o.next = nil, nil

	level.Qty -= o.Qty
	level.count--
	if level.count == 0 {
		b.bookFor(loc.side).RemoveElement(loc.level)
	}

	delete(b.index, id)
	b.arena.Free(o.handle)
	return true
}

// Snapshot walks both sides in natural key order, aggregating each
// level's qty, truncated independently per side at depth. depth <= 0
// yields empty sides; depth greater than the number of resident levels
// simply returns all of them.
func (b *OrderBook) Snapshot(depth int) Snapshot {
	snap := Snapshot{}
	if depth <= 0 {
		return snap
	}

	snap.Bids = make([]SnapshotLevel, 0, depth)
	for el, i := b.bids.Front(), 0; el != nil && i < depth; el, i = el.Next(), i+1 {
		level := el.Value.(*PriceLevel)
		snap.Bids = append(snap.Bids, SnapshotLevel{Price: level.Price, Qty: level.Qty})
	}

	snap.Asks = make([]SnapshotLevel, 0, depth)
	for el, i := b.asks.Front(), 0; el != nil && i < depth; el, i = el.Next(), i+1 {
		level := el.Value.(*PriceLevel)
		snap.Asks = append(snap.Asks, SnapshotLevel{Price: level.Price, Qty: level.Qty})
	}

	return snap
}

// AvailableToBuyUpTo sums ask-level qtys at prices <= px, scanning
// ascending and stopping at the first level that exceeds px. A FOK BUY
// at price px can fully fill iff this is >= the order's qty.
func (b *OrderBook) AvailableToBuyUpTo(px Price) Qty {
	var total Qty
	for el := b.asks.Front(); el != nil; el = el.Next() {
		level := el.Value.(*PriceLevel)
		if level.Price > px {
			break
		}
		total += level.Qty
	}
	return total
}

// AvailableToSellDownTo sums bid-level qtys at prices >= px, scanning
// descending and stopping at the first level that falls below px.
func (b *OrderBook) AvailableToSellDownTo(px Price) Qty {
	var total Qty
	for el := b.bids.Front(); el != nil; el = el.Next() {
		level := el.Value.(*PriceLevel)
		if level.Price < px {
			break
		}
		total += level.Qty
	}
	return total
}

// AvailableMarket sums the first (up to) maxLevels levels on the side
// opposite side; maxLevels == 0 means unlimited (sum the whole side).
func (b *OrderBook) AvailableMarket(side Side, maxLevels int) Qty {
	var total Qty
	n := 0
	for el := b.opposite(side).Front(); el != nil; el = el.Next() {
		if maxLevels > 0 && n >= maxLevels {
			break
		}
		level := el.Value.(*PriceLevel)
		total += level.Qty
		n++
	}
	return total
}

// BestBid returns the best bid level's price and qty, or (0, 0, false)
// if the bid side is empty.
func (b *OrderBook) BestBid() (Price, Qty, bool) {
	el := b.bids.Front()
	if el == nil {
		return 0, 0, false
	}
	level := el.Value.(*PriceLevel)
	return level.Price, level.Qty, true
}

// BestAsk returns the best ask level's price and qty, or (0, 0, false)
// if the ask side is empty.
func (b *OrderBook) BestAsk() (Price, Qty, bool) {
	el := b.asks.Front()
	if el == nil {
		return 0, 0, false
	}
	level := el.Value.(*PriceLevel)
	return level.Price, level.Qty, true
}

// BidDepth and AskDepth report the number of resident price levels, used
// by introspection/tests rather than the hot matching path.
func (b *OrderBook) BidDepth() int { return b.bids.Len() }
func (b *OrderBook) AskDepth() int { return b.asks.Len() }
