package match

import (
	"sync"

	"github.com/igrmk/treemap/v2"
)

// DepthCache is a downstream read-model of the book's depth, decoupled
// from the live OrderBook: a caller replaces its contents wholesale from
// a Snapshot rather than mutating it order-by-order. It is a
// sequence-numbered mirror meant for consumers that only need
// top-of-book/depth reads and should never contend with the book's own
// locks or goroutine ownership.
type DepthCache struct {
	mu   sync.RWMutex
	seq  uint64
	bids *treemap.TreeMap[Price, Qty]
	asks *treemap.TreeMap[Price, Qty]
}

// NewDepthCache returns an empty cache at sequence 0.
func NewDepthCache() *DepthCache {
	return &DepthCache{
		bids: newBidMap(),
		asks: newAskMap(),
	}
}

func newBidMap() *treemap.TreeMap[Price, Qty] {
	return treemap.NewWithKeyCompare[Price, Qty](func(a, b Price) bool { return a > b })
}

func newAskMap() *treemap.TreeMap[Price, Qty] {
	return treemap.NewWithKeyCompare[Price, Qty](func(a, b Price) bool { return a < b })
}

// Refresh replaces the cache's contents with snap, tagged with seq.
// MatchingEngine.AddOrder calls this itself after every admission that
// reaches the book, passing that admission's own seq; a standalone cache
// is tagged with whatever sequence its caller supplies.
func (d *DepthCache) Refresh(seq uint64, snap Snapshot) {
	bids := newBidMap()
	for _, lvl := range snap.Bids {
		bids.Set(lvl.Price, lvl.Qty)
	}
	asks := newAskMap()
	for _, lvl := range snap.Asks {
		asks.Set(lvl.Price, lvl.Qty)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq = seq
	d.bids = bids
	d.asks = asks
}

// SequenceID returns the sequence tag of the most recent Refresh.
func (d *DepthCache) SequenceID() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.seq
}

// Depth returns the aggregated qty resident at price on side, or
// (0, false) if that level isn't in the cache.
func (d *DepthCache) Depth(side Side, price Price) (Qty, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if side == Buy {
		return d.bids.Get(price)
	}
	return d.asks.Get(price)
}

// BestBid returns the cache's best bid, or (0, 0, false) if empty.
func (d *DepthCache) BestBid() (Price, Qty, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	it := d.bids.Iterator()
	if !it.Valid() {
		return 0, 0, false
	}
	return it.Key(), it.Value(), true
}

// BestAsk returns the cache's best ask, or (0, 0, false) if empty.
func (d *DepthCache) BestAsk() (Price, Qty, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	it := d.asks.Iterator()
	if !it.Valid() {
		return 0, 0, false
	}
	return it.Key(), it.Value(), true
}

// Len returns the number of resident levels per side.
func (d *DepthCache) Len() (bidLevels, askLevels int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bids.Len(), d.asks.Len()
}
