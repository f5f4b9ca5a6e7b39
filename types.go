// Package match implements the core of a single-instrument limit order
// matching engine: a price-time-priority order book, a matching engine that
// maps commands to a status state machine, and an optional asynchronous
// submission shell built on a wait-free SPSC ring (see the ring package).
//
// The core has no wire format, no CLI, and no persistence — those are
// host-layer concerns. It consumes OrderCmd values and returns AddResult
// values; everything else is a read-only accessor.
package match

// Price is an integer tick count. LIMIT orders require Price > 0.
type Price int64

// Qty is a signed quantity. Every command requires Qty > 0.
type Qty int64

// Id uniquely identifies an order for the process lifetime.
type Id uint64

// Seq is the engine's monotonically increasing admission counter. It
// doubles as the timestamp on trades and resting orders; callers must not
// rely on OrderCmd.Timestamp for correctness (see Design Notes in spec.md).
type Seq uint64

// Side is which book an order belongs to.
type Side uint8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// OrderType selects LIMIT or MARKET semantics.
type OrderType uint8

const (
	Limit OrderType = iota + 1
	Market
)

// TimeInForce selects what happens to any unfilled residual.
type TimeInForce uint8

const (
	GTC TimeInForce = iota + 1 // residual rests until canceled
	IOC                        // residual is discarded
	FOK                        // rejected entirely unless fully fillable
)

// OrderStatus is the terminal classification of an AddOrder call.
type OrderStatus uint8

const (
	OK OrderStatus = iota + 1
	Partial
	Filled
	Reject
	FOKFail
	EmptyBook
	BadInput
)

func (s OrderStatus) String() string {
	switch s {
	case OK:
		return "OK"
	case Partial:
		return "PARTIAL"
	case Filled:
		return "FILLED"
	case Reject:
		return "REJECT"
	case FOKFail:
		return "FOK_FAIL"
	case EmptyBook:
		return "EMPTY_BOOK"
	case BadInput:
		return "BAD_INPUT"
	default:
		return "UNKNOWN"
	}
}

// OrderCmd is the submission payload accepted by MatchingEngine.AddOrder.
//
// OrderID is optional: when zero the engine assigns the next id itself.
// Callers that supply their own id are responsible for uniqueness across
// live orders — the contract does not detect collisions.
type OrderCmd struct {
	OrderID     Id
	Side        Side
	OrderType   OrderType
	TimeInForce TimeInForce
	Price       Price // LIMIT only
	Qty         Qty
	Timestamp   uint64 // caller-supplied, ignored by matching; reserved for downstream telemetry
}

// Order is a resting order on the book. It exists only while resting —
// created on residual admission, destroyed on full fill or cancel.
type Order struct {
	ID        Id
	Side      Side
	Price     Price
	Qty       Qty // remaining
	AdmitSeq  Seq

	// prev/next form the intrusive FIFO within a PriceLevel; they are
	// ignored outside book.go and are what makes cancel O(1).
	prev, next *Order

	// handle is this order's slot in the book's arena, used to return the
	// slot to the free list on full fill or cancel.
	handle int32
}

// Trade is one execution leg: a taker consuming a maker's resting qty.
type Trade struct {
	Taker Id
	Maker Id
	Price Price // the maker's level price at the instant of fill
	Qty   Qty
	Seq   Seq
}

// SnapshotLevel is one aggregated price level in a depth Snapshot.
type SnapshotLevel struct {
	Price Price
	Qty   Qty
}

// Snapshot is a depth-truncated view of both sides of the book. Bids are
// sorted strictly descending by price, asks strictly ascending.
type Snapshot struct {
	Bids []SnapshotLevel
	Asks []SnapshotLevel
}

// AddResult is the outcome of MatchingEngine.AddOrder.
type AddResult struct {
	Status    OrderStatus
	OrderID   Id
	Trades    []Trade
	Filled    Qty
	Remaining Qty
}
