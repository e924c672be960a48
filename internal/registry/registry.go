// Package registry implements the bounded symbol -> OrderBook mapping that
// sits in front of the matching core.
package registry

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lattice-labs/matchcore/internal/engine"
	"github.com/lattice-labs/matchcore/internal/metrics"
	"github.com/rs/zerolog/log"
)

// DefaultMaxSymbols is the fallback symbol capacity when none is configured.
const DefaultMaxSymbols = 100

var ErrCapacityExceeded = errors.New("registry: symbol capacity exceeded")

// Registry is a bounded, lazily-populated map from symbol to OrderBook.
// Reads (Get, All, Count) are far more frequent than writes (GetOrCreate on
// a never-before-seen symbol), so it is guarded with a readers-writer lock.
type Registry struct {
	mu         sync.RWMutex
	books      map[string]*engine.OrderBook
	maxSymbols int

	idSource   atomic.Int64
	tradeSeq   atomic.Int64
	newSink    func(symbol string) engine.TradeSink
	metrics    *metrics.Metrics
}

// New builds an empty registry bounded to maxSymbols. newSink, if non-nil,
// is called once per symbol to build the TradeSink bound to that symbol's
// book (e.g. one that fans out to the WebSocket broadcaster); if nil, every
// book gets a NopTradeSink. m may be nil, in which case no gauge is kept.
func New(maxSymbols int, newSink func(symbol string) engine.TradeSink, m *metrics.Metrics) *Registry {
	if maxSymbols <= 0 {
		maxSymbols = DefaultMaxSymbols
	}
	return &Registry{
		books:      make(map[string]*engine.OrderBook),
		maxSymbols: maxSymbols,
		newSink:    newSink,
		metrics:    m,
	}
}

// GetOrCreate returns the book for symbol, creating it on first reference.
// It is idempotent: concurrent creation of the same symbol resolves to one
// winning book, and the losing caller observes the winner.
func (r *Registry) GetOrCreate(symbol string) (*engine.OrderBook, error) {
	r.mu.RLock()
	if b, ok := r.books[symbol]; ok {
		r.mu.RUnlock()
		return b, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock: another writer may have created it
	// between our RUnlock and Lock.
	if b, ok := r.books[symbol]; ok {
		return b, nil
	}

	if len(r.books) >= r.maxSymbols {
		return nil, ErrCapacityExceeded
	}

	var sink engine.TradeSink
	if r.newSink != nil {
		sink = r.newSink(symbol)
	}
	b := engine.NewOrderBook(symbol, &r.idSource, &r.tradeSeq, sink)
	r.books[symbol] = b
	if r.metrics != nil {
		r.metrics.ActiveBooks.Set(float64(len(r.books)))
	}
	log.Info().Str("symbol", symbol).Int("total_books", len(r.books)).Msg("book created")
	return b, nil
}

// Get returns the book for symbol if it already exists.
func (r *Registry) Get(symbol string) (*engine.OrderBook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.books[symbol]
	return b, ok
}

// All returns every book currently registered, sorted by symbol for
// deterministic snapshot rendering.
func (r *Registry) All() []*engine.OrderBook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*engine.OrderBook, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Count returns the number of registered books.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.books)
}
