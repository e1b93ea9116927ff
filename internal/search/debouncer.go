package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go-pharma-exchange/internal/model"
)

// MinQueryLength is the shortest query, in characters, that reaches the catalog.
const MinQueryLength = 3

// SearchFunc runs one catalog lookup. Failures are reported as an empty slice.
type SearchFunc func(ctx context.Context, query string) []model.CatalogDrug

// Result is delivered for every settled input. Seq increases with every input.
type Result struct {
	Seq     uint64              `json:"seq"`
	Query   string              `json:"query"`
	Drugs   []model.CatalogDrug `json:"results"`
	Missing bool                `json:"missing"`
}

// Debouncer issues one search per burst of input, using the final query,
// and never delivers a result older than the latest input.
type Debouncer struct {
	delay   time.Duration
	search  SearchFunc
	deliver func(Result)

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	seq    uint64
	timer  *time.Timer
	closed bool

	deliverMu sync.Mutex
}

func NewDebouncer(delay time.Duration, search SearchFunc, deliver func(Result)) *Debouncer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		delay:   delay,
		search:  search,
		deliver: deliver,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Input records a new query. A short query cancels any pending search and clears results immediately.
func (d *Debouncer) Input(query string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	trimmed := strings.TrimSpace(query)
	if utf8.RuneCountInString(trimmed) < MinQueryLength {
		d.mu.Unlock()
		d.emit(Result{Seq: seq, Query: query, Drugs: []model.CatalogDrug{}})
		return
	}

	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, trimmed) })
	d.mu.Unlock()
}

func (d *Debouncer) fire(seq uint64, query string) {
	if !d.current(seq) {
		return
	}
	drugs := d.search(d.ctx, query)
	if drugs == nil {
		drugs = []model.CatalogDrug{}
	}
	d.emit(Result{Seq: seq, Query: query, Drugs: drugs, Missing: len(drugs) == 0})
}

func (d *Debouncer) emit(r Result) {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()
	if !d.current(r.Seq) {
		return
	}
	d.deliver(r)
}

func (d *Debouncer) current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && seq == d.seq
}

// Close stops the pending timer and cancels an in-flight search. It returns only
// after any delivery already in progress has finished; nothing is delivered afterwards.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancel()
	d.mu.Unlock()

	// wait for a deliver that passed its current() check before closed was set
	d.deliverMu.Lock()
	d.deliverMu.Unlock()
}
