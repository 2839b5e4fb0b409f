package royalty

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"royaltyhub/core/events"
)

// State is the record and balance surface visible inside one atomic unit.
// Inserts report ErrRecordExists on a duplicate key; Puts may report
// ErrConflict when a concurrent unit changed the record first.
type State interface {
	PlatformConfigGet() (*PlatformConfig, bool, error)
	PlatformConfigInsert(cfg *PlatformConfig) error
	PlatformConfigPut(cfg *PlatformConfig) error

	ListingGet(addr [20]byte) (*RoyaltyListing, bool, error)
	ListingInsert(listing *RoyaltyListing) error
	ListingPut(listing *RoyaltyListing) error
	Listings() ([]*RoyaltyListing, error)

	ResaleGet(addr [20]byte) (*ResaleListing, bool, error)
	ResaleInsert(resale *ResaleListing) error
	ResaleDelete(addr [20]byte) error
	Resales(listing [20]byte) ([]*ResaleListing, error)

	PoolGet(addr [20]byte) (*PayoutPool, bool, error)
	PoolPut(pool *PayoutPool) error

	ClaimGet(addr [20]byte) (*PayoutClaim, bool, error)
	ClaimInsert(claim *PayoutClaim) error
	Claims(pool [20]byte) ([]*PayoutClaim, error)

	SaleInsert(sale *Sale) error
	Sales(listing [20]byte) ([]*Sale, error)

	BalanceGet(account [20]byte) (uint64, error)
	BalancePut(account [20]byte, balance uint64) error

	AssetGet(assetID [32]byte) (*AssetDefinition, bool, error)
	AssetInsert(def *AssetDefinition) error
	AssetPut(def *AssetDefinition) error
	HoldingGet(assetID [32]byte, holder [20]byte) (uint64, error)
	HoldingPut(assetID [32]byte, holder [20]byte, quantity uint64) error
}

// Store runs units of work against persistent state. Update commits only
// when fn returns nil; View never commits.
type Store interface {
	Update(ctx context.Context, fn func(State) error) error
	View(ctx context.Context, fn func(State) error) error
}

// Metrics receives operation outcomes after they are settled.
type Metrics interface {
	RecordOperation(op string, outcome string)
	RecordSale(kind SaleKind, price uint64, platformFee uint64)
	RecordPayout(kind string, amount uint64)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, string) {}

func (noopMetrics) RecordSale(SaleKind, uint64, uint64) {}

func (noopMetrics) RecordPayout(string, uint64) {}

// Engine wires marketplace business logic with persistence, event emission
// and metrics.
type Engine struct {
	store   Store
	emitter events.Emitter
	logger  *slog.Logger
	metrics Metrics
	nowFn   func() int64
	newID   func() uuid.UUID
}

// NewEngine constructs a marketplace engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		metrics: noopMetrics{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
		newID: uuid.New,
	}
}

// SetStore configures the store backend used by the engine.
func (e *Engine) SetStore(store Store) { e.store = store }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetLogger configures the logger that receives operation summaries.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		e.logger = slog.Default()
		return
	}
	e.logger = logger
}

// SetMetrics configures the metrics sink.
func (e *Engine) SetMetrics(metrics Metrics) {
	if metrics == nil {
		e.metrics = noopMetrics{}
		return
	}
	e.metrics = metrics
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetIDFunc overrides the generator used for sale ids and default asset ids.
func (e *Engine) SetIDFunc(fn func() uuid.UUID) {
	if fn == nil {
		e.newID = uuid.New
		return
	}
	e.newID = fn
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) id() uuid.UUID {
	if e == nil || e.newID == nil {
		return uuid.New()
	}
	return e.newID()
}

// txn is the per-operation view of state. Events and metric callbacks are
// buffered and only released once the store commits.
type txn struct {
	State
	ledger Ledger
	assets AssetRegistry
	events []*events.Record
	after  []func(Metrics)
}

func newTxn(state State) *txn {
	return &txn{State: state, ledger: NewLedger(state), assets: NewAssetRegistry(state)}
}

func (t *txn) emit(evt *events.Record) { t.events = append(t.events, evt) }

func (t *txn) observe(fn func(Metrics)) { t.after = append(t.after, fn) }

func (t *txn) config() (*PlatformConfig, error) {
	cfg, ok, err := t.PlatformConfigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

func (t *txn) listing(addr [20]byte) (*RoyaltyListing, error) {
	listing, ok, err := t.ListingGet(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrListingNotFound
	}
	return listing, nil
}

// isRecord reports whether addr is the address of a stored record. Records
// hold vault balances and escrowed units that only the engine may move.
func (t *txn) isRecord(addr [20]byte) (bool, error) {
	if addr == PlatformConfigAddress() {
		return true, nil
	}
	if _, ok, err := t.ListingGet(addr); err != nil || ok {
		return ok, err
	}
	if _, ok, err := t.ResaleGet(addr); err != nil || ok {
		return ok, err
	}
	if _, ok, err := t.PoolGet(addr); err != nil || ok {
		return ok, err
	}
	if _, ok, err := t.ClaimGet(addr); err != nil || ok {
		return ok, err
	}
	return false, nil
}

// external rejects record addresses acting as participants.
func (t *txn) external(participant [20]byte) error {
	record, err := t.isRecord(participant)
	if err != nil {
		return err
	}
	if record {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) execute(ctx context.Context, op string, fn func(tx *txn) error) error {
	if e == nil || e.store == nil {
		return ErrNilState
	}
	var committed *txn
	err := e.store.Update(ctx, func(state State) error {
		tx := newTxn(state)
		if err := fn(tx); err != nil {
			return err
		}
		committed = tx
		return nil
	})
	if err != nil {
		e.metrics.RecordOperation(op, outcome(err))
		e.logger.Warn("royalty operation rejected", "op", op, "code", Code(err), "error", err)
		return err
	}
	e.metrics.RecordOperation(op, "ok")
	if committed == nil {
		return nil
	}
	for _, observe := range committed.after {
		observe(e.metrics)
	}
	for _, evt := range committed.events {
		e.logger.Info(evt.Summary, "op", op, "event", evt.Type)
		e.emitter.Emit(evt)
	}
	return nil
}

func (e *Engine) view(ctx context.Context, fn func(tx *txn) error) error {
	if e == nil || e.store == nil {
		return ErrNilState
	}
	return e.store.View(ctx, func(state State) error {
		return fn(newTxn(state))
	})
}

func outcome(err error) string {
	if code := Code(err); code != "" {
		return code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "error"
}
