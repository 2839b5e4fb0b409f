package royalty

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"royaltyhub/core/events"
)

var (
	authority = [20]byte{0xA1}
	treasury  = [20]byte{0xA2}
	creator   = [20]byte{0xC1}
	buyer     = [20]byte{0xB1}
	collector = [20]byte{0xB2}
)

type captureEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *captureEmitter) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, evt := range c.events {
		out = append(out, evt.EventType())
	}
	return out
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	sales    int
	payouts  map[string]uint64
}

func (r *recordingMetrics) RecordOperation(op, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[op+":"+outcome]++
}

func (r *recordingMetrics) RecordSale(SaleKind, uint64, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales++
}

func (r *recordingMetrics) RecordPayout(kind string, amount uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payouts[kind] += amount
}

type harness struct {
	engine  *Engine
	store   *mockStore
	emitter *captureEmitter
	now     int64
}

func newHarness(t *testing.T, platformFeeBps uint16) *harness {
	t.Helper()
	h := &harness{store: newMockStore(), emitter: &captureEmitter{}, now: 1_700_000_000}
	h.engine = NewEngine()
	h.engine.SetStore(h.store)
	h.engine.SetEmitter(h.emitter)
	h.engine.SetNowFunc(func() int64 { return h.now })
	if _, err := h.engine.Initialize(context.Background(), authority, treasury, platformFeeBps); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return h
}

func (h *harness) fund(t *testing.T, account [20]byte, amount uint64) {
	t.Helper()
	if _, err := h.engine.Fund(context.Background(), account, amount); err != nil {
		t.Fatalf("fund: %v", err)
	}
}

func (h *harness) balance(t *testing.T, account [20]byte) uint64 {
	t.Helper()
	balance, err := h.engine.Balance(context.Background(), account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func (h *harness) held(t *testing.T, listing *RoyaltyListing, holder [20]byte) uint64 {
	t.Helper()
	held, err := h.engine.AssetBalance(context.Background(), listing.AssetID, holder)
	if err != nil {
		t.Fatalf("asset balance: %v", err)
	}
	return held
}

func defaultArgs() CreateListingArgs {
	return CreateListingArgs{
		AssetID:           [32]byte{0x42},
		MetadataURI:       "ipfs://terms",
		PercentageBps:     500,
		Price:             1_000_000,
		ResaleAllowed:     true,
		CreatorRoyaltyBps: 250,
	}
}

func (h *harness) createListing(t *testing.T, args CreateListingArgs) *RoyaltyListing {
	t.Helper()
	listing, err := h.engine.CreateListing(context.Background(), creator, args)
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return listing
}

// soldListing returns a listing bought by buyer on the primary market.
func (h *harness) soldListing(t *testing.T, args CreateListingArgs) *RoyaltyListing {
	t.Helper()
	listing := h.createListing(t, args)
	h.fund(t, buyer, args.Price)
	if _, err := h.engine.BuyListing(context.Background(), buyer, listing.Address); err != nil {
		t.Fatalf("buy listing: %v", err)
	}
	return listing
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine()
	engine.SetStore(newMockStore())

	if _, err := engine.Initialize(ctx, authority, treasury, 1_001); !errors.Is(err, ErrFeeTooHigh) {
		t.Fatalf("expected fee too high, got %v", err)
	}
	if _, err := engine.Initialize(ctx, [20]byte{}, treasury, 500); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected invalid address, got %v", err)
	}
	cfg, err := engine.Initialize(ctx, authority, treasury, 1_000)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if cfg.SecondaryFeeBps != DefaultSecondaryFeeBps || cfg.TotalFeesCollected != 0 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if _, err := engine.Initialize(ctx, authority, treasury, 100); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
	stored, err := engine.Config(ctx)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if stored.PlatformFeeBps != 1_000 {
		t.Fatalf("second initialize must not overwrite config, got %d", stored.PlatformFeeBps)
	}
}

func TestEngineWithoutStore(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.Config(context.Background()); !errors.Is(err, ErrNilState) {
		t.Fatalf("expected nil state error, got %v", err)
	}
}

func TestCreateListingValidation(t *testing.T) {
	h := newHarness(t, 500)
	long := make([]byte, MaxMetadataURILength+1)
	for i := range long {
		long[i] = 'a'
	}
	cases := []struct {
		name   string
		mutate func(*CreateListingArgs)
		want   error
	}{
		{"zero percentage", func(a *CreateListingArgs) { a.PercentageBps = 0 }, ErrInvalidPercentage},
		{"percentage above 100%", func(a *CreateListingArgs) { a.PercentageBps = 10_001 }, ErrInvalidPercentage},
		{"zero price", func(a *CreateListingArgs) { a.Price = 0 }, ErrInvalidPrice},
		{"empty uri", func(a *CreateListingArgs) { a.MetadataURI = "" }, ErrInvalidMetadataURI},
		{"long uri", func(a *CreateListingArgs) { a.MetadataURI = string(long) }, ErrInvalidMetadataURI},
		{"royalty above cap", func(a *CreateListingArgs) { a.CreatorRoyaltyBps = 1_001 }, ErrFeeTooHigh},
		{"percentage checked first", func(a *CreateListingArgs) { a.PercentageBps = 0; a.Price = 0 }, ErrInvalidPercentage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := defaultArgs()
			tc.mutate(&args)
			if _, err := h.engine.CreateListing(context.Background(), creator, args); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	listings, err := h.engine.Listings(context.Background())
	if err != nil {
		t.Fatalf("listings: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("rejected listings must not persist, found %d", len(listings))
	}
}

func TestCreateListingBoundaries(t *testing.T) {
	h := newHarness(t, 500)
	args := defaultArgs()
	args.PercentageBps = 10_000
	args.CreatorRoyaltyBps = 1_000
	uri := make([]byte, MaxMetadataURILength)
	for i := range uri {
		uri[i] = 'u'
	}
	args.MetadataURI = string(uri)
	listing := h.createListing(t, args)
	if listing.Status != ListingActive || listing.StartTimestamp != h.now {
		t.Fatalf("unexpected listing %+v", listing)
	}
	if listing.Address != ListingAddress(creator, args.AssetID) {
		t.Fatalf("listing address mismatch")
	}
	if _, err := h.engine.CreateListing(context.Background(), creator, args); !errors.Is(err, ErrListingExists) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}

func TestCreateListingMintsAssetID(t *testing.T) {
	h := newHarness(t, 500)
	args := defaultArgs()
	args.AssetID = [32]byte{}
	first := h.createListing(t, args)
	second := h.createListing(t, args)
	if isZeroAssetID(first.AssetID) || first.AssetID == second.AssetID {
		t.Fatalf("expected distinct minted asset ids")
	}
}

func TestCreateListingRequiresInitialize(t *testing.T) {
	engine := NewEngine()
	engine.SetStore(newMockStore())
	if _, err := engine.CreateListing(context.Background(), creator, defaultArgs()); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected not initialized, got %v", err)
	}
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.createListing(t, defaultArgs())
	h.fund(t, buyer, 1_000_000)

	sale, err := h.engine.BuyListing(ctx, buyer, listing.Address)
	if err != nil {
		t.Fatalf("buy listing: %v", err)
	}
	if sale.PlatformFee != 50_000 || sale.SellerAmount != 950_000 {
		t.Fatalf("unexpected primary split %+v", sale)
	}
	if got := h.balance(t, creator); got != 950_000 {
		t.Fatalf("creator balance %d", got)
	}
	if got := h.balance(t, treasury); got != 50_000 {
		t.Fatalf("treasury balance %d", got)
	}
	if got := h.balance(t, buyer); got != 0 {
		t.Fatalf("buyer balance %d", got)
	}
	if got := h.held(t, listing, buyer); got != 1 {
		t.Fatalf("buyer should hold one unit, holds %d", got)
	}
	stored, err := h.engine.Listing(ctx, listing.Address)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if stored.Status != ListingSold {
		t.Fatalf("expected sold, got %s", stored.Status)
	}

	if _, err := h.engine.ListForResale(ctx, buyer, listing.Address, 2_000_000); err != nil {
		t.Fatalf("list for resale: %v", err)
	}
	h.fund(t, collector, 2_000_000)
	resale, err := h.engine.BuyResale(ctx, collector, listing.Address, buyer)
	if err != nil {
		t.Fatalf("buy resale: %v", err)
	}
	if resale.PlatformFee != 50_000 || resale.CreatorRoyalty != 50_000 || resale.SellerAmount != 1_900_000 {
		t.Fatalf("unexpected resale split %+v", resale)
	}
	if got := h.balance(t, buyer); got != 1_900_000 {
		t.Fatalf("seller balance %d", got)
	}
	if got := h.balance(t, creator); got != 1_000_000 {
		t.Fatalf("creator balance %d", got)
	}
	if got := h.balance(t, treasury); got != 100_000 {
		t.Fatalf("treasury balance %d", got)
	}
	if got := h.held(t, listing, collector); got != 1 {
		t.Fatalf("collector should hold one unit, holds %d", got)
	}
	if got := h.held(t, listing, ResaleAddress(listing.Address, buyer)); got != 0 {
		t.Fatalf("escrow should be empty, holds %d", got)
	}
	if _, err := h.engine.Resale(ctx, listing.Address, buyer); !errors.Is(err, ErrResaleNotFound) {
		t.Fatalf("resale listing should be closed, got %v", err)
	}
	cfg, err := h.engine.Config(ctx)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.TotalFeesCollected != 100_000 {
		t.Fatalf("total fees %d", cfg.TotalFeesCollected)
	}
	sales, err := h.engine.ListSales(ctx, listing.Address)
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if len(sales) != 2 || sales[0].Kind != SalePrimary || sales[1].Kind != SaleSecondary {
		t.Fatalf("unexpected sales journal %+v", sales)
	}
}

func TestBuyListingInsufficientFundsRollsBack(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.createListing(t, defaultArgs())
	h.fund(t, buyer, 999_999)

	if _, err := h.engine.BuyListing(ctx, buyer, listing.Address); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := h.balance(t, buyer); got != 999_999 {
		t.Fatalf("buyer balance changed to %d", got)
	}
	if got := h.balance(t, creator); got != 0 {
		t.Fatalf("creator balance changed to %d", got)
	}
	stored, err := h.engine.Listing(ctx, listing.Address)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if stored.Status != ListingActive {
		t.Fatalf("listing status changed to %s", stored.Status)
	}
}

func TestOverflowAbortsAtomically(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.createListing(t, defaultArgs())
	h.fund(t, buyer, 1_000_000)

	h.store.mutate(func(d *mockData) { d.config.TotalFeesCollected = math.MaxUint64 - 1 })
	if _, err := h.engine.BuyListing(ctx, buyer, listing.Address); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow on primary sale, got %v", err)
	}
	if got := h.balance(t, buyer); got != 1_000_000 {
		t.Fatalf("buyer balance changed to %d", got)
	}
	if got := h.balance(t, creator) + h.balance(t, treasury); got != 0 {
		t.Fatalf("proceeds credited despite overflow: %d", got)
	}
	if got := h.held(t, listing, buyer); got != 0 {
		t.Fatalf("buyer holds %d units after failed sale", got)
	}
	stored, err := h.engine.Listing(ctx, listing.Address)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if stored.Status != ListingActive {
		t.Fatalf("listing status changed to %s", stored.Status)
	}
	if sales, err := h.engine.ListSales(ctx, listing.Address); err != nil || len(sales) != 0 {
		t.Fatalf("sales journal after failed sale: %v %+v", err, sales)
	}

	h.store.mutate(func(d *mockData) { d.config.TotalFeesCollected = 0 })
	if _, err := h.engine.BuyListing(ctx, buyer, listing.Address); err != nil {
		t.Fatalf("buy listing: %v", err)
	}
	if _, err := h.engine.ListForResale(ctx, buyer, listing.Address, 2_000_000); err != nil {
		t.Fatalf("list for resale: %v", err)
	}
	h.fund(t, collector, 2_000_000)
	escrow := ResaleAddress(listing.Address, buyer)
	creatorBefore, treasuryBefore := h.balance(t, creator), h.balance(t, treasury)

	h.store.mutate(func(d *mockData) { d.config.TotalFeesCollected = math.MaxUint64 })
	if _, err := h.engine.BuyResale(ctx, collector, listing.Address, buyer); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow on resale, got %v", err)
	}
	if got := h.balance(t, collector); got != 2_000_000 {
		t.Fatalf("collector balance changed to %d", got)
	}
	if got := h.balance(t, buyer); got != 0 {
		t.Fatalf("seller credited %d despite overflow", got)
	}
	if h.balance(t, creator) != creatorBefore || h.balance(t, treasury) != treasuryBefore {
		t.Fatalf("royalty or fee credited despite overflow")
	}
	if got := h.held(t, listing, escrow); got != 1 {
		t.Fatalf("escrow should still hold one unit, holds %d", got)
	}
	if _, err := h.engine.Resale(ctx, listing.Address, buyer); err != nil {
		t.Fatalf("resale listing should remain open: %v", err)
	}

	poolAddr := PoolAddress(listing.Address)
	if _, err := h.engine.DepositPayout(ctx, creator, listing.Address, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	creatorBefore = h.balance(t, creator)
	h.store.mutate(func(d *mockData) { d.pools[poolAddr].TotalDeposited = math.MaxUint64 - 5 })
	if _, err := h.engine.DepositPayout(ctx, creator, listing.Address, 10); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow on deposit, got %v", err)
	}
	if got := h.balance(t, creator); got != creatorBefore {
		t.Fatalf("creator balance changed from %d to %d", creatorBefore, got)
	}
	if got := h.balance(t, poolAddr); got != 100 {
		t.Fatalf("vault balance changed to %d", got)
	}
}

func TestRecordAddressesCannotParticipate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.soldListing(t, defaultArgs())
	if _, err := h.engine.DepositPayout(ctx, creator, listing.Address, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.engine.ListForResale(ctx, buyer, listing.Address, 2_000_000); err != nil {
		t.Fatalf("list for resale: %v", err)
	}
	poolAddr := PoolAddress(listing.Address)
	escrow := ResaleAddress(listing.Address, buyer)

	records := []struct {
		name string
		addr [20]byte
	}{
		{name: "config", addr: PlatformConfigAddress()},
		{name: "listing", addr: listing.Address},
		{name: "resale", addr: escrow},
		{name: "pool", addr: poolAddr},
	}
	for _, tc := range records {
		record, err := h.engine.IsRecordAddress(ctx, tc.addr)
		if err != nil || !record {
			t.Fatalf("%s: expected record address, got %v %v", tc.name, record, err)
		}
		if _, err := h.engine.Fund(ctx, tc.addr, 10); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("%s: expected fund to be refused, got %v", tc.name, err)
		}
		if _, err := h.engine.BuyResale(ctx, tc.addr, listing.Address, buyer); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: expected buy resale to be refused, got %v", tc.name, err)
		}
		args := defaultArgs()
		args.AssetID = [32]byte{0x43}
		if _, err := h.engine.CreateListing(ctx, tc.addr, args); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: expected create listing to be refused, got %v", tc.name, err)
		}
	}
	if record, err := h.engine.IsRecordAddress(ctx, collector); err != nil || record {
		t.Fatalf("participant reported as record: %v %v", record, err)
	}
	if got := h.balance(t, poolAddr); got != 100 {
		t.Fatalf("vault balance changed to %d", got)
	}
	if got := h.held(t, listing, escrow); got != 1 {
		t.Fatalf("escrow should still hold one unit, holds %d", got)
	}
}

func TestBuyListingRequiresActive(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.soldListing(t, defaultArgs())
	h.fund(t, collector, 1_000_000)
	if _, err := h.engine.BuyListing(ctx, collector, listing.Address); !errors.Is(err, ErrListingNotActive) {
		t.Fatalf("expected listing not active, got %v", err)
	}
	if _, err := h.engine.BuyListing(ctx, collector, [20]byte{0xEE}); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected listing not found, got %v", err)
	}
}

func TestConcurrentBuyersSingleSale(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.createListing(t, defaultArgs())

	const buyers = 8
	accounts := make([][20]byte, buyers)
	for i := range accounts {
		accounts[i] = [20]byte{0xD0, byte(i)}
		h.fund(t, accounts[i], 1_000_000)
	}

	var wg sync.WaitGroup
	results := make([]error, buyers)
	for i := range accounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = h.engine.BuyListing(ctx, accounts[i], listing.Address)
		}(i)
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		switch {
		case err == nil:
			winners++
			if got := h.held(t, listing, accounts[i]); got != 1 {
				t.Fatalf("winner should hold one unit, holds %d", got)
			}
		case errors.Is(err, ErrListingNotActive):
			if got := h.balance(t, accounts[i]); got != 1_000_000 {
				t.Fatalf("loser %d was charged, balance %d", i, got)
			}
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
	if got := h.balance(t, treasury); got != 50_000 {
		t.Fatalf("treasury collected %d", got)
	}
}

func TestCancelListing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.createListing(t, defaultArgs())

	if _, err := h.engine.CancelListing(ctx, buyer, listing.Address); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	cancelled, err := h.engine.CancelListing(ctx, creator, listing.Address)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != ListingCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}
	h.fund(t, buyer, 1_000_000)
	if _, err := h.engine.BuyListing(ctx, buyer, listing.Address); !errors.Is(err, ErrListingNotActive) {
		t.Fatalf("expected listing not active, got %v", err)
	}
	if _, err := h.engine.CancelListing(ctx, creator, listing.Address); !errors.Is(err, ErrListingNotActive) {
		t.Fatalf("status transitions must be monotonic, got %v", err)
	}
}

func TestExpireListing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	args := defaultArgs()
	args.DurationSeconds = 3_600
	listing := h.createListing(t, args)

	if _, err := h.engine.ExpireListing(ctx, listing.Address); !errors.Is(err, ErrListingNotExpired) {
		t.Fatalf("expected not expired, got %v", err)
	}
	h.now += 3_600
	h.fund(t, buyer, 1_000_000)
	if _, err := h.engine.BuyListing(ctx, buyer, listing.Address); !errors.Is(err, ErrListingExpired) {
		t.Fatalf("expected listing expired, got %v", err)
	}
	expired, err := h.engine.ExpireListing(ctx, listing.Address)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if expired.Status != ListingExpired {
		t.Fatalf("expected expired, got %s", expired.Status)
	}

	perpetual := defaultArgs()
	perpetual.AssetID = [32]byte{0x43}
	open := h.createListing(t, perpetual)
	h.now += 1_000_000
	if _, err := h.engine.ExpireListing(ctx, open.Address); !errors.Is(err, ErrListingNotExpired) {
		t.Fatalf("perpetual listing must not expire, got %v", err)
	}
}

func TestEscrowAtomicity(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.soldListing(t, defaultArgs())
	escrow := ResaleAddress(listing.Address, buyer)

	resale, err := h.engine.ListForResale(ctx, buyer, listing.Address, 2_000_000)
	if err != nil {
		t.Fatalf("list for resale: %v", err)
	}
	if resale.Address != escrow {
		t.Fatalf("resale address mismatch")
	}
	if got := h.held(t, listing, buyer); got != 0 {
		t.Fatalf("seller should hold nothing while listed, holds %d", got)
	}
	if got := h.held(t, listing, escrow); got != 1 {
		t.Fatalf("escrow should hold one unit, holds %d", got)
	}

	if _, err := h.engine.CancelResale(ctx, creator, listing.Address, buyer); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := h.held(t, listing, escrow); got != 1 {
		t.Fatalf("failed cancel must leave escrow intact, holds %d", got)
	}

	if _, err := h.engine.CancelResale(ctx, buyer, listing.Address, buyer); err != nil {
		t.Fatalf("cancel resale: %v", err)
	}
	if got := h.held(t, listing, buyer); got != 1 {
		t.Fatalf("seller should hold the unit again, holds %d", got)
	}
	if got := h.held(t, listing, escrow); got != 0 {
		t.Fatalf("escrow should be empty, holds %d", got)
	}
	if _, err := h.engine.Resale(ctx, listing.Address, buyer); !errors.Is(err, ErrResaleNotFound) {
		t.Fatalf("resale listing should be gone, got %v", err)
	}
	if _, err := h.engine.CancelResale(ctx, buyer, listing.Address, buyer); !errors.Is(err, ErrResaleNotFound) {
		t.Fatalf("expected resale not found, got %v", err)
	}
}

func TestListForResalePreconditions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)

	active := h.createListing(t, defaultArgs())
	if _, err := h.engine.ListForResale(ctx, creator, active.Address, 10); !errors.Is(err, ErrListingNotActive) {
		t.Fatalf("expected listing not active, got %v", err)
	}

	locked := defaultArgs()
	locked.AssetID = [32]byte{0x50}
	locked.ResaleAllowed = false
	lockedListing := h.soldListing(t, locked)
	if _, err := h.engine.ListForResale(ctx, buyer, lockedListing.Address, 10); !errors.Is(err, ErrResaleNotAllowed) {
		t.Fatalf("expected resale not allowed, got %v", err)
	}

	open := defaultArgs()
	open.AssetID = [32]byte{0x51}
	openListing := h.soldListing(t, open)
	if _, err := h.engine.ListForResale(ctx, buyer, openListing.Address, 0); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected invalid price, got %v", err)
	}
	if _, err := h.engine.ListForResale(ctx, collector, openListing.Address, 10); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := h.engine.ListForResale(ctx, buyer, openListing.Address, 10); err != nil {
		t.Fatalf("list for resale: %v", err)
	}
	if _, err := h.engine.ListForResale(ctx, buyer, openListing.Address, 10); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("unit is in escrow, expected not owner, got %v", err)
	}
}

func TestBuyResaleWithoutRoyaltySkipsCreator(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 0)
	args := defaultArgs()
	args.CreatorRoyaltyBps = 0
	listing := h.soldListing(t, args)
	creatorBefore := h.balance(t, creator)

	if _, err := h.engine.ListForResale(ctx, buyer, listing.Address, 1_000); err != nil {
		t.Fatalf("list: %v", err)
	}
	h.fund(t, collector, 1_000)
	sale, err := h.engine.BuyResale(ctx, collector, listing.Address, buyer)
	if err != nil {
		t.Fatalf("buy resale: %v", err)
	}
	if sale.CreatorRoyalty != 0 || sale.PlatformFee != 25 || sale.SellerAmount != 975 {
		t.Fatalf("unexpected split %+v", sale)
	}
	if got := h.balance(t, creator); got != creatorBefore {
		t.Fatalf("creator balance moved from %d to %d", creatorBefore, got)
	}
}

func TestBuyResaleFailures(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.soldListing(t, defaultArgs())

	if _, err := h.engine.BuyResale(ctx, collector, listing.Address, buyer); !errors.Is(err, ErrResaleNotFound) {
		t.Fatalf("expected resale not found, got %v", err)
	}
	if _, err := h.engine.ListForResale(ctx, buyer, listing.Address, 2_000_000); err != nil {
		t.Fatalf("list: %v", err)
	}
	h.fund(t, collector, 1_999_999)
	if _, err := h.engine.BuyResale(ctx, collector, listing.Address, buyer); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := h.held(t, listing, ResaleAddress(listing.Address, buyer)); got != 1 {
		t.Fatalf("failed purchase must leave escrow intact, holds %d", got)
	}
	if got := h.balance(t, collector); got != 1_999_999 {
		t.Fatalf("failed purchase moved funds, balance %d", got)
	}
}

func TestPayoutPeriodRollover(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.soldListing(t, defaultArgs())

	pool, err := h.engine.DepositPayout(ctx, creator, listing.Address, 100)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if pool.Period != 1 || pool.TotalDeposited != 100 || pool.TotalClaimed != 0 {
		t.Fatalf("unexpected first period %+v", pool)
	}
	claim, err := h.engine.ClaimPayout(ctx, buyer, listing.Address)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.AmountClaimed != 100 || claim.Period != 1 {
		t.Fatalf("unexpected claim %+v", claim)
	}
	pool, err = h.engine.Pool(ctx, listing.Address)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	if pool.TotalDeposited != 100 || pool.TotalClaimed != 100 {
		t.Fatalf("unexpected drained pool %+v", pool)
	}

	pool, err = h.engine.DepositPayout(ctx, creator, listing.Address, 50)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if pool.Period != 2 || pool.TotalDeposited != 50 || pool.TotalClaimed != 0 {
		t.Fatalf("expected rollover to period 2 with 50/0, got %+v", pool)
	}

	pool, err = h.engine.DepositPayout(ctx, creator, listing.Address, 25)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if pool.Period != 2 || pool.TotalDeposited != 75 {
		t.Fatalf("partial period must accumulate, got %+v", pool)
	}
	claim, err = h.engine.ClaimPayout(ctx, buyer, listing.Address)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claim.AmountClaimed != 75 || claim.Period != 2 {
		t.Fatalf("unexpected claim %+v", claim)
	}
	claims, err := h.engine.ListClaims(ctx, listing.Address)
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("expected two claims, got %d", len(claims))
	}
}

func TestClaimUniqueness(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.soldListing(t, defaultArgs())
	poolAddr := PoolAddress(listing.Address)

	if _, err := h.engine.DepositPayout(ctx, creator, listing.Address, 100); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := h.engine.ClaimPayout(ctx, buyer, listing.Address); err != nil {
		t.Fatalf("claim: %v", err)
	}
	h.store.mutate(func(d *mockData) {
		d.pools[poolAddr].TotalDeposited += 100
		d.balances[poolAddr] += 100
	})

	if _, err := h.engine.ClaimPayout(ctx, buyer, listing.Address); !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
	if got := h.balance(t, poolAddr); got != 100 {
		t.Fatalf("vault balance changed to %d", got)
	}
}

func TestPayoutPreconditions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	active := h.createListing(t, defaultArgs())

	if _, err := h.engine.DepositPayout(ctx, creator, active.Address, 0); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected invalid price, got %v", err)
	}
	if _, err := h.engine.DepositPayout(ctx, creator, active.Address, 10); !errors.Is(err, ErrListingNotActive) {
		t.Fatalf("expected listing not active, got %v", err)
	}

	args := defaultArgs()
	args.AssetID = [32]byte{0x60}
	listing := h.soldListing(t, args)
	if _, err := h.engine.DepositPayout(ctx, buyer, listing.Address, 10); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := h.engine.ClaimPayout(ctx, buyer, listing.Address); !errors.Is(err, ErrPayoutPoolEmpty) {
		t.Fatalf("expected empty pool, got %v", err)
	}
	if _, err := h.engine.ClaimPayout(ctx, collector, listing.Address); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	creatorBalance := h.balance(t, creator)
	if _, err := h.engine.DepositPayout(ctx, creator, listing.Address, creatorBalance+1); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if _, err := h.engine.Pool(ctx, listing.Address); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("failed deposit must not create a pool, got %v", err)
	}
}

func TestEventsEmittedAfterCommit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	listing := h.createListing(t, defaultArgs())

	before := len(h.emitter.types())
	if _, err := h.engine.BuyListing(ctx, buyer, listing.Address); err == nil {
		t.Fatalf("expected unfunded purchase to fail")
	}
	if got := len(h.emitter.types()); got != before {
		t.Fatalf("failed operation emitted %d events", got-before)
	}

	h.fund(t, buyer, 1_000_000)
	if _, err := h.engine.BuyListing(ctx, buyer, listing.Address); err != nil {
		t.Fatalf("buy: %v", err)
	}
	types := h.emitter.types()
	if types[len(types)-1] != EventTypeListingSold {
		t.Fatalf("expected sold event last, got %v", types)
	}
	h.emitter.mu.Lock()
	record, ok := h.emitter.events[len(h.emitter.events)-1].(*events.Record)
	h.emitter.mu.Unlock()
	if !ok {
		t.Fatalf("expected event record")
	}
	if record.Summary != "Purchase complete: 1.000000 USDC (fee: 0.050000 USDC)" {
		t.Fatalf("unexpected summary %q", record.Summary)
	}
	if record.Attributes["platformFee"] != "50000" {
		t.Fatalf("unexpected attributes %v", record.Attributes)
	}
}

func TestMetricsRecorded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, 500)
	metrics := &recordingMetrics{outcomes: make(map[string]int), payouts: make(map[string]uint64)}
	h.engine.SetMetrics(metrics)

	listing := h.soldListing(t, defaultArgs())
	if _, err := h.engine.ClaimPayout(ctx, buyer, listing.Address); err == nil {
		t.Fatalf("expected empty pool")
	}
	if _, err := h.engine.DepositPayout(ctx, creator, listing.Address, 40); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if metrics.outcomes["buy_listing:ok"] != 1 {
		t.Fatalf("missing buy outcome %v", metrics.outcomes)
	}
	if metrics.outcomes["claim_payout:PayoutPoolEmpty"] != 1 {
		t.Fatalf("missing rejected claim outcome %v", metrics.outcomes)
	}
	if metrics.sales != 1 || metrics.payouts[payoutDeposit] != 40 {
		t.Fatalf("unexpected sale/payout metrics %d %v", metrics.sales, metrics.payouts)
	}
}

func TestErrorCodes(t *testing.T) {
	if Code(ErrAlreadyClaimed) != "AlreadyClaimed" {
		t.Fatalf("unexpected code %q", Code(ErrAlreadyClaimed))
	}
	wrapped := errors.Join(errors.New("context"), ErrInvalidMetadataURI)
	if Code(wrapped) != "InvalidMetadataUri" {
		t.Fatalf("code must survive wrapping, got %q", Code(wrapped))
	}
	if Code(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}
