// Package storetest holds the conformance suite every royalty.Store backend
// must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"royaltyhub/native/royalty"
)

// Factory opens an empty store for one test.
type Factory func(t *testing.T) royalty.Store

var (
	authority = [20]byte{0xA1}
	treasury  = [20]byte{0xA2}
	creator   = [20]byte{0xC1}
	holder    = [20]byte{0xB1}
	asset     = [32]byte{0x42}
)

var errAbort = errors.New("storetest: abort")

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Run("RecordsRoundTrip", func(t *testing.T) { testRecordsRoundTrip(t, open(t)) })
	t.Run("DuplicateInserts", func(t *testing.T) { testDuplicateInserts(t, open(t)) })
	t.Run("FailedUpdateRollsBack", func(t *testing.T) { testRollback(t, open(t)) })
	t.Run("ViewIsReadOnly", func(t *testing.T) { testViewReadOnly(t, open(t)) })
	t.Run("ResaleDelete", func(t *testing.T) { testResaleDelete(t, open(t)) })
	t.Run("JournalFilters", func(t *testing.T) { testJournalFilters(t, open(t)) })
	t.Run("EngineScenario", func(t *testing.T) { testEngineScenario(t, open(t)) })
	t.Run("ConcurrentBuyers", func(t *testing.T) { testConcurrentBuyers(t, open(t)) })
}

func sampleListing() *royalty.RoyaltyListing {
	return &royalty.RoyaltyListing{
		Address:           royalty.ListingAddress(creator, asset),
		Creator:           creator,
		AssetID:           asset,
		MetadataURI:       "ipfs://terms",
		PercentageBps:     500,
		DurationSeconds:   86_400,
		StartTimestamp:    1_700_000_000,
		Price:             18_000_000_000_000_000_000,
		ResaleAllowed:     true,
		CreatorRoyaltyBps: 250,
		Status:            royalty.ListingSold,
	}
}

func testRecordsRoundTrip(t *testing.T, store royalty.Store) {
	ctx := context.Background()
	cfg := &royalty.PlatformConfig{Authority: authority, Treasury: treasury, PlatformFeeBps: 500, SecondaryFeeBps: 250, TotalFeesCollected: 7}
	listing := sampleListing()
	resale := &royalty.ResaleListing{
		Address:        royalty.ResaleAddress(listing.Address, holder),
		Seller:         holder,
		RoyaltyListing: listing.Address,
		AssetID:        asset,
		Price:          2_000_000,
		ListedAt:       1_700_000_100,
	}
	pool := &royalty.PayoutPool{
		Address:        royalty.PoolAddress(listing.Address),
		RoyaltyListing: listing.Address,
		Creator:        creator,
		TotalDeposited: 100,
		TotalClaimed:   40,
		DepositedAt:    1_700_000_200,
		Period:         3,
	}
	claim := &royalty.PayoutClaim{
		Address:       royalty.ClaimAddress(pool.Address, holder, 3),
		PayoutPool:    pool.Address,
		Holder:        holder,
		Period:        3,
		AmountClaimed: 40,
		ClaimedAt:     1_700_000_300,
	}
	sale := &royalty.Sale{
		ID:             "8d9e2f1c-0000-4000-8000-000000000001",
		Kind:           royalty.SalePrimary,
		RoyaltyListing: listing.Address,
		AssetID:        asset,
		Seller:         creator,
		Buyer:          holder,
		Price:          1_000_000,
		PlatformFee:    50_000,
		SellerAmount:   950_000,
		SoldAt:         1_700_000_050,
	}

	require.NoError(t, store.Update(ctx, func(st royalty.State) error {
		require.NoError(t, st.PlatformConfigInsert(cfg))
		require.NoError(t, st.ListingInsert(listing))
		require.NoError(t, st.ResaleInsert(resale))
		require.NoError(t, st.PoolPut(pool))
		require.NoError(t, st.ClaimInsert(claim))
		require.NoError(t, st.SaleInsert(sale))
		require.NoError(t, st.BalancePut(holder, 18_446_744_073_709_551_615))
		require.NoError(t, st.AssetInsert(&royalty.AssetDefinition{AssetID: asset, Authority: listing.Address}))
		require.NoError(t, st.HoldingPut(asset, holder, 1))
		return nil
	}))

	require.NoError(t, store.View(ctx, func(st royalty.State) error {
		gotCfg, ok, err := st.PlatformConfigGet()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, cfg, gotCfg)

		gotListing, ok, err := st.ListingGet(listing.Address)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, listing, gotListing)

		gotResale, ok, err := st.ResaleGet(resale.Address)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, resale, gotResale)

		gotPool, ok, err := st.PoolGet(pool.Address)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, pool, gotPool)

		gotClaim, ok, err := st.ClaimGet(claim.Address)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, claim, gotClaim)

		sales, err := st.Sales(listing.Address)
		require.NoError(t, err)
		require.Equal(t, []*royalty.Sale{sale}, sales)

		balance, err := st.BalanceGet(holder)
		require.NoError(t, err)
		require.Equal(t, uint64(18_446_744_073_709_551_615), balance)

		def, ok, err := st.AssetGet(asset)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, listing.Address, def.Authority)

		held, err := st.HoldingGet(asset, holder)
		require.NoError(t, err)
		require.Equal(t, uint64(1), held)

		missing, err := st.BalanceGet([20]byte{0xFF})
		require.NoError(t, err)
		require.Zero(t, missing)

		_, ok, err = st.ListingGet([20]byte{0xFF})
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func testDuplicateInserts(t *testing.T, store royalty.Store) {
	ctx := context.Background()
	listing := sampleListing()
	require.NoError(t, store.Update(ctx, func(st royalty.State) error {
		return st.ListingInsert(listing)
	}))
	err := store.Update(ctx, func(st royalty.State) error {
		return st.ListingInsert(listing)
	})
	require.ErrorIs(t, err, royalty.ErrRecordExists)

	claim := &royalty.PayoutClaim{Address: [20]byte{0x01}, PayoutPool: [20]byte{0x02}, Holder: holder, Period: 1, AmountClaimed: 5}
	require.NoError(t, store.Update(ctx, func(st royalty.State) error { return st.ClaimInsert(claim) }))
	err = store.Update(ctx, func(st royalty.State) error { return st.ClaimInsert(claim) })
	require.ErrorIs(t, err, royalty.ErrRecordExists)

	cfg := &royalty.PlatformConfig{Authority: authority, Treasury: treasury}
	require.NoError(t, store.Update(ctx, func(st royalty.State) error { return st.PlatformConfigInsert(cfg) }))
	err = store.Update(ctx, func(st royalty.State) error { return st.PlatformConfigInsert(cfg) })
	require.ErrorIs(t, err, royalty.ErrRecordExists)
}

func testRollback(t *testing.T, store royalty.Store) {
	ctx := context.Background()
	err := store.Update(ctx, func(st royalty.State) error {
		require.NoError(t, st.BalancePut(holder, 500))
		require.NoError(t, st.ListingInsert(sampleListing()))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	require.NoError(t, store.View(ctx, func(st royalty.State) error {
		balance, err := st.BalanceGet(holder)
		require.NoError(t, err)
		require.Zero(t, balance)
		listings, err := st.Listings()
		require.NoError(t, err)
		require.Empty(t, listings)
		return nil
	}))
}

func testViewReadOnly(t *testing.T, store royalty.Store) {
	err := store.View(context.Background(), func(st royalty.State) error {
		return st.BalancePut(holder, 1)
	})
	require.Error(t, err)
}

func testResaleDelete(t *testing.T, store royalty.Store) {
	ctx := context.Background()
	resale := &royalty.ResaleListing{Address: [20]byte{0x0E}, Seller: holder, RoyaltyListing: [20]byte{0x0F}, AssetID: asset, Price: 9}
	require.NoError(t, store.Update(ctx, func(st royalty.State) error { return st.ResaleInsert(resale) }))
	require.NoError(t, store.Update(ctx, func(st royalty.State) error {
		open, err := st.Resales(resale.RoyaltyListing)
		require.NoError(t, err)
		require.Len(t, open, 1)
		return st.ResaleDelete(resale.Address)
	}))
	err := store.Update(ctx, func(st royalty.State) error { return st.ResaleDelete(resale.Address) })
	require.ErrorIs(t, err, royalty.ErrConflict)
	require.NoError(t, store.View(ctx, func(st royalty.State) error {
		_, ok, err := st.ResaleGet(resale.Address)
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	}))
}

func testJournalFilters(t *testing.T, store royalty.Store) {
	ctx := context.Background()
	listingA := [20]byte{0x0A}
	listingB := [20]byte{0x0B}
	poolA := royalty.PoolAddress(listingA)
	poolB := royalty.PoolAddress(listingB)
	require.NoError(t, store.Update(ctx, func(st royalty.State) error {
		for i, listing := range [][20]byte{listingA, listingB, listingA} {
			sale := &royalty.Sale{ID: string(rune('a' + i)), Kind: royalty.SaleSecondary, RoyaltyListing: listing, Price: uint64(i + 1), SoldAt: int64(i)}
			if err := st.SaleInsert(sale); err != nil {
				return err
			}
		}
		for i, pool := range [][20]byte{poolA, poolB} {
			claim := &royalty.PayoutClaim{
				Address:       royalty.ClaimAddress(pool, holder, 1),
				PayoutPool:    pool,
				Holder:        holder,
				Period:        1,
				AmountClaimed: 10,
				ClaimedAt:     int64(100 - i),
			}
			if err := st.ClaimInsert(claim); err != nil {
				return err
			}
		}
		return nil
	}))
	require.NoError(t, store.View(ctx, func(st royalty.State) error {
		all, err := st.Sales([20]byte{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		require.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

		onlyA, err := st.Sales(listingA)
		require.NoError(t, err)
		require.Len(t, onlyA, 2)

		claims, err := st.Claims([20]byte{})
		require.NoError(t, err)
		require.Len(t, claims, 2)
		require.Equal(t, poolB, claims[0].PayoutPool)

		claimsA, err := st.Claims(poolA)
		require.NoError(t, err)
		require.Len(t, claimsA, 1)
		return nil
	}))
}

func newEngine(t *testing.T, store royalty.Store) *royalty.Engine {
	t.Helper()
	engine := royalty.NewEngine()
	engine.SetStore(store)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	_, err := engine.Initialize(context.Background(), authority, treasury, 500)
	require.NoError(t, err)
	return engine
}

func testEngineScenario(t *testing.T, store royalty.Store) {
	ctx := context.Background()
	engine := newEngine(t, store)
	collector := [20]byte{0xB2}

	listing, err := engine.CreateListing(ctx, creator, royalty.CreateListingArgs{
		AssetID:           asset,
		MetadataURI:       "ipfs://terms",
		PercentageBps:     500,
		Price:             1_000_000,
		ResaleAllowed:     true,
		CreatorRoyaltyBps: 250,
	})
	require.NoError(t, err)

	_, err = engine.Fund(ctx, holder, 1_000_000)
	require.NoError(t, err)
	_, err = engine.BuyListing(ctx, holder, listing.Address)
	require.NoError(t, err)

	_, err = engine.ListForResale(ctx, holder, listing.Address, 2_000_000)
	require.NoError(t, err)
	_, err = engine.Fund(ctx, collector, 2_000_000)
	require.NoError(t, err)
	sale, err := engine.BuyResale(ctx, collector, listing.Address, holder)
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), sale.PlatformFee)
	require.Equal(t, uint64(50_000), sale.CreatorRoyalty)
	require.Equal(t, uint64(1_900_000), sale.SellerAmount)

	balances := map[[20]byte]uint64{holder: 1_900_000, creator: 1_000_000, treasury: 100_000, collector: 0}
	for account, want := range balances {
		got, err := engine.Balance(ctx, account)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err = engine.DepositPayout(ctx, creator, listing.Address, 100)
	require.NoError(t, err)
	claim, err := engine.ClaimPayout(ctx, collector, listing.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(100), claim.AmountClaimed)
	_, err = engine.ClaimPayout(ctx, collector, listing.Address)
	require.ErrorIs(t, err, royalty.ErrAlreadyClaimed)

	pool, err := engine.DepositPayout(ctx, creator, listing.Address, 50)
	require.NoError(t, err)
	require.Equal(t, uint64(2), pool.Period)
	require.Equal(t, uint64(50), pool.TotalDeposited)
	require.Zero(t, pool.TotalClaimed)

	cfg, err := engine.Config(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(100_000), cfg.TotalFeesCollected)

	sales, err := engine.ListSales(ctx, listing.Address)
	require.NoError(t, err)
	require.Len(t, sales, 2)
}

func testConcurrentBuyers(t *testing.T, store royalty.Store) {
	ctx := context.Background()
	engine := newEngine(t, store)
	listing, err := engine.CreateListing(ctx, creator, royalty.CreateListingArgs{
		AssetID:       asset,
		MetadataURI:   "ipfs://terms",
		PercentageBps: 500,
		Price:         1_000,
	})
	require.NoError(t, err)

	const buyers = 6
	accounts := make([][20]byte, buyers)
	for i := range accounts {
		accounts[i] = [20]byte{0xD0, byte(i)}
		_, err := engine.Fund(ctx, accounts[i], 1_000)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := range accounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.BuyListing(ctx, accounts[i], listing.Address)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if !errors.Is(err, royalty.ErrListingNotActive) && !errors.Is(err, royalty.ErrConflict) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	require.Equal(t, 1, winners)

	fees, err := engine.Balance(ctx, treasury)
	require.NoError(t, err)
	require.Equal(t, uint64(50), fees)
}
