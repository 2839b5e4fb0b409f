package royalty

import "context"

// Config returns the platform configuration.
func (e *Engine) Config(ctx context.Context) (*PlatformConfig, error) {
	var out *PlatformConfig
	err := e.view(ctx, func(tx *txn) error {
		cfg, err := tx.config()
		out = cfg
		return err
	})
	return out, err
}

// IsRecordAddress reports whether addr belongs to the platform config, a
// listing, a resale, a payout pool or a claim rather than a participant.
func (e *Engine) IsRecordAddress(ctx context.Context, addr [20]byte) (bool, error) {
	var out bool
	err := e.view(ctx, func(tx *txn) error {
		record, err := tx.isRecord(addr)
		out = record
		return err
	})
	return out, err
}

// Listing returns the listing stored at addr.
func (e *Engine) Listing(ctx context.Context, addr [20]byte) (*RoyaltyListing, error) {
	var out *RoyaltyListing
	err := e.view(ctx, func(tx *txn) error {
		listing, err := tx.listing(addr)
		out = listing
		return err
	})
	return out, err
}

// Listings returns every listing ordered by address.
func (e *Engine) Listings(ctx context.Context) ([]*RoyaltyListing, error) {
	var out []*RoyaltyListing
	err := e.view(ctx, func(tx *txn) error {
		listings, err := tx.Listings()
		out = listings
		return err
	})
	return out, err
}

// Resale returns the open resale offer of seller on listing.
func (e *Engine) Resale(ctx context.Context, listingAddr [20]byte, seller [20]byte) (*ResaleListing, error) {
	var out *ResaleListing
	err := e.view(ctx, func(tx *txn) error {
		resale, ok, err := tx.ResaleGet(ResaleAddress(listingAddr, seller))
		if err != nil {
			return err
		}
		if !ok {
			return ErrResaleNotFound
		}
		out = resale
		return nil
	})
	return out, err
}

// Resales returns every open resale offer on listing.
func (e *Engine) Resales(ctx context.Context, listingAddr [20]byte) ([]*ResaleListing, error) {
	var out []*ResaleListing
	err := e.view(ctx, func(tx *txn) error {
		resales, err := tx.Resales(listingAddr)
		out = resales
		return err
	})
	return out, err
}

// Pool returns the payout pool of listing.
func (e *Engine) Pool(ctx context.Context, listingAddr [20]byte) (*PayoutPool, error) {
	var out *PayoutPool
	err := e.view(ctx, func(tx *txn) error {
		pool, ok, err := tx.PoolGet(PoolAddress(listingAddr))
		if err != nil {
			return err
		}
		if !ok {
			return ErrPoolNotFound
		}
		out = pool
		return nil
	})
	return out, err
}

// Claim returns the claim a holder made against listing's pool in period.
func (e *Engine) Claim(ctx context.Context, listingAddr [20]byte, holder [20]byte, period uint64) (*PayoutClaim, error) {
	var out *PayoutClaim
	err := e.view(ctx, func(tx *txn) error {
		claim, ok, err := tx.ClaimGet(ClaimAddress(PoolAddress(listingAddr), holder, period))
		if err != nil {
			return err
		}
		if !ok {
			return ErrClaimNotFound
		}
		out = claim
		return nil
	})
	return out, err
}

// ListClaims returns the claims recorded against listing's pool. A zero
// listing address returns every claim.
func (e *Engine) ListClaims(ctx context.Context, listingAddr [20]byte) ([]*PayoutClaim, error) {
	var pool [20]byte
	if !isZeroAddress(listingAddr) {
		pool = PoolAddress(listingAddr)
	}
	var out []*PayoutClaim
	err := e.view(ctx, func(tx *txn) error {
		claims, err := tx.Claims(pool)
		out = claims
		return err
	})
	return out, err
}

// ListSales returns the sales journal for listing. A zero listing address
// returns every sale.
func (e *Engine) ListSales(ctx context.Context, listingAddr [20]byte) ([]*Sale, error) {
	var out []*Sale
	err := e.view(ctx, func(tx *txn) error {
		sales, err := tx.Sales(listingAddr)
		out = sales
		return err
	})
	return out, err
}

// Balance returns the settlement balance of account.
func (e *Engine) Balance(ctx context.Context, account [20]byte) (uint64, error) {
	var out uint64
	err := e.view(ctx, func(tx *txn) error {
		balance, err := tx.ledger.Balance(account)
		out = balance
		return err
	})
	return out, err
}

// AssetBalance returns how many units of assetID holder owns.
func (e *Engine) AssetBalance(ctx context.Context, assetID [32]byte, holder [20]byte) (uint64, error) {
	var out uint64
	err := e.view(ctx, func(tx *txn) error {
		held, err := tx.assets.Balance(assetID, holder)
		out = held
		return err
	})
	return out, err
}
