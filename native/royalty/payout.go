package royalty

import (
	"context"
	"errors"
	"fmt"
)

const (
	payoutDeposit = "deposit"
	payoutClaim   = "claim"
)

// DepositPayout moves creator revenue into the listing's payout pool. A
// deposit that arrives while the current period is fully claimed opens the
// next period.
func (e *Engine) DepositPayout(ctx context.Context, creator [20]byte, listingAddr [20]byte, amount uint64) (*PayoutPool, error) {
	if amount == 0 {
		return nil, ErrInvalidPrice
	}
	now := e.now()
	var out *PayoutPool
	err := e.execute(ctx, "deposit_payout", func(tx *txn) error {
		listing, err := tx.listing(listingAddr)
		if err != nil {
			return err
		}
		if listing.Creator != creator {
			return ErrUnauthorized
		}
		if listing.Status != ListingSold {
			return ErrListingNotActive
		}
		poolAddr := PoolAddress(listing.Address)
		pool, ok, err := tx.PoolGet(poolAddr)
		if err != nil {
			return err
		}
		if !ok {
			pool = &PayoutPool{
				Address:        poolAddr,
				RoyaltyListing: listing.Address,
				Creator:        listing.Creator,
			}
		}
		if pool.TotalDeposited == pool.TotalClaimed {
			period, err := checkedAdd(pool.Period, 1)
			if err != nil {
				return err
			}
			pool.Period = period
			pool.TotalDeposited = 0
			pool.TotalClaimed = 0
		}
		deposited, err := checkedAdd(pool.TotalDeposited, amount)
		if err != nil {
			return err
		}
		if err := tx.ledger.Transfer(creator, poolAddr, creator, amount); err != nil {
			return err
		}
		pool.TotalDeposited = deposited
		pool.DepositedAt = now
		if err := tx.PoolPut(pool); err != nil {
			return err
		}
		summary := fmt.Sprintf("Deposited %s USDC for payout period %d", FormatAmount(amount), pool.Period)
		tx.emit(PayoutDepositedEvent(pool, amount, summary))
		tx.observe(func(m Metrics) { m.RecordPayout(payoutDeposit, amount) })
		out = pool
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// ClaimPayout pays the whole unclaimed balance of the current period to the
// holder of the listing's unit and records the claim. A holder can claim at
// most once per period.
func (e *Engine) ClaimPayout(ctx context.Context, holder [20]byte, listingAddr [20]byte) (*PayoutClaim, error) {
	now := e.now()
	var claim *PayoutClaim
	err := e.execute(ctx, "claim_payout", func(tx *txn) error {
		listing, err := tx.listing(listingAddr)
		if err != nil {
			return err
		}
		held, err := tx.assets.Balance(listing.AssetID, holder)
		if err != nil {
			return err
		}
		if held != 1 {
			return ErrNotOwner
		}
		pool, ok, err := tx.PoolGet(PoolAddress(listing.Address))
		if err != nil {
			return err
		}
		if !ok {
			return ErrPayoutPoolEmpty
		}
		claimAddr := ClaimAddress(pool.Address, holder, pool.Period)
		if _, exists, err := tx.ClaimGet(claimAddr); err != nil {
			return err
		} else if exists {
			return ErrAlreadyClaimed
		}
		available, err := pool.Available()
		if err != nil {
			return err
		}
		if available == 0 {
			return ErrPayoutPoolEmpty
		}
		claimed, err := checkedAdd(pool.TotalClaimed, available)
		if err != nil {
			return err
		}
		if err := tx.ledger.Transfer(pool.Address, holder, pool.Address, available); err != nil {
			return err
		}
		pool.TotalClaimed = claimed
		if err := tx.PoolPut(pool); err != nil {
			return err
		}
		claim = &PayoutClaim{
			Address:       claimAddr,
			PayoutPool:    pool.Address,
			Holder:        holder,
			Period:        pool.Period,
			AmountClaimed: available,
			ClaimedAt:     now,
		}
		if err := tx.ClaimInsert(claim); err != nil {
			if errors.Is(err, ErrRecordExists) {
				return ErrAlreadyClaimed
			}
			return err
		}
		summary := fmt.Sprintf("Claimed %s USDC for period %d", FormatAmount(available), pool.Period)
		tx.emit(PayoutClaimedEvent(claim, summary))
		tx.observe(func(m Metrics) { m.RecordPayout(payoutClaim, available) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim.Clone(), nil
}
