package royalty

import (
	"context"
	"errors"
	"fmt"
)

// ListForResale moves the seller's unit into escrow under the resale
// listing's own address and opens the offer.
func (e *Engine) ListForResale(ctx context.Context, seller [20]byte, listingAddr [20]byte, price uint64) (*ResaleListing, error) {
	if isZeroAddress(seller) {
		return nil, ErrInvalidAddress
	}
	now := e.now()
	var resale *ResaleListing
	err := e.execute(ctx, "list_for_resale", func(tx *txn) error {
		if err := tx.external(seller); err != nil {
			return err
		}
		listing, err := tx.listing(listingAddr)
		if err != nil {
			return err
		}
		if listing.Status != ListingSold {
			return ErrListingNotActive
		}
		if !listing.ResaleAllowed {
			return ErrResaleNotAllowed
		}
		if price == 0 {
			return ErrInvalidPrice
		}
		held, err := tx.assets.Balance(listing.AssetID, seller)
		if err != nil {
			return err
		}
		if held != 1 {
			return ErrNotOwner
		}
		escrow := ResaleAddress(listing.Address, seller)
		if _, ok, err := tx.ResaleGet(escrow); err != nil {
			return err
		} else if ok {
			return ErrResaleExists
		}
		if err := tx.assets.Transfer(listing.AssetID, seller, escrow, seller, 1); err != nil {
			return err
		}
		resale = &ResaleListing{
			Address:        escrow,
			Seller:         seller,
			RoyaltyListing: listing.Address,
			AssetID:        listing.AssetID,
			Price:          price,
			ListedAt:       now,
		}
		if err := tx.ResaleInsert(resale); err != nil {
			if errors.Is(err, ErrRecordExists) {
				return ErrResaleExists
			}
			return err
		}
		tx.emit(ResaleListedEvent(resale, fmt.Sprintf("Listed for resale at %s USDC", FormatAmount(price))))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resale.Clone(), nil
}

// BuyResale settles an open resale offer: the platform fee and creator
// royalty are both taken from the full price and the seller receives the
// rest. Escrow releases the unit to the buyer and the offer is closed.
func (e *Engine) BuyResale(ctx context.Context, buyer [20]byte, listingAddr [20]byte, seller [20]byte) (*Sale, error) {
	if isZeroAddress(buyer) {
		return nil, ErrInvalidAddress
	}
	now := e.now()
	saleID := e.id().String()
	var sale *Sale
	err := e.execute(ctx, "buy_resale", func(tx *txn) error {
		if err := tx.external(buyer); err != nil {
			return err
		}
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		resale, ok, err := tx.ResaleGet(ResaleAddress(listingAddr, seller))
		if err != nil {
			return err
		}
		if !ok {
			return ErrResaleNotFound
		}
		listing, err := tx.listing(resale.RoyaltyListing)
		if err != nil {
			return err
		}
		escrowed, err := tx.assets.Balance(resale.AssetID, resale.Address)
		if err != nil {
			return err
		}
		if escrowed != 1 {
			return ErrNotOwner
		}
		split, err := SplitResale(resale.Price, cfg.SecondaryFeeBps, listing.CreatorRoyaltyBps)
		if err != nil {
			return err
		}
		totalFees, err := checkedAdd(cfg.TotalFeesCollected, split.PlatformFee)
		if err != nil {
			return err
		}
		if err := tx.ledger.Transfer(buyer, resale.Seller, buyer, split.SellerAmount); err != nil {
			return err
		}
		if err := tx.ledger.Transfer(buyer, cfg.Treasury, buyer, split.PlatformFee); err != nil {
			return err
		}
		if split.CreatorRoyalty > 0 {
			if err := tx.ledger.Transfer(buyer, listing.Creator, buyer, split.CreatorRoyalty); err != nil {
				return err
			}
		}
		if err := tx.assets.Transfer(resale.AssetID, resale.Address, buyer, resale.Address, 1); err != nil {
			return err
		}
		if err := tx.ResaleDelete(resale.Address); err != nil {
			return err
		}
		cfg.TotalFeesCollected = totalFees
		if err := tx.PlatformConfigPut(cfg); err != nil {
			return err
		}
		sale = &Sale{
			ID:             saleID,
			Kind:           SaleSecondary,
			RoyaltyListing: listing.Address,
			AssetID:        resale.AssetID,
			Seller:         resale.Seller,
			Buyer:          buyer,
			Price:          resale.Price,
			PlatformFee:    split.PlatformFee,
			CreatorRoyalty: split.CreatorRoyalty,
			SellerAmount:   split.SellerAmount,
			SoldAt:         now,
		}
		if err := tx.SaleInsert(sale); err != nil {
			return err
		}
		summary := fmt.Sprintf("Resale complete: %s USDC (platform: %s, creator: %s)",
			FormatAmount(sale.Price), FormatAmount(split.PlatformFee), FormatAmount(split.CreatorRoyalty))
		tx.emit(ResaleSoldEvent(resale.Address, sale, summary))
		tx.observe(func(m Metrics) { m.RecordSale(SaleSecondary, sale.Price, split.PlatformFee) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale.Clone(), nil
}

// CancelResale closes the caller's resale offer and returns the escrowed unit.
// No funds move.
func (e *Engine) CancelResale(ctx context.Context, caller [20]byte, listingAddr [20]byte, seller [20]byte) (*ResaleListing, error) {
	var out *ResaleListing
	err := e.execute(ctx, "cancel_resale", func(tx *txn) error {
		resale, ok, err := tx.ResaleGet(ResaleAddress(listingAddr, seller))
		if err != nil {
			return err
		}
		if !ok {
			return ErrResaleNotFound
		}
		if resale.Seller != caller {
			return ErrUnauthorized
		}
		if err := tx.assets.Transfer(resale.AssetID, resale.Address, resale.Seller, resale.Address, 1); err != nil {
			return err
		}
		if err := tx.ResaleDelete(resale.Address); err != nil {
			return err
		}
		tx.emit(ResaleCancelledEvent(resale, "Resale listing cancelled"))
		out = resale
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}
