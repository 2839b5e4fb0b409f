package royalty

import (
	"context"
	"errors"
	"fmt"
)

// Initialize bootstraps the platform configuration. It can only succeed once.
func (e *Engine) Initialize(ctx context.Context, authority, treasury [20]byte, platformFeeBps uint16) (*PlatformConfig, error) {
	if isZeroAddress(authority) || isZeroAddress(treasury) {
		return nil, ErrInvalidAddress
	}
	if platformFeeBps > MaxPlatformFeeBps {
		return nil, ErrFeeTooHigh
	}
	cfg := &PlatformConfig{
		Authority:       authority,
		Treasury:        treasury,
		PlatformFeeBps:  platformFeeBps,
		SecondaryFeeBps: DefaultSecondaryFeeBps,
	}
	err := e.execute(ctx, "initialize", func(tx *txn) error {
		if _, ok, err := tx.PlatformConfigGet(); err != nil {
			return err
		} else if ok {
			return ErrAlreadyInitialized
		}
		if err := tx.PlatformConfigInsert(cfg); err != nil {
			if errors.Is(err, ErrRecordExists) {
				return ErrAlreadyInitialized
			}
			return err
		}
		tx.emit(PlatformInitializedEvent(cfg, fmt.Sprintf("Platform initialized with %dbps fee", platformFeeBps)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// CreateListing registers a new royalty-share asset issued by the listing
// address and opens it for a primary sale.
func (e *Engine) CreateListing(ctx context.Context, creator [20]byte, args CreateListingArgs) (*RoyaltyListing, error) {
	if isZeroAddress(creator) {
		return nil, ErrInvalidAddress
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}
	assetID := args.AssetID
	if isZeroAssetID(assetID) {
		assetID = NewAssetID(creator, e.id())
	}
	listing := &RoyaltyListing{
		Address:           ListingAddress(creator, assetID),
		Creator:           creator,
		AssetID:           assetID,
		MetadataURI:       args.MetadataURI,
		PercentageBps:     args.PercentageBps,
		DurationSeconds:   args.DurationSeconds,
		StartTimestamp:    e.now(),
		Price:             args.Price,
		ResaleAllowed:     args.ResaleAllowed,
		CreatorRoyaltyBps: args.CreatorRoyaltyBps,
		Status:            ListingActive,
	}
	err := e.execute(ctx, "create_listing", func(tx *txn) error {
		if _, err := tx.config(); err != nil {
			return err
		}
		if err := tx.external(creator); err != nil {
			return err
		}
		if _, ok, err := tx.ListingGet(listing.Address); err != nil {
			return err
		} else if ok {
			return ErrListingExists
		}
		if err := tx.ListingInsert(listing); err != nil {
			if errors.Is(err, ErrRecordExists) {
				return ErrListingExists
			}
			return err
		}
		if err := tx.assets.Create(assetID, listing.Address); err != nil {
			if errors.Is(err, ErrRecordExists) {
				return ErrListingExists
			}
			return err
		}
		summary := fmt.Sprintf("Listing created: %s for %s USDC", FormatBps(listing.PercentageBps), FormatAmount(listing.Price))
		tx.emit(ListingCreatedEvent(listing, summary))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing.Clone(), nil
}

// BuyListing settles the primary sale of an active listing: the creator
// receives the price net of the platform fee, the treasury receives the fee
// and one unit is issued to the buyer.
func (e *Engine) BuyListing(ctx context.Context, buyer [20]byte, listingAddr [20]byte) (*Sale, error) {
	if isZeroAddress(buyer) {
		return nil, ErrInvalidAddress
	}
	now := e.now()
	saleID := e.id().String()
	var sale *Sale
	err := e.execute(ctx, "buy_listing", func(tx *txn) error {
		if err := tx.external(buyer); err != nil {
			return err
		}
		cfg, err := tx.config()
		if err != nil {
			return err
		}
		listing, err := tx.listing(listingAddr)
		if err != nil {
			return err
		}
		if listing.Status != ListingActive {
			return ErrListingNotActive
		}
		if listing.TermElapsed(now) {
			return ErrListingExpired
		}
		fee, creatorAmount, err := SplitFee(listing.Price, cfg.PlatformFeeBps)
		if err != nil {
			return err
		}
		totalFees, err := checkedAdd(cfg.TotalFeesCollected, fee)
		if err != nil {
			return err
		}
		if err := tx.ledger.Transfer(buyer, listing.Creator, buyer, creatorAmount); err != nil {
			return err
		}
		if err := tx.ledger.Transfer(buyer, cfg.Treasury, buyer, fee); err != nil {
			return err
		}
		if err := tx.assets.Issue(listing.AssetID, listing.Address, buyer, 1); err != nil {
			return err
		}
		listing.Status = ListingSold
		if err := tx.ListingPut(listing); err != nil {
			return err
		}
		cfg.TotalFeesCollected = totalFees
		if err := tx.PlatformConfigPut(cfg); err != nil {
			return err
		}
		sale = &Sale{
			ID:             saleID,
			Kind:           SalePrimary,
			RoyaltyListing: listing.Address,
			AssetID:        listing.AssetID,
			Seller:         listing.Creator,
			Buyer:          buyer,
			Price:          listing.Price,
			PlatformFee:    fee,
			SellerAmount:   creatorAmount,
			SoldAt:         now,
		}
		if err := tx.SaleInsert(sale); err != nil {
			return err
		}
		summary := fmt.Sprintf("Purchase complete: %s USDC (fee: %s USDC)", FormatAmount(sale.Price), FormatAmount(fee))
		tx.emit(ListingSoldEvent(sale, summary))
		tx.observe(func(m Metrics) { m.RecordSale(SalePrimary, sale.Price, fee) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale.Clone(), nil
}

// CancelListing withdraws an unsold listing. Only its creator may cancel.
func (e *Engine) CancelListing(ctx context.Context, caller [20]byte, listingAddr [20]byte) (*RoyaltyListing, error) {
	var out *RoyaltyListing
	err := e.execute(ctx, "cancel_listing", func(tx *txn) error {
		listing, err := tx.listing(listingAddr)
		if err != nil {
			return err
		}
		if listing.Creator != caller {
			return ErrUnauthorized
		}
		if listing.Status != ListingActive {
			return ErrListingNotActive
		}
		listing.Status = ListingCancelled
		if err := tx.ListingPut(listing); err != nil {
			return err
		}
		tx.emit(ListingStatusEvent(EventTypeListingCancelled, listing, "Listing cancelled"))
		out = listing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// ExpireListing closes an unsold listing whose revenue-share term has run
// out. Anyone may trigger it.
func (e *Engine) ExpireListing(ctx context.Context, listingAddr [20]byte) (*RoyaltyListing, error) {
	now := e.now()
	var out *RoyaltyListing
	err := e.execute(ctx, "expire_listing", func(tx *txn) error {
		listing, err := tx.listing(listingAddr)
		if err != nil {
			return err
		}
		if listing.Status != ListingActive {
			return ErrListingNotActive
		}
		if !listing.TermElapsed(now) {
			return ErrListingNotExpired
		}
		listing.Status = ListingExpired
		if err := tx.ListingPut(listing); err != nil {
			return err
		}
		tx.emit(ListingStatusEvent(EventTypeListingExpired, listing, "Listing expired"))
		out = listing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

// Fund credits the settlement ledger directly. It stands in for the
// external mint that supplies buyers with funds.
func (e *Engine) Fund(ctx context.Context, account [20]byte, amount uint64) (uint64, error) {
	if isZeroAddress(account) {
		return 0, ErrInvalidAddress
	}
	if amount == 0 {
		return 0, ErrInvalidPrice
	}
	var balance uint64
	err := e.execute(ctx, "fund", func(tx *txn) error {
		if record, err := tx.isRecord(account); err != nil {
			return err
		} else if record {
			return ErrInvalidAddress
		}
		updated, err := tx.ledger.Credit(account, amount)
		if err != nil {
			return err
		}
		balance = updated
		tx.emit(AccountFundedEvent(account, amount, updated, fmt.Sprintf("Funded %s USDC", FormatAmount(amount))))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}
