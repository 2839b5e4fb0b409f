package royalty

import (
	"strconv"

	"royaltyhub/core/events"
	"royaltyhub/crypto"
)

const (
	// EventTypePlatformInitialized is emitted once when the platform is bootstrapped.
	EventTypePlatformInitialized = "royalty.platform.initialized"
	// EventTypeListingCreated is emitted when a creator lists a royalty share.
	EventTypeListingCreated = "royalty.listing.created"
	// EventTypeListingSold is emitted on a completed primary sale.
	EventTypeListingSold = "royalty.listing.sold"
	// EventTypeListingCancelled is emitted when a creator withdraws an active listing.
	EventTypeListingCancelled = "royalty.listing.cancelled"
	// EventTypeListingExpired is emitted when an unsold listing's term runs out.
	EventTypeListingExpired = "royalty.listing.expired"
	// EventTypeResaleListed is emitted when a holder moves a unit into escrow for resale.
	EventTypeResaleListed = "royalty.resale.listed"
	// EventTypeResaleSold is emitted on a completed secondary sale.
	EventTypeResaleSold = "royalty.resale.sold"
	// EventTypeResaleCancelled is emitted when escrow returns a unit to its seller.
	EventTypeResaleCancelled = "royalty.resale.cancelled"
	// EventTypePayoutDeposited is emitted when a creator funds a payout pool.
	EventTypePayoutDeposited = "royalty.payout.deposited"
	// EventTypePayoutClaimed is emitted when a holder claims from a payout pool.
	EventTypePayoutClaimed = "royalty.payout.claimed"
	// EventTypeAccountFunded is emitted when the ledger credits an account directly.
	EventTypeAccountFunded = "royalty.ledger.funded"
)

func fmtAddr(a [20]byte) string { return crypto.Encode(a) }

func fmtAmount(v uint64) string { return strconv.FormatUint(v, 10) }

func fmtBps(v uint16) string { return strconv.FormatUint(uint64(v), 10) }

// PlatformInitializedEvent describes the bootstrap of the fee configuration.
func PlatformInitializedEvent(cfg *PlatformConfig, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypePlatformInitialized,
		Summary: summary,
		Attributes: map[string]string{
			"authority":       fmtAddr(cfg.Authority),
			"treasury":        fmtAddr(cfg.Treasury),
			"platformFeeBps":  fmtBps(cfg.PlatformFeeBps),
			"secondaryFeeBps": fmtBps(cfg.SecondaryFeeBps),
		},
	}
}

// ListingCreatedEvent describes a new royalty listing.
func ListingCreatedEvent(listing *RoyaltyListing, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypeListingCreated,
		Summary: summary,
		Attributes: map[string]string{
			"listing":           fmtAddr(listing.Address),
			"creator":           fmtAddr(listing.Creator),
			"assetId":           crypto.HexAssetID(listing.AssetID),
			"percentageBps":     fmtBps(listing.PercentageBps),
			"price":             fmtAmount(listing.Price),
			"durationSeconds":   fmtAmount(listing.DurationSeconds),
			"resaleAllowed":     strconv.FormatBool(listing.ResaleAllowed),
			"creatorRoyaltyBps": fmtBps(listing.CreatorRoyaltyBps),
		},
	}
}

// ListingSoldEvent describes a primary sale.
func ListingSoldEvent(sale *Sale, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypeListingSold,
		Summary: summary,
		Attributes: map[string]string{
			"listing":     fmtAddr(sale.RoyaltyListing),
			"creator":     fmtAddr(sale.Seller),
			"buyer":       fmtAddr(sale.Buyer),
			"price":       fmtAmount(sale.Price),
			"platformFee": fmtAmount(sale.PlatformFee),
			"creatorPaid": fmtAmount(sale.SellerAmount),
		},
	}
}

// ListingStatusEvent describes a transition to a non-sale terminal status.
func ListingStatusEvent(eventType string, listing *RoyaltyListing, summary string) *events.Record {
	return &events.Record{
		Type:    eventType,
		Summary: summary,
		Attributes: map[string]string{
			"listing": fmtAddr(listing.Address),
			"creator": fmtAddr(listing.Creator),
			"status":  listing.Status.String(),
		},
	}
}

// ResaleListedEvent describes a unit entering escrow for resale.
func ResaleListedEvent(resale *ResaleListing, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypeResaleListed,
		Summary: summary,
		Attributes: map[string]string{
			"resale":  fmtAddr(resale.Address),
			"listing": fmtAddr(resale.RoyaltyListing),
			"seller":  fmtAddr(resale.Seller),
			"price":   fmtAmount(resale.Price),
		},
	}
}

// ResaleSoldEvent describes a secondary sale.
func ResaleSoldEvent(resale [20]byte, sale *Sale, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypeResaleSold,
		Summary: summary,
		Attributes: map[string]string{
			"resale":         fmtAddr(resale),
			"listing":        fmtAddr(sale.RoyaltyListing),
			"seller":         fmtAddr(sale.Seller),
			"buyer":          fmtAddr(sale.Buyer),
			"price":          fmtAmount(sale.Price),
			"platformFee":    fmtAmount(sale.PlatformFee),
			"creatorRoyalty": fmtAmount(sale.CreatorRoyalty),
			"sellerAmount":   fmtAmount(sale.SellerAmount),
		},
	}
}

// ResaleCancelledEvent describes escrow returning a unit to its seller.
func ResaleCancelledEvent(resale *ResaleListing, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypeResaleCancelled,
		Summary: summary,
		Attributes: map[string]string{
			"resale":  fmtAddr(resale.Address),
			"listing": fmtAddr(resale.RoyaltyListing),
			"seller":  fmtAddr(resale.Seller),
		},
	}
}

// PayoutDepositedEvent describes a deposit into a payout pool.
func PayoutDepositedEvent(pool *PayoutPool, deposited uint64, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypePayoutDeposited,
		Summary: summary,
		Attributes: map[string]string{
			"pool":           fmtAddr(pool.Address),
			"listing":        fmtAddr(pool.RoyaltyListing),
			"creator":        fmtAddr(pool.Creator),
			"amount":         fmtAmount(deposited),
			"totalDeposited": fmtAmount(pool.TotalDeposited),
			"period":         fmtAmount(pool.Period),
		},
	}
}

// PayoutClaimedEvent describes a holder claim.
func PayoutClaimedEvent(claim *PayoutClaim, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypePayoutClaimed,
		Summary: summary,
		Attributes: map[string]string{
			"claim":  fmtAddr(claim.Address),
			"pool":   fmtAddr(claim.PayoutPool),
			"holder": fmtAddr(claim.Holder),
			"period": fmtAmount(claim.Period),
			"amount": fmtAmount(claim.AmountClaimed),
		},
	}
}

// AccountFundedEvent describes a direct ledger credit.
func AccountFundedEvent(account [20]byte, credited uint64, balance uint64, summary string) *events.Record {
	return &events.Record{
		Type:    EventTypeAccountFunded,
		Summary: summary,
		Attributes: map[string]string{
			"account": fmtAddr(account),
			"amount":  fmtAmount(credited),
			"balance": fmtAmount(balance),
		},
	}
}
