package royalty

import "fmt"

const (
	// BpsDenominator is 100% expressed in basis points.
	BpsDenominator = 10_000
	// MaxPlatformFeeBps caps the primary-sale fee at 10%.
	MaxPlatformFeeBps = 1_000
	// MaxCreatorRoyaltyBps caps the creator royalty on resales at 10%.
	MaxCreatorRoyaltyBps = 1_000
	// DefaultSecondaryFeeBps is the resale fee applied at bootstrap.
	DefaultSecondaryFeeBps = 250
	// MaxMetadataURILength bounds the off-chain terms pointer.
	MaxMetadataURILength = 200
	// AmountDecimals is the number of implied decimals on every amount.
	AmountDecimals = 6
)

// PlatformConfig is the singleton fee and treasury configuration.
type PlatformConfig struct {
	Authority          [20]byte `json:"authority"`
	Treasury           [20]byte `json:"treasury"`
	PlatformFeeBps     uint16   `json:"platformFeeBps"`
	SecondaryFeeBps    uint16   `json:"secondaryFeeBps"`
	TotalFeesCollected uint64   `json:"totalFeesCollected"`
}

// Clone returns a copy of the configuration.
func (c *PlatformConfig) Clone() *PlatformConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// ListingStatus tracks where a royalty listing is in its lifecycle. Only
// Active is creatable; every other state is terminal.
type ListingStatus uint8

const (
	ListingActive ListingStatus = iota
	ListingSold
	ListingCancelled
	ListingExpired
)

// Valid reports whether the status value is within the supported range.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingSold, ListingCancelled, ListingExpired:
		return true
	default:
		return false
	}
}

func (s ListingStatus) String() string {
	switch s {
	case ListingActive:
		return "active"
	case ListingSold:
		return "sold"
	case ListingCancelled:
		return "cancelled"
	case ListingExpired:
		return "expired"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// RoyaltyListing is one royalty-share asset offered by a creator.
type RoyaltyListing struct {
	Address           [20]byte      `json:"address"`
	Creator           [20]byte      `json:"creator"`
	AssetID           [32]byte      `json:"assetId"`
	MetadataURI       string        `json:"metadataUri"`
	PercentageBps     uint16        `json:"percentageBps"`
	DurationSeconds   uint64        `json:"durationSeconds"`
	StartTimestamp    int64         `json:"startTimestamp"`
	Price             uint64        `json:"price"`
	ResaleAllowed     bool          `json:"resaleAllowed"`
	CreatorRoyaltyBps uint16        `json:"creatorRoyaltyBps"`
	Status            ListingStatus `json:"status"`
}

// Clone returns a copy of the listing.
func (l *RoyaltyListing) Clone() *RoyaltyListing {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}

// TermElapsed reports whether a finite revenue-share term has run out at now.
func (l *RoyaltyListing) TermElapsed(now int64) bool {
	if l == nil || l.DurationSeconds == 0 {
		return false
	}
	end, err := checkedAdd(uint64(max(l.StartTimestamp, 0)), l.DurationSeconds)
	if err != nil {
		return false
	}
	return now >= 0 && uint64(now) >= end
}

// ResaleListing is an open secondary-market offer. While it exists the asset
// unit is held in escrow under Address.
type ResaleListing struct {
	Address        [20]byte `json:"address"`
	Seller         [20]byte `json:"seller"`
	RoyaltyListing [20]byte `json:"royaltyListing"`
	AssetID        [32]byte `json:"assetId"`
	Price          uint64   `json:"price"`
	ListedAt       int64    `json:"listedAt"`
}

// Clone returns a copy of the resale listing.
func (r *ResaleListing) Clone() *ResaleListing {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// PayoutPool aggregates deposits and claims for one listing in the current
// period. Funds sit in the ledger under Address.
type PayoutPool struct {
	Address        [20]byte `json:"address"`
	RoyaltyListing [20]byte `json:"royaltyListing"`
	Creator        [20]byte `json:"creator"`
	TotalDeposited uint64   `json:"totalDeposited"`
	TotalClaimed   uint64   `json:"totalClaimed"`
	DepositedAt    int64    `json:"depositedAt"`
	Period         uint64   `json:"period"`
}

// Clone returns a copy of the pool.
func (p *PayoutPool) Clone() *PayoutPool {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// Available returns the unclaimed balance of the current period.
func (p *PayoutPool) Available() (uint64, error) {
	if p == nil {
		return 0, nil
	}
	return checkedSub(p.TotalDeposited, p.TotalClaimed)
}

// PayoutClaim proves a holder claimed in a period. Claims are never mutated.
type PayoutClaim struct {
	Address       [20]byte `json:"address"`
	PayoutPool    [20]byte `json:"payoutPool"`
	Holder        [20]byte `json:"holder"`
	Period        uint64   `json:"period"`
	AmountClaimed uint64   `json:"amountClaimed"`
	ClaimedAt     int64    `json:"claimedAt"`
}

// Clone returns a copy of the claim.
func (c *PayoutClaim) Clone() *PayoutClaim {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// SaleKind distinguishes primary from secondary sales in the sales journal.
type SaleKind string

const (
	SalePrimary   SaleKind = "primary"
	SaleSecondary SaleKind = "secondary"
)

// Sale is an append-only journal row written for every completed purchase.
type Sale struct {
	ID             string   `json:"id"`
	Kind           SaleKind `json:"kind"`
	RoyaltyListing [20]byte `json:"royaltyListing"`
	AssetID        [32]byte `json:"assetId"`
	Seller         [20]byte `json:"seller"`
	Buyer          [20]byte `json:"buyer"`
	Price          uint64   `json:"price"`
	PlatformFee    uint64   `json:"platformFee"`
	CreatorRoyalty uint64   `json:"creatorRoyalty"`
	SellerAmount   uint64   `json:"sellerAmount"`
	SoldAt         int64    `json:"soldAt"`
}

// Clone returns a copy of the sale.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// CreateListingArgs carries the creator-supplied terms for a new listing. A
// zero AssetID asks the engine to mint a fresh identifier.
type CreateListingArgs struct {
	AssetID           [32]byte `json:"assetId"`
	MetadataURI       string   `json:"metadataUri"`
	PercentageBps     uint16   `json:"percentageBps"`
	DurationSeconds   uint64   `json:"durationSeconds"`
	Price             uint64   `json:"price"`
	ResaleAllowed     bool     `json:"resaleAllowed"`
	CreatorRoyaltyBps uint16   `json:"creatorRoyaltyBps"`
}

// Validate checks the argument bounds in the order the failures are reported.
func (a CreateListingArgs) Validate() error {
	if a.PercentageBps == 0 || a.PercentageBps > BpsDenominator {
		return ErrInvalidPercentage
	}
	if a.Price == 0 {
		return ErrInvalidPrice
	}
	if len(a.MetadataURI) == 0 || len(a.MetadataURI) > MaxMetadataURILength {
		return ErrInvalidMetadataURI
	}
	if a.CreatorRoyaltyBps > MaxCreatorRoyaltyBps {
		return ErrFeeTooHigh
	}
	return nil
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

func isZeroAssetID(id [32]byte) bool {
	var zero [32]byte
	return id == zero
}
