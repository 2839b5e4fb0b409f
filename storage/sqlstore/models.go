package sqlstore

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Uint64 persists unsigned 64-bit amounts as decimal text so values above
// the signed BIGINT range survive on every dialect.
type Uint64 uint64

// Value implements driver.Valuer.
func (u Uint64) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

// Scan implements sql.Scanner.
func (u *Uint64) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*u = 0
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("sqlstore: negative amount %d", v)
		}
		*u = Uint64(v)
		return nil
	default:
		return fmt.Errorf("sqlstore: unsupported amount type %T", src)
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("sqlstore: parse amount %q: %w", raw, err)
	}
	*u = Uint64(parsed)
	return nil
}

// PlatformConfig is the singleton configuration row. ID is always 1.
type PlatformConfig struct {
	ID                 uint   `gorm:"primaryKey;autoIncrement:false"`
	Authority          string `gorm:"size:42;not null"`
	Treasury           string `gorm:"size:42;not null"`
	PlatformFeeBps     uint16 `gorm:"not null"`
	SecondaryFeeBps    uint16 `gorm:"not null"`
	TotalFeesCollected Uint64 `gorm:"type:text;not null"`
	Version            uint64 `gorm:"not null"`
	UpdatedAt          time.Time
}

// TableName pins the table name.
func (PlatformConfig) TableName() string { return "royalty_platform_config" }

// Listing persists a royalty listing. (Creator, AssetID) is unique.
type Listing struct {
	Address           string `gorm:"primaryKey;size:42"`
	Creator           string `gorm:"size:42;not null;uniqueIndex:idx_listing_creator_asset"`
	AssetID           string `gorm:"size:66;not null;uniqueIndex:idx_listing_creator_asset"`
	MetadataURI       string `gorm:"size:200;not null"`
	PercentageBps     uint16 `gorm:"not null"`
	DurationSeconds   Uint64 `gorm:"type:text;not null"`
	StartTimestamp    int64  `gorm:"not null"`
	Price             Uint64 `gorm:"type:text;not null"`
	ResaleAllowed     bool   `gorm:"not null"`
	CreatorRoyaltyBps uint16 `gorm:"not null"`
	Status            uint8  `gorm:"not null;index"`
	Version           uint64 `gorm:"not null"`
	UpdatedAt         time.Time
}

// TableName pins the table name.
func (Listing) TableName() string { return "royalty_listings" }

// Resale persists an open resale offer. (RoyaltyListing, Seller) is unique.
type Resale struct {
	Address        string `gorm:"primaryKey;size:42"`
	Seller         string `gorm:"size:42;not null;uniqueIndex:idx_resale_listing_seller"`
	RoyaltyListing string `gorm:"size:42;not null;uniqueIndex:idx_resale_listing_seller"`
	AssetID        string `gorm:"size:66;not null"`
	Price          Uint64 `gorm:"type:text;not null"`
	ListedAt       int64  `gorm:"not null"`
}

// TableName pins the table name.
func (Resale) TableName() string { return "royalty_resales" }

// Pool persists a payout pool. One pool per listing.
type Pool struct {
	Address        string `gorm:"primaryKey;size:42"`
	RoyaltyListing string `gorm:"size:42;not null;uniqueIndex"`
	Creator        string `gorm:"size:42;not null"`
	TotalDeposited Uint64 `gorm:"type:text;not null"`
	TotalClaimed   Uint64 `gorm:"type:text;not null"`
	DepositedAt    int64  `gorm:"not null"`
	Period         Uint64 `gorm:"type:text;not null"`
	Version        uint64 `gorm:"not null"`
	UpdatedAt      time.Time
}

// TableName pins the table name.
func (Pool) TableName() string { return "royalty_pools" }

// Claim persists a payout claim. (PayoutPool, Holder, Period) is unique.
type Claim struct {
	Address       string `gorm:"primaryKey;size:42"`
	PayoutPool    string `gorm:"size:42;not null;uniqueIndex:idx_claim_pool_holder_period"`
	Holder        string `gorm:"size:42;not null;uniqueIndex:idx_claim_pool_holder_period"`
	Period        Uint64 `gorm:"type:text;not null;uniqueIndex:idx_claim_pool_holder_period"`
	AmountClaimed Uint64 `gorm:"type:text;not null"`
	ClaimedAt     int64  `gorm:"not null;index"`
}

// TableName pins the table name.
func (Claim) TableName() string { return "royalty_claims" }

// Sale is one row of the append-only sales journal.
type Sale struct {
	Seq            uint64 `gorm:"primaryKey;autoIncrement"`
	ID             string `gorm:"size:36;not null;uniqueIndex"`
	Kind           string `gorm:"size:16;not null"`
	RoyaltyListing string `gorm:"size:42;not null;index"`
	AssetID        string `gorm:"size:66;not null"`
	Seller         string `gorm:"size:42;not null"`
	Buyer          string `gorm:"size:42;not null"`
	Price          Uint64 `gorm:"type:text;not null"`
	PlatformFee    Uint64 `gorm:"type:text;not null"`
	CreatorRoyalty Uint64 `gorm:"type:text;not null"`
	SellerAmount   Uint64 `gorm:"type:text;not null"`
	SoldAt         int64  `gorm:"not null"`
}

// TableName pins the table name.
func (Sale) TableName() string { return "royalty_sales" }

// Balance is a settlement ledger account.
type Balance struct {
	Account string `gorm:"primaryKey;size:42"`
	Amount  Uint64 `gorm:"type:text;not null"`
	Version uint64 `gorm:"not null"`
}

// TableName pins the table name.
func (Balance) TableName() string { return "ledger_balances" }

// AssetDefinition registers a royalty-share asset and its issuing authority.
type AssetDefinition struct {
	AssetID   string `gorm:"primaryKey;size:66"`
	Authority string `gorm:"size:42;not null"`
	Supply    Uint64 `gorm:"type:text;not null"`
	Version   uint64 `gorm:"not null"`
}

// TableName pins the table name.
func (AssetDefinition) TableName() string { return "asset_definitions" }

// Holding is the quantity of one asset held by one account.
type Holding struct {
	AssetID  string `gorm:"primaryKey;size:66"`
	Holder   string `gorm:"primaryKey;size:42"`
	Quantity Uint64 `gorm:"type:text;not null"`
	Version  uint64 `gorm:"not null"`
}

// TableName pins the table name.
func (Holding) TableName() string { return "asset_holdings" }

// AutoMigrate creates or updates every table used by the store.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&PlatformConfig{},
		&Listing{},
		&Resale{},
		&Pool{},
		&Claim{},
		&Sale{},
		&Balance{},
		&AssetDefinition{},
		&Holding{},
	)
}
