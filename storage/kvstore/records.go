package kvstore

import (
	"github.com/ethereum/go-ethereum/rlp"

	"royaltyhub/native/royalty"
)

// Records are rlp-encoded. rlp has no signed integers, so unix timestamps
// are stored as uint64 and negative values clamp to zero.

func ts(v int64) uint64 {
	if v < 0 {
		return 0
	}
	return uint64(v)
}

type configRecord struct {
	Authority          [20]byte
	Treasury           [20]byte
	PlatformFeeBps     uint16
	SecondaryFeeBps    uint16
	TotalFeesCollected uint64
}

type listingRecord struct {
	Address           [20]byte
	Creator           [20]byte
	AssetID           [32]byte
	MetadataURI       string
	PercentageBps     uint16
	DurationSeconds   uint64
	StartTimestamp    uint64
	Price             uint64
	ResaleAllowed     bool
	CreatorRoyaltyBps uint16
	Status            uint8
}

type resaleRecord struct {
	Address        [20]byte
	Seller         [20]byte
	RoyaltyListing [20]byte
	AssetID        [32]byte
	Price          uint64
	ListedAt       uint64
}

type poolRecord struct {
	Address        [20]byte
	RoyaltyListing [20]byte
	Creator        [20]byte
	TotalDeposited uint64
	TotalClaimed   uint64
	DepositedAt    uint64
	Period         uint64
}

type claimRecord struct {
	Address       [20]byte
	PayoutPool    [20]byte
	Holder        [20]byte
	Period        uint64
	AmountClaimed uint64
	ClaimedAt     uint64
}

type saleRecord struct {
	ID             string
	Kind           string
	RoyaltyListing [20]byte
	AssetID        [32]byte
	Seller         [20]byte
	Buyer          [20]byte
	Price          uint64
	PlatformFee    uint64
	CreatorRoyalty uint64
	SellerAmount   uint64
	SoldAt         uint64
}

type assetRecord struct {
	AssetID   [32]byte
	Authority [20]byte
	Supply    uint64
}

func encodeConfig(cfg *royalty.PlatformConfig) ([]byte, error) {
	return rlp.EncodeToBytes(&configRecord{
		Authority:          cfg.Authority,
		Treasury:           cfg.Treasury,
		PlatformFeeBps:     cfg.PlatformFeeBps,
		SecondaryFeeBps:    cfg.SecondaryFeeBps,
		TotalFeesCollected: cfg.TotalFeesCollected,
	})
}

func decodeConfig(raw []byte) (*royalty.PlatformConfig, error) {
	var rec configRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, err
	}
	return &royalty.PlatformConfig{
		Authority:          rec.Authority,
		Treasury:           rec.Treasury,
		PlatformFeeBps:     rec.PlatformFeeBps,
		SecondaryFeeBps:    rec.SecondaryFeeBps,
		TotalFeesCollected: rec.TotalFeesCollected,
	}, nil
}

func encodeListing(l *royalty.RoyaltyListing) ([]byte, error) {
	return rlp.EncodeToBytes(&listingRecord{
		Address:           l.Address,
		Creator:           l.Creator,
		AssetID:           l.AssetID,
		MetadataURI:       l.MetadataURI,
		PercentageBps:     l.PercentageBps,
		DurationSeconds:   l.DurationSeconds,
		StartTimestamp:    ts(l.StartTimestamp),
		Price:             l.Price,
		ResaleAllowed:     l.ResaleAllowed,
		CreatorRoyaltyBps: l.CreatorRoyaltyBps,
		Status:            uint8(l.Status),
	})
}

func decodeListing(raw []byte) (*royalty.RoyaltyListing, error) {
	var rec listingRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, err
	}
	return &royalty.RoyaltyListing{
		Address:           rec.Address,
		Creator:           rec.Creator,
		AssetID:           rec.AssetID,
		MetadataURI:       rec.MetadataURI,
		PercentageBps:     rec.PercentageBps,
		DurationSeconds:   rec.DurationSeconds,
		StartTimestamp:    int64(rec.StartTimestamp),
		Price:             rec.Price,
		ResaleAllowed:     rec.ResaleAllowed,
		CreatorRoyaltyBps: rec.CreatorRoyaltyBps,
		Status:            royalty.ListingStatus(rec.Status),
	}, nil
}

func encodeResale(r *royalty.ResaleListing) ([]byte, error) {
	return rlp.EncodeToBytes(&resaleRecord{
		Address:        r.Address,
		Seller:         r.Seller,
		RoyaltyListing: r.RoyaltyListing,
		AssetID:        r.AssetID,
		Price:          r.Price,
		ListedAt:       ts(r.ListedAt),
	})
}

func decodeResale(raw []byte) (*royalty.ResaleListing, error) {
	var rec resaleRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, err
	}
	return &royalty.ResaleListing{
		Address:        rec.Address,
		Seller:         rec.Seller,
		RoyaltyListing: rec.RoyaltyListing,
		AssetID:        rec.AssetID,
		Price:          rec.Price,
		ListedAt:       int64(rec.ListedAt),
	}, nil
}

func encodePool(p *royalty.PayoutPool) ([]byte, error) {
	return rlp.EncodeToBytes(&poolRecord{
		Address:        p.Address,
		RoyaltyListing: p.RoyaltyListing,
		Creator:        p.Creator,
		TotalDeposited: p.TotalDeposited,
		TotalClaimed:   p.TotalClaimed,
		DepositedAt:    ts(p.DepositedAt),
		Period:         p.Period,
	})
}

func decodePool(raw []byte) (*royalty.PayoutPool, error) {
	var rec poolRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, err
	}
	return &royalty.PayoutPool{
		Address:        rec.Address,
		RoyaltyListing: rec.RoyaltyListing,
		Creator:        rec.Creator,
		TotalDeposited: rec.TotalDeposited,
		TotalClaimed:   rec.TotalClaimed,
		DepositedAt:    int64(rec.DepositedAt),
		Period:         rec.Period,
	}, nil
}

func encodeClaim(c *royalty.PayoutClaim) ([]byte, error) {
	return rlp.EncodeToBytes(&claimRecord{
		Address:       c.Address,
		PayoutPool:    c.PayoutPool,
		Holder:        c.Holder,
		Period:        c.Period,
		AmountClaimed: c.AmountClaimed,
		ClaimedAt:     ts(c.ClaimedAt),
	})
}

func decodeClaim(raw []byte) (*royalty.PayoutClaim, error) {
	var rec claimRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, err
	}
	return &royalty.PayoutClaim{
		Address:       rec.Address,
		PayoutPool:    rec.PayoutPool,
		Holder:        rec.Holder,
		Period:        rec.Period,
		AmountClaimed: rec.AmountClaimed,
		ClaimedAt:     int64(rec.ClaimedAt),
	}, nil
}

func encodeSale(s *royalty.Sale) ([]byte, error) {
	return rlp.EncodeToBytes(&saleRecord{
		ID:             s.ID,
		Kind:           string(s.Kind),
		RoyaltyListing: s.RoyaltyListing,
		AssetID:        s.AssetID,
		Seller:         s.Seller,
		Buyer:          s.Buyer,
		Price:          s.Price,
		PlatformFee:    s.PlatformFee,
		CreatorRoyalty: s.CreatorRoyalty,
		SellerAmount:   s.SellerAmount,
		SoldAt:         ts(s.SoldAt),
	})
}

func decodeSale(raw []byte) (*royalty.Sale, error) {
	var rec saleRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, err
	}
	return &royalty.Sale{
		ID:             rec.ID,
		Kind:           royalty.SaleKind(rec.Kind),
		RoyaltyListing: rec.RoyaltyListing,
		AssetID:        rec.AssetID,
		Seller:         rec.Seller,
		Buyer:          rec.Buyer,
		Price:          rec.Price,
		PlatformFee:    rec.PlatformFee,
		CreatorRoyalty: rec.CreatorRoyalty,
		SellerAmount:   rec.SellerAmount,
		SoldAt:         int64(rec.SoldAt),
	}, nil
}

func encodeAsset(def *royalty.AssetDefinition) ([]byte, error) {
	return rlp.EncodeToBytes(&assetRecord{AssetID: def.AssetID, Authority: def.Authority, Supply: def.Supply})
}

func decodeAsset(raw []byte) (*royalty.AssetDefinition, error) {
	var rec assetRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, err
	}
	return &royalty.AssetDefinition{AssetID: rec.AssetID, Authority: rec.Authority, Supply: rec.Supply}, nil
}

func encodeUint(v uint64) ([]byte, error) { return rlp.EncodeToBytes(v) }

func decodeUint(raw []byte) (uint64, error) {
	var v uint64
	if err := rlp.DecodeBytes(raw, &v); err != nil {
		return 0, err
	}
	return v, nil
}
