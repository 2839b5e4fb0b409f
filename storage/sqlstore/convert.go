package sqlstore

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"royaltyhub/native/royalty"
)

func encodeAddr(addr [20]byte) string { return hexutil.Encode(addr[:]) }

func encodeAsset(id [32]byte) string { return hexutil.Encode(id[:]) }

func decodeAddr(raw string) ([20]byte, error) {
	var out [20]byte
	decoded, err := hexutil.Decode(raw)
	if err != nil {
		return out, fmt.Errorf("sqlstore: decode address %q: %w", raw, err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("sqlstore: address %q has %d bytes", raw, len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

func decodeAsset(raw string) ([32]byte, error) {
	var out [32]byte
	decoded, err := hexutil.Decode(raw)
	if err != nil {
		return out, fmt.Errorf("sqlstore: decode asset id %q: %w", raw, err)
	}
	if len(decoded) != len(out) {
		return out, fmt.Errorf("sqlstore: asset id %q has %d bytes", raw, len(decoded))
	}
	copy(out[:], decoded)
	return out, nil
}

// addrDecoder collects the first decode failure so row conversions stay flat.
type addrDecoder struct {
	err error
}

func (d *addrDecoder) addr(raw string) [20]byte {
	out, err := decodeAddr(raw)
	if err != nil && d.err == nil {
		d.err = err
	}
	return out
}

func (d *addrDecoder) asset(raw string) [32]byte {
	out, err := decodeAsset(raw)
	if err != nil && d.err == nil {
		d.err = err
	}
	return out
}

func configRow(cfg *royalty.PlatformConfig) *PlatformConfig {
	return &PlatformConfig{
		ID:                 1,
		Authority:          encodeAddr(cfg.Authority),
		Treasury:           encodeAddr(cfg.Treasury),
		PlatformFeeBps:     cfg.PlatformFeeBps,
		SecondaryFeeBps:    cfg.SecondaryFeeBps,
		TotalFeesCollected: Uint64(cfg.TotalFeesCollected),
	}
}

func (row *PlatformConfig) domain() (*royalty.PlatformConfig, error) {
	var d addrDecoder
	cfg := &royalty.PlatformConfig{
		Authority:          d.addr(row.Authority),
		Treasury:           d.addr(row.Treasury),
		PlatformFeeBps:     row.PlatformFeeBps,
		SecondaryFeeBps:    row.SecondaryFeeBps,
		TotalFeesCollected: uint64(row.TotalFeesCollected),
	}
	return cfg, d.err
}

func listingRow(l *royalty.RoyaltyListing) *Listing {
	return &Listing{
		Address:           encodeAddr(l.Address),
		Creator:           encodeAddr(l.Creator),
		AssetID:           encodeAsset(l.AssetID),
		MetadataURI:       l.MetadataURI,
		PercentageBps:     l.PercentageBps,
		DurationSeconds:   Uint64(l.DurationSeconds),
		StartTimestamp:    l.StartTimestamp,
		Price:             Uint64(l.Price),
		ResaleAllowed:     l.ResaleAllowed,
		CreatorRoyaltyBps: l.CreatorRoyaltyBps,
		Status:            uint8(l.Status),
	}
}

func (row *Listing) domain() (*royalty.RoyaltyListing, error) {
	var d addrDecoder
	l := &royalty.RoyaltyListing{
		Address:           d.addr(row.Address),
		Creator:           d.addr(row.Creator),
		AssetID:           d.asset(row.AssetID),
		MetadataURI:       row.MetadataURI,
		PercentageBps:     row.PercentageBps,
		DurationSeconds:   uint64(row.DurationSeconds),
		StartTimestamp:    row.StartTimestamp,
		Price:             uint64(row.Price),
		ResaleAllowed:     row.ResaleAllowed,
		CreatorRoyaltyBps: row.CreatorRoyaltyBps,
		Status:            royalty.ListingStatus(row.Status),
	}
	if d.err == nil && !l.Status.Valid() {
		return nil, fmt.Errorf("sqlstore: listing %s has invalid status %d", row.Address, row.Status)
	}
	return l, d.err
}

func resaleRow(r *royalty.ResaleListing) *Resale {
	return &Resale{
		Address:        encodeAddr(r.Address),
		Seller:         encodeAddr(r.Seller),
		RoyaltyListing: encodeAddr(r.RoyaltyListing),
		AssetID:        encodeAsset(r.AssetID),
		Price:          Uint64(r.Price),
		ListedAt:       r.ListedAt,
	}
}

func (row *Resale) domain() (*royalty.ResaleListing, error) {
	var d addrDecoder
	r := &royalty.ResaleListing{
		Address:        d.addr(row.Address),
		Seller:         d.addr(row.Seller),
		RoyaltyListing: d.addr(row.RoyaltyListing),
		AssetID:        d.asset(row.AssetID),
		Price:          uint64(row.Price),
		ListedAt:       row.ListedAt,
	}
	return r, d.err
}

func poolRow(p *royalty.PayoutPool) *Pool {
	return &Pool{
		Address:        encodeAddr(p.Address),
		RoyaltyListing: encodeAddr(p.RoyaltyListing),
		Creator:        encodeAddr(p.Creator),
		TotalDeposited: Uint64(p.TotalDeposited),
		TotalClaimed:   Uint64(p.TotalClaimed),
		DepositedAt:    p.DepositedAt,
		Period:         Uint64(p.Period),
	}
}

func (row *Pool) domain() (*royalty.PayoutPool, error) {
	var d addrDecoder
	p := &royalty.PayoutPool{
		Address:        d.addr(row.Address),
		RoyaltyListing: d.addr(row.RoyaltyListing),
		Creator:        d.addr(row.Creator),
		TotalDeposited: uint64(row.TotalDeposited),
		TotalClaimed:   uint64(row.TotalClaimed),
		DepositedAt:    row.DepositedAt,
		Period:         uint64(row.Period),
	}
	return p, d.err
}

func claimRow(c *royalty.PayoutClaim) *Claim {
	return &Claim{
		Address:       encodeAddr(c.Address),
		PayoutPool:    encodeAddr(c.PayoutPool),
		Holder:        encodeAddr(c.Holder),
		Period:        Uint64(c.Period),
		AmountClaimed: Uint64(c.AmountClaimed),
		ClaimedAt:     c.ClaimedAt,
	}
}

func (row *Claim) domain() (*royalty.PayoutClaim, error) {
	var d addrDecoder
	c := &royalty.PayoutClaim{
		Address:       d.addr(row.Address),
		PayoutPool:    d.addr(row.PayoutPool),
		Holder:        d.addr(row.Holder),
		Period:        uint64(row.Period),
		AmountClaimed: uint64(row.AmountClaimed),
		ClaimedAt:     row.ClaimedAt,
	}
	return c, d.err
}

func saleRow(s *royalty.Sale) *Sale {
	return &Sale{
		ID:             s.ID,
		Kind:           string(s.Kind),
		RoyaltyListing: encodeAddr(s.RoyaltyListing),
		AssetID:        encodeAsset(s.AssetID),
		Seller:         encodeAddr(s.Seller),
		Buyer:          encodeAddr(s.Buyer),
		Price:          Uint64(s.Price),
		PlatformFee:    Uint64(s.PlatformFee),
		CreatorRoyalty: Uint64(s.CreatorRoyalty),
		SellerAmount:   Uint64(s.SellerAmount),
		SoldAt:         s.SoldAt,
	}
}

func (row *Sale) domain() (*royalty.Sale, error) {
	var d addrDecoder
	s := &royalty.Sale{
		ID:             row.ID,
		Kind:           royalty.SaleKind(row.Kind),
		RoyaltyListing: d.addr(row.RoyaltyListing),
		AssetID:        d.asset(row.AssetID),
		Seller:         d.addr(row.Seller),
		Buyer:          d.addr(row.Buyer),
		Price:          uint64(row.Price),
		PlatformFee:    uint64(row.PlatformFee),
		CreatorRoyalty: uint64(row.CreatorRoyalty),
		SellerAmount:   uint64(row.SellerAmount),
		SoldAt:         row.SoldAt,
	}
	return s, d.err
}

func (row *AssetDefinition) domain() (*royalty.AssetDefinition, error) {
	var d addrDecoder
	def := &royalty.AssetDefinition{
		AssetID:   d.asset(row.AssetID),
		Authority: d.addr(row.Authority),
		Supply:    uint64(row.Supply),
	}
	return def, d.err
}
