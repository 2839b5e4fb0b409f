package royaltyd

import (
	"royaltyhub/crypto"
	"royaltyhub/native/royalty"
)

// JSON views render addresses as bech32 and asset ids as 0x hex.

type configView struct {
	Authority          string `json:"authority"`
	Treasury           string `json:"treasury"`
	PlatformFeeBps     uint16 `json:"platformFeeBps"`
	SecondaryFeeBps    uint16 `json:"secondaryFeeBps"`
	TotalFeesCollected uint64 `json:"totalFeesCollected"`
}

func newConfigView(cfg *royalty.PlatformConfig) configView {
	return configView{
		Authority:          crypto.Encode(cfg.Authority),
		Treasury:           crypto.Encode(cfg.Treasury),
		PlatformFeeBps:     cfg.PlatformFeeBps,
		SecondaryFeeBps:    cfg.SecondaryFeeBps,
		TotalFeesCollected: cfg.TotalFeesCollected,
	}
}

type listingView struct {
	Address           string `json:"address"`
	Creator           string `json:"creator"`
	AssetID           string `json:"assetId"`
	MetadataURI       string `json:"metadataUri"`
	PercentageBps     uint16 `json:"percentageBps"`
	DurationSeconds   uint64 `json:"durationSeconds"`
	StartTimestamp    int64  `json:"startTimestamp"`
	Price             uint64 `json:"price"`
	ResaleAllowed     bool   `json:"resaleAllowed"`
	CreatorRoyaltyBps uint16 `json:"creatorRoyaltyBps"`
	Status            string `json:"status"`
}

func newListingView(l *royalty.RoyaltyListing) listingView {
	return listingView{
		Address:           crypto.Encode(l.Address),
		Creator:           crypto.Encode(l.Creator),
		AssetID:           crypto.HexAssetID(l.AssetID),
		MetadataURI:       l.MetadataURI,
		PercentageBps:     l.PercentageBps,
		DurationSeconds:   l.DurationSeconds,
		StartTimestamp:    l.StartTimestamp,
		Price:             l.Price,
		ResaleAllowed:     l.ResaleAllowed,
		CreatorRoyaltyBps: l.CreatorRoyaltyBps,
		Status:            l.Status.String(),
	}
}

type resaleView struct {
	Address        string `json:"address"`
	Seller         string `json:"seller"`
	RoyaltyListing string `json:"royaltyListing"`
	AssetID        string `json:"assetId"`
	Price          uint64 `json:"price"`
	ListedAt       int64  `json:"listedAt"`
}

func newResaleView(r *royalty.ResaleListing) resaleView {
	return resaleView{
		Address:        crypto.Encode(r.Address),
		Seller:         crypto.Encode(r.Seller),
		RoyaltyListing: crypto.Encode(r.RoyaltyListing),
		AssetID:        crypto.HexAssetID(r.AssetID),
		Price:          r.Price,
		ListedAt:       r.ListedAt,
	}
}

type poolView struct {
	Address        string `json:"address"`
	RoyaltyListing string `json:"royaltyListing"`
	Creator        string `json:"creator"`
	TotalDeposited uint64 `json:"totalDeposited"`
	TotalClaimed   uint64 `json:"totalClaimed"`
	DepositedAt    int64  `json:"depositedAt"`
	Period         uint64 `json:"period"`
}

func newPoolView(p *royalty.PayoutPool) poolView {
	return poolView{
		Address:        crypto.Encode(p.Address),
		RoyaltyListing: crypto.Encode(p.RoyaltyListing),
		Creator:        crypto.Encode(p.Creator),
		TotalDeposited: p.TotalDeposited,
		TotalClaimed:   p.TotalClaimed,
		DepositedAt:    p.DepositedAt,
		Period:         p.Period,
	}
}

type claimView struct {
	Address       string `json:"address"`
	PayoutPool    string `json:"payoutPool"`
	Holder        string `json:"holder"`
	Period        uint64 `json:"period"`
	AmountClaimed uint64 `json:"amountClaimed"`
	ClaimedAt     int64  `json:"claimedAt"`
}

func newClaimView(c *royalty.PayoutClaim) claimView {
	return claimView{
		Address:       crypto.Encode(c.Address),
		PayoutPool:    crypto.Encode(c.PayoutPool),
		Holder:        crypto.Encode(c.Holder),
		Period:        c.Period,
		AmountClaimed: c.AmountClaimed,
		ClaimedAt:     c.ClaimedAt,
	}
}

type saleView struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	RoyaltyListing string `json:"royaltyListing"`
	AssetID        string `json:"assetId"`
	Seller         string `json:"seller"`
	Buyer          string `json:"buyer"`
	Price          uint64 `json:"price"`
	PlatformFee    uint64 `json:"platformFee"`
	CreatorRoyalty uint64 `json:"creatorRoyalty"`
	SellerAmount   uint64 `json:"sellerAmount"`
	SoldAt         int64  `json:"soldAt"`
}

func newSaleView(s *royalty.Sale) saleView {
	return saleView{
		ID:             s.ID,
		Kind:           string(s.Kind),
		RoyaltyListing: crypto.Encode(s.RoyaltyListing),
		AssetID:        crypto.HexAssetID(s.AssetID),
		Seller:         crypto.Encode(s.Seller),
		Buyer:          crypto.Encode(s.Buyer),
		Price:          s.Price,
		PlatformFee:    s.PlatformFee,
		CreatorRoyalty: s.CreatorRoyalty,
		SellerAmount:   s.SellerAmount,
		SoldAt:         s.SoldAt,
	}
}

func mapViews[T any, V any](items []T, fn func(T) V) []V {
	out := make([]V, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
