package exports

import (
	"bytes"
	"encoding/json"
	"strconv"

	"royaltyhub/crypto"
	"royaltyhub/native/royalty"
)

// SalesJSONL builds a JSON Lines export of the sales journal and returns the
// serialised payload alongside a checksum. Amounts are emitted as strings so
// downstream parsers never round them.
func SalesJSONL(sales []*royalty.Sale) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, sale := range sales {
		if sale == nil {
			continue
		}
		payload := map[string]interface{}{
			"id":              sale.ID,
			"kind":            string(sale.Kind),
			"listing":         crypto.Encode(sale.RoyaltyListing),
			"asset_id":        crypto.HexAssetID(sale.AssetID),
			"seller":          crypto.Encode(sale.Seller),
			"buyer":           crypto.Encode(sale.Buyer),
			"price":           strconv.FormatUint(sale.Price, 10),
			"platform_fee":    strconv.FormatUint(sale.PlatformFee, 10),
			"creator_royalty": strconv.FormatUint(sale.CreatorRoyalty, 10),
			"seller_amount":   strconv.FormatUint(sale.SellerAmount, 10),
			"sold_at":         formatUnix(sale.SoldAt),
		}
		if err := encoder.Encode(payload); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	return data, Checksum(data), nil
}

// ClaimsJSONL builds a JSON Lines export of payout claims.
func ClaimsJSONL(claims []*royalty.PayoutClaim) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, claim := range claims {
		if claim == nil {
			continue
		}
		payload := map[string]interface{}{
			"claim":       crypto.Encode(claim.Address),
			"payout_pool": crypto.Encode(claim.PayoutPool),
			"holder":      crypto.Encode(claim.Holder),
			"period":      claim.Period,
			"amount":      strconv.FormatUint(claim.AmountClaimed, 10),
			"claimed_at":  formatUnix(claim.ClaimedAt),
		}
		if err := encoder.Encode(payload); err != nil {
			return nil, "", err
		}
	}
	data := buffer.Bytes()
	return data, Checksum(data), nil
}
