package exports

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"strconv"
	"time"

	"lukechampine.com/blake3"

	"royaltyhub/crypto"
	"royaltyhub/native/royalty"
)

var (
	claimsHeader = []string{"claim", "payout_pool", "holder", "period", "amount", "amount_usdc", "claimed_at"}
	salesHeader  = []string{"id", "kind", "listing", "asset_id", "seller", "buyer", "price", "platform_fee", "creator_royalty", "seller_amount", "sold_at"}
)

// ClaimsCSV renders payout claims as CSV and returns the payload alongside
// its BLAKE3 checksum.
func ClaimsCSV(claims []*royalty.PayoutClaim) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(claimsHeader); err != nil {
		return nil, "", err
	}
	for _, claim := range claims {
		if claim == nil {
			continue
		}
		record := []string{
			crypto.Encode(claim.Address),
			crypto.Encode(claim.PayoutPool),
			crypto.Encode(claim.Holder),
			strconv.FormatUint(claim.Period, 10),
			strconv.FormatUint(claim.AmountClaimed, 10),
			royalty.FormatAmount(claim.AmountClaimed),
			formatUnix(claim.ClaimedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	return data, Checksum(data), nil
}

// SalesCSV renders the sales journal as CSV.
func SalesCSV(sales []*royalty.Sale) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(salesHeader); err != nil {
		return nil, "", err
	}
	for _, sale := range sales {
		if sale == nil {
			continue
		}
		record := []string{
			sale.ID,
			string(sale.Kind),
			crypto.Encode(sale.RoyaltyListing),
			crypto.HexAssetID(sale.AssetID),
			crypto.Encode(sale.Seller),
			crypto.Encode(sale.Buyer),
			strconv.FormatUint(sale.Price, 10),
			strconv.FormatUint(sale.PlatformFee, 10),
			strconv.FormatUint(sale.CreatorRoyalty, 10),
			strconv.FormatUint(sale.SellerAmount, 10),
			formatUnix(sale.SoldAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	data := buffer.Bytes()
	return data, Checksum(data), nil
}

// Checksum returns the hex encoded BLAKE3-256 digest of data.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
