package exports

import (
	"fmt"
	"os"
	"strconv"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"royaltyhub/crypto"
	"royaltyhub/native/royalty"
)

type claimRow struct {
	Claim      string  `parquet:"name=claim, type=BYTE_ARRAY, convertedtype=UTF8"`
	PayoutPool string  `parquet:"name=payout_pool, type=BYTE_ARRAY, convertedtype=UTF8"`
	Holder     string  `parquet:"name=holder, type=BYTE_ARRAY, convertedtype=UTF8"`
	Period     int64   `parquet:"name=period, type=INT64"`
	Amount     string  `parquet:"name=amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	AmountUSDC float64 `parquet:"name=amount_usdc, type=DOUBLE"`
	ClaimedAt  int64   `parquet:"name=claimed_at, type=INT64"`
}

type saleRow struct {
	ID             string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind           string  `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	Listing        string  `parquet:"name=listing, type=BYTE_ARRAY, convertedtype=UTF8"`
	AssetID        string  `parquet:"name=asset_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Seller         string  `parquet:"name=seller, type=BYTE_ARRAY, convertedtype=UTF8"`
	Buyer          string  `parquet:"name=buyer, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price          string  `parquet:"name=price, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlatformFee    string  `parquet:"name=platform_fee, type=BYTE_ARRAY, convertedtype=UTF8"`
	CreatorRoyalty string  `parquet:"name=creator_royalty, type=BYTE_ARRAY, convertedtype=UTF8"`
	SellerAmount   string  `parquet:"name=seller_amount, type=BYTE_ARRAY, convertedtype=UTF8"`
	PriceUSDC      float64 `parquet:"name=price_usdc, type=DOUBLE"`
	SoldAt         int64   `parquet:"name=sold_at, type=INT64"`
}

// WriteClaimsParquet writes payout claims to a SNAPPY compressed parquet file
// at path and returns the BLAKE3 checksum of the file.
func WriteClaimsParquet(path string, claims []*royalty.PayoutClaim) (string, error) {
	rows := make([]interface{}, 0, len(claims))
	for _, claim := range claims {
		if claim == nil {
			continue
		}
		rows = append(rows, &claimRow{
			Claim:      crypto.Encode(claim.Address),
			PayoutPool: crypto.Encode(claim.PayoutPool),
			Holder:     crypto.Encode(claim.Holder),
			Period:     int64(claim.Period),
			Amount:     strconv.FormatUint(claim.AmountClaimed, 10),
			AmountUSDC: usdc(claim.AmountClaimed),
			ClaimedAt:  claim.ClaimedAt,
		})
	}
	return writeParquet(path, new(claimRow), rows)
}

// WriteSalesParquet writes the sales journal to a parquet file at path.
func WriteSalesParquet(path string, sales []*royalty.Sale) (string, error) {
	rows := make([]interface{}, 0, len(sales))
	for _, sale := range sales {
		if sale == nil {
			continue
		}
		rows = append(rows, &saleRow{
			ID:             sale.ID,
			Kind:           string(sale.Kind),
			Listing:        crypto.Encode(sale.RoyaltyListing),
			AssetID:        crypto.HexAssetID(sale.AssetID),
			Seller:         crypto.Encode(sale.Seller),
			Buyer:          crypto.Encode(sale.Buyer),
			Price:          strconv.FormatUint(sale.Price, 10),
			PlatformFee:    strconv.FormatUint(sale.PlatformFee, 10),
			CreatorRoyalty: strconv.FormatUint(sale.CreatorRoyalty, 10),
			SellerAmount:   strconv.FormatUint(sale.SellerAmount, 10),
			PriceUSDC:      usdc(sale.Price),
			SoldAt:         sale.SoldAt,
		})
	}
	return writeParquet(path, new(saleRow), rows)
}

func writeParquet(path string, schema interface{}, rows []interface{}) (string, error) {
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("exports: create parquet: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewParquetWriter(fw, schema, 1)
	if err != nil {
		file.Close()
		return "", fmt.Errorf("exports: parquet schema: %w", err)
	}
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			pw.WriteStop()
			file.Close()
			return "", fmt.Errorf("exports: parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return "", fmt.Errorf("exports: parquet flush: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("exports: close parquet file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("exports: read parquet file: %w", err)
	}
	return Checksum(data), nil
}

func usdc(amount uint64) float64 {
	return float64(amount) / 1e6
}
