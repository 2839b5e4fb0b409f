package royalty

import (
	"fmt"

	"github.com/holiman/uint256"
)

var bpsDenominator = uint256.NewInt(BpsDenominator)

// SplitFee divides total into the fee owed at feeBps and the remainder.
// The product is computed at 256-bit width so any uint64 total is accepted.
func SplitFee(total uint64, feeBps uint16) (fee uint64, remainder uint64, err error) {
	if feeBps > BpsDenominator {
		return 0, 0, ErrInvalidPercentage
	}
	product, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(total), uint256.NewInt(uint64(feeBps)))
	if overflow {
		return 0, 0, ErrOverflow
	}
	quotient := new(uint256.Int).Div(product, bpsDenominator)
	if !quotient.IsUint64() {
		return 0, 0, ErrOverflow
	}
	fee = quotient.Uint64()
	remainder, err = checkedSub(total, fee)
	if err != nil {
		return 0, 0, err
	}
	return fee, remainder, nil
}

// ResaleSplit is the three-way division of a secondary sale price.
type ResaleSplit struct {
	PlatformFee    uint64
	CreatorRoyalty uint64
	SellerAmount   uint64
}

// Total returns the sum of all three legs.
func (s ResaleSplit) Total() (uint64, error) {
	sum, err := checkedAdd(s.PlatformFee, s.CreatorRoyalty)
	if err != nil {
		return 0, err
	}
	return checkedAdd(sum, s.SellerAmount)
}

// SplitResale computes the platform fee and the creator royalty against the
// full price and hands the rest to the seller.
func SplitResale(price uint64, secondaryFeeBps, creatorRoyaltyBps uint16) (ResaleSplit, error) {
	platformFee, _, err := SplitFee(price, secondaryFeeBps)
	if err != nil {
		return ResaleSplit{}, err
	}
	creatorRoyalty, _, err := SplitFee(price, creatorRoyaltyBps)
	if err != nil {
		return ResaleSplit{}, err
	}
	afterFee, err := checkedSub(price, platformFee)
	if err != nil {
		return ResaleSplit{}, err
	}
	sellerAmount, err := checkedSub(afterFee, creatorRoyalty)
	if err != nil {
		return ResaleSplit{}, err
	}
	split := ResaleSplit{
		PlatformFee:    platformFee,
		CreatorRoyalty: creatorRoyalty,
		SellerAmount:   sellerAmount,
	}
	// The three legs must add back to the price exactly.
	if total, err := split.Total(); err != nil {
		return ResaleSplit{}, err
	} else if total != price {
		return ResaleSplit{}, ErrOverflow
	}
	return split, nil
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, overflow := new(uint256.Int).AddOverflow(uint256.NewInt(a), uint256.NewInt(b))
	if overflow || !sum.IsUint64() {
		return 0, ErrOverflow
	}
	return sum.Uint64(), nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

var amountScale = func() uint64 {
	scale := uint64(1)
	for i := 0; i < AmountDecimals; i++ {
		scale *= 10
	}
	return scale
}()

// FormatAmount renders an amount with AmountDecimals implied decimals the
// way audit summaries show it.
func FormatAmount(amount uint64) string {
	return fmt.Sprintf("%d.%0*d", amount/amountScale, AmountDecimals, amount%amountScale)
}

// FormatBps renders basis points as a percentage with two decimals.
func FormatBps(bps uint16) string {
	return fmt.Sprintf("%d.%02d%%", bps/100, bps%100)
}
