package royalty

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

const (
	tagPlatformConfig = "platform_config"
	tagRoyaltyListing = "royalty_listing"
	tagResaleListing  = "resale_listing"
	tagPayoutPool     = "payout_pool"
	tagPayoutClaim    = "payout_claim"
	tagRoyaltyAsset   = "royalty_asset"
)

func deriveAddress(tag string, parts ...[]byte) [20]byte {
	chunks := make([][]byte, 0, len(parts)+1)
	chunks = append(chunks, []byte(tag))
	chunks = append(chunks, parts...)
	digest := crypto.Keccak256(chunks...)
	var out [20]byte
	copy(out[:], digest[len(digest)-20:])
	return out
}

// PlatformConfigAddress returns the address of the singleton configuration.
func PlatformConfigAddress() [20]byte {
	return deriveAddress(tagPlatformConfig)
}

// ListingAddress derives the royalty listing address for (creator, assetID).
func ListingAddress(creator [20]byte, assetID [32]byte) [20]byte {
	return deriveAddress(tagRoyaltyListing, creator[:], assetID[:])
}

// ResaleAddress derives the resale listing address for (listing, seller).
// The same address owns the escrowed asset unit.
func ResaleAddress(listing [20]byte, seller [20]byte) [20]byte {
	return deriveAddress(tagResaleListing, listing[:], seller[:])
}

// PoolAddress derives the payout pool address for a listing. The same
// address holds the pool's vault balance.
func PoolAddress(listing [20]byte) [20]byte {
	return deriveAddress(tagPayoutPool, listing[:])
}

// ClaimAddress derives the claim address for (pool, holder, period).
func ClaimAddress(pool [20]byte, holder [20]byte, period uint64) [20]byte {
	var periodBytes [8]byte
	binary.LittleEndian.PutUint64(periodBytes[:], period)
	return deriveAddress(tagPayoutClaim, pool[:], holder[:], periodBytes[:])
}

// NewAssetID mints a fresh asset identifier for creator from seed.
func NewAssetID(creator [20]byte, seed uuid.UUID) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256([]byte(tagRoyaltyAsset), creator[:], seed[:]))
	return out
}
