package royalty

import (
	"testing"

	"github.com/google/uuid"
)

func TestDerivedAddressesAreDeterministic(t *testing.T) {
	creator := [20]byte{1}
	seller := [20]byte{2}
	asset := [32]byte{3}

	listing := ListingAddress(creator, asset)
	if listing != ListingAddress(creator, asset) {
		t.Fatalf("listing address not deterministic")
	}
	if listing == ListingAddress(seller, asset) {
		t.Fatalf("listing address must depend on creator")
	}
	resale := ResaleAddress(listing, seller)
	if resale == ResaleAddress(listing, creator) {
		t.Fatalf("resale address must depend on seller")
	}
	pool := PoolAddress(listing)
	if pool == listing || pool == resale {
		t.Fatalf("pool address collides with another record")
	}
	if ClaimAddress(pool, seller, 1) == ClaimAddress(pool, seller, 2) {
		t.Fatalf("claim address must depend on period")
	}
	if PlatformConfigAddress() != PlatformConfigAddress() {
		t.Fatalf("config address not deterministic")
	}
}

func TestNewAssetIDDependsOnSeed(t *testing.T) {
	creator := [20]byte{9}
	seed := uuid.MustParse("6f1c3b0e-1111-4f6a-9c4b-2d7e8a9b0c1d")
	first := NewAssetID(creator, seed)
	if first != NewAssetID(creator, seed) {
		t.Fatalf("asset id not deterministic for the same seed")
	}
	if first == NewAssetID(creator, uuid.New()) {
		t.Fatalf("asset id must change with the seed")
	}
	if isZeroAssetID(first) {
		t.Fatalf("asset id must not be zero")
	}
}
