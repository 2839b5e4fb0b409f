package kvstore

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"royaltyhub/native/royalty"
)

var (
	configKey     = []byte("royalty/config")
	listingPrefix = []byte("royalty/listing/")
	resalePrefix  = []byte("royalty/resale/")
	poolPrefix    = []byte("royalty/pool/")
	claimPrefix   = []byte("royalty/claim/")
	salePrefix    = []byte("royalty/sale/")
	saleSeqKey    = []byte("royalty/sale-seq")
	balancePrefix = []byte("ledger/balance/")
	assetPrefix   = []byte("asset/def/")
	holdingPrefix = []byte("asset/holding/")
)

func key(prefix []byte, parts ...[]byte) []byte {
	out := append([]byte{}, prefix...)
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}

type state struct {
	r reader
	w writer
}

func (s *state) get(k []byte) ([]byte, bool, error) {
	raw, err := s.r.Get(k, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *state) put(k []byte, raw []byte, encErr error) error {
	if s.w == nil {
		return errReadOnly
	}
	if encErr != nil {
		return encErr
	}
	return s.w.Put(k, raw, nil)
}

func (s *state) insert(k []byte, raw []byte, encErr error) error {
	if s.w == nil {
		return errReadOnly
	}
	exists, err := s.r.Has(k, nil)
	if err != nil {
		return err
	}
	if exists {
		return royalty.ErrRecordExists
	}
	return s.put(k, raw, encErr)
}

func (s *state) scan(prefix []byte, fn func(raw []byte) error) error {
	it := s.r.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	for it.Next() {
		if err := fn(it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *state) PlatformConfigGet() (*royalty.PlatformConfig, bool, error) {
	raw, ok, err := s.get(configKey)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := decodeConfig(raw)
	return cfg, err == nil, err
}

func (s *state) PlatformConfigInsert(cfg *royalty.PlatformConfig) error {
	raw, err := encodeConfig(cfg)
	return s.insert(configKey, raw, err)
}

func (s *state) PlatformConfigPut(cfg *royalty.PlatformConfig) error {
	raw, err := encodeConfig(cfg)
	return s.put(configKey, raw, err)
}

func (s *state) ListingGet(addr [20]byte) (*royalty.RoyaltyListing, bool, error) {
	raw, ok, err := s.get(key(listingPrefix, addr[:]))
	if err != nil || !ok {
		return nil, ok, err
	}
	listing, err := decodeListing(raw)
	return listing, err == nil, err
}

func (s *state) ListingInsert(listing *royalty.RoyaltyListing) error {
	raw, err := encodeListing(listing)
	return s.insert(key(listingPrefix, listing.Address[:]), raw, err)
}

func (s *state) ListingPut(listing *royalty.RoyaltyListing) error {
	raw, err := encodeListing(listing)
	return s.put(key(listingPrefix, listing.Address[:]), raw, err)
}

func (s *state) Listings() ([]*royalty.RoyaltyListing, error) {
	var out []*royalty.RoyaltyListing
	err := s.scan(listingPrefix, func(raw []byte) error {
		listing, err := decodeListing(raw)
		if err != nil {
			return err
		}
		out = append(out, listing)
		return nil
	})
	return out, err
}

func (s *state) ResaleGet(addr [20]byte) (*royalty.ResaleListing, bool, error) {
	raw, ok, err := s.get(key(resalePrefix, addr[:]))
	if err != nil || !ok {
		return nil, ok, err
	}
	resale, err := decodeResale(raw)
	return resale, err == nil, err
}

func (s *state) ResaleInsert(resale *royalty.ResaleListing) error {
	raw, err := encodeResale(resale)
	return s.insert(key(resalePrefix, resale.Address[:]), raw, err)
}

func (s *state) ResaleDelete(addr [20]byte) error {
	if s.w == nil {
		return errReadOnly
	}
	k := key(resalePrefix, addr[:])
	exists, err := s.r.Has(k, nil)
	if err != nil {
		return err
	}
	if !exists {
		return royalty.ErrConflict
	}
	return s.w.Delete(k, nil)
}

func (s *state) Resales(listing [20]byte) ([]*royalty.ResaleListing, error) {
	var out []*royalty.ResaleListing
	err := s.scan(resalePrefix, func(raw []byte) error {
		resale, err := decodeResale(raw)
		if err != nil {
			return err
		}
		if resale.RoyaltyListing == listing {
			out = append(out, resale)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ListedAt < out[j].ListedAt })
	return out, err
}

func (s *state) PoolGet(addr [20]byte) (*royalty.PayoutPool, bool, error) {
	raw, ok, err := s.get(key(poolPrefix, addr[:]))
	if err != nil || !ok {
		return nil, ok, err
	}
	pool, err := decodePool(raw)
	return pool, err == nil, err
}

func (s *state) PoolPut(pool *royalty.PayoutPool) error {
	raw, err := encodePool(pool)
	return s.put(key(poolPrefix, pool.Address[:]), raw, err)
}

func (s *state) ClaimGet(addr [20]byte) (*royalty.PayoutClaim, bool, error) {
	raw, ok, err := s.get(key(claimPrefix, addr[:]))
	if err != nil || !ok {
		return nil, ok, err
	}
	claim, err := decodeClaim(raw)
	return claim, err == nil, err
}

func (s *state) ClaimInsert(claim *royalty.PayoutClaim) error {
	raw, err := encodeClaim(claim)
	return s.insert(key(claimPrefix, claim.Address[:]), raw, err)
}

func (s *state) Claims(pool [20]byte) ([]*royalty.PayoutClaim, error) {
	var zero [20]byte
	var out []*royalty.PayoutClaim
	err := s.scan(claimPrefix, func(raw []byte) error {
		claim, err := decodeClaim(raw)
		if err != nil {
			return err
		}
		if pool == zero || claim.PayoutPool == pool {
			out = append(out, claim)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].ClaimedAt < out[j].ClaimedAt })
	return out, err
}

func (s *state) SaleInsert(sale *royalty.Sale) error {
	if s.w == nil {
		return errReadOnly
	}
	seq := uint64(0)
	raw, ok, err := s.get(saleSeqKey)
	if err != nil {
		return err
	}
	if ok {
		if seq, err = decodeUint(raw); err != nil {
			return err
		}
	}
	seq++
	var seqBytes [8]byte
	binary.BigEndian.PutUint64(seqBytes[:], seq)
	encoded, encErr := encodeSale(sale)
	if err := s.insert(key(salePrefix, seqBytes[:]), encoded, encErr); err != nil {
		return err
	}
	next, err := encodeUint(seq)
	return s.put(saleSeqKey, next, err)
}

func (s *state) Sales(listing [20]byte) ([]*royalty.Sale, error) {
	var zero [20]byte
	var out []*royalty.Sale
	err := s.scan(salePrefix, func(raw []byte) error {
		sale, err := decodeSale(raw)
		if err != nil {
			return err
		}
		if listing == zero || sale.RoyaltyListing == listing {
			out = append(out, sale)
		}
		return nil
	})
	return out, err
}

func (s *state) BalanceGet(account [20]byte) (uint64, error) {
	raw, ok, err := s.get(key(balancePrefix, account[:]))
	if err != nil || !ok {
		return 0, err
	}
	return decodeUint(raw)
}

func (s *state) BalancePut(account [20]byte, balance uint64) error {
	raw, err := encodeUint(balance)
	return s.put(key(balancePrefix, account[:]), raw, err)
}

func (s *state) AssetGet(assetID [32]byte) (*royalty.AssetDefinition, bool, error) {
	raw, ok, err := s.get(key(assetPrefix, assetID[:]))
	if err != nil || !ok {
		return nil, ok, err
	}
	def, err := decodeAsset(raw)
	return def, err == nil, err
}

func (s *state) AssetInsert(def *royalty.AssetDefinition) error {
	raw, err := encodeAsset(def)
	return s.insert(key(assetPrefix, def.AssetID[:]), raw, err)
}

func (s *state) AssetPut(def *royalty.AssetDefinition) error {
	raw, err := encodeAsset(def)
	return s.put(key(assetPrefix, def.AssetID[:]), raw, err)
}

func (s *state) HoldingGet(assetID [32]byte, holder [20]byte) (uint64, error) {
	raw, ok, err := s.get(key(holdingPrefix, assetID[:], holder[:]))
	if err != nil || !ok {
		return 0, err
	}
	return decodeUint(raw)
}

func (s *state) HoldingPut(assetID [32]byte, holder [20]byte, quantity uint64) error {
	raw, err := encodeUint(quantity)
	return s.put(key(holdingPrefix, assetID[:], holder[:]), raw, err)
}
