package sqlstore

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"royaltyhub/native/royalty"
)

type versioned interface {
	setVersion(v uint64)
}

func (row *PlatformConfig) setVersion(v uint64) { row.Version = v }
func (row *Listing) setVersion(v uint64) { row.Version = v }
func (row *Pool) setVersion(v uint64) { row.Version = v }
func (row *Balance) setVersion(v uint64) { row.Version = v }
func (row *AssetDefinition) setVersion(v uint64) { row.Version = v }
func (row *Holding) setVersion(v uint64) { row.Version = v }

// state is the royalty.State of one transaction. versions remembers the
// row version observed by each read so the matching write can compare and
// swap; zero means the row was absent.
type state struct {
	tx       *gorm.DB
	writable bool
	lockRows bool
	versions map[string]uint64
}

func newState(tx *gorm.DB, writable, lockRows bool) *state {
	return &state{tx: tx, writable: writable, lockRows: writable && lockRows, versions: make(map[string]uint64)}
}

func (s *state) query() *gorm.DB {
	if s.lockRows {
		return s.tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return s.tx
}

func (s *state) take(key string, dest any, version func() uint64, where string, args ...any) (bool, error) {
	err := s.query().Where(where, args...).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.versions[key] = 0
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if version != nil {
		s.versions[key] = version()
	}
	return true, nil
}

// save writes row guarded by the version seen when it was read in this unit.
// load is invoked first when the row has not been read yet.
func (s *state) save(key string, row versioned, load func() error) error {
	if !s.writable {
		return errReadOnly
	}
	if _, seen := s.versions[key]; !seen {
		if err := load(); err != nil {
			return err
		}
	}
	prev := s.versions[key]
	next := prev + 1
	row.setVersion(next)
	if prev == 0 {
		if err := s.tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return royalty.ErrConflict
			}
			return err
		}
	} else {
		res := s.tx.Model(row).Select("*").Where("version = ?", prev).Updates(row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return royalty.ErrConflict
		}
	}
	s.versions[key] = next
	return nil
}

func (s *state) insert(row any) error {
	if !s.writable {
		return errReadOnly
	}
	if err := s.tx.Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return royalty.ErrRecordExists
		}
		return err
	}
	return nil
}

const configKey = "config"

func (s *state) PlatformConfigGet() (*royalty.PlatformConfig, bool, error) {
	var row PlatformConfig
	ok, err := s.take(configKey, &row, func() uint64 { return row.Version }, "id = ?", 1)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := row.domain()
	return cfg, err == nil, err
}

func (s *state) PlatformConfigInsert(cfg *royalty.PlatformConfig) error {
	row := configRow(cfg)
	row.Version = 1
	if err := s.insert(row); err != nil {
		return err
	}
	s.versions[configKey] = 1
	return nil
}

func (s *state) PlatformConfigPut(cfg *royalty.PlatformConfig) error {
	return s.save(configKey, configRow(cfg), func() error {
		_, _, err := s.PlatformConfigGet()
		return err
	})
}

func listingKey(addr [20]byte) string { return "listing:" + encodeAddr(addr) }

func (s *state) ListingGet(addr [20]byte) (*royalty.RoyaltyListing, bool, error) {
	var row Listing
	ok, err := s.take(listingKey(addr), &row, func() uint64 { return row.Version }, "address = ?", encodeAddr(addr))
	if err != nil || !ok {
		return nil, ok, err
	}
	listing, err := row.domain()
	return listing, err == nil, err
}

func (s *state) ListingInsert(listing *royalty.RoyaltyListing) error {
	row := listingRow(listing)
	row.Version = 1
	if err := s.insert(row); err != nil {
		return err
	}
	s.versions[listingKey(listing.Address)] = 1
	return nil
}

func (s *state) ListingPut(listing *royalty.RoyaltyListing) error {
	return s.save(listingKey(listing.Address), listingRow(listing), func() error {
		_, _, err := s.ListingGet(listing.Address)
		return err
	})
}

func (s *state) Listings() ([]*royalty.RoyaltyListing, error) {
	var rows []Listing
	if err := s.tx.Order("address").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*royalty.RoyaltyListing, 0, len(rows))
	for i := range rows {
		listing, err := rows[i].domain()
		if err != nil {
			return nil, err
		}
		out = append(out, listing)
	}
	return out, nil
}

func (s *state) ResaleGet(addr [20]byte) (*royalty.ResaleListing, bool, error) {
	var row Resale
	ok, err := s.take("resale:"+encodeAddr(addr), &row, nil, "address = ?", encodeAddr(addr))
	if err != nil || !ok {
		return nil, ok, err
	}
	resale, err := row.domain()
	return resale, err == nil, err
}

func (s *state) ResaleInsert(resale *royalty.ResaleListing) error {
	return s.insert(resaleRow(resale))
}

func (s *state) ResaleDelete(addr [20]byte) error {
	if !s.writable {
		return errReadOnly
	}
	res := s.tx.Where("address = ?", encodeAddr(addr)).Delete(&Resale{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return royalty.ErrConflict
	}
	return nil
}

func (s *state) Resales(listing [20]byte) ([]*royalty.ResaleListing, error) {
	var rows []Resale
	if err := s.tx.Where("royalty_listing = ?", encodeAddr(listing)).Order("listed_at, address").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*royalty.ResaleListing, 0, len(rows))
	for i := range rows {
		resale, err := rows[i].domain()
		if err != nil {
			return nil, err
		}
		out = append(out, resale)
	}
	return out, nil
}

func poolKey(addr [20]byte) string { return "pool:" + encodeAddr(addr) }

func (s *state) PoolGet(addr [20]byte) (*royalty.PayoutPool, bool, error) {
	var row Pool
	ok, err := s.take(poolKey(addr), &row, func() uint64 { return row.Version }, "address = ?", encodeAddr(addr))
	if err != nil || !ok {
		return nil, ok, err
	}
	pool, err := row.domain()
	return pool, err == nil, err
}

func (s *state) PoolPut(pool *royalty.PayoutPool) error {
	return s.save(poolKey(pool.Address), poolRow(pool), func() error {
		_, _, err := s.PoolGet(pool.Address)
		return err
	})
}

func (s *state) ClaimGet(addr [20]byte) (*royalty.PayoutClaim, bool, error) {
	var row Claim
	ok, err := s.take("claim:"+encodeAddr(addr), &row, nil, "address = ?", encodeAddr(addr))
	if err != nil || !ok {
		return nil, ok, err
	}
	claim, err := row.domain()
	return claim, err == nil, err
}

func (s *state) ClaimInsert(claim *royalty.PayoutClaim) error {
	return s.insert(claimRow(claim))
}

func (s *state) Claims(pool [20]byte) ([]*royalty.PayoutClaim, error) {
	var rows []Claim
	q := s.tx.Order("claimed_at, address")
	var zero [20]byte
	if pool != zero {
		q = q.Where("payout_pool = ?", encodeAddr(pool))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*royalty.PayoutClaim, 0, len(rows))
	for i := range rows {
		claim, err := rows[i].domain()
		if err != nil {
			return nil, err
		}
		out = append(out, claim)
	}
	return out, nil
}

func (s *state) SaleInsert(sale *royalty.Sale) error {
	return s.insert(saleRow(sale))
}

func (s *state) Sales(listing [20]byte) ([]*royalty.Sale, error) {
	var rows []Sale
	q := s.tx.Order("seq")
	var zero [20]byte
	if listing != zero {
		q = q.Where("royalty_listing = ?", encodeAddr(listing))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*royalty.Sale, 0, len(rows))
	for i := range rows {
		sale, err := rows[i].domain()
		if err != nil {
			return nil, err
		}
		out = append(out, sale)
	}
	return out, nil
}

func balanceKey(account [20]byte) string { return "balance:" + encodeAddr(account) }

func (s *state) BalanceGet(account [20]byte) (uint64, error) {
	var row Balance
	_, err := s.take(balanceKey(account), &row, func() uint64 { return row.Version }, "account = ?", encodeAddr(account))
	if err != nil {
		return 0, err
	}
	return uint64(row.Amount), nil
}

func (s *state) BalancePut(account [20]byte, balance uint64) error {
	row := &Balance{Account: encodeAddr(account), Amount: Uint64(balance)}
	return s.save(balanceKey(account), row, func() error {
		_, err := s.BalanceGet(account)
		return err
	})
}

func assetKey(id [32]byte) string { return "asset:" + encodeAsset(id) }

func (s *state) AssetGet(assetID [32]byte) (*royalty.AssetDefinition, bool, error) {
	var row AssetDefinition
	ok, err := s.take(assetKey(assetID), &row, func() uint64 { return row.Version }, "asset_id = ?", encodeAsset(assetID))
	if err != nil || !ok {
		return nil, ok, err
	}
	def, err := row.domain()
	return def, err == nil, err
}

func (s *state) AssetInsert(def *royalty.AssetDefinition) error {
	row := &AssetDefinition{
		AssetID:   encodeAsset(def.AssetID),
		Authority: encodeAddr(def.Authority),
		Supply:    Uint64(def.Supply),
		Version:   1,
	}
	if err := s.insert(row); err != nil {
		return err
	}
	s.versions[assetKey(def.AssetID)] = 1
	return nil
}

func (s *state) AssetPut(def *royalty.AssetDefinition) error {
	row := &AssetDefinition{
		AssetID:   encodeAsset(def.AssetID),
		Authority: encodeAddr(def.Authority),
		Supply:    Uint64(def.Supply),
	}
	return s.save(assetKey(def.AssetID), row, func() error {
		_, _, err := s.AssetGet(def.AssetID)
		return err
	})
}

func holdingKey(assetID [32]byte, holder [20]byte) string {
	return "holding:" + encodeAsset(assetID) + ":" + encodeAddr(holder)
}

func (s *state) HoldingGet(assetID [32]byte, holder [20]byte) (uint64, error) {
	var row Holding
	_, err := s.take(holdingKey(assetID, holder), &row, func() uint64 { return row.Version },
		"asset_id = ? AND holder = ?", encodeAsset(assetID), encodeAddr(holder))
	if err != nil {
		return 0, err
	}
	return uint64(row.Quantity), nil
}

func (s *state) HoldingPut(assetID [32]byte, holder [20]byte, quantity uint64) error {
	row := &Holding{AssetID: encodeAsset(assetID), Holder: encodeAddr(holder), Quantity: Uint64(quantity)}
	return s.save(holdingKey(assetID, holder), row, func() error {
		_, err := s.HoldingGet(assetID, holder)
		return err
	})
}
