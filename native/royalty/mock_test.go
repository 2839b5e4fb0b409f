package royalty

import (
	"bytes"
	"context"
	"sort"
	"sync"
)

type holdingKey struct {
	asset  [32]byte
	holder [20]byte
}

type mockData struct {
	config   *PlatformConfig
	listings map[[20]byte]*RoyaltyListing
	resales  map[[20]byte]*ResaleListing
	pools    map[[20]byte]*PayoutPool
	claims   map[[20]byte]*PayoutClaim
	sales    []*Sale
	balances map[[20]byte]uint64
	assets   map[[32]byte]*AssetDefinition
	holdings map[holdingKey]uint64
}

func newMockData() *mockData {
	return &mockData{
		listings: make(map[[20]byte]*RoyaltyListing),
		resales:  make(map[[20]byte]*ResaleListing),
		pools:    make(map[[20]byte]*PayoutPool),
		claims:   make(map[[20]byte]*PayoutClaim),
		balances: make(map[[20]byte]uint64),
		assets:   make(map[[32]byte]*AssetDefinition),
		holdings: make(map[holdingKey]uint64),
	}
}

func (d *mockData) clone() *mockData {
	out := newMockData()
	out.config = d.config.Clone()
	for k, v := range d.listings {
		out.listings[k] = v.Clone()
	}
	for k, v := range d.resales {
		out.resales[k] = v.Clone()
	}
	for k, v := range d.pools {
		out.pools[k] = v.Clone()
	}
	for k, v := range d.claims {
		out.claims[k] = v.Clone()
	}
	for _, s := range d.sales {
		out.sales = append(out.sales, s.Clone())
	}
	for k, v := range d.balances {
		out.balances[k] = v
	}
	for k, v := range d.assets {
		out.assets[k] = v.Clone()
	}
	for k, v := range d.holdings {
		out.holdings[k] = v
	}
	return out
}

// mockStore serialises units under a mutex and applies a unit by swapping in
// the working copy only when it succeeds.
type mockStore struct {
	mu   sync.Mutex
	data *mockData
}

func newMockStore() *mockStore { return &mockStore{data: newMockData()} }

func (s *mockStore) Update(ctx context.Context, fn func(State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.data.clone()
	if err := fn(&mockState{data: working}); err != nil {
		return err
	}
	s.data = working
	return nil
}

func (s *mockStore) View(ctx context.Context, fn func(State) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&mockState{data: s.data.clone()})
}

// mutate edits committed data directly, bypassing the engine.
func (s *mockStore) mutate(fn func(d *mockData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

type mockState struct {
	data *mockData
}

func (m *mockState) PlatformConfigGet() (*PlatformConfig, bool, error) {
	if m.data.config == nil {
		return nil, false, nil
	}
	return m.data.config.Clone(), true, nil
}

func (m *mockState) PlatformConfigInsert(cfg *PlatformConfig) error {
	if m.data.config != nil {
		return ErrRecordExists
	}
	m.data.config = cfg.Clone()
	return nil
}

func (m *mockState) PlatformConfigPut(cfg *PlatformConfig) error {
	m.data.config = cfg.Clone()
	return nil
}

func (m *mockState) ListingGet(addr [20]byte) (*RoyaltyListing, bool, error) {
	listing, ok := m.data.listings[addr]
	if !ok {
		return nil, false, nil
	}
	return listing.Clone(), true, nil
}

func (m *mockState) ListingInsert(listing *RoyaltyListing) error {
	if _, ok := m.data.listings[listing.Address]; ok {
		return ErrRecordExists
	}
	m.data.listings[listing.Address] = listing.Clone()
	return nil
}

func (m *mockState) ListingPut(listing *RoyaltyListing) error {
	m.data.listings[listing.Address] = listing.Clone()
	return nil
}

func (m *mockState) Listings() ([]*RoyaltyListing, error) {
	out := make([]*RoyaltyListing, 0, len(m.data.listings))
	for _, listing := range m.data.listings {
		out = append(out, listing.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].Address[:], out[j].Address[:]) < 0 })
	return out, nil
}

func (m *mockState) ResaleGet(addr [20]byte) (*ResaleListing, bool, error) {
	resale, ok := m.data.resales[addr]
	if !ok {
		return nil, false, nil
	}
	return resale.Clone(), true, nil
}

func (m *mockState) ResaleInsert(resale *ResaleListing) error {
	if _, ok := m.data.resales[resale.Address]; ok {
		return ErrRecordExists
	}
	m.data.resales[resale.Address] = resale.Clone()
	return nil
}

func (m *mockState) ResaleDelete(addr [20]byte) error {
	delete(m.data.resales, addr)
	return nil
}

func (m *mockState) Resales(listing [20]byte) ([]*ResaleListing, error) {
	var out []*ResaleListing
	for _, resale := range m.data.resales {
		if resale.RoyaltyListing == listing {
			out = append(out, resale.Clone())
		}
	}
	return out, nil
}

func (m *mockState) PoolGet(addr [20]byte) (*PayoutPool, bool, error) {
	pool, ok := m.data.pools[addr]
	if !ok {
		return nil, false, nil
	}
	return pool.Clone(), true, nil
}

func (m *mockState) PoolPut(pool *PayoutPool) error {
	m.data.pools[pool.Address] = pool.Clone()
	return nil
}

func (m *mockState) ClaimGet(addr [20]byte) (*PayoutClaim, bool, error) {
	claim, ok := m.data.claims[addr]
	if !ok {
		return nil, false, nil
	}
	return claim.Clone(), true, nil
}

func (m *mockState) ClaimInsert(claim *PayoutClaim) error {
	if _, ok := m.data.claims[claim.Address]; ok {
		return ErrRecordExists
	}
	m.data.claims[claim.Address] = claim.Clone()
	return nil
}

func (m *mockState) Claims(pool [20]byte) ([]*PayoutClaim, error) {
	var out []*PayoutClaim
	for _, claim := range m.data.claims {
		if isZeroAddress(pool) || claim.PayoutPool == pool {
			out = append(out, claim.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

func (m *mockState) SaleInsert(sale *Sale) error {
	m.data.sales = append(m.data.sales, sale.Clone())
	return nil
}

func (m *mockState) Sales(listing [20]byte) ([]*Sale, error) {
	var out []*Sale
	for _, sale := range m.data.sales {
		if isZeroAddress(listing) || sale.RoyaltyListing == listing {
			out = append(out, sale.Clone())
		}
	}
	return out, nil
}

func (m *mockState) BalanceGet(account [20]byte) (uint64, error) {
	return m.data.balances[account], nil
}

func (m *mockState) BalancePut(account [20]byte, balance uint64) error {
	m.data.balances[account] = balance
	return nil
}

func (m *mockState) AssetGet(assetID [32]byte) (*AssetDefinition, bool, error) {
	def, ok := m.data.assets[assetID]
	if !ok {
		return nil, false, nil
	}
	return def.Clone(), true, nil
}

func (m *mockState) AssetInsert(def *AssetDefinition) error {
	if _, ok := m.data.assets[def.AssetID]; ok {
		return ErrRecordExists
	}
	m.data.assets[def.AssetID] = def.Clone()
	return nil
}

func (m *mockState) AssetPut(def *AssetDefinition) error {
	m.data.assets[def.AssetID] = def.Clone()
	return nil
}

func (m *mockState) HoldingGet(assetID [32]byte, holder [20]byte) (uint64, error) {
	return m.data.holdings[holdingKey{asset: assetID, holder: holder}], nil
}

func (m *mockState) HoldingPut(assetID [32]byte, holder [20]byte, quantity uint64) error {
	m.data.holdings[holdingKey{asset: assetID, holder: holder}] = quantity
	return nil
}
