package royalty

// AssetDefinition registers a royalty-share asset and the only authority
// allowed to issue it.
type AssetDefinition struct {
	AssetID   [32]byte `json:"assetId"`
	Authority [20]byte `json:"authority"`
	Supply    uint64   `json:"supply"`
}

// Clone returns a copy of the definition.
func (d *AssetDefinition) Clone() *AssetDefinition {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

// Ledger moves the fungible settlement token between accounts. A transfer
// is only honoured when authority equals the source account; record
// addresses therefore direct their own balances when the engine passes
// them as authority.
type Ledger struct {
	state State
}

// NewLedger binds a ledger to the state of the current unit.
func NewLedger(state State) Ledger { return Ledger{state: state} }

// Balance returns the settlement balance of account.
func (l Ledger) Balance(account [20]byte) (uint64, error) {
	return l.state.BalanceGet(account)
}

// Credit mints amount into account and returns the new balance.
func (l Ledger) Credit(account [20]byte, amount uint64) (uint64, error) {
	current, err := l.state.BalanceGet(account)
	if err != nil {
		return 0, err
	}
	updated, err := checkedAdd(current, amount)
	if err != nil {
		return 0, err
	}
	if err := l.state.BalancePut(account, updated); err != nil {
		return 0, err
	}
	return updated, nil
}

// Transfer moves amount from one account to another. Zero amounts are a
// no-op.
func (l Ledger) Transfer(from, to, authority [20]byte, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if authority != from {
		return ErrUnauthorized
	}
	fromBalance, err := l.state.BalanceGet(from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return ErrInsufficientFunds
	}
	if from == to {
		return nil
	}
	toBalance, err := l.state.BalanceGet(to)
	if err != nil {
		return err
	}
	credited, err := checkedAdd(toBalance, amount)
	if err != nil {
		return err
	}
	if err := l.state.BalancePut(from, fromBalance-amount); err != nil {
		return err
	}
	return l.state.BalancePut(to, credited)
}

// AssetRegistry tracks royalty-share asset definitions and holdings.
type AssetRegistry struct {
	state State
}

// NewAssetRegistry binds a registry to the state of the current unit.
func NewAssetRegistry(state State) AssetRegistry { return AssetRegistry{state: state} }

// Create registers assetID with zero supply under authority.
func (r AssetRegistry) Create(assetID [32]byte, authority [20]byte) error {
	return r.state.AssetInsert(&AssetDefinition{AssetID: assetID, Authority: authority})
}

// Issue mints quantity units of assetID to holder. Only the asset's
// registered authority may issue.
func (r AssetRegistry) Issue(assetID [32]byte, authority, to [20]byte, quantity uint64) error {
	def, ok, err := r.state.AssetGet(assetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrListingNotFound
	}
	if def.Authority != authority {
		return ErrUnauthorized
	}
	supply, err := checkedAdd(def.Supply, quantity)
	if err != nil {
		return err
	}
	held, err := r.state.HoldingGet(assetID, to)
	if err != nil {
		return err
	}
	updated, err := checkedAdd(held, quantity)
	if err != nil {
		return err
	}
	def.Supply = supply
	if err := r.state.AssetPut(def); err != nil {
		return err
	}
	return r.state.HoldingPut(assetID, to, updated)
}

// Transfer moves quantity units between holders. authority must equal the
// source holder.
func (r AssetRegistry) Transfer(assetID [32]byte, from, to, authority [20]byte, quantity uint64) error {
	if authority != from {
		return ErrUnauthorized
	}
	fromHeld, err := r.state.HoldingGet(assetID, from)
	if err != nil {
		return err
	}
	if fromHeld < quantity {
		return ErrNotOwner
	}
	if from == to || quantity == 0 {
		return nil
	}
	toHeld, err := r.state.HoldingGet(assetID, to)
	if err != nil {
		return err
	}
	credited, err := checkedAdd(toHeld, quantity)
	if err != nil {
		return err
	}
	if err := r.state.HoldingPut(assetID, from, fromHeld-quantity); err != nil {
		return err
	}
	return r.state.HoldingPut(assetID, to, credited)
}

// Balance returns how many units of assetID holder owns.
func (r AssetRegistry) Balance(assetID [32]byte, holder [20]byte) (uint64, error) {
	return r.state.HoldingGet(assetID, holder)
}
