package royalty

import "errors"

// Error is a domain failure with a stable code surfaced verbatim to callers.
type Error struct {
	Code string
	msg  string
}

func newError(code, msg string) *Error { return &Error{Code: code, msg: msg} }

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return "royalty: " + e.msg
}

// Precondition failures. Every one aborts the operation before anything is
// committed.
var (
	ErrFeeTooHigh         = newError("FeeTooHigh", "fee exceeds maximum allowed (10%)")
	ErrListingNotActive   = newError("ListingNotActive", "listing is not active")
	ErrListingExpired     = newError("ListingExpired", "listing has expired")
	ErrInsufficientFunds  = newError("InsufficientFunds", "insufficient funds")
	ErrResaleNotAllowed   = newError("ResaleNotAllowed", "resale is not allowed for this listing")
	ErrNotOwner           = newError("NotOwner", "caller does not own the royalty asset")
	ErrInvalidPercentage  = newError("InvalidPercentage", "invalid percentage (must be 1-10000 bps)")
	ErrInvalidPrice       = newError("InvalidPrice", "invalid price")
	ErrPayoutPoolEmpty    = newError("PayoutPoolEmpty", "payout pool is empty")
	ErrAlreadyClaimed     = newError("AlreadyClaimed", "already claimed for this period")
	ErrUnauthorized       = newError("Unauthorized", "unauthorized")
	ErrInvalidMetadataURI = newError("InvalidMetadataUri", "invalid metadata uri")
	ErrOverflow           = newError("Overflow", "calculation overflow")
)

// Lookup and bootstrap failures.
var (
	ErrNotInitialized     = newError("NotInitialized", "platform not initialized")
	ErrAlreadyInitialized = newError("AlreadyInitialized", "platform already initialized")
	ErrInvalidAddress     = newError("InvalidAddress", "address must be non-zero")
	ErrListingNotFound    = newError("ListingNotFound", "listing not found")
	ErrListingExists      = newError("ListingExists", "listing already exists for asset")
	ErrListingNotExpired  = newError("ListingNotExpired", "listing term has not elapsed")
	ErrResaleNotFound     = newError("ResaleNotFound", "resale listing not found")
	ErrResaleExists       = newError("ResaleExists", "resale listing already open")
	ErrPoolNotFound       = newError("PoolNotFound", "payout pool not found")
	ErrClaimNotFound      = newError("ClaimNotFound", "payout claim not found")
)

// Store-level failures. Stores return these so the engine can translate them
// into the domain kind that fits the record being written.
var (
	ErrRecordExists = errors.New("royalty: record already exists")
	ErrConflict     = newError("Conflict", "concurrent modification detected")
	ErrNilState     = errors.New("royalty engine: store not configured")
)

// Code extracts the domain code from err, or "" when err is not a domain
// failure.
func Code(err error) string {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Code
	}
	return ""
}
