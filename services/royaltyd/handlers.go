package royaltyd

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"royaltyhub/crypto"
	"royaltyhub/gateway/middleware"
	"royaltyhub/native/royalty"
)

func (s *Server) addressParam(w http.ResponseWriter, r *http.Request, name string) ([20]byte, bool) {
	addr, err := crypto.ParseAddress(chi.URLParam(r, name))
	if err != nil {
		s.badRequest(w, "invalid "+name+": "+err.Error())
		return addr, false
	}
	return addr, true
}

func (s *Server) caller(w http.ResponseWriter, r *http.Request) ([20]byte, bool) {
	caller, ok := middleware.Caller(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return caller, false
	}
	// Tokens naming a pool, escrow or other record address never act.
	record, err := s.engine.IsRecordAddress(r.Context(), caller)
	if err != nil {
		s.writeError(w, r, err)
		return caller, false
	}
	if record {
		s.writeError(w, r, royalty.ErrUnauthorized)
		return caller, false
	}
	return caller, true
}

// Writes

type initializeRequest struct {
	Treasury       string `json:"treasury"`
	PlatformFeeBps uint16 `json:"platformFeeBps"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req initializeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, "invalid payload")
		return
	}
	treasury, err := crypto.ParseAddress(req.Treasury)
	if err != nil {
		s.badRequest(w, "invalid treasury: "+err.Error())
		return
	}
	cfg, err := s.engine.Initialize(r.Context(), caller, treasury, req.PlatformFeeBps)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newConfigView(cfg))
}

type amountRequest struct {
	Amount uint64 `json:"amount"`
}

// handleFund credits the ledger. Only the platform authority may mint.
func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	account, ok := s.addressParam(w, r, "account")
	if !ok {
		return
	}
	var req amountRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, "invalid payload")
		return
	}
	cfg, err := s.engine.Config(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if caller != cfg.Authority {
		s.writeError(w, r, royalty.ErrUnauthorized)
		return
	}
	balance, err := s.engine.Fund(r.Context(), account, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"account": crypto.Encode(account), "balance": balance})
}

type createListingRequest struct {
	AssetID           string `json:"assetId,omitempty"`
	MetadataURI       string `json:"metadataUri"`
	PercentageBps     uint16 `json:"percentageBps"`
	DurationSeconds   uint64 `json:"durationSeconds"`
	Price             uint64 `json:"price"`
	ResaleAllowed     bool   `json:"resaleAllowed"`
	CreatorRoyaltyBps uint16 `json:"creatorRoyaltyBps"`
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	var req createListingRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, "invalid payload")
		return
	}
	args := royalty.CreateListingArgs{
		MetadataURI:       req.MetadataURI,
		PercentageBps:     req.PercentageBps,
		DurationSeconds:   req.DurationSeconds,
		Price:             req.Price,
		ResaleAllowed:     req.ResaleAllowed,
		CreatorRoyaltyBps: req.CreatorRoyaltyBps,
	}
	if req.AssetID != "" {
		assetID, err := crypto.ParseAssetID(req.AssetID)
		if err != nil {
			s.badRequest(w, "invalid assetId: "+err.Error())
			return
		}
		args.AssetID = assetID
	}
	listing, err := s.engine.CreateListing(r.Context(), caller, args)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newListingView(listing))
}

func (s *Server) handleBuyListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	sale, err := s.engine.BuyListing(r.Context(), caller, listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSaleView(sale))
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	addr, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	listing, err := s.engine.CancelListing(r.Context(), caller, addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newListingView(listing))
}

func (s *Server) handleExpireListing(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	listing, err := s.engine.ExpireListing(r.Context(), addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newListingView(listing))
}

type resaleRequest struct {
	Price uint64 `json:"price"`
}

func (s *Server) handleListForResale(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	var req resaleRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, "invalid payload")
		return
	}
	resale, err := s.engine.ListForResale(r.Context(), caller, listing, req.Price)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newResaleView(resale))
}

func (s *Server) handleBuyResale(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	seller, ok := s.addressParam(w, r, "seller")
	if !ok {
		return
	}
	sale, err := s.engine.BuyResale(r.Context(), caller, listing, seller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSaleView(sale))
}

func (s *Server) handleCancelResale(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	seller, ok := s.addressParam(w, r, "seller")
	if !ok {
		return
	}
	resale, err := s.engine.CancelResale(r.Context(), caller, listing, seller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newResaleView(resale))
}

func (s *Server) handleDepositPayout(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	var req amountRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.badRequest(w, "invalid payload")
		return
	}
	pool, err := s.engine.DepositPayout(r.Context(), caller, listing, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPoolView(pool))
}

func (s *Server) handleClaimPayout(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.caller(w, r)
	if !ok {
		return
	}
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	claim, err := s.engine.ClaimPayout(r.Context(), caller, listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newClaimView(claim))
}

// Reads

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.engine.Config(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newConfigView(cfg))
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.engine.Listings(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filtered := listings[:0]
		for _, listing := range listings {
			if listing.Status.String() == raw {
				filtered = append(filtered, listing)
			}
		}
		listings = filtered
	}
	s.writeJSON(w, http.StatusOK, mapViews(listings, newListingView))
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	addr, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	listing, err := s.engine.Listing(r.Context(), addr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newListingView(listing))
}

func (s *Server) handleResales(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	resales, err := s.engine.Resales(r.Context(), listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapViews(resales, newResaleView))
}

func (s *Server) handleResale(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	seller, ok := s.addressParam(w, r, "seller")
	if !ok {
		return
	}
	resale, err := s.engine.Resale(r.Context(), listing, seller)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newResaleView(resale))
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	pool, err := s.engine.Pool(r.Context(), listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPoolView(pool))
}

// optionalListing reads the {listing} param when the route carries one. The
// zero address selects every listing.
func (s *Server) optionalListing(w http.ResponseWriter, r *http.Request) ([20]byte, bool) {
	if chi.URLParam(r, "listing") == "" {
		return [20]byte{}, true
	}
	return s.addressParam(w, r, "listing")
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.optionalListing(w, r)
	if !ok {
		return
	}
	claims, err := s.engine.ListClaims(r.Context(), listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapViews(claims, newClaimView))
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.addressParam(w, r, "listing")
	if !ok {
		return
	}
	holder, ok := s.addressParam(w, r, "holder")
	if !ok {
		return
	}
	period, err := strconv.ParseUint(chi.URLParam(r, "period"), 10, 64)
	if err != nil {
		s.badRequest(w, "invalid period")
		return
	}
	claim, err := s.engine.Claim(r.Context(), listing, holder, period)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newClaimView(claim))
}

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	listing, ok := s.optionalListing(w, r)
	if !ok {
		return
	}
	sales, err := s.engine.ListSales(r.Context(), listing)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapViews(sales, newSaleView))
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	account, ok := s.addressParam(w, r, "account")
	if !ok {
		return
	}
	balance, err := s.engine.Balance(r.Context(), account)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"account": crypto.Encode(account),
		"balance": balance,
		"display": royalty.FormatAmount(balance),
	})
}

func (s *Server) handleAssetBalance(w http.ResponseWriter, r *http.Request) {
	assetID, err := crypto.ParseAssetID(chi.URLParam(r, "asset"))
	if err != nil {
		s.badRequest(w, "invalid asset: "+err.Error())
		return
	}
	holder, ok := s.addressParam(w, r, "holder")
	if !ok {
		return
	}
	quantity, err := s.engine.AssetBalance(r.Context(), assetID, holder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"assetId":  crypto.HexAssetID(assetID),
		"holder":   crypto.Encode(holder),
		"quantity": quantity,
	})
}
