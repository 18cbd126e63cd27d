package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/valhalla-so/valhalla-server/pkg/database/query"
	"github.com/valhalla-so/valhalla-server/pkg/valhalla/data/vault"
)

const (
	vaultPath  = "/v1/vault"
	vaultsPath = "/v1/vaults"

	defaultPageSize = 50
)

type vaultResponse struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	Creator   string `json:"creator"`
	Recipient string `json:"recipient"`
	Mint      string `json:"mint"`

	StartDate            uint64 `json:"start_date"`
	TotalVestingDuration uint64 `json:"total_vesting_duration"`
	PayoutInterval       uint64 `json:"payout_interval"`
	InitialDepositAmount uint64 `json:"initial_deposit_amount"`
	TotalNumberOfPayouts uint64 `json:"total_number_of_payouts"`
	NumberOfPaymentsMade uint64 `json:"number_of_payments_made"`
	NextPayoutAt         uint64 `json:"next_payout_at"`

	CancelAuthority string `json:"cancel_authority"`
	Autopay         bool   `json:"autopay"`
	State           string `json:"state"`
	Slot            uint64 `json:"slot"`
}

type vaultListResponse struct {
	Vaults     []vaultResponse `json:"vaults"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// newVaultHandler serves the indexed view of a vault, GET /v1/vault?address=<base58>
func newVaultHandler(vaults vault.Store) http.Handler {
	log := logrus.StandardLogger().WithField("handler", "vault")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}

		address := r.URL.Query().Get("address")
		if len(address) == 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "address is required"})
			return
		}

		record, err := vaults.GetByAddress(r.Context(), address)
		if err == vault.ErrVaultNotFound {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "vault not found"})
			return
		} else if err != nil {
			log.WithError(err).WithField("vault", address).Warn("failure getting vault record")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		writeJSON(w, http.StatusOK, toVaultResponse(record))
	})
}

type listFunc func(ctx context.Context, key string, cursor query.Cursor, limit uint64, direction query.Ordering) ([]*vault.Record, error)

// newVaultListHandler pages through indexed vaults by exactly one of creator,
// recipient or mint. GET /v1/vaults?creator=<base58>&cursor=&limit=&order=
func newVaultListHandler(vaults vault.Store) http.Handler {
	log := logrus.StandardLogger().WithField("handler", "vaults")

	filters := []struct {
		param string
		list  listFunc
	}{
		{"creator", vaults.GetAllByCreator},
		{"recipient", vaults.GetAllByRecipient},
		{"mint", vaults.GetAllByMint},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}

		params := r.URL.Query()

		var key string
		var list listFunc
		for _, filter := range filters {
			value := params.Get(filter.param)
			if len(value) == 0 {
				continue
			}
			if list != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "only one of creator, recipient or mint is allowed"})
				return
			}
			key, list = value, filter.list
		}
		if list == nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "one of creator, recipient or mint is required"})
			return
		}

		cursor, err := query.FromBase58(params.Get("cursor"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cursor"})
			return
		}

		limit := uint64(defaultPageSize)
		if raw := params.Get("limit"); len(raw) > 0 {
			limit, err = strconv.ParseUint(raw, 10, 64)
			if err != nil || limit == 0 {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
				return
			}
		}
		limit = query.ClampLimit(limit)

		direction := query.ToOrderingWithFallback(params.Get("order"), query.Ascending)

		records, err := list(r.Context(), key, cursor, limit, direction)
		if err != nil && err != vault.ErrVaultNotFound {
			log.WithError(err).Warn("failure listing vault records")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		resp := vaultListResponse{Vaults: make([]vaultResponse, 0, len(records))}
		for _, record := range records {
			resp.Vaults = append(resp.Vaults, toVaultResponse(record))
		}
		if uint64(len(records)) == limit {
			resp.NextCursor = query.ToCursor(records[len(records)-1].Id).ToBase58()
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func toVaultResponse(record *vault.Record) vaultResponse {
	return vaultResponse{
		Address:              record.Address,
		Name:                 record.Name,
		Creator:              record.Creator,
		Recipient:            record.Recipient,
		Mint:                 record.Mint,
		StartDate:            record.StartDate,
		TotalVestingDuration: record.TotalVestingDuration,
		PayoutInterval:       record.PayoutInterval,
		InitialDepositAmount: record.InitialDepositAmount,
		TotalNumberOfPayouts: record.TotalNumberOfPayouts,
		NumberOfPaymentsMade: record.NumberOfPaymentsMade,
		NextPayoutAt:         record.NextPayoutAt,
		CancelAuthority:      record.CancelAuthority.String(),
		Autopay:              record.Autopay,
		State:                record.State.String(),
		Slot:                 record.Slot,
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
