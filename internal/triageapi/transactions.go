package triageapi

import (
	"encoding/json"
	"net/http"

	"github.com/linnemanlabs/sentinel/internal/triage"
)

// ingestRequest is the payload for POST /api/v1/transactions. Either a
// single transaction or a batch.
type ingestRequest struct {
	Transactions []ingestTransaction `json:"transactions"`
}

type ingestTransaction struct {
	OriginBank    string  `json:"origin_bank"`
	OriginAccount string  `json:"origin_account"`
	DestBank      string  `json:"dest_bank"`
	DestAccount   string  `json:"dest_account"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Format        string  `json:"format"`
}

func (a *API) handleIngestTransactions(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if len(req.Transactions) == 0 {
		http.Error(w, `{"error":"no transactions in payload"}`, http.StatusBadRequest)
		return
	}

	accepted := make([]string, 0, len(req.Transactions))
	for _, in := range req.Transactions {
		if in.Amount < 0 {
			http.Error(w, `{"error":"amount must be non-negative"}`, http.StatusBadRequest)
			return
		}

		tx := &triage.Transaction{
			OriginBank:    in.OriginBank,
			OriginAccount: in.OriginAccount,
			DestBank:      in.DestBank,
			DestAccount:   in.DestAccount,
			Amount:        in.Amount,
			Currency:      in.Currency,
			Format:        in.Format,
		}

		saved, err := a.store.InsertTransaction(r.Context(), tx)
		if err != nil {
			a.logger.Error(r.Context(), err, "failed to insert transaction",
				"accepted_so_far", len(accepted))
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		accepted = append(accepted, saved.ID)
	}

	a.logger.Info(r.Context(), "transactions ingested", "count", len(accepted))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"accepted": accepted,
	})
}
