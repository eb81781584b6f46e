package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"resume-ai-credits/internal/domain"
	"resume-ai-credits/internal/domain/model"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error            string `json:"error"`
	RemainingCredits *int64 `json:"remaining_credits,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, remaining *int64) {
	writeJSON(w, status, errorResponse{Error: code, RemainingCredits: remaining})
}

// writeDomainError maps the domain sentinels onto HTTP statuses for the
// routes that have no route-specific mapping.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid_request", nil)
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", nil)
		return false
	}
	return true
}

type balanceResponse struct {
	UserID  string `json:"user_id"`
	Credits int64  `json:"credits"`
}

func (s *Server) handleGetCredits(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	balance, err := s.ledgerUC.GetBalance(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{UserID: userID, Credits: balance})
}

type ledgerEventResponse struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Amount        int64     `json:"amount"`
	Reason        string    `json:"reason"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Server) handleCreditHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := s.ledgerUC.History(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]ledgerEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, ledgerEventResponse{
			ID:            ev.ID,
			Kind:          string(ev.Kind),
			Amount:        ev.Amount,
			Reason:        ev.Reason,
			BalanceBefore: ev.BalanceBefore,
			BalanceAfter:  ev.BalanceAfter,
			CreatedAt:     ev.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": out})
}

type consumeRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type consumeResponse struct {
	Success          bool  `json:"success"`
	RemainingCredits int64 `json:"remaining_credits"`
}

func (s *Server) handleConsumeCredit(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := s.ledgerUC.ConsumeCredit(r.Context(), userIDFrom(r.Context()), req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			remaining := res.RemainingCredits
			writeError(w, http.StatusPaymentRequired, "insufficient_credits", &remaining)
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consumeResponse{Success: res.Success, RemainingCredits: res.RemainingCredits})
}

type claimResponse struct {
	UserID          string `json:"user_id"`
	CoinAdded       int64  `json:"coin_added"`
	Coin            int64  `json:"coin"`
	HasUsedFreePlan bool   `json:"has_used_free_plan"`
	PlanStatus      string `json:"plan_status"`
}

func (s *Server) handleClaimFreePlan(w http.ResponseWriter, r *http.Request) {
	res, err := s.freePlanUC.Claim(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrFreePlanClaimed):
			writeError(w, http.StatusBadRequest, "already_claimed", nil)
		case errors.Is(err, domain.ErrFreePlanMisconfigured):
			writeError(w, http.StatusInternalServerError, "free_plan_misconfigured", nil)
		default:
			writeDomainError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{
		UserID:          res.UserID,
		CoinAdded:       res.CoinAdded,
		Coin:            res.Coin,
		HasUsedFreePlan: res.HasUsedFreePlan,
		PlanStatus:      string(res.PlanStatus),
	})
}

type webhookRequest struct {
	EventID      string `json:"event_id"`
	EventType    string `json:"event_type"`
	CustomerID   string `json:"customer_id"`
	PlanID       string `json:"plan_id"`
	Amount       int64  `json:"credits_amount"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type webhookResponse struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	if !VerifyWebhookSignature(s.webhookSecret, body, r.Header.Get("X-Webhook-Signature")) {
		writeError(w, http.StatusUnauthorized, "invalid_signature", nil)
		return
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}

	res, err := s.webhookUC.HandleEvent(r.Context(), &model.WebhookEvent{
		EventID:      req.EventID,
		Type:         req.EventType,
		CustomerID:   req.CustomerID,
		Amount:       req.Amount,
		PlanID:       req.PlanID,
		ErrorCode:    req.ErrorCode,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, webhookResponse{Received: res.Received, Duplicate: res.Duplicate})
}

type returnResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Coins   int64  `json:"coins"`
}

func (s *Server) handlePaymentReturn(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	status := r.URL.Query().Get("status")
	txn, err := s.webhookUC.Reconcile(r.Context(), orderID, userIDFrom(r.Context()), status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, returnResponse{
		OrderID: txn.OrderID,
		Status:  string(txn.Status),
		Coins:   txn.PurchasedCoinAmount,
	})
}

type featureRequest struct {
	Action      string `json:"action"`
	FeatureName string `json:"feature_name"`
}

type featureAccessBody struct {
	UnlockedKeys []string `json:"unlocked_keys"`
	EnabledKeys  []string `json:"enabled_keys"`
}

type featureResponse struct {
	Access     featureAccessBody `json:"access"`
	FeatureKey string            `json:"feature_key"`
}

func toFeatureResponse(key string, access *model.FeatureAccess) featureResponse {
	res := featureResponse{
		FeatureKey: key,
		Access:     featureAccessBody{UnlockedKeys: access.UnlockedKeys, EnabledKeys: access.EnabledKeys},
	}
	if res.Access.UnlockedKeys == nil {
		res.Access.UnlockedKeys = []string{}
	}
	if res.Access.EnabledKeys == nil {
		res.Access.EnabledKeys = []string{}
	}
	return res
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID := userIDFrom(r.Context())

	var access *model.FeatureAccess
	var err error
	switch req.Action {
	case "enable":
		access, err = s.featureUC.Enable(r.Context(), userID, req.FeatureName)
	case "disable":
		access, err = s.featureUC.Disable(r.Context(), userID, req.FeatureName)
	default:
		writeError(w, http.StatusBadRequest, "invalid_action", nil)
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientCredits):
			writeError(w, http.StatusPaymentRequired, "insufficient_credits", nil)
		case errors.Is(err, domain.ErrUnknownFeature):
			writeError(w, http.StatusBadRequest, "unknown_feature", nil)
		default:
			writeDomainError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, toFeatureResponse(req.FeatureName, access))
}

type transitionResponse struct {
	ID        string                 `json:"id"`
	FromState string                 `json:"from_state"`
	ToState   string                 `json:"to_state"`
	Event     string                 `json:"event,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type stateResponse struct {
	UserID      string               `json:"user_id"`
	State       string               `json:"state"`
	Signals     model.StateSignals   `json:"signals"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Transitions []transitionResponse `json:"transitions"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())
	st, err := s.stateUC.CurrentState(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	transitions, err := s.stateUC.RecentTransitions(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res := stateResponse{
		UserID:      st.UserID,
		State:       st.CurrentState,
		Signals:     st.Signals,
		UpdatedAt:   st.UpdatedAt,
		Transitions: make([]transitionResponse, 0, len(transitions)),
	}
	for _, t := range transitions {
		res.Transitions = append(res.Transitions, transitionResponse{
			ID:        t.ID,
			FromState: t.FromState,
			ToState:   t.ToState,
			Event:     t.Event,
			Metadata:  t.Metadata,
			CreatedAt: t.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, res)
}
