package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/worldleaderio/worldleader-backend/api/middleware"
	"github.com/worldleaderio/worldleader-backend/api/responses"
	"github.com/worldleaderio/worldleader-backend/api/validators"
	"github.com/worldleaderio/worldleader-backend/internal/purchase"
	"github.com/worldleaderio/worldleader-backend/internal/users"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
)

type purchaseRequest struct {
	AmountUsd decimal.Decimal `json:"amount_usd" validate:"required"`
}

type purchaseResponse struct {
	User             *users.UserDTO  `json:"user"`
	TransactionID    uuid.UUID       `json:"transaction_id"`
	AmountUsd        decimal.Decimal `json:"amount_usd"`
	PositionsBought  int64           `json:"positions_bought"`
	PositionsMoved   int             `json:"positions_moved"`
	NewContinentRank int             `json:"new_continent_rank"`
	NewGlobalRank    int             `json:"new_global_rank"`
	Message          string          `json:"message"`
}

func newPurchaseResponse(result *purchase.Result) purchaseResponse {
	resp := purchaseResponse{
		User:            users.FromModel(result.User),
		PositionsBought: result.PositionsBought,
		PositionsMoved:  result.PositionsMoved,
		Message:         result.Message,
	}
	if result.Transaction != nil {
		resp.TransactionID = result.Transaction.ID
		resp.AmountUsd = result.Transaction.AmountUsd
	}
	if result.User != nil {
		resp.NewContinentRank = result.User.ContinentRank
		resp.NewGlobalRank = result.User.GlobalRank
	}
	return resp
}

// Purchase buys positions for the authenticated user and reports the climb.
func Purchase(svc purchase.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchase service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var body purchaseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Purchase(r.Context(), userID, body.AmountUsd)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newPurchaseResponse(result))
	}
}
