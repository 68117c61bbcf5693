package controllers

import (
	"net/http"
	"strings"

	"github.com/worldleaderio/worldleader-backend/api/responses"
	"github.com/worldleaderio/worldleader-backend/api/validators"
	"github.com/worldleaderio/worldleader-backend/internal/leaderboard"
	"github.com/worldleaderio/worldleader-backend/pkg/enums"
	pkgerrors "github.com/worldleaderio/worldleader-backend/pkg/errors"
	"github.com/worldleaderio/worldleader-backend/pkg/logger"
)

// Leaderboard serves the ranked board, globally or filtered to one continent.
func Leaderboard(svc leaderboard.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "leaderboard service unavailable"))
			return
		}

		query := leaderboard.Query{}

		if raw := strings.TrimSpace(r.URL.Query().Get("continent")); raw != "" {
			continent, err := enums.ParseContinent(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid continent"))
				return
			}
			query.Continent = &continent
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 1000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.Limit = limit

		entries, err := svc.Board(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries})
	}
}
