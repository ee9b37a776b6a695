package controllers

import (
	"net/http"

	"github.com/wolfbites/foodruns-backend/api/responses"
	"github.com/wolfbites/foodruns-backend/internal/points"
	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
	"github.com/wolfbites/foodruns-backend/pkg/logger"
)

// PointsBalance reports the caller's points and their cash value.
func PointsBalance(svc points.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "points service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Balance(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// PointsRedeem converts the caller's whole redeemable blocks into credit.
func PointsRedeem(svc points.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "points service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Redeem(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
