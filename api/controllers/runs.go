package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wolfbites/foodruns-backend/api/responses"
	"github.com/wolfbites/foodruns-backend/api/validators"
	"github.com/wolfbites/foodruns-backend/internal/runs"
	pkgerrors "github.com/wolfbites/foodruns-backend/pkg/errors"
	"github.com/wolfbites/foodruns-backend/pkg/logger"
)

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a valid UUID")
	}
	return id, nil
}

// RunCreate opens a new run for the authenticated user.
func RunCreate(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body runs.CreateRunRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Restaurant = validators.SanitizeString(body.Restaurant, 200)
		body.DropPoint = validators.SanitizeString(body.DropPoint, 200)
		body.ETA = validators.SanitizeString(body.ETA, 100)

		result, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// RunList returns every run regardless of status.
func RunList(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if limit > 0 && len(views) > limit {
			views = views[:limit]
		}
		responses.WriteSuccess(w, views)
	}
}

// RunListAvailable returns active runs with open seats the caller can join.
func RunListAvailable(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.ListAvailable(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// RunListMine returns the caller's own runs, active or historical.
func RunListMine(svc runs.Service, history bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.ListMine(r.Context(), userID, history)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// RunListJoined returns runs the caller has an order on, active or historical.
func RunListJoined(svc runs.Service, history bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.ListJoined(r.Context(), userID, history)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

// RunDetail returns the role-scoped view of one run.
func RunDetail(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runID, err := pathUUID(r, "runID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Detail(r.Context(), runID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// RunJoin places the caller's order on a run.
func RunJoin(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runID, err := pathUUID(r, "runID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body runs.JoinRunRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Join(r.Context(), runID, userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// RunVerifyPin marks an order delivered after the runner confirms the pickup code.
func RunVerifyPin(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runID, err := pathUUID(r, "runID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body runs.VerifyPinRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.VerifyPin(r.Context(), runID, orderID, userID, body.PIN); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "delivered"})
	}
}

// RunCancelMyOrder withdraws the caller's own order from a run.
func RunCancelMyOrder(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runID, err := pathUUID(r, "runID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.CancelMyOrder(r.Context(), runID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// RunRemoveOrder lets the runner drop a joiner's order from an active run.
func RunRemoveOrder(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runID, err := pathUUID(r, "runID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveOrder(r.Context(), runID, orderID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// RunComplete closes a run and credits the runner's points.
func RunComplete(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runID, err := pathUUID(r, "runID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Complete(r.Context(), runID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// RunCancel voids a run without completing it.
func RunCancel(svc runs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "runs service unavailable"))
			return
		}

		userID, err := authenticatedUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runID, err := pathUUID(r, "runID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), runID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}
