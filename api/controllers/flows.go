package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dariamatveeva/beautycare-backend/api/responses"
	"github.com/dariamatveeva/beautycare-backend/api/validators"
	"github.com/dariamatveeva/beautycare-backend/internal/flows"
	"github.com/dariamatveeva/beautycare-backend/internal/profiles"
	pkgerrors "github.com/dariamatveeva/beautycare-backend/pkg/errors"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

type startFlowRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

type updateStepRequest struct {
	UserID int64             `json:"user_id" validate:"required,gt=0"`
	Step   string            `json:"step" validate:"required"`
	Data   map[string]string `json:"data"`
}

type userIDRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
}

// FlowStart begins a questionnaire flow. A different active flow yields
// 409 with the conflict payload so the shell can offer continue/cancel.
func FlowStart(coord *flows.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		flow := chi.URLParam(r, "flow")

		var req startFlowRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if ok, conflict := coord.CanStart(ctx, req.UserID, flow); !ok {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeFlowConflict, "another flow is already active").
					WithDetails(conflict))
			return
		}

		session, err := coord.Start(ctx, req.UserID, flow)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payload := map[string]any{"session": session}
		if def, ok := flows.DefinitionFor(flow); ok {
			payload["flow"] = map[string]any{
				"title":             def.Title,
				"description":       def.Description,
				"duration_estimate": def.DurationEstimate,
				"steps":             def.Steps,
			}
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, payload)
	}
}

// FlowStep records an answered step. An unknown step or a missing session
// is a 404; a debounced duplicate still returns the session.
func FlowStep(coord *flows.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req updateStepRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		data := make(map[string]string, len(req.Data))
		for k, v := range req.Data {
			data[validators.SanitizeString(k, 64)] = validators.SanitizeString(v, 256)
		}

		session := coord.UpdateStep(ctx, req.UserID, req.Step, data)
		if session == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "no active session for this step"))
			return
		}

		payload := map[string]any{"session": session}
		if hint, ok := flows.StepHint(req.Step); ok {
			payload["hint"] = hint
		}
		if msg := flows.Encouragement(session.StepCount); msg != "" {
			payload["encouragement"] = msg
		}
		responses.WriteSuccess(w, payload)
	}
}

// FlowComplete finalizes the session, derives the profile from its answers
// and persists it.
func FlowComplete(coord *flows.Coordinator, profileStore *profiles.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req userIDRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session := coord.Complete(ctx, req.UserID)
		if session == nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "no active session to complete"))
			return
		}

		profile := flows.BuildProfile(session)
		if err := profileStore.Save(ctx, *profile, map[string]string{"flow": session.Flow}); err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to persist profile"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"session": session,
			"profile": profile,
		})
	}
}

func FlowAbandon(coord *flows.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req userIDRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"abandoned": coord.Abandon(ctx, req.UserID),
		})
	}
}

// FlowSession returns the active session plus recovery prompt data.
func FlowSession(coord *flows.Coordinator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.ParseUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		session, ok := coord.Session(ctx, userID)
		if !ok {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "no active session"))
			return
		}

		payload := map[string]any{"session": session}
		if recovery, ok := coord.RecoveryInfo(ctx, userID); ok {
			payload["recovery"] = recovery
		}
		responses.WriteSuccess(w, payload)
	}
}

// FlowStats exposes coordinator counters for monitoring.
func FlowStats(coord *flows.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, coord.Stats())
	}
}
