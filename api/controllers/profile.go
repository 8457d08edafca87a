package controllers

import (
	"net/http"

	"github.com/dariamatveeva/beautycare-backend/api/responses"
	"github.com/dariamatveeva/beautycare-backend/api/validators"
	"github.com/dariamatveeva/beautycare-backend/internal/profiles"
	pkgerrors "github.com/dariamatveeva/beautycare-backend/pkg/errors"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

func ProfileGet(store *profiles.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.ParseUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		stored, ok, err := store.Load(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load profile"))
			return
		}
		if !ok {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "profile not found"))
			return
		}
		responses.WriteSuccess(w, stored)
	}
}

func ProfileDelete(store *profiles.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.ParseUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := store.Delete(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete profile"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
