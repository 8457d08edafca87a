package controllers

import (
	"net/http"

	"github.com/dariamatveeva/beautycare-backend/api/responses"
	"github.com/dariamatveeva/beautycare-backend/api/validators"
	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/internal/profiles"
	"github.com/dariamatveeva/beautycare-backend/internal/recommend"
	pkgerrors "github.com/dariamatveeva/beautycare-backend/pkg/errors"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

// Recommendations builds a selection for the user's saved profile. Users
// who never completed a questionnaire get 404 with a pointer to the flows.
func Recommendations(selector *recommend.Service, profileStore *profiles.Store, catalogStore *catalog.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.ParseUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		stored, ok, err := profileStore.Load(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load profile"))
			return
		}
		if !ok {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "no saved profile, complete a questionnaire first"))
			return
		}

		selection := selector.Select(ctx, &stored.Profile, catalogStore.Get(ctx))
		responses.WriteSuccess(w, map[string]any{
			"profile_saved_at": stored.SavedAt,
			"selection":        selection,
		})
	}
}
