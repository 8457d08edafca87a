package controllers

import (
	"net/http"
	"strings"

	"github.com/dariamatveeva/beautycare-backend/api/responses"
	"github.com/dariamatveeva/beautycare-backend/api/validators"
	"github.com/dariamatveeva/beautycare-backend/internal/cart"
	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/internal/sources"
	pkgerrors "github.com/dariamatveeva/beautycare-backend/pkg/errors"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

type addItemRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id"`
	Qty       int    `json:"qty" validate:"omitempty,gte=1"`
}

type itemKeyRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id"`
}

type setQtyRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id"`
	Qty       int    `json:"qty" validate:"gte=0"`
}

func CartGet(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.ParseUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		c, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func CartAddItem(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if req.Qty == 0 {
			req.Qty = 1
		}

		c, err := svc.Add(ctx, req.UserID, req.ProductID, req.VariantID, req.Qty)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, c)
	}
}

func CartRemoveItem(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req itemKeyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		c, err := svc.Remove(ctx, req.UserID, req.ProductID, req.VariantID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func CartSetQty(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req setQtyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		c, err := svc.SetQty(ctx, req.UserID, req.ProductID, req.VariantID, req.Qty)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

func CartRestore(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req userIDRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		c, restored, err := svc.RestoreLastRemoved(ctx, req.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"restored": restored,
			"cart":     c,
		})
	}
}

func CartClear(svc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := validators.ParseUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		c, err := svc.Clear(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, c)
	}
}

// CartResolve checks where a product can actually be bought: source
// classification, availability and, when sold out, the closest available
// alternative.
func CartResolve(resolver *sources.Resolver, catalogStore *catalog.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		productID := strings.TrimSpace(r.URL.Query().Get("product_id"))
		if productID == "" {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeInvalidProductID, "product_id is required"))
			return
		}

		snap := catalogStore.Get(ctx)
		product, ok := snap.Lookup(productID)
		if !ok {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeProductNotFound, "product not found").
					WithDetails(map[string]any{"product_id": productID}))
			return
		}

		responses.WriteSuccess(w, resolver.Resolve(ctx, snap, product))
	}
}
