// Package recommend ranks catalog products for a user profile: a rule
// scoring pipeline per category, explain strings, ingredient compatibility
// warnings and a routine suggestion.
package recommend

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dariamatveeva/beautycare-backend/internal/affiliates"
	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/internal/profiles"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
	"github.com/dariamatveeva/beautycare-backend/pkg/metrics"
)

const maxPerCategory = 3

// ProductView is one recommended product as rendered by the chat shell.
type ProductView struct {
	ID          string   `json:"id"`
	Brand       string   `json:"brand"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Currency    string   `json:"price_currency"`
	Link        string   `json:"link"`
	RefLink     string   `json:"ref_link"`
	Actives     []string `json:"actives,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	MatchReason string   `json:"match_reason"`
}

// Selection is the two-tier result keyed by canonical category slugs.
type Selection struct {
	Skincare map[string][]ProductView `json:"skincare"`
	Makeup   map[string][]ProductView `json:"makeup"`
	Warnings []string                 `json:"compatibility_warnings"`
	Routine  Routine                  `json:"routine_suggestions"`
}

// ServiceParams wires the selector's dependencies.
type ServiceParams struct {
	Affiliates *affiliates.Service
	Metrics    *metrics.PlatformMetrics
	Logger     *logger.Logger
}

// Service scores catalog snapshots against finalized profiles.
type Service struct {
	affiliates *affiliates.Service
	metrics    *metrics.PlatformMetrics
	logg       *logger.Logger
}

// NewService validates dependencies and builds the selector.
func NewService(params ServiceParams) (*Service, error) {
	if params.Affiliates == nil {
		return nil, errors.New("recommend: affiliates service is required")
	}
	return &Service{
		affiliates: params.Affiliates,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// Select builds the full selection for a profile. The profile may be
// arbitrarily partial; missing fields simply fire fewer rules.
func (s *Service) Select(ctx context.Context, profile *profiles.Profile, snap *catalog.Snapshot) *Selection {
	started := time.Now()
	if profile == nil {
		profile = &profiles.Profile{}
	}

	selection := &Selection{
		Skincare: make(map[string][]ProductView, len(catalog.SkincareCategories)),
		Makeup:   make(map[string][]ProductView, len(catalog.MakeupCategories)),
		Routine:  buildRoutine(profile),
	}

	selectedActives := make(map[string]struct{})
	for _, slug := range catalog.SkincareCategories {
		views := s.selectCategory(profile, snap, slug)
		if len(views) == 0 {
			continue
		}
		selection.Skincare[slug] = views
		for _, view := range views {
			for _, active := range view.Actives {
				selectedActives[active] = struct{}{}
			}
		}
	}
	for _, slug := range catalog.MakeupCategories {
		if views := s.selectCategory(profile, snap, slug); len(views) > 0 {
			selection.Makeup[slug] = views
		}
	}
	selection.Warnings = compatibilityWarnings(selectedActives)

	s.metrics.IncSelectorRun("ok")
	s.metrics.ObserveSelector("all", time.Since(started))
	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"skincare_slots": len(selection.Skincare),
			"makeup_slots":   len(selection.Makeup),
			"warnings":       len(selection.Warnings),
		})
		s.logg.Info(lctx, "selection built")
	}
	return selection
}

type scoredProduct struct {
	product *catalog.Product
	result  scoreResult
	order   int
}

func (s *Service) selectCategory(profile *profiles.Profile, snap *catalog.Snapshot, slug string) []ProductView {
	products := snap.Products()
	var scored []scoredProduct
	for i := range products {
		product := &products[i]
		if !catalog.MatchesCategory(product.Category, slug) {
			continue
		}
		result := scoreProduct(profile, product, slug)
		if result.excluded {
			continue
		}
		scored = append(scored, scoredProduct{product: product, result: result, order: i})
	}

	// descending score; stable input order breaks ties
	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].result.score > scored[b].result.score
	})
	if len(scored) > maxPerCategory {
		scored = scored[:maxPerCategory]
	}

	views := make([]ProductView, 0, len(scored))
	for _, sp := range scored {
		views = append(views, ProductView{
			ID:          sp.product.ID,
			Brand:       sp.product.Brand,
			Name:        sp.product.Title,
			Category:    sp.product.Category,
			Price:       sp.product.Price,
			Currency:    sp.product.Currency,
			Link:        sp.product.Link,
			RefLink:     s.affiliates.RefLink(sp.product.Link, sp.product.Brand, sp.product.Title),
			Actives:     sp.product.Actives,
			Tags:        sp.product.Tags,
			MatchReason: explain(slug, sp.result.reasons),
		})
	}
	return views
}
