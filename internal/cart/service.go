package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/internal/sources"
	"github.com/dariamatveeva/beautycare-backend/pkg/config"
	"github.com/dariamatveeva/beautycare-backend/pkg/errors"
	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
	"github.com/dariamatveeva/beautycare-backend/pkg/metrics"
	"github.com/dariamatveeva/beautycare-backend/pkg/money"
)

const lockShards = 16

// variantPrefixes are the structured variant id forms accepted verbatim.
// Anything else must collapse to alphanumerics once separators are removed.
var variantPrefixes = []string{"shade-", "volume-", "size-", "color-", "tone-"}

// SnapshotProvider supplies the current catalog snapshot.
type SnapshotProvider interface {
	Get(ctx context.Context) *catalog.Snapshot
}

// LinkWrapper decorates outbound product links with partner parameters.
type LinkWrapper interface {
	RefLink(link, brand, title string) string
}

type ServiceParams struct {
	Catalog    SnapshotProvider
	Store      *Store
	Affiliates LinkWrapper
	Metrics    *metrics.PlatformMetrics
	Logger     *logger.Logger
	Config     config.CartConfig
}

// Service owns all cart mutations: validation, duplicate suppression,
// per-user serialization and persistence.
type Service struct {
	catalog    SnapshotProvider
	store      *Store
	affiliates LinkWrapper
	metrics    *metrics.PlatformMetrics
	logg       *logger.Logger
	cfg        config.CartConfig
	now        func() time.Time

	locks [lockShards]sync.Mutex

	cacheMu sync.RWMutex
	cache   map[int64]*Cart

	debMu     sync.Mutex
	debounced map[string]time.Time
	lastPrune time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog provider is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("cart store is required")
	}
	if params.Affiliates == nil {
		return nil, fmt.Errorf("affiliates service is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{
		catalog:    params.Catalog,
		store:      params.Store,
		affiliates: params.Affiliates,
		metrics:    params.Metrics,
		logg:       params.Logger,
		cfg:        params.Config,
		now:        time.Now,
		cache:      make(map[int64]*Cart),
		debounced:  make(map[string]time.Time),
	}, nil
}

func (s *Service) lockFor(userID int64) *sync.Mutex {
	shard := userID % lockShards
	if shard < 0 {
		shard += lockShards
	}
	return &s.locks[shard]
}

func (s *Service) maxQty() int {
	if s.cfg.MaxQuantity > 0 {
		return s.cfg.MaxQuantity
	}
	return MaxQuantity
}

// Get returns the user's cart, loading it from disk on first access.
func (s *Service) Get(ctx context.Context, userID int64) (*Cart, error) {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()
	return s.cart(ctx, userID)
}

// Add inserts a product line or merges quantity into an existing line with
// the same composite key.
func (s *Service) Add(ctx context.Context, userID int64, productID, variantID string, qty int) (*Cart, error) {
	productID = strings.TrimSpace(productID)
	variantID = strings.TrimSpace(variantID)
	if err := s.validateAdd(productID, variantID, qty); err != nil {
		s.metrics.IncCartMutation("add", "rejected")
		return nil, err
	}
	if wait, ok := s.debounce(userID, productID, variantID); !ok {
		s.metrics.IncCartMutation("add", "duplicate")
		return nil, errors.New(errors.CodeDuplicateRequest, "identical request is already being processed").
			WithDetails(map[string]any{"retry_after_ms": wait.Milliseconds()})
	}

	product, err := s.resolveProduct(ctx, productID, variantID)
	if err != nil {
		s.metrics.IncCartMutation("add", "rejected")
		return nil, err
	}
	if qty > s.maxQty() {
		qty = s.maxQty()
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := cart.clone()
	key := CompositeKey(productID, variantID)
	if idx := updated.find(key); idx >= 0 {
		updated.Items[idx].Qty += qty
		if updated.Items[idx].Qty > s.maxQty() {
			updated.Items[idx].Qty = s.maxQty()
		}
	} else {
		updated.Items = append(updated.Items, s.snapshotItem(product, variantID, qty))
	}

	if err := s.persist(ctx, updated); err != nil {
		s.metrics.IncCartMutation("add", "error")
		return nil, err
	}
	s.swapCache(userID, updated)
	s.metrics.IncCartMutation("add", "ok")
	lctx := s.logg.WithProductID(s.logg.WithUserID(ctx, userID), productID)
	s.logg.Info(s.logg.WithField(lctx, "qty", qty), "cart item added")
	return updated, nil
}

// Remove deletes the line identified by the composite key. Removing a line
// that is not present leaves the cart untouched. The removed line is kept
// for a short undo window.
func (s *Service) Remove(ctx context.Context, userID int64, productID, variantID string) (*Cart, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		s.metrics.IncCartMutation("remove", "rejected")
		return nil, errors.New(errors.CodeInvalidProductID, "product id is required")
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := cart.find(CompositeKey(productID, strings.TrimSpace(variantID)))
	if idx < 0 {
		return cart, nil
	}

	removed := cart.Items[idx]
	updated := cart.clone()
	updated.Items = append(updated.Items[:idx], updated.Items[idx+1:]...)
	if err := s.persist(ctx, updated); err != nil {
		s.metrics.IncCartMutation("remove", "error")
		return nil, err
	}
	// The undo buffer is armed only once the removal is on disk.
	s.store.TrackRemoved(userID, removed)
	s.swapCache(userID, updated)
	s.metrics.IncCartMutation("remove", "ok")
	s.logg.Info(s.logg.WithProductID(s.logg.WithUserID(ctx, userID), productID), "cart item removed")
	return updated, nil
}

// SetQty overwrites a line's quantity. Zero removes the line (with undo
// tracking), values above the cap are clamped.
func (s *Service) SetQty(ctx context.Context, userID int64, productID, variantID string, qty int) (*Cart, error) {
	if qty < 0 {
		s.metrics.IncCartMutation("set_qty", "rejected")
		return nil, errors.New(errors.CodeInvalidQuantity, "quantity must not be negative")
	}
	if qty == 0 {
		return s.Remove(ctx, userID, productID, variantID)
	}
	if qty > s.maxQty() {
		qty = s.maxQty()
	}
	return s.changeQty(ctx, userID, productID, variantID, func(current int) int { return qty }, "set_qty")
}

// IncQty bumps a line's quantity by one, clamped at the cap.
func (s *Service) IncQty(ctx context.Context, userID int64, productID, variantID string) (*Cart, error) {
	return s.changeQty(ctx, userID, productID, variantID, func(current int) int {
		if current >= s.maxQty() {
			return current
		}
		return current + 1
	}, "inc_qty")
}

// DecQty lowers a line's quantity by one; reaching zero removes the line
// and arms the undo buffer.
func (s *Service) DecQty(ctx context.Context, userID int64, productID, variantID string) (*Cart, error) {
	return s.changeQty(ctx, userID, productID, variantID, func(current int) int { return current - 1 }, "dec_qty")
}

func (s *Service) changeQty(ctx context.Context, userID int64, productID, variantID string, next func(int) int, op string) (*Cart, error) {
	productID = strings.TrimSpace(productID)
	variantID = strings.TrimSpace(variantID)
	if productID == "" {
		s.metrics.IncCartMutation(op, "rejected")
		return nil, errors.New(errors.CodeInvalidProductID, "product id is required")
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := cart.find(CompositeKey(productID, variantID))
	if idx < 0 {
		s.metrics.IncCartMutation(op, "rejected")
		return nil, errors.New(errors.CodeNotFound, "cart item not found").
			WithDetails(map[string]any{"product_id": productID, "variant_id": variantID})
	}

	qty := next(cart.Items[idx].Qty)
	updated := cart.clone()
	var removed *Item
	if qty <= 0 {
		line := cart.Items[idx]
		removed = &line
		updated.Items = append(updated.Items[:idx], updated.Items[idx+1:]...)
	} else {
		updated.Items[idx].Qty = qty
	}

	if err := s.persist(ctx, updated); err != nil {
		s.metrics.IncCartMutation(op, "error")
		return nil, err
	}
	if removed != nil {
		s.store.TrackRemoved(userID, *removed)
	}
	s.swapCache(userID, updated)
	s.metrics.IncCartMutation(op, "ok")
	return updated, nil
}

// Clear drops every line and the persisted file.
func (s *Service) Clear(ctx context.Context, userID int64) (*Cart, error) {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	if err := s.store.Delete(ctx, userID); err != nil {
		s.metrics.IncCartMutation("clear", "error")
		return nil, errors.Wrap(errors.CodeCartOperation, err, "failed to clear cart")
	}

	cart := &Cart{UserID: userID, Items: []Item{}}
	cart.recompute(s.now())
	s.swapCache(userID, cart)
	s.metrics.IncCartMutation("clear", "ok")
	s.logg.Info(s.logg.WithUserID(ctx, userID), "cart cleared")
	return cart, nil
}

// RestoreLastRemoved puts the most recently removed line back, merging
// quantities if the line was re-added meanwhile. The second return value
// reports whether anything was restored.
func (s *Service) RestoreLastRemoved(ctx context.Context, userID int64) (*Cart, bool, error) {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	cart, err := s.cart(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	item, ok := s.store.TakeRemoved(userID)
	if !ok {
		return cart, false, nil
	}

	updated := cart.clone()
	if idx := updated.find(item.Key()); idx >= 0 {
		updated.Items[idx].Qty += item.Qty
		if updated.Items[idx].Qty > s.maxQty() {
			updated.Items[idx].Qty = s.maxQty()
		}
	} else {
		updated.Items = append(updated.Items, item)
	}

	if err := s.persist(ctx, updated); err != nil {
		// Re-arm the undo entry so a failed restore can be retried.
		s.store.TrackRemoved(userID, item)
		s.metrics.IncCartMutation("restore", "error")
		return nil, false, err
	}
	s.swapCache(userID, updated)
	s.metrics.IncCartMutation("restore", "ok")
	s.logg.Info(s.logg.WithProductID(s.logg.WithUserID(ctx, userID), item.ProductID), "cart item restored")
	return updated, true, nil
}

func (s *Service) cart(ctx context.Context, userID int64) (*Cart, error) {
	s.cacheMu.RLock()
	cached, ok := s.cache[userID]
	s.cacheMu.RUnlock()
	if ok {
		return cached, nil
	}

	cart, err := s.store.Load(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeCartOperation, err, "failed to load cart")
	}
	s.cacheMu.Lock()
	s.cache[userID] = cart
	s.cacheMu.Unlock()
	return cart, nil
}

// swapCache commits a mutated cart copy as the cached state. Callers only
// invoke it after the copy has been persisted, so a failed save leaves the
// previously cached cart observable.
func (s *Service) swapCache(userID int64, cart *Cart) {
	s.cacheMu.Lock()
	s.cache[userID] = cart
	s.cacheMu.Unlock()
}

func (s *Service) persist(ctx context.Context, cart *Cart) error {
	cart.recompute(s.now())
	if err := s.store.Save(ctx, cart); err != nil {
		return errors.Wrap(errors.CodeCartOperation, err, "failed to persist cart")
	}
	return nil
}

func (s *Service) validateAdd(productID, variantID string, qty int) error {
	if productID == "" {
		return errors.New(errors.CodeInvalidProductID, "product id is required")
	}
	if qty < 1 {
		return errors.New(errors.CodeInvalidQuantity, "quantity must be at least 1")
	}
	if variantID == "" {
		return nil
	}
	if !validVariantFormat(variantID) {
		return errors.New(errors.CodeInvalidVariantID, "variant id has an unrecognized format").
			WithDetails(map[string]any{"variant_id": variantID})
	}
	return nil
}

func (s *Service) resolveProduct(ctx context.Context, productID, variantID string) (*catalog.Product, error) {
	snapshot := s.catalog.Get(ctx)
	product, ok := snapshot.Lookup(productID)
	if !ok {
		return nil, errors.New(errors.CodeProductNotFound, "product not found").
			WithDetails(map[string]any{"product_id": productID})
	}
	if product.OutOfStock() {
		return nil, errors.New(errors.CodeOutOfStock, "product is out of stock").
			WithDetails(map[string]any{"product_id": productID})
	}
	if variantID == "" {
		return product, nil
	}
	if !catalog.SupportsVariants(product.Category) {
		return nil, errors.New(errors.CodeVariantNotSupported, "product category does not support variants").
			WithDetails(map[string]any{"product_id": productID, "category": product.Category})
	}
	if !product.HasVariant(variantID) {
		return nil, errors.New(errors.CodeVariantMismatch, "variant does not belong to this product").
			WithDetails(map[string]any{"product_id": productID, "variant_id": variantID})
	}
	return product, nil
}

func (s *Service) snapshotItem(product *catalog.Product, variantID string, qty int) Item {
	item := Item{
		ProductID:  product.ID,
		VariantID:  variantID,
		Name:       product.Title,
		Brand:      product.Brand,
		PriceMinor: money.ToMinorUnits(product.Price),
		Currency:   money.PrimaryCurrency,
		Link:       product.Link,
		RefLink:    s.affiliates.RefLink(product.Link, product.Brand, product.Title),
		Source:     product.Source,
		Qty:        qty,
		Meta:       map[string]string{},
		AddedAt:    s.now(),
	}
	if code, ok := money.NormalizeCurrency(product.Currency); ok {
		item.Currency = code
	} else if product.Currency != "" {
		item.Currency = product.Currency
	}
	if item.Source == "" {
		item.Source = sources.ByLink(product.Link).Category
	}
	for i := range product.Variants {
		if strings.EqualFold(product.Variants[i].ID, variantID) {
			item.VariantName = product.Variants[i].Name
			break
		}
	}
	return item
}

// debounce reports whether the mutation may proceed. A second identical
// request inside the window is suppressed; the remaining wait is returned.
func (s *Service) debounce(userID int64, productID, variantID string) (time.Duration, bool) {
	window := s.cfg.DebounceWindow
	if window <= 0 {
		return 0, true
	}
	key := fmt.Sprintf("%d:%s:%s", userID, productID, keyVariant(variantID))

	s.debMu.Lock()
	defer s.debMu.Unlock()

	now := s.now()
	s.pruneDebounced(now, window)
	if at, ok := s.debounced[key]; ok {
		if elapsed := now.Sub(at); elapsed < window {
			return window - elapsed, false
		}
	}
	s.debounced[key] = now
	return 0, true
}

// pruneDebounced lazily evicts expired entries, at most once per prune
// interval so hot paths stay cheap.
func (s *Service) pruneDebounced(now time.Time, window time.Duration) {
	interval := s.cfg.DebouncePrune
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if now.Sub(s.lastPrune) < interval {
		return
	}
	s.lastPrune = now
	for key, at := range s.debounced {
		if now.Sub(at) >= window {
			delete(s.debounced, key)
		}
	}
}

func keyVariant(variantID string) string {
	if variantID == "" {
		return "default"
	}
	return variantID
}

// validVariantFormat accepts the structured prefixes or ids that are plain
// alphanumerics once dashes and underscores are stripped.
func validVariantFormat(variantID string) bool {
	lower := strings.ToLower(variantID)
	for _, prefix := range variantPrefixes {
		if strings.HasPrefix(lower, prefix) && len(lower) > len(prefix) {
			return true
		}
	}
	stripped := strings.NewReplacer("-", "", "_", "").Replace(variantID)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if !isAlnum(r) {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
