package cart

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dariamatveeva/beautycare-backend/internal/affiliates"
	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
	"github.com/dariamatveeva/beautycare-backend/pkg/config"
	apperrors "github.com/dariamatveeva/beautycare-backend/pkg/errors"
)

func stock(v bool) *bool { return &v }

type stubCatalog struct {
	snapshot *catalog.Snapshot
}

func (s *stubCatalog) Get(ctx context.Context) *catalog.Snapshot {
	return s.snapshot
}

func testProducts() []catalog.Product {
	return []catalog.Product{
		{
			ID:       "serum-001",
			Brand:    "The Ordinary",
			Title:    "Niacinamide 10% + Zinc 1%",
			Category: "serum",
			Price:    1290.50,
			Currency: "RUB",
			Link:     "https://goldapple.ru/serum-001",
			InStock:  stock(true),
			Source:   "goldapple",
		},
		{
			ID:       "foundation-002",
			Brand:    "Maybelline",
			Title:    "Fit Me Matte",
			Category: "foundation",
			Price:    899,
			Currency: "RUB",
			Link:     "https://wildberries.ru/foundation-002",
			InStock:  stock(true),
			Variants: []catalog.Variant{
				{ID: "shade-110", Name: "110 Ivory", Undertone: "cool"},
				{ID: "shade-220", Name: "220 Natural Beige", Undertone: "neutral"},
			},
		},
		{
			ID:       "lipstick-003",
			Brand:    "MAC",
			Title:    "Ruby Woo",
			Category: "lipstick",
			Price:    24.90,
			Currency: "USD",
			Link:     "https://sephora.com/lipstick-003",
			InStock:  stock(true),
		},
		{
			// No in_stock flag at all; the catalog treats that as available.
			ID:       "toner-005",
			Brand:    "COSRX",
			Title:    "AHA/BHA Clarifying Toner",
			Category: "toner",
			Price:    890,
			Currency: "RUB",
			Link:     "https://goldapple.ru/toner-005",
			Source:   "goldapple",
		},
		{
			ID:       "mask-004",
			Brand:    "Laneige",
			Title:    "Water Sleeping Mask",
			Category: "mask",
			Price:    2100,
			Currency: "RUB",
			Link:     "https://goldapple.ru/mask-004",
			InStock:  stock(false),
		},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := NewStore(t.TempDir(), 15*time.Second, newTestLogger())
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Catalog:    &stubCatalog{snapshot: catalog.NewSnapshot(testProducts())},
		Store:      store,
		Affiliates: affiliates.NewService(config.PartnerConfig{Code: "bc_cart", AffiliateTag: "beautybot"}),
		Logger:     newTestLogger(),
		Config: config.CartConfig{
			DebounceWindow: 2 * time.Second,
			DebouncePrune:  5 * time.Minute,
			MaxQuantity:    99,
			UndoTTL:        15 * time.Second,
		},
	})
	require.NoError(t, err)
	return svc
}

// advance moves the service and store clocks forward together.
func advance(svc *Service, base time.Time, by time.Duration) time.Time {
	next := base.Add(by)
	svc.now = func() time.Time { return next }
	svc.store.now = svc.now
	return next
}

func TestNewServiceRequiresDeps(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestAddSnapshotsProduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cart, err := svc.Add(ctx, 1, "serum-001", "", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	item := cart.Items[0]
	assert.Equal(t, "serum-001", item.ProductID)
	assert.Equal(t, "The Ordinary", item.Brand)
	assert.Equal(t, int64(129050), item.PriceMinor)
	assert.Equal(t, "RUB", item.Currency)
	assert.Equal(t, "goldapple", item.Source)
	assert.Equal(t, 2, item.Qty)
	assert.NotEqual(t, item.Link, item.RefLink)
	assert.Contains(t, item.RefLink, "partner=beautybot")
	assert.Equal(t, int64(258100), cart.SubtotalMinor)
}

func TestAddMergesCompositeKey(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	base := time.Now()
	advance(svc, base, 0)

	_, err := svc.Add(ctx, 1, "foundation-002", "shade-110", 1)
	require.NoError(t, err)

	// Outside the debounce window the same key merges quantities.
	advance(svc, base, 3*time.Second)
	cart, err := svc.Add(ctx, 1, "foundation-002", "shade-110", 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Qty)
	assert.Equal(t, "110 Ivory", cart.Items[0].VariantName)

	// A different shade is a separate line.
	advance(svc, base, 6*time.Second)
	cart, err = svc.Add(ctx, 1, "foundation-002", "shade-220", 1)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestAddDuplicateWithinWindow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	base := time.Now()
	advance(svc, base, 0)

	_, err := svc.Add(ctx, 1, "serum-001", "", 1)
	require.NoError(t, err)

	advance(svc, base, 500*time.Millisecond)
	_, err = svc.Add(ctx, 1, "serum-001", "", 1)
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeDuplicateRequest, appErr.Code())

	// Another user's identical request is not suppressed.
	_, err = svc.Add(ctx, 2, "serum-001", "", 1)
	require.NoError(t, err)
}

func TestAddValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		productID string
		variantID string
		qty       int
		code      apperrors.Code
	}{
		{"empty product id", "", "", 1, apperrors.CodeInvalidProductID},
		{"zero quantity", "serum-001", "", 0, apperrors.CodeInvalidQuantity},
		{"negative quantity", "serum-001", "", -5, apperrors.CodeInvalidQuantity},
		{"garbage variant", "foundation-002", "???", 1, apperrors.CodeInvalidVariantID},
		{"unknown product", "ghost-999", "", 1, apperrors.CodeProductNotFound},
		{"out of stock", "mask-004", "", 1, apperrors.CodeOutOfStock},
		{"variant on plain category", "serum-001", "shade-110", 1, apperrors.CodeVariantNotSupported},
		{"foreign variant", "foundation-002", "shade-999", 1, apperrors.CodeVariantMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Add(ctx, 100, tc.productID, tc.variantID, tc.qty)
			require.Error(t, err)
			appErr := apperrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tc.code, appErr.Code())
		})
	}
}

func TestAddClampsQuantity(t *testing.T) {
	svc := newTestService(t)

	cart, err := svc.Add(context.Background(), 1, "serum-001", "", 150)
	require.NoError(t, err)
	assert.Equal(t, 99, cart.Items[0].Qty)
}

func TestMultiCurrencyNeedsReview(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	base := time.Now()
	advance(svc, base, 0)

	_, err := svc.Add(ctx, 1, "serum-001", "", 1)
	require.NoError(t, err)

	advance(svc, base, 3*time.Second)
	cart, err := svc.Add(ctx, 1, "lipstick-003", "", 1)
	require.NoError(t, err)

	assert.True(t, cart.NeedsReview)
	assert.Equal(t, "RUB", cart.Currency)
	assert.Equal(t, int64(129050+2490), cart.SubtotalMinor)
}

func TestRemoveAndRestore(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	base := time.Now()
	advance(svc, base, 0)

	_, err := svc.Add(ctx, 1, "serum-001", "", 2)
	require.NoError(t, err)

	cart, err := svc.Remove(ctx, 1, "serum-001", "")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	advance(svc, base, 10*time.Second)
	cart, restored, err := svc.RestoreLastRemoved(ctx, 1)
	require.NoError(t, err)
	assert.True(t, restored)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Qty)
}

func TestRestoreMergesReaddedLine(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	base := time.Now()
	advance(svc, base, 0)

	_, err := svc.Add(ctx, 1, "serum-001", "", 2)
	require.NoError(t, err)
	_, err = svc.Remove(ctx, 1, "serum-001", "")
	require.NoError(t, err)

	advance(svc, base, 5*time.Second)
	_, err = svc.Add(ctx, 1, "serum-001", "", 1)
	require.NoError(t, err)

	cart, restored, err := svc.RestoreLastRemoved(ctx, 1)
	require.NoError(t, err)
	assert.True(t, restored)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Qty)
}

func TestRestoreAfterWindowDoesNothing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	base := time.Now()
	advance(svc, base, 0)

	_, err := svc.Add(ctx, 1, "serum-001", "", 1)
	require.NoError(t, err)
	_, err = svc.Remove(ctx, 1, "serum-001", "")
	require.NoError(t, err)

	advance(svc, base, 20*time.Second)
	cart, restored, err := svc.RestoreLastRemoved(ctx, 1)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Empty(t, cart.Items)
}

func TestRemoveMissingLineIsNoop(t *testing.T) {
	svc := newTestService(t)

	cart, err := svc.Remove(context.Background(), 1, "serum-001", "")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestSetQtyZeroRemovesLine(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, "serum-001", "", 3)
	require.NoError(t, err)

	cart, err := svc.SetQty(ctx, 1, "serum-001", "", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	// Removal via qty=0 is undoable too.
	cart, restored, err := svc.RestoreLastRemoved(ctx, 1)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, 3, cart.Items[0].Qty)
}

func TestSetQtyMissingLine(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.SetQty(context.Background(), 1, "serum-001", "", 5)
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code())
}

func TestIncDecQty(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, "serum-001", "", 2)
	require.NoError(t, err)

	cart, err := svc.IncQty(ctx, 1, "serum-001", "")
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Qty)

	cart, err = svc.DecQty(ctx, 1, "serum-001", "")
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Qty)

	_, err = svc.DecQty(ctx, 1, "serum-001", "")
	require.NoError(t, err)
	cart, err = svc.DecQty(ctx, 1, "serum-001", "")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, restored, err := svc.RestoreLastRemoved(ctx, 1)
	require.NoError(t, err)
	assert.True(t, restored)
}

func TestClearDropsCartAndFile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, "serum-001", "", 2)
	require.NoError(t, err)

	cart, err := svc.Clear(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.SubtotalMinor)

	loaded, err := svc.store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)
}

func TestCartSurvivesServiceRestart(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 1, "serum-001", "", 2)
	require.NoError(t, err)

	reborn, err := NewService(ServiceParams{
		Catalog:    svc.catalog,
		Store:      svc.store,
		Affiliates: svc.affiliates,
		Logger:     svc.logg,
		Config:     svc.cfg,
	})
	require.NoError(t, err)

	cart, err := reborn.Get(ctx, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Qty)
}

func TestAddAllowsAbsentStockFlag(t *testing.T) {
	svc := newTestService(t)

	cart, err := svc.Add(context.Background(), 1, "toner-005", "", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "toner-005", cart.Items[0].ProductID)
}

// breakStore replaces the carts directory with a regular file so every
// subsequent Save fails.
func breakStore(t *testing.T, svc *Service) {
	t.Helper()
	require.NoError(t, os.RemoveAll(svc.store.dir))
	require.NoError(t, os.WriteFile(svc.store.dir, []byte("not a directory"), 0o644))
}

func TestAddFailedPersistLeavesCartUnchanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 7, "serum-001", "", 2)
	require.NoError(t, err)

	breakStore(t, svc)

	_, err = svc.Add(ctx, 7, "lipstick-003", "", 1)
	require.Error(t, err)
	require.Equal(t, apperrors.CodeCartOperation, apperrors.As(err).Code())

	cart, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "serum-001", cart.Items[0].ProductID)
	assert.Equal(t, 2, cart.Items[0].Qty)
}

func TestRemoveFailedPersistKeepsLineAndUndoUnarmed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 7, "serum-001", "", 1)
	require.NoError(t, err)

	breakStore(t, svc)

	_, err = svc.Remove(ctx, 7, "serum-001", "")
	require.Error(t, err)

	cart, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	_, ok := svc.store.TakeRemoved(7)
	assert.False(t, ok)
}

func TestSetQtyFailedPersistLeavesQtyUnchanged(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 7, "serum-001", "", 2)
	require.NoError(t, err)

	breakStore(t, svc)

	_, err = svc.SetQty(ctx, 7, "serum-001", "", 5)
	require.Error(t, err)

	cart, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Qty)
}

func TestRestoreFailedPersistKeepsUndoEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 7, "serum-001", "", 1)
	require.NoError(t, err)
	_, err = svc.Remove(ctx, 7, "serum-001", "")
	require.NoError(t, err)

	breakStore(t, svc)

	_, restored, err := svc.RestoreLastRemoved(ctx, 7)
	require.Error(t, err)
	assert.False(t, restored)

	// The undo entry survives the failed restore.
	item, ok := svc.store.TakeRemoved(7)
	require.True(t, ok)
	assert.Equal(t, "serum-001", item.ProductID)
}

func TestVariantFormat(t *testing.T) {
	cases := []struct {
		variant string
		ok      bool
	}{
		{"shade-110", true},
		{"volume-30ml", true},
		{"tone-cool", true},
		{"ABC123", true},
		{"abc_123-x", true},
		{"???", false},
		{"shade-", false},
		{"--__", false},
		{"red lipstick", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, validVariantFormat(tc.variant), tc.variant)
	}
}
