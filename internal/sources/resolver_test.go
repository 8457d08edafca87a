package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dariamatveeva/beautycare-backend/internal/catalog"
)

func stock(v bool) *bool { return &v }

func availableProduct(id, brand, title, category string, price float64, link string) catalog.Product {
	return catalog.Product{
		ID: id, Brand: brand, Title: title, Category: category,
		Price: price, Currency: "RUB", Link: link, InStock: stock(true),
	}
}

func TestResolveAvailableProduct(t *testing.T) {
	product := availableProduct("p1", "Brand", "Serum", "serum", 990, "https://goldapple.ru/p1")
	snap := catalog.NewSnapshot([]catalog.Product{product})

	resolved := NewResolver(nil).Resolve(context.Background(), snap, &product)

	assert.True(t, resolved.Available)
	assert.Equal(t, CategoryGoldapple, resolved.Source.Category)
	assert.True(t, resolved.CurrencyVerified)
	assert.Nil(t, resolved.Alternative)
	assert.False(t, resolved.VerifiedAt.IsZero())
}

func TestResolveAbsentStockFlagIsAvailable(t *testing.T) {
	product := availableProduct("p1", "Brand", "Serum", "serum", 990, "https://goldapple.ru/p1")
	product.InStock = nil

	snap := catalog.NewSnapshot([]catalog.Product{product})
	resolved := NewResolver(nil).Resolve(context.Background(), snap, &product)

	assert.True(t, resolved.Available)
	assert.Nil(t, resolved.Alternative)
}

func TestResolveSameBrandVariantAlternative(t *testing.T) {
	primary := availableProduct("x", "Maybelline", "Fit Me Matte - 110", "foundation", 1000, "https://ozon.ru/x")
	primary.InStock = stock(false)

	variant := availableProduct("y", "Maybelline", "Fit Me Matte - 220", "foundation", 1100, "https://ozon.ru/y")
	other := availableProduct("z", "L'Oreal", "True Match", "foundation", 1250, "https://goldapple.ru/z")

	snap := catalog.NewSnapshot([]catalog.Product{primary, variant, other})
	resolved := NewResolver(nil).Resolve(context.Background(), snap, &primary)

	require.False(t, resolved.Available)
	require.NotNil(t, resolved.Alternative)
	assert.Equal(t, "y", resolved.Alternative.ID)
	assert.Equal(t, ReasonProductVariant, resolved.AlternativeReason)
}

func TestResolveSameCategoryAlternative(t *testing.T) {
	primary := availableProduct("x", "Maybelline", "Fit Me Matte - 110", "foundation", 1000, "https://ozon.ru/x")
	primary.InStock = stock(false)

	// same brand variant priced out of the ±20% window
	farVariant := availableProduct("y", "Maybelline", "Fit Me Matte - 220", "foundation", 1300, "https://ozon.ru/y")
	categoryMatch := availableProduct("z", "L'Oreal", "True Match", "Тональный крем", 1250, "https://goldapple.ru/z")

	snap := catalog.NewSnapshot([]catalog.Product{primary, farVariant, categoryMatch})
	resolved := NewResolver(nil).Resolve(context.Background(), snap, &primary)

	require.NotNil(t, resolved.Alternative)
	assert.Equal(t, ReasonSameCategory, resolved.AlternativeReason)
}

func TestResolveUniversalFallback(t *testing.T) {
	primary := availableProduct("x", "Brand", "Matte Stick", "lipstick", 900, "https://ozon.ru/x")
	primary.InStock = stock(false)

	tint := availableProduct("t", "Other", "Soft Tint", "lip_tint", 2500, "https://goldapple.ru/t")
	snap := catalog.NewSnapshot([]catalog.Product{primary, tint})

	resolved := NewResolver(nil).Resolve(context.Background(), snap, &primary)
	require.NotNil(t, resolved.Alternative)
	assert.Equal(t, "t", resolved.Alternative.ID)
	assert.Equal(t, ReasonUniversal, resolved.AlternativeReason)
}

func TestResolveNoAlternative(t *testing.T) {
	primary := availableProduct("x", "Brand", "Cream", "moisturizer", 900, "https://ozon.ru/x")
	primary.InStock = stock(false)

	snap := catalog.NewSnapshot([]catalog.Product{primary})
	resolved := NewResolver(nil).Resolve(context.Background(), snap, &primary)

	assert.Nil(t, resolved.Alternative)
	assert.Empty(t, resolved.AlternativeReason)
}

func TestAlternativeRankedBySourcePriority(t *testing.T) {
	primary := availableProduct("x", "Maybelline", "Fit Me Matte", "foundation", 1000, "https://ozon.ru/x")
	primary.InStock = stock(false)

	marketplace := availableProduct("m", "Maybelline", "Fit Me Matte (Fair)", "foundation", 1050, "https://wildberries.ru/m")
	official := availableProduct("g", "Maybelline", "Fit Me Matte (Sand)", "foundation", 1100, "https://goldapple.ru/g")

	snap := catalog.NewSnapshot([]catalog.Product{primary, marketplace, official})
	resolved := NewResolver(nil).Resolve(context.Background(), snap, &primary)

	require.NotNil(t, resolved.Alternative)
	assert.Equal(t, "g", resolved.Alternative.ID, "goldapple outranks marketplace")
}
