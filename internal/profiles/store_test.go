package profiles

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "user_profiles"), nil)
	require.NoError(t, err)
	return store
}

func TestSaveAppliesDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Save(ctx, Profile{UserID: 42, Concerns: []string{ConcernAcne}}, nil)
	require.NoError(t, err)

	stored, ok, err := store.Load(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, SkinNormal, stored.SkinType)
	assert.Equal(t, SeasonSpring, stored.Season)
	assert.Equal(t, UndertoneNeutral, stored.Undertone)
	assert.Equal(t, "medium", stored.Contrast)
	assert.Equal(t, []string{ConcernAcne}, stored.Concerns)
	assert.False(t, stored.SavedAt.IsZero())
}

func TestSaveKeepsExplicitValues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Save(ctx, Profile{
		UserID:      7,
		SkinType:    SkinOily,
		Season:      SeasonWinter,
		Undertone:   UndertoneCool,
		Sensitivity: SensitivityHigh,
	}, map[string]string{"flow": "detailed_skincare"})
	require.NoError(t, err)

	stored, ok, err := store.Load(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, SkinOily, stored.SkinType)
	assert.Equal(t, SeasonWinter, stored.Season)
	assert.Equal(t, UndertoneCool, stored.Undertone)
	assert.Equal(t, "detailed_skincare", stored.Metadata["flow"])
}

func TestLoadMissingProfile(t *testing.T) {
	store := newTestStore(t)
	_, ok, err := store.Load(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteProfile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Profile{UserID: 5}, nil))
	require.NoError(t, store.Delete(ctx, 5))

	_, ok, err := store.Load(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting again is a no-op
	require.NoError(t, store.Delete(ctx, 5))
}

func TestFileLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "user_profiles")
	store, err := NewStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), Profile{UserID: 42}, nil))

	raw, err := os.ReadFile(filepath.Join(dir, "user_42.json"))
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.EqualValues(t, 42, payload["user_id"])
	assert.Contains(t, payload, "saved_at")
}

func TestProfileConcernHelpers(t *testing.T) {
	var p Profile
	p.AddConcern(ConcernAcne)
	p.AddConcern(ConcernAcne)
	p.AddConcern(ConcernRedness)
	assert.Equal(t, []string{ConcernAcne, ConcernRedness}, p.Concerns)
	assert.True(t, p.HasConcern(ConcernRedness))
	assert.False(t, p.HasConcern(ConcernAging))
}
