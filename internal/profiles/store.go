package profiles

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
)

// StoredProfile is the on-disk shape: the normalized profile plus
// bookkeeping fields.
type StoredProfile struct {
	Profile
	SavedAt  time.Time         `json:"saved_at"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Store persists one JSON file per user under a base directory.
type Store struct {
	dir  string
	logg *logger.Logger
	now  func() time.Time
}

// NewStore creates the profile directory if needed.
func NewStore(dir string, logg *logger.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("profiles: base directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating profile dir: %w", err)
	}
	return &Store{dir: dir, logg: logg, now: time.Now}, nil
}

func (s *Store) path(userID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("user_%d.json", userID))
}

// Save normalizes and writes the profile. Defaults fill the fields the
// selector always reads: normal skin, spring season, neutral undertone,
// medium contrast.
func (s *Store) Save(ctx context.Context, profile Profile, metadata map[string]string) error {
	if profile.SkinType == "" {
		profile.SkinType = SkinNormal
	}
	if profile.Season == "" {
		profile.Season = SeasonSpring
	}
	if profile.Undertone == "" {
		profile.Undertone = UndertoneNeutral
	}
	if profile.Contrast == "" {
		profile.Contrast = "medium"
	}
	stored := StoredProfile{
		Profile:  profile,
		SavedAt:  s.now(),
		Metadata: metadata,
	}
	raw, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	path := s.path(profile.UserID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("publishing profile: %w", err)
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, profile.UserID), "user profile saved")
	}
	return nil
}

// Load reads a previously saved profile. The second return is false when
// the user never completed a flow.
func (s *Store) Load(ctx context.Context, userID int64) (*StoredProfile, bool, error) {
	raw, err := os.ReadFile(s.path(userID))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading profile: %w", err)
	}
	var stored StoredProfile
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("decoding profile: %w", err)
	}
	return &stored, true, nil
}

// Delete removes the stored profile. Deleting a missing profile is not an
// error.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	if err := os.Remove(s.path(userID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting profile: %w", err)
	}
	return nil
}
