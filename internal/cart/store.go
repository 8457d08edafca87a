package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dariamatveeva/beautycare-backend/pkg/logger"
	"github.com/dariamatveeva/beautycare-backend/pkg/money"
)

const diskVersion = 2

// legacySource is assigned to items persisted before sources were tracked.
const legacySource = "marketplace"

// diskCart is the persisted shape. Older files carry no version field and
// use major-unit float prices; both are accepted on read.
type diskCart struct {
	UserID  int64      `json:"user_id"`
	Version int        `json:"version,omitempty"`
	Items   []diskItem `json:"items"`
}

// diskItem mirrors Item but keeps the legacy aliases (`quantity`, major-unit
// `price`) readable and emits them alongside the current fields so older
// consumers of the files keep working.
type diskItem struct {
	ProductID   string            `json:"product_id"`
	VariantID   string            `json:"variant_id,omitempty"`
	VariantName string            `json:"variant_name,omitempty"`
	Name        string            `json:"name"`
	Brand       string            `json:"brand,omitempty"`
	PriceMinor  *int64            `json:"price_minor,omitempty"`
	Price       *float64          `json:"price,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Link        string            `json:"link,omitempty"`
	RefLink     string            `json:"ref_link,omitempty"`
	Source      string            `json:"source,omitempty"`
	Qty         *int              `json:"qty,omitempty"`
	Quantity    *int              `json:"quantity,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	AddedAt     time.Time         `json:"added_at,omitempty"`
}

// toItem back-fills defaults for fields older schemas did not have.
func (d *diskItem) toItem() Item {
	item := Item{
		ProductID:   d.ProductID,
		VariantID:   d.VariantID,
		VariantName: d.VariantName,
		Name:        d.Name,
		Brand:       d.Brand,
		Currency:    d.Currency,
		Link:        d.Link,
		RefLink:     d.RefLink,
		Source:      d.Source,
		Meta:        d.Meta,
		AddedAt:     d.AddedAt,
	}
	switch {
	case d.PriceMinor != nil:
		item.PriceMinor = *d.PriceMinor
	case d.Price != nil:
		item.PriceMinor = money.ToMinorUnits(*d.Price)
	}
	switch {
	case d.Qty != nil:
		item.Qty = *d.Qty
	case d.Quantity != nil:
		item.Qty = *d.Quantity
	}
	if item.Currency == "" {
		item.Currency = money.PrimaryCurrency
	}
	if item.Source == "" {
		item.Source = legacySource
	}
	if item.Link == "" {
		item.Link = d.RefLink
	}
	if item.Meta == nil {
		item.Meta = map[string]string{}
	}
	return item
}

func fromItem(item Item) diskItem {
	minor := item.PriceMinor
	major, _ := money.FromMinorUnits(minor).Float64()
	qty := item.Qty
	return diskItem{
		ProductID:   item.ProductID,
		VariantID:   item.VariantID,
		VariantName: item.VariantName,
		Name:        item.Name,
		Brand:       item.Brand,
		PriceMinor:  &minor,
		Price:       &major,
		Currency:    item.Currency,
		Link:        item.Link,
		RefLink:     item.RefLink,
		Source:      item.Source,
		Qty:         &qty,
		Quantity:    &qty,
		Meta:        item.Meta,
		AddedAt:     item.AddedAt,
	}
}

type removedEntry struct {
	item Item
	at   time.Time
}

// Store persists carts as one JSON file per user and keeps the short-lived
// undo buffer for removed lines.
type Store struct {
	dir     string
	undoTTL time.Duration
	logg    *logger.Logger
	now     func() time.Time

	mu      sync.Mutex
	removed map[int64]removedEntry
}

func NewStore(dir string, undoTTL time.Duration, logg *logger.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("cart store dir is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cart dir: %w", err)
	}
	return &Store{
		dir:     dir,
		undoTTL: undoTTL,
		logg:    logg,
		now:     time.Now,
		removed: make(map[int64]removedEntry),
	}, nil
}

func (s *Store) path(userID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.json", userID))
}

// Load reads a user's cart from disk. A missing file yields an empty cart.
func (s *Store) Load(ctx context.Context, userID int64) (*Cart, error) {
	cart := &Cart{UserID: userID, Items: []Item{}}
	data, err := os.ReadFile(s.path(userID))
	if os.IsNotExist(err) {
		cart.recompute(s.now())
		return cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart file: %w", err)
	}

	var disk diskCart
	if err := json.Unmarshal(data, &disk); err != nil {
		// A corrupt file should not brick the user's cart forever.
		lctx := s.logg.WithFields(ctx, map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		s.logg.Warn(lctx, "cart file is corrupt, starting empty")
		cart.recompute(s.now())
		return cart, nil
	}

	for i := range disk.Items {
		item := disk.Items[i].toItem()
		if item.ProductID == "" || item.Qty <= 0 {
			continue
		}
		if item.Qty > MaxQuantity {
			item.Qty = MaxQuantity
		}
		cart.Items = append(cart.Items, item)
	}
	cart.recompute(s.now())
	return cart, nil
}

// Save writes the cart atomically via a temp file rename.
func (s *Store) Save(ctx context.Context, cart *Cart) error {
	disk := diskCart{UserID: cart.UserID, Version: diskVersion, Items: make([]diskItem, 0, len(cart.Items))}
	for i := range cart.Items {
		disk.Items = append(disk.Items, fromItem(cart.Items[i]))
	}
	data, err := json.MarshalIndent(disk, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	path := s.path(cart.UserID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cart file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cart file: %w", err)
	}
	return nil
}

// Delete removes the user's cart file. Missing files are not an error.
func (s *Store) Delete(ctx context.Context, userID int64) error {
	err := os.Remove(s.path(userID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cart file: %w", err)
	}
	return nil
}

// TrackRemoved remembers the last removed line so it can be restored.
// Each user keeps at most one pending undo entry.
func (s *Store) TrackRemoved(userID int64, item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed[userID] = removedEntry{item: item, at: s.now()}
}

// TakeRemoved returns and clears the pending undo entry if it is still
// within the undo window.
func (s *Store) TakeRemoved(userID int64) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.removed[userID]
	if !ok {
		return Item{}, false
	}
	delete(s.removed, userID)
	if s.now().Sub(entry.at) > s.undoTTL {
		return Item{}, false
	}
	return entry.item, true
}
