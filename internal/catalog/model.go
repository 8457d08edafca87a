package catalog

import (
	"fmt"
	"strings"
)

// Shade carries optional color metadata for makeup products.
type Shade struct {
	Name        string `yaml:"name" json:"name"`
	Code        string `yaml:"code,omitempty" json:"code,omitempty"`
	Undertone   string `yaml:"undertone,omitempty" json:"undertone,omitempty"`
	ColorFamily string `yaml:"color_family,omitempty" json:"color_family,omitempty"`
	Coverage    string `yaml:"coverage,omitempty" json:"coverage,omitempty"`
}

// Variant is a purchasable variation of a product (shade, volume, size).
type Variant struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Undertone string `yaml:"undertone,omitempty" json:"undertone,omitempty"`
	ShadeTag  string `yaml:"shade_tag,omitempty" json:"shade_tag,omitempty"`
}

// Product is an immutable catalog entry. (brand, title, category) is
// human-meaningful but not unique; ID is the unique key.
type Product struct {
	ID          string    `yaml:"id" json:"id"`
	Brand       string    `yaml:"brand" json:"brand"`
	Title       string    `yaml:"title" json:"title"`
	Line        string    `yaml:"line,omitempty" json:"line,omitempty"`
	Category    string    `yaml:"category" json:"category"`
	Subcategory string    `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	Texture     string    `yaml:"texture,omitempty" json:"texture,omitempty"`
	Finish      string    `yaml:"finish,omitempty" json:"finish,omitempty"`
	Shade       *Shade    `yaml:"shade,omitempty" json:"shade,omitempty"`
	Variants    []Variant `yaml:"variants,omitempty" json:"variants,omitempty"`
	VolumeML    float64   `yaml:"volume_ml,omitempty" json:"volume_ml,omitempty"`
	WeightG     float64   `yaml:"weight_g,omitempty" json:"weight_g,omitempty"`
	SPF         int       `yaml:"spf,omitempty" json:"spf,omitempty"`
	Actives     []string  `yaml:"actives,omitempty" json:"actives,omitempty"`
	Tags        []string  `yaml:"tags,omitempty" json:"tags,omitempty"`
	Price       float64   `yaml:"price,omitempty" json:"price,omitempty"`
	Currency    string    `yaml:"price_currency,omitempty" json:"price_currency,omitempty"`
	Link        string    `yaml:"link,omitempty" json:"link,omitempty"`
	InStock     *bool     `yaml:"in_stock,omitempty" json:"in_stock,omitempty"`
	Source      string    `yaml:"source,omitempty" json:"source,omitempty"`

	// Name is the legacy spelling of Title still present in older catalog
	// files. The loader folds it into Title.
	Name string `yaml:"name,omitempty" json:"-"`
}

// Validate checks the fields every catalog entry must carry.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("missing id")
	}
	if strings.TrimSpace(p.Brand) == "" {
		return fmt.Errorf("missing brand")
	}
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("missing title")
	}
	if strings.TrimSpace(p.Category) == "" {
		return fmt.Errorf("missing category")
	}
	if p.Price < 0 {
		return fmt.Errorf("negative price")
	}
	return nil
}

// normalize folds legacy fields and trims whitespace after a successful
// Validate.
func (p *Product) normalize() {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = p.Name
	}
	p.ID = strings.TrimSpace(p.ID)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Title = strings.TrimSpace(p.Title)
	p.Category = strings.TrimSpace(p.Category)
	for i, active := range p.Actives {
		p.Actives[i] = strings.ToLower(strings.TrimSpace(active))
	}
}

// OutOfStock reports whether the entry is explicitly flagged unavailable.
// Entries that omit in_stock count as available.
func (p *Product) OutOfStock() bool {
	return p.InStock != nil && !*p.InStock
}

// ConfirmedInStock reports whether the entry explicitly carries
// in_stock: true, as opposed to merely omitting the flag.
func (p *Product) ConfirmedInStock() bool {
	return p.InStock != nil && *p.InStock
}

// Available reports whether the product can actually be bought right now:
// not flagged out of stock, has a buy link and a positive price.
func (p *Product) Available() bool {
	return !p.OutOfStock() && strings.TrimSpace(p.Link) != "" && p.Price > 0
}

// HasVariant reports whether the given variant id belongs to this product.
// Products without an explicit variant list accept any variant id; the
// cart layer applies its own format checks.
func (p *Product) HasVariant(variantID string) bool {
	if len(p.Variants) == 0 {
		return true
	}
	for _, v := range p.Variants {
		if v.ID == variantID {
			return true
		}
	}
	return false
}

// HasActive reports whether the product lists the given normalized
// active ingredient.
func (p *Product) HasActive(name string) bool {
	for _, a := range p.Actives {
		if a == name {
			return true
		}
	}
	return false
}

// HasTag reports whether the product carries the given free-form tag.
func (p *Product) HasTag(name string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}
