// Package affiliates turns raw buy-urls into partner-tagged links. Two
// shapes exist: a redirect wrapper when REDIRECT_BASE is configured, and
// direct query-parameter tagging with a per-source parameter scheme.
package affiliates

import (
	"net/url"
	"strings"

	"github.com/dariamatveeva/beautycare-backend/pkg/config"
)

// Source channel tags, ordered by descending preference.
const (
	SourceGoldapple      = "goldapple"
	SourceRuOfficial     = "ru_official"
	SourceRuMarketplace  = "ru_marketplace"
	SourceIntlAuthorized = "intl_authorized"
)

// scheme names the query keys a source category expects.
type scheme struct {
	affParam      string
	campaignParam string
	sourceParam   string
	mediumParam   string
	partnerCode   string
	priority      int
}

// Service builds affiliate links from the partner configuration.
type Service struct {
	cfg     config.PartnerConfig
	schemes map[string]scheme
}

// NewService wires the per-source parameter schemes from configuration.
func NewService(cfg config.PartnerConfig) *Service {
	return &Service{
		cfg: cfg,
		schemes: map[string]scheme{
			SourceGoldapple: {
				affParam: "partner", campaignParam: "utm_campaign",
				sourceParam: "utm_source", mediumParam: "utm_medium",
				partnerCode: cfg.AffiliateTag, priority: 1,
			},
			SourceRuOfficial: {
				affParam: "affiliate", campaignParam: "campaign",
				sourceParam: "source", mediumParam: "medium",
				partnerCode: cfg.Code, priority: 2,
			},
			SourceRuMarketplace: {
				affParam: "partner", campaignParam: "campaign",
				sourceParam: "ref", mediumParam: "medium",
				partnerCode: cfg.AffiliateTag, priority: 3,
			},
			SourceIntlAuthorized: {
				affParam: "aff", campaignParam: "campaign",
				sourceParam: "source", mediumParam: "medium",
				partnerCode: cfg.Code, priority: 4,
			},
			"default": {
				affParam: "partner", campaignParam: "utm_campaign",
				sourceParam: "utm_source", mediumParam: "utm_medium",
				partnerCode: cfg.AffiliateTag, priority: 5,
			},
		},
	}
}

// Wrap applies the basic partner tag: a redirect wrapper when a base is
// configured, otherwise aff= appended to the original URL. Empty input
// yields empty output.
func (s *Service) Wrap(raw string) string {
	if raw == "" {
		return ""
	}
	if base := s.cfg.RedirectBase; base != "" {
		return base + "?url=" + url.QueryEscape(raw) + "&aff=" + url.QueryEscape(s.cfg.Code)
	}
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + "aff=" + url.QueryEscape(s.cfg.Code)
}

// RefLink builds the full source-aware affiliate link for a product. It
// falls back to the plain original link when the URL does not parse.
func (s *Service) RefLink(link, brand, title string) string {
	if link == "" {
		return ""
	}
	if s.cfg.RedirectBase != "" {
		return s.Wrap(link)
	}
	source := s.DetectSource(link, brand, title)
	key := source
	if _, ok := s.schemes[key]; !ok {
		key = "default"
	}
	tagged, err := s.addParams(link, key, source)
	if err != nil {
		return link
	}
	return tagged
}

func (s *Service) addParams(link, key, source string) (string, error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	sch := s.schemes[key]
	query := parsed.Query()
	query.Set(sch.affParam, sch.partnerCode)
	if source != "" {
		query.Set(sch.sourceParam, source)
	}
	query.Set(sch.mediumParam, "affiliate")
	query.Set(sch.campaignParam, s.cfg.Campaign)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

var sourceDomains = []struct {
	source  string
	domains []string
}{
	{SourceGoldapple, []string{"goldapple"}},
	{SourceRuOfficial, []string{"letu.ru", "rive-gauche.ru", "sephora.ru"}},
	{SourceRuMarketplace, []string{"wildberries.ru", "ozon.ru", "yandex.market.ru", "market.yandex.ru"}},
	{SourceIntlAuthorized, []string{"amazon.com", "sephora.com", "ulta.com"}},
}

// DetectSource classifies a product's sales channel by its link domain,
// falling back to brand/title keywords.
func (s *Service) DetectSource(link, brand, title string) string {
	lower := strings.ToLower(link)
	for _, entry := range sourceDomains {
		for _, domain := range entry.domains {
			if strings.Contains(lower, domain) {
				return entry.source
			}
		}
	}

	text := strings.ToLower(brand + " " + title)
	switch {
	case strings.Contains(text, "goldapple"):
		return SourceGoldapple
	case containsAny(text, "wildberries", "ozon", "marketplace", "яндекс"):
		return SourceRuMarketplace
	case containsAny(text, "official", "официальный"):
		return SourceRuOfficial
	}
	return ""
}

// Priority ranks a source channel; lower is better, unknown sources sink
// to the bottom.
func (s *Service) Priority(source string) int {
	if sch, ok := s.schemes[source]; ok {
		return sch.priority
	}
	return 999
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
