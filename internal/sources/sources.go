// Package sources ranks retail channels and resolves catalog products to
// the best purchasable source, substituting alternatives when the primary
// is unavailable.
package sources

import (
	"net/url"
	"strings"
)

// Source categories, from most to least preferred.
const (
	CategoryGoldapple      = "goldapple"
	CategoryRuOfficial     = "ru_official"
	CategoryRuMarketplace  = "ru_marketplace"
	CategoryIntlAuthorized = "intl_authorized"
	CategoryUnknown        = "unknown"
)

// Substitution reason tags surfaced to the chat shell verbatim.
const (
	ReasonProductVariant = "другой_вариант_товара"
	ReasonSameCategory   = "аналог_категории"
	ReasonUniversal      = "универсальный_вариант"
)

// Info describes a known retail source.
type Info struct {
	Name     string
	Priority int
	Category string
	Domain   string
	Currency string
	Official bool
}

var unknownSource = Info{
	Name:     "Неизвестный магазин",
	Priority: 999,
	Category: CategoryUnknown,
	Currency: "RUB",
}

// knownSources maps domains to their channel ranking. Lower priority wins.
var knownSources = map[string]Info{
	"goldapple.ru":      {Name: "Золотое Яблоко", Priority: 1, Category: CategoryGoldapple, Domain: "goldapple.ru", Currency: "RUB", Official: true},
	"sephora.ru":        {Name: "Sephora Russia", Priority: 2, Category: CategoryRuOfficial, Domain: "sephora.ru", Currency: "RUB", Official: true},
	"letu.ru":           {Name: "Л'Этуаль", Priority: 2, Category: CategoryRuOfficial, Domain: "letu.ru", Currency: "RUB", Official: true},
	"rive-gauche.ru":    {Name: "Рив Гош", Priority: 2, Category: CategoryRuOfficial, Domain: "rive-gauche.ru", Currency: "RUB", Official: true},
	"pudra.ru":          {Name: "Пудра.ру", Priority: 2, Category: CategoryRuOfficial, Domain: "pudra.ru", Currency: "RUB", Official: true},
	"wildberries.ru":    {Name: "Wildberries", Priority: 3, Category: CategoryRuMarketplace, Domain: "wildberries.ru", Currency: "RUB"},
	"ozon.ru":           {Name: "Ozon", Priority: 3, Category: CategoryRuMarketplace, Domain: "ozon.ru", Currency: "RUB"},
	"market.yandex.ru":  {Name: "Яндекс.Маркет", Priority: 3, Category: CategoryRuMarketplace, Domain: "market.yandex.ru", Currency: "RUB"},
	"yandex.market.ru":  {Name: "Яндекс.Маркет", Priority: 3, Category: CategoryRuMarketplace, Domain: "yandex.market.ru", Currency: "RUB"},
	"lamoda.ru":         {Name: "Lamoda", Priority: 3, Category: CategoryRuMarketplace, Domain: "lamoda.ru", Currency: "RUB"},
	"sephora.com":       {Name: "Sephora International", Priority: 4, Category: CategoryIntlAuthorized, Domain: "sephora.com", Currency: "USD"},
	"ulta.com":          {Name: "Ulta Beauty", Priority: 4, Category: CategoryIntlAuthorized, Domain: "ulta.com", Currency: "USD"},
	"lookfantastic.com": {Name: "LookFantastic", Priority: 4, Category: CategoryIntlAuthorized, Domain: "lookfantastic.com", Currency: "GBP"},
	"notino.com":        {Name: "Notino", Priority: 4, Category: CategoryIntlAuthorized, Domain: "notino.com", Currency: "EUR"},
}

// ByLink classifies a buy-url. Unknown or unparsable links rank last.
func ByLink(link string) Info {
	domain := domainOf(link)
	if domain == "" {
		return unknownSource
	}
	if info, ok := knownSources[domain]; ok {
		return info
	}
	// subdomain match: www handled above, e.g. m.ozon.ru
	for known, info := range knownSources {
		if strings.HasSuffix(domain, "."+known) {
			return info
		}
	}
	out := unknownSource
	out.Domain = domain
	return out
}

// Priority returns the numeric rank for a buy-url.
func Priority(link string) int {
	return ByLink(link).Priority
}

// BestLink picks the link with the lowest priority number, preserving
// input order among equals.
func BestLink(links []string) (string, bool) {
	best := ""
	bestPriority := 0
	for _, link := range links {
		if link == "" {
			continue
		}
		p := Priority(link)
		if best == "" || p < bestPriority {
			best = link
			bestPriority = p
		}
	}
	return best, best != ""
}

// DisplayName maps a source category to the short label rendered in chat.
func DisplayName(category string) string {
	switch category {
	case CategoryGoldapple:
		return "Золотое Яблоко"
	case CategoryRuOfficial:
		return "Официал. магазин"
	case CategoryRuMarketplace:
		return "Маркетплейс"
	case CategoryIntlAuthorized:
		return "Зарубежный магазин"
	default:
		return "Неизвестный источник"
	}
}

func domainOf(link string) string {
	if link == "" {
		return ""
	}
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return ""
	}
	domain := strings.ToLower(parsed.Host)
	return strings.TrimPrefix(domain, "www.")
}
