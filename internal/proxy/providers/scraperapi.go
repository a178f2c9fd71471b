package providers

import "github.com/sportfeed/aggregator/internal/proxy"

// ScraperAPI is the free-tier managed API: a single proxy endpoint that
// does its own rotation server-side, so no per-call session templating is
// needed here.
type ScraperAPI struct {
	apiKey  string
	country string
}

func NewScraperAPI(apiKey, country string) *ScraperAPI {
	return &ScraperAPI{apiKey: apiKey, country: country}
}

func (s *ScraperAPI) Name() string { return "scraperapi" }

func (s *ScraperAPI) GetProxy() (proxy.Config, error) {
	return proxy.Config{
		Server:   "proxy-server.scraperapi.com:8001",
		Username: "scraperapi.country_code=" + orAny(s.country),
		Password: s.apiKey,
	}, nil
}
