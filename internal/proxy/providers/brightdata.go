package providers

import "github.com/sportfeed/aggregator/internal/proxy"

// Brightdata is the priciest premium-tier provider, used last before the
// user-supplied static list.
type Brightdata struct {
	username string
	password string
	country  string
}

func NewBrightdata(username, password, country string) *Brightdata {
	return &Brightdata{username: username, password: password, country: country}
}

func (b *Brightdata) Name() string { return "brightdata" }

func (b *Brightdata) GetProxy() (proxy.Config, error) {
	return proxy.Config{
		Server:   "brd.superproxy.io:22225",
		Username: sessionUsername(b.username, randomSessionID(), b.country),
		Password: b.password,
	}, nil
}
