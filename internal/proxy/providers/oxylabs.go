package providers

import "github.com/sportfeed/aggregator/internal/proxy"

// Oxylabs is a premium-tier provider.
type Oxylabs struct {
	username string
	password string
	country  string
}

func NewOxylabs(username, password, country string) *Oxylabs {
	return &Oxylabs{username: username, password: password, country: country}
}

func (o *Oxylabs) Name() string { return "oxylabs" }

func (o *Oxylabs) GetProxy() (proxy.Config, error) {
	return proxy.Config{
		Server:   "pr.oxylabs.io:7777",
		Username: sessionUsername(o.username, randomSessionID(), o.country),
		Password: o.password,
	}, nil
}
