package providers

import "github.com/sportfeed/aggregator/internal/proxy"

// IProyal is the second-cheapest tier ($1.75/GB).
type IProyal struct {
	username string
	password string
	country  string
}

func NewIProyal(username, password, country string) *IProyal {
	return &IProyal{username: username, password: password, country: country}
}

func (p *IProyal) Name() string { return "iproyal" }

func (p *IProyal) GetProxy() (proxy.Config, error) {
	return proxy.Config{
		Server:   "geo.iproyal.com:12321",
		Username: sessionUsername(p.username, randomSessionID(), p.country),
		Password: p.password,
	}, nil
}
