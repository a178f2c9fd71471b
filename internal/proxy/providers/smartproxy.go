package providers

import "github.com/sportfeed/aggregator/internal/proxy"

// Smartproxy sits in the $6-17/GB premium tier.
type Smartproxy struct {
	username string
	password string
	country  string
}

func NewSmartproxy(username, password, country string) *Smartproxy {
	return &Smartproxy{username: username, password: password, country: country}
}

func (s *Smartproxy) Name() string { return "smartproxy" }

func (s *Smartproxy) GetProxy() (proxy.Config, error) {
	return proxy.Config{
		Server:   "gate.smartproxy.com:10000",
		Username: sessionUsername(s.username, randomSessionID(), s.country),
		Password: s.password,
	}, nil
}
