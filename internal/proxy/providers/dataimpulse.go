package providers

import "github.com/sportfeed/aggregator/internal/proxy"

// DataImpulse is the cheapest tier ($1/GB), a rotating residential pool
// behind a single gateway host.
type DataImpulse struct {
	username string
	password string
	country  string
}

func NewDataImpulse(username, password, country string) *DataImpulse {
	return &DataImpulse{username: username, password: password, country: country}
}

func (d *DataImpulse) Name() string { return "dataimpulse" }

func (d *DataImpulse) GetProxy() (proxy.Config, error) {
	return proxy.Config{
		Server:   "gw.dataimpulse.com:823",
		Username: sessionUsername(d.username, randomSessionID(), d.country),
		Password: d.password,
	}, nil
}
