package providers

import "github.com/sportfeed/aggregator/internal/proxy"

// PacketStream authenticates with a single API key rather than a
// username/password pair.
type PacketStream struct {
	apiKey  string
	country string
}

func NewPacketStream(apiKey, country string) *PacketStream {
	return &PacketStream{apiKey: apiKey, country: country}
}

func (p *PacketStream) Name() string { return "packetstream" }

func (p *PacketStream) GetProxy() (proxy.Config, error) {
	return proxy.Config{
		Server:   "proxy.packetstream.io:31112",
		Username: p.apiKey,
		Password: sessionUsername("_country-"+orAny(p.country), randomSessionID(), ""),
	}, nil
}

func orAny(country string) string {
	if country == "" {
		return "any"
	}
	return country
}
