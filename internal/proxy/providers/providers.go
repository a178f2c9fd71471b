// Package providers implements spec §4.5's concrete proxy providers: one
// file per named upstream, each encapsulating its own authentication
// scheme (rotating-session username templating, or a static endpoint).
// Priority order ($1/GB → $1.75/GB → free-tier managed API → $6-17/GB →
// user-supplied static list) is set by FromConfig, which appends the
// configured providers in that order.
package providers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/sportfeed/aggregator/internal/pkg/config"
	"github.com/sportfeed/aggregator/internal/proxy"
)

// randomSessionID returns a short hex session id so successive requests
// through a sticky-username provider land on different exit IPs.
func randomSessionID() string {
	b := make([]byte, 6)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// FromConfig builds the ordered provider list for whichever upstreams have
// credentials configured; an upstream missing its required fields is
// simply omitted rather than erroring, matching spec §6's "fields left
// empty mean that provider is unconfigured" contract.
func FromConfig(cfg Credentials) []proxy.Provider {
	var out []proxy.Provider
	if cfg.DataImpulseUsername != "" && cfg.DataImpulsePassword != "" {
		out = append(out, NewDataImpulse(cfg.DataImpulseUsername, cfg.DataImpulsePassword, cfg.Country))
	}
	if cfg.IProyalUsername != "" && cfg.IProyalPassword != "" {
		out = append(out, NewIProyal(cfg.IProyalUsername, cfg.IProyalPassword, cfg.Country))
	}
	if cfg.PacketStreamAPIKey != "" {
		out = append(out, NewPacketStream(cfg.PacketStreamAPIKey, cfg.Country))
	}
	if cfg.ScraperAPIKey != "" {
		out = append(out, NewScraperAPI(cfg.ScraperAPIKey, cfg.Country))
	}
	if cfg.SmartproxyUsername != "" && cfg.SmartproxyPassword != "" {
		out = append(out, NewSmartproxy(cfg.SmartproxyUsername, cfg.SmartproxyPassword, cfg.Country))
	}
	if cfg.OxylabsUsername != "" && cfg.OxylabsPassword != "" {
		out = append(out, NewOxylabs(cfg.OxylabsUsername, cfg.OxylabsPassword, cfg.Country))
	}
	if cfg.BrightdataUsername != "" && cfg.BrightdataPassword != "" {
		out = append(out, NewBrightdata(cfg.BrightdataUsername, cfg.BrightdataPassword, cfg.Country))
	}
	if len(cfg.StaticList) > 0 {
		out = append(out, NewStaticList(cfg.StaticList))
	}
	return out
}

// Credentials is the provider credential set read out of config.Config.
type Credentials struct {
	Country             string
	DataImpulseUsername string
	DataImpulsePassword string
	IProyalUsername     string
	IProyalPassword     string
	PacketStreamAPIKey  string
	ScraperAPIKey       string
	SmartproxyUsername  string
	SmartproxyPassword  string
	OxylabsUsername     string
	OxylabsPassword     string
	BrightdataUsername  string
	BrightdataPassword  string
	StaticList          []StaticEntry
}

// StaticEntry is one user-supplied static proxy (spec §6's PROXY_LIST).
type StaticEntry struct {
	Server   string
	Username string
	Password string
}

// CredentialsFromConfig adapts the loaded ProxyConfig into the
// Credentials shape this package consumes.
func CredentialsFromConfig(cfg config.ProxyConfig) Credentials {
	entries := make([]StaticEntry, len(cfg.StaticList))
	for i, e := range cfg.StaticList {
		entries[i] = StaticEntry{Server: e.Server, Username: e.Username, Password: e.Password}
	}
	return Credentials{
		Country:             cfg.Country,
		DataImpulseUsername: cfg.DataImpulseUsername,
		DataImpulsePassword: cfg.DataImpulsePassword,
		IProyalUsername:     cfg.IProyalUsername,
		IProyalPassword:     cfg.IProyalPassword,
		PacketStreamAPIKey:  cfg.PacketStreamAPIKey,
		ScraperAPIKey:       cfg.ScraperAPIKey,
		SmartproxyUsername:  cfg.SmartproxyUsername,
		SmartproxyPassword:  cfg.SmartproxyPassword,
		OxylabsUsername:     cfg.OxylabsUsername,
		OxylabsPassword:     cfg.OxylabsPassword,
		BrightdataUsername:  cfg.BrightdataUsername,
		BrightdataPassword:  cfg.BrightdataPassword,
		StaticList:          entries,
	}
}

func sessionUsername(base, sessionID, country string) string {
	if country == "" {
		return fmt.Sprintf("%s-session-%s", base, sessionID)
	}
	return fmt.Sprintf("%s-country-%s-session-%s", base, country, sessionID)
}
