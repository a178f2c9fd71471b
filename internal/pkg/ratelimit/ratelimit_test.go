package ratelimit

import "testing"

func TestLimiter_SeparateDomainsGetSeparateBuckets(t *testing.T) {
	l := New()
	a := l.forDomain(hostOf("https://flashscore.com/football"))
	b := l.forDomain(hostOf("https://oddsportal.com/football"))
	if a == b {
		t.Fatal("expected distinct limiters for distinct domains")
	}
}

func TestLimiter_SameDomainReusesBucket(t *testing.T) {
	l := New()
	a := l.forDomain(hostOf("https://flashscore.com/football"))
	b := l.forDomain(hostOf("https://flashscore.com/tennis"))
	if a != b {
		t.Fatal("expected the same limiter to be reused for the same domain")
	}
}

func TestHostOf_ExtractsHostname(t *testing.T) {
	if got := hostOf("https://www.flashscore.com/football/"); got != "www.flashscore.com" {
		t.Errorf("expected www.flashscore.com, got %q", got)
	}
}
