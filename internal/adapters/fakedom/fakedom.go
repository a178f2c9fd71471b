// Package fakedom is an in-memory adapters.Page test double, so
// htmladapter tests exercise selector-fallback and heuristic-extraction
// logic without a real browser.
package fakedom

import (
	"context"
	"fmt"

	"github.com/sportfeed/aggregator/internal/adapters"
)

// Page is a scripted fake: selectors and expressions are looked up from
// fixed maps set up by the test.
type Page struct {
	URL       string
	Selectors map[string][]string
	Evals     map[string]string
	Closed    bool
}

var _ adapters.Page = (*Page)(nil)

func New() *Page {
	return &Page{Selectors: map[string][]string{}, Evals: map[string]string{}}
}

func (p *Page) Goto(_ context.Context, url string) error {
	p.URL = url
	return nil
}

func (p *Page) QuerySelectorAll(_ context.Context, selector string) ([]string, error) {
	if results, ok := p.Selectors[selector]; ok {
		return results, nil
	}
	return nil, nil
}

func (p *Page) EvaluateText(_ context.Context, expr string) (string, error) {
	if v, ok := p.Evals[expr]; ok {
		return v, nil
	}
	return "", fmt.Errorf("fakedom: no scripted result for expression %q", expr)
}

func (p *Page) Close() error {
	p.Closed = true
	return nil
}
