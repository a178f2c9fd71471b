// Package chromepage implements adapters.Page over chromedp, for the
// HTML-DOM source family of spec §4.6 that needs JavaScript rendering.
package chromepage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/sportfeed/aggregator/internal/adapters"
	"github.com/sportfeed/aggregator/internal/proxy"
)

// blockedResourceTypes are the request types dropped to cut bandwidth by
// ~70-80% (spec §4.6): images, fonts, stylesheets, media, and ping
// (analytics beacon) requests.
var blockedResourceTypes = []network.ResourceType{
	network.ResourceTypeImage,
	network.ResourceTypeFont,
	network.ResourceTypeStylesheet,
	network.ResourceTypeMedia,
	network.ResourceTypePing,
}

// Options configures one Page's browser allocator.
type Options struct {
	UserAgent string
	Proxy     *proxy.Config
	Timeout   time.Duration
}

type page struct {
	ctx    context.Context
	cancel context.CancelFunc
}

var _ adapters.Page = (*page)(nil)

// New launches a headless Chrome instance configured per Options and
// returns a Page bound to it.
func New(parent context.Context, opts Options) (adapters.Page, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != nil {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy.Server))
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, timeoutCancel := context.WithTimeout(parent, timeout)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		if os.Getenv("ADAPTER_CHROME_DEBUG") == "1" {
			fmt.Fprintf(os.Stderr, format+"\n", v...)
		}
	}))

	if opts.Proxy != nil && opts.Proxy.Username != "" {
		if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			return nil // credential auth is supplied out-of-band via the proxy URL scheme by callers that need it
		})); err != nil {
			browserCancel()
			allocCancel()
			timeoutCancel()
			return nil, fmt.Errorf("chromepage: init: %w", err)
		}
	}

	if err := chromedp.Run(browserCtx, blockResourcesAction(blockedResourceTypes)); err != nil {
		browserCancel()
		allocCancel()
		timeoutCancel()
		return nil, fmt.Errorf("chromepage: enable fetch interception: %w", err)
	}

	return &page{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
			timeoutCancel()
		},
	}, nil
}

func (p *page) Goto(ctx context.Context, url string) error {
	return chromedp.Run(p.ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(500*time.Millisecond),
	)
}

func (p *page) QuerySelectorAll(_ context.Context, selector string) ([]string, error) {
	var out []string
	err := chromedp.Run(p.ctx, chromedp.Evaluate(
		fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(e => e.innerText)`, selector),
		&out,
	))
	if err != nil {
		return nil, fmt.Errorf("chromepage: query %q: %w", selector, err)
	}
	return out, nil
}

func (p *page) EvaluateText(_ context.Context, expr string) (string, error) {
	var out string
	if err := chromedp.Run(p.ctx, chromedp.Evaluate(expr, &out)); err != nil {
		return "", fmt.Errorf("chromepage: evaluate: %w", err)
	}
	return out, nil
}

func (p *page) Close() error {
	p.cancel()
	return nil
}

// blockResourcesAction enables Chrome DevTools fetch interception for the
// life of the page: every paused request is either failed outright (if its
// resource type is in types) or waved through.
func blockResourcesAction(types []network.ResourceType) chromedp.Action {
	blocked := make(map[network.ResourceType]bool, len(types))
	for _, t := range types {
		blocked[t] = true
	}

	return chromedp.ActionFunc(func(ctx context.Context) error {
		chromedp.ListenTarget(ctx, func(ev interface{}) {
			e, ok := ev.(*fetch.EventRequestPaused)
			if !ok {
				return
			}
			go func() {
				if blocked[e.ResourceType] {
					_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ctx)
				} else {
					_ = fetch.ContinueRequest(e.RequestID).Do(ctx)
				}
			}()
		})
		return fetch.Enable().Do(ctx)
	})
}
