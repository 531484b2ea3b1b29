package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// fetchScript runs inside the attached tab. Issuing the request through the
// page's own fetch keeps the TLS/session fingerprint identical to the user's
// browsing; the upstream rejects calls made by a detached HTTP client.
const fetchScript = `(async () => {
	const resp = await fetch(%s, {
		method: "GET",
		headers: %s,
		credentials: "include",
	});
	const body = await resp.text();
	return JSON.stringify({status: resp.status, body: body});
})()`

type fetchResult struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// Fetch issues a GET request from inside the attached tab and returns the
// HTTP status and raw body. A rejected fetch (network-level failure) is
// returned as an error; non-2xx statuses are the caller's concern.
func (s *Session) Fetch(ctx context.Context, requestURL string, headers map[string]string, timeout time.Duration) (int, []byte, error) {
	urlJSON, err := json.Marshal(requestURL)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid request url: %w", err)
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid request headers: %w", err)
	}

	// The tab context carries the chromedp target; the deadline rides on top.
	runCtx := s.tab
	if ctx != nil {
		if done := ctx.Done(); done != nil {
			var cancel context.CancelFunc
			runCtx, cancel = mergeCancel(s.tab, ctx)
			defer cancel()
		}
	}
	runCtx, cancel := context.WithTimeout(runCtx, timeout)
	defer cancel()

	expr := fmt.Sprintf(fetchScript, urlJSON, headersJSON)

	var raw string
	err = chromedp.Run(runCtx, chromedp.Evaluate(expr, &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}))
	if err != nil {
		return 0, nil, fmt.Errorf("in-page fetch failed: %w", err)
	}

	var result fetchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return 0, nil, fmt.Errorf("in-page fetch returned malformed envelope: %w", err)
	}
	return result.Status, []byte(result.Body), nil
}

// mergeCancel derives a context from parent that is also cancelled when
// other is. chromedp contexts must stay in the parent chain, so the caller's
// context cannot simply replace the tab context.
func mergeCancel(parent, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
