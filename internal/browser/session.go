package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// The exporter never launches a browser of its own. It attaches to a
// Chrome/Arc instance the user already runs with --remote-debugging-port and
// rides that session, so every request carries the session's own network
// fingerprint.

// ErrNoPageTarget is returned when the browser has no open page tab to attach to.
var ErrNoPageTarget = fmt.Errorf("no browser tabs found, open x.com in the browser first")

// Session is an attachment to one tab of a running browser.
type Session struct {
	endpoint      string
	browserName   string
	tab           context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	tabCancel     context.CancelFunc
	logger        arbor.ILogger
}

// Status describes the state of the remote-debugging endpoint.
type Status struct {
	Connected      bool   `json:"connected"`
	Browser        string `json:"browser"`
	Tabs           int    `json:"tabs"`
	PlatformTab    bool   `json:"platform_tab_found"`
	PlatformTabURL string `json:"platform_tab_url,omitempty"`
	Error          string `json:"error,omitempty"`
}

// versionInfo is the /json/version response.
type versionInfo struct {
	Browser              string `json:"Browser"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// targetInfo is one entry of the /json/list response.
type targetInfo struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Check probes the remote-debugging endpoint and reports connection state,
// tab count, and whether a platform tab is open. It never attaches.
func Check(ctx context.Context, endpoint string, timeout time.Duration) Status {
	version, err := fetchVersion(ctx, endpoint, timeout)
	if err != nil {
		return Status{Connected: false, Error: err.Error()}
	}

	status := Status{Connected: true, Browser: version.Browser}

	targets, err := fetchTargets(ctx, endpoint, timeout)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		status.Tabs++
		if !status.PlatformTab && isPlatformURL(t.URL) {
			status.PlatformTab = true
			status.PlatformTabURL = t.URL
		}
	}
	return status
}

// Connect attaches to the running browser at the given remote-debugging
// endpoint. It prefers a tab already on the platform and falls back to any
// open page tab; the caller is responsible for that tab being logged in.
func Connect(ctx context.Context, endpoint string, timeout time.Duration, logger arbor.ILogger) (*Session, error) {
	version, err := fetchVersion(ctx, endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to browser at %s (is Chrome running with --remote-debugging-port?): %w", endpoint, err)
	}

	targets, err := fetchTargets(ctx, endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to list browser targets: %w", err)
	}

	targetURL := pickTarget(targets)
	if targetURL == "" {
		return nil, ErrNoPageTarget
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, version.WebSocketDebuggerURL, chromedp.NoModifyURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	infos, err := chromedp.Targets(browserCtx)
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to enumerate targets over devtools: %w", err)
	}

	session := &Session{
		endpoint:      endpoint,
		browserName:   version.Browser,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
		logger:        logger,
	}

	for _, info := range infos {
		if info.Type == "page" && info.URL == targetURL {
			tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(info.TargetID))
			session.tab = tabCtx
			session.tabCancel = tabCancel
			break
		}
	}
	if session.tab == nil {
		// Tab list changed between the probe and the attach; take any page.
		for _, info := range infos {
			if info.Type == "page" {
				tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(info.TargetID))
				session.tab = tabCtx
				session.tabCancel = tabCancel
				break
			}
		}
	}
	if session.tab == nil {
		session.Close()
		return nil, ErrNoPageTarget
	}

	// Establish the target connection without navigating anywhere.
	if err := chromedp.Run(session.tab); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to attach to browser tab: %w", err)
	}

	logger.Info().
		Str("browser", version.Browser).
		Str("endpoint", endpoint).
		Msg("Attached to running browser")

	return session, nil
}

// Tab returns the chromedp context of the attached tab.
func (s *Session) Tab() context.Context {
	return s.tab
}

// Browser returns the product string reported by the endpoint.
func (s *Session) Browser() string {
	return s.browserName
}

// Close detaches from the browser. The browser itself keeps running; it
// belongs to the user.
func (s *Session) Close() {
	if s.tabCancel != nil {
		s.tabCancel()
	}
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// pickTarget chooses the tab to ride: a platform tab when one is open,
// otherwise the first page tab.
func pickTarget(targets []targetInfo) string {
	var fallback string
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if isPlatformURL(t.URL) {
			return t.URL
		}
		if fallback == "" {
			fallback = t.URL
		}
	}
	return fallback
}

// isPlatformURL reports whether the URL belongs to the platform's domains.
func isPlatformURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "x.com" || strings.HasSuffix(host, ".x.com") ||
		host == "twitter.com" || strings.HasSuffix(host, ".twitter.com")
}

func fetchVersion(ctx context.Context, endpoint string, timeout time.Duration) (*versionInfo, error) {
	var version versionInfo
	if err := getJSON(ctx, endpoint+"/json/version", timeout, &version); err != nil {
		return nil, err
	}
	return &version, nil
}

func fetchTargets(ctx context.Context, endpoint string, timeout time.Duration) ([]targetInfo, error) {
	var targets []targetInfo
	if err := getJSON(ctx, endpoint+"/json/list", timeout, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

func getJSON(ctx context.Context, url string, timeout time.Duration, out any) error {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
