package xauth

import (
	"context"
	"errors"
	"strings"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/recenseo/pkg/models"
)

// ErrNotAuthenticated means the browser session carries no usable login.
// There is no refresh or re-login path; the user has to log in at x.com and
// run the export again.
var ErrNotAuthenticated = errors.New("not logged into X in the attached browser")

const (
	sessionCookieName = "auth_token"
	csrfCookieName    = "ct0"

	// bearerToken is the fixed token the X web app presents for every
	// browser session. It is public and identical for all users.
	bearerToken = "Bearer AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA"
)

// Extract reads the full cookie set visible to the attached tab and builds
// the credential bundle for the run. The bundle is immutable after capture.
// The tab context carries both the chromedp target and the run's
// cancellation.
func Extract(tab context.Context, logger arbor.ILogger) (*models.AuthBundle, error) {
	var cookies []*network.Cookie
	err := chromedp.Run(tab, chromedp.ActionFunc(func(cdpCtx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(cdpCtx)
		return err
	}))
	if err != nil {
		return nil, err
	}

	captured := make([]models.SessionCookie, 0, len(cookies))
	for _, c := range cookies {
		if !isPlatformCookieDomain(c.Domain) {
			continue
		}
		captured = append(captured, models.SessionCookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
		})
	}

	bundle, err := FromCookies(captured)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int("cookies", len(bundle.Cookies)).
		Msg("Session credentials captured from browser")

	return bundle, nil
}

// FromCookies builds an AuthBundle from an already-filtered cookie set.
// Both the session cookie and the anti-forgery cookie must be present; this
// is the single authentication precondition of the whole system.
func FromCookies(cookies []models.SessionCookie) (*models.AuthBundle, error) {
	var authToken, csrfToken string
	for _, c := range cookies {
		switch c.Name {
		case sessionCookieName:
			authToken = c.Value
		case csrfCookieName:
			csrfToken = c.Value
		}
	}

	if authToken == "" || csrfToken == "" {
		return nil, ErrNotAuthenticated
	}

	return &models.AuthBundle{
		Cookies:     cookies,
		AuthToken:   authToken,
		CSRFToken:   csrfToken,
		BearerToken: bearerToken,
	}, nil
}

// isPlatformCookieDomain matches cookie domains scoped to the platform,
// including dotted parent-domain forms like ".x.com".
func isPlatformCookieDomain(domain string) bool {
	d := strings.TrimPrefix(domain, ".")
	return d == "x.com" || strings.HasSuffix(d, ".x.com") ||
		d == "twitter.com" || strings.HasSuffix(d, ".twitter.com")
}
