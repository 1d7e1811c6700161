package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"liscraper/pkg/models"
)

// SetCookies injects a cookie jar into the page's browser context before
// navigation, so the first request already carries the session.
func (p *chromePage) SetCookies(ctx context.Context, cookies []models.Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		var expires *cdp.TimeSinceEpoch
		if c.Expires > 0 {
			expiresTime := time.Unix(c.Expires, 0)
			// Chrome rejects already-expired cookies; skip the field so the
			// cookie rides as session-scoped instead.
			if expiresTime.After(time.Now()) {
				ts := cdp.TimeSinceEpoch(expiresTime)
				expires = &ts
			}
		}

		param := &network.CookieParam{
			Name:  c.Name,
			Value: c.Value,
			// Chrome rejects the RFC leading-dot form.
			Domain:   strings.TrimPrefix(c.Domain, "."),
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			Expires:  expires,
		}
		switch strings.ToLower(c.SameSite) {
		case "strict":
			param.SameSite = network.CookieSameSiteStrict
		case "lax":
			param.SameSite = network.CookieSameSiteLax
		case "none":
			param.SameSite = network.CookieSameSiteNone
		}
		params = append(params, param)
	}

	err := chromedp.Run(p.run(ctx), chromedp.ActionFunc(func(ctx context.Context) error {
		for _, param := range params {
			if err := network.SetCookie(param.Name, param.Value).
				WithDomain(param.Domain).
				WithPath(param.Path).
				WithSecure(param.Secure).
				WithHTTPOnly(param.HTTPOnly).
				WithSameSite(param.SameSite).
				WithExpires(param.Expires).
				Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", param.Name, err)
			}
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("cookie injection failed: %w", err)
	}
	return nil
}

// Cookies reads the browser's current jar back out, post-login, in the
// structured form the session layer persists.
func (p *chromePage) Cookies(ctx context.Context) ([]models.Cookie, error) {
	var raw []*network.Cookie
	err := chromedp.Run(p.run(ctx), chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		raw = cookies
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	out := make([]models.Cookie, 0, len(raw))
	for _, c := range raw {
		cookie := models.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: string(c.SameSite),
		}
		if c.Expires > 0 {
			cookie.Expires = int64(c.Expires)
		}
		out = append(out, cookie)
	}
	return out, nil
}
