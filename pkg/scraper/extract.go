package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	liserrors "liscraper/pkg/errors"
	"liscraper/pkg/models"
)

// Selector fallback chains, primary first. The site reshuffles its profile
// markup a few times a year; each field tolerates the previous generation's
// classes so a redesign degrades gracefully instead of failing outright.
var (
	nameSelectors = []string{
		"h1.text-heading-xlarge",
		".top-card-layout__title",
		"h1.pv-top-card-section__name",
	}
	titleSelectors = []string{
		".text-body-medium.break-words",
		".top-card-layout__headline",
		".pv-top-card-section__headline",
	}
	companySelectors = []string{
		"button[aria-label^='Current company'] span",
		".top-card-layout__first-subline .top-card-link__description",
		".pv-top-card--experience-list-item",
	}
	locationSelectors = []string{
		".text-body-small.inline.t-black--light.break-words",
		".top-card-layout__first-subline .not-first-middot span",
		".pv-top-card-section__location",
	}
	bioSelectors = []string{
		"section[data-section='summary'] .core-section-container__content p",
		".pv-about__summary-text",
		".summary .description",
	}
)

// extractProfile parses the rendered page and pulls the profile fields. An
// empty name means the page was not a profile (or the markup drifted past
// every fallback) and the scrape is reported failed rather than returning a
// hollow record.
func extractProfile(html, profileURL, platform string) (*models.ScrapedProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, liserrors.NewScrapingFailed("failed to parse profile page", err)
	}

	profile := &models.ScrapedProfile{
		Name:       firstText(doc, nameSelectors),
		Title:      firstText(doc, titleSelectors),
		Company:    firstText(doc, companySelectors),
		Location:   firstText(doc, locationSelectors),
		Bio:        firstText(doc, bioSelectors),
		ProfileURL: profileURL,
		Platform:   platform,
	}

	if profile.Name == "" {
		return nil, liserrors.NewScrapingFailed("no profile name found on page", nil)
	}
	return profile, nil
}

// firstText returns the trimmed text of the first selector in the chain
// that matches a non-empty node.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text != "" {
			return collapseWhitespace(text)
		}
	}
	return ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
