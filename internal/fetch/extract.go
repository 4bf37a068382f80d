// Package fetch - extract.go parses listing-page HTML into snapshots.
package fetch

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/watchlist-monitor/internal/types"
)

// maxDescriptionLength caps stored descriptions; full listings can run to
// tens of kilobytes and only equality matters downstream.
const maxDescriptionLength = 500

var priceRe = regexp.MustCompile(`[\d,]+\.?\d*`)

// titleSelectors are tried in order; the first match wins.
var titleSelectors = []string{
	"h1#x-title-label-lbl",
	"h1.x-item-title__mainTitle",
	"h1[itemprop='name']",
	"h1",
}

var priceSelectors = []string{
	"span#prcIsum",
	"div.x-price-primary span",
	"span[itemprop='price']",
	".price",
}

var descriptionSelectors = []string{
	"div#desc_div",
	"div#viTabs_0_is",
	"div[itemprop='description']",
	".item-description",
}

// ExtractSnapshot parses listing HTML into a snapshot. Missing fields degrade
// gracefully: an absent price becomes unknown (nil) rather than an error.
func ExtractSnapshot(urlStr, html string) (*types.Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	return &types.Snapshot{
		URL:         urlStr,
		Title:       extractTitle(doc),
		Price:       extractPrice(doc),
		Available:   extractAvailability(doc),
		Description: extractDescription(doc),
		Images:      extractImages(doc),
		Seller:      extractSeller(doc),
		CapturedAt:  time.Now().UTC(),
	}, nil
}

func extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if title := strings.TrimSpace(s.Text()); title != "" {
				return title
			}
		}
	}
	return ""
}

func extractPrice(doc *goquery.Document) *float64 {
	for _, sel := range priceSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if price, ok := ParsePrice(s.Text()); ok {
			return &price
		}
	}
	return nil
}

// ParsePrice extracts a numeric price from display text like "US $1,234.56".
func ParsePrice(text string) (float64, bool) {
	cleaned := strings.ReplaceAll(text, ",", "")
	match := priceRe.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(strings.TrimSuffix(match, "."), 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

func extractAvailability(doc *goquery.Document) bool {
	// Buy-it-now button present means the listing is purchasable.
	if doc.Find("a#binBtn_btn, [data-testid='x-bin-action'] a").Length() > 0 {
		return true
	}
	// Active auction counts as available.
	if doc.Find("span#mm-saleDscPrc, .x-bid-count").Length() > 0 {
		return true
	}
	// Explicit ended/sold markers.
	if doc.Find(".d-statusmessage, .ended-message, .sold-out").Length() > 0 {
		return false
	}
	// A priced listing without an ended marker is treated as available.
	return extractPrice(doc) != nil
}

func extractDescription(doc *goquery.Document) string {
	for _, sel := range descriptionSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			desc := strings.TrimSpace(s.Text())
			if desc == "" {
				continue
			}
			if len(desc) > maxDescriptionLength {
				desc = desc[:maxDescriptionLength]
			}
			return desc
		}
	}
	return ""
}

func extractImages(doc *goquery.Document) []string {
	var images []string
	seen := make(map[string]bool)
	doc.Find("img#icImg, .ux-image-carousel img, img[itemprop='image']").Each(func(_ int, s *goquery.Selection) {
		src, ok := s.Attr("src")
		if !ok || src == "" || seen[src] {
			return
		}
		seen[src] = true
		images = append(images, src)
	})
	return images
}

func extractSeller(doc *goquery.Document) string {
	for _, sel := range []string{"span.mbg-nw", ".x-sellercard-atf__info__about-seller a span", "[data-testid='str-title'] a"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if seller := strings.TrimSpace(s.Text()); seller != "" {
				return seller
			}
		}
	}
	return ""
}
