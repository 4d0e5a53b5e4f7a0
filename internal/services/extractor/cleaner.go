package extractor

import (
	"github.com/PuerkitoBio/goquery"
)

// cleanDocument strips non-content elements in place before extraction.
// Must run after title and date extraction since it removes the head.
func cleanDocument(doc *goquery.Document) {
	// Structural and non-content elements
	doc.Find("head, script, style, noscript, title, aside, nav, header, footer, form, button").Remove()

	// Media and embedded content
	doc.Find("iframe, embed, object, video, audio, canvas, svg").Remove()

	// Social widgets and sharing blocks
	doc.Find("[class*='social'], [class*='share'], [id*='social'], [id*='share']").Remove()

	// Comment sections
	doc.Find("[class*='comment'], [id*='comment'], [class*='discussion'], [id*='discussion']").Remove()

	// Site chrome that only identifies itself through class names
	doc.Find("[class*='sidebar'], [class*='menu'], [class*='widget'], [class*='newsletter'], [class*='subscribe'], [class*='related'], [class*='promo'], [class*='advert'], [id*='advert']").Remove()

	// ARIA landmark roles for navigation chrome
	doc.Find("[role='navigation'], [role='banner'], [role='complementary']").Remove()

	// Inline styles and event handlers
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		sel.RemoveAttr("style")
		sel.RemoveAttr("onclick")
		sel.RemoveAttr("onload")
		sel.RemoveAttr("onerror")
	})
}
