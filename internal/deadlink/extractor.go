package deadlink

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/linkrot/deadlink-finder/internal/model"
)

const archivePrefix = "https://web.archive.org"

// ExtractExternalLinks collects the outbound links of a Wikipedia
// article in document order, without deduplication.
//
// Two passes run: first the list under the "External links" section
// heading (located by its anchor id), then every anchor in the document
// carrying the "external" class, which covers citation and reference
// links that have no dedicated section. Links that appear in both
// passes are intentionally reported twice; downstream storage is keyed
// by URL+article, so the duplication costs a redundant check but never
// a duplicate record.
//
// Links into the web archive service are skipped: an archived copy
// being dead says nothing about the original.
func ExtractExternalLinks(doc *goquery.Document) []model.ExternalLink {
	var links []model.ExternalLink

	appendLink := func(s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.HasPrefix(href, archivePrefix) {
			return
		}
		links = append(links, model.ExternalLink{
			URL:  href,
			Text: strings.TrimSpace(s.Text()),
		})
	}

	section := doc.Find("span#External_links").First()
	if len(section.Nodes) > 0 {
		// The list is the next ul in document order, not necessarily a
		// sibling of the heading: current Wikipedia wraps headings in
		// container divs.
		if ul := followingElement(section.Nodes[0], "ul"); ul != nil {
			doc.FindNodes(ul).Find("li a.external").Each(func(_ int, a *goquery.Selection) {
				appendLink(a)
			})
		}
	}

	doc.Find("a.external").Each(func(_ int, a *goquery.Selection) {
		appendLink(a)
	})

	return links
}

// followingElement returns the first element with the given tag that
// comes after start in document order.
func followingElement(start *html.Node, tag string) *html.Node {
	for n := nextNode(start); n != nil; n = nextNode(n) {
		if n.Type == html.ElementNode && n.Data == tag {
			return n
		}
	}
	return nil
}

// nextNode advances one step in document order: first child, then next
// sibling, then the nearest ancestor's next sibling.
func nextNode(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// ArticleTitle returns the article's first heading, or a placeholder
// when the page carries none.
func ArticleTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("h1#firstHeading").First().Text())
	if title == "" {
		return "Unknown Title"
	}
	return title
}
