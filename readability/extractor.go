// Package readability implements capture.Extractor with a
// readability-style scoring heuristic: paragraph-bearing containers are
// ranked by paragraph density (comma count and text length), adjusted by
// class/id hints, and penalized by link density. The highest-scoring
// container becomes the article body.
package readability

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/clefhq/capture"
	"golang.org/x/net/html"
)

// Ensure Extractor implements capture.Extractor at compile time.
var _ capture.Extractor = (*Extractor)(nil)

// Class/id term lists. Negative terms mark navigation, ads, and social
// chrome for removal; a positive match overrides removal and earns a
// scoring bonus. Kept as data tables rather than branching code.
var (
	negativeTerms = []string{
		"comment", "community", "disqus", "footer", "header", "menu",
		"nav", "pager", "pagination", "popup", "rss", "shoutbox",
		"sidebar", "sponsor", "ad-break", "advert", "tweet", "twitter",
	}
	positiveTerms = []string{
		"article", "blog", "body", "content", "entry", "main", "post",
		"story", "text",
	}
)

// blockTags are rendered with a surrounding blank line in text output.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "blockquote": true, "li": true, "tr": true,
	"ul": true, "ol": true, "table": true, "pre": true,
	"figcaption": true,
}

var multiNewline = regexp.MustCompile(`\n{3,}`)

// classBonus is the score adjustment for positive/negative class or id
// pattern matches on a candidate container.
const classBonus = 25.0

// Extractor extracts main article content from HTML.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

type candidate struct {
	sel   *goquery.Selection
	score float64
	order int
}

// Extract processes raw HTML and returns the main content as plain text.
// Returns ENOTFOUND when the document holds no paragraph-bearing
// container.
func (e *Extractor) Extract(rawHTML string) (*capture.ExtractResult, error) {
	if rawHTML == "" {
		return nil, capture.Errorf(capture.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, capture.Errorf(capture.EINVALID, "failed to parse HTML: %v", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, iframe, noscript").Remove()
	removeUnlikely(doc)

	best := scoreCandidates(doc)
	if best == nil {
		return nil, capture.Errorf(capture.ENOTFOUND, "no article content found")
	}

	// Interactive elements carry no article text.
	best.sel.Find("form, input, button, select, textarea, fieldset").Remove()

	return &capture.ExtractResult{
		Title: title,
		Text:  renderText(best.sel),
	}, nil
}

// removeUnlikely strips elements whose class/id match a negative term and
// no positive override. The body element itself is never removed.
func removeUnlikely(doc *goquery.Document) {
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "body" {
			return
		}
		hint := classIDHint(s)
		if matchesAny(hint, negativeTerms) && !matchesAny(hint, positiveTerms) {
			s.Remove()
		}
	})
}

// scoreCandidates scores every paragraph-bearing container and returns
// the winner, or nil when the document has no paragraphs. Each paragraph
// contributes 1 + commaCount + min(len/100, 3) to its parent and half
// that to its grandparent. Candidate totals are then adjusted by class/id
// hints and multiplied by (1 - linkDensity). Ties keep the earlier
// encounter.
func scoreCandidates(doc *goquery.Document) *candidate {
	candidates := make(map[*html.Node]*candidate)
	order := 0

	register := func(s *goquery.Selection) *candidate {
		n := s.Get(0)
		if c, ok := candidates[n]; ok {
			return c
		}
		c := &candidate{sel: s, order: order}
		order++
		candidates[n] = c
		return c
	}

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		score := 1.0 + float64(strings.Count(text, ",")) + float64(min(len(text)/100, 3))

		if parent := p.Parent(); parent.Length() > 0 {
			register(parent).score += score
			if grandparent := parent.Parent(); grandparent.Length() > 0 {
				register(grandparent).score += score / 2
			}
		}
	})

	var best *candidate
	for _, c := range candidates {
		hint := classIDHint(c.sel)
		adjusted := c.score
		if matchesAny(hint, positiveTerms) {
			adjusted += classBonus
		}
		if matchesAny(hint, negativeTerms) {
			adjusted -= classBonus
		}
		adjusted *= 1 - linkDensity(c.sel)
		c.score = adjusted

		if best == nil || c.score > best.score ||
			(c.score == best.score && c.order < best.order) {
			best = c
		}
	}
	return best
}

// linkDensity is the share of a container's text that sits inside
// anchors. Navigation blocks approach 1, article bodies stay near 0.
func linkDensity(s *goquery.Selection) float64 {
	total := len(s.Text())
	if total == 0 {
		return 0
	}
	linked := 0
	s.Find("a").Each(func(_ int, a *goquery.Selection) {
		linked += len(a.Text())
	})
	return float64(linked) / float64(total)
}

func classIDHint(s *goquery.Selection) string {
	class, _ := s.Attr("class")
	id, _ := s.Attr("id")
	return strings.ToLower(class + " " + id)
}

func matchesAny(hint string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(hint, t) {
			return true
		}
	}
	return false
}

// renderText converts the selection to plain text: block elements become
// blank-line-separated runs, <br> becomes a newline, and entity decoding
// is inherited from the HTML parser. Runs of 3+ newlines collapse to 2.
func renderText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		writeNodeText(n, &sb)
	}
	text := multiNewline.ReplaceAllString(sb.String(), "\n\n")
	return strings.TrimSpace(text)
}

func writeNodeText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
	case html.ElementNode:
		if n.Data == "br" {
			sb.WriteString("\n")
			return
		}
		block := blockTags[n.Data]
		if block {
			sb.WriteString("\n\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNodeText(c, sb)
		}
		if block {
			sb.WriteString("\n\n")
		}
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeNodeText(c, sb)
		}
	}
}
