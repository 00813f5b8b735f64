// Package htmltomarkdown wraps html-to-markdown to implement
// capture.Converter. On top of the base/commonmark/table plugins it
// registers four custom rules: strikethrough, figure-with-caption,
// fenced code blocks with language sniffing, and highlight spans.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/clefhq/capture"
	"golang.org/x/net/html"
)

// Ensure Converter implements capture.Converter at compile time.
var _ capture.Converter = (*Converter)(nil)

// customRulePriority places the custom element rules above the plugin
// renderers so they win for the tags they claim.
const customRulePriority = converter.PriorityStandard + 100

// Converter converts HTML to Markdown.
type Converter struct {
	conv         *converter.Converter
	bulletMarker string
}

// Option configures a Converter.
type Option func(*Converter)

// WithBulletListMarker sets the bullet list marker ("-", "*", or "+").
// Defaults to "-".
func WithBulletListMarker(marker string) Option {
	return func(c *Converter) {
		c.bulletMarker = marker
	}
}

// NewConverter creates a new Converter. The supported heading style is
// "atx" and the supported code-block style is "fenced" (the CommonMark
// defaults); requesting anything else fails with EUNSUPPORTED so the
// caller sees the offending value.
func NewConverter(headingStyle, codeBlockStyle string, opts ...Option) (*Converter, error) {
	if headingStyle != "" && headingStyle != "atx" {
		return nil, capture.Errorf(capture.EUNSUPPORTED, "unsupported heading style %q", headingStyle)
	}
	if codeBlockStyle != "" && codeBlockStyle != "fenced" {
		return nil, capture.Errorf(capture.EUNSUPPORTED, "unsupported code block style %q", codeBlockStyle)
	}

	c := &Converter{bulletMarker: "-"}
	for _, opt := range opts {
		opt(c)
	}
	switch c.bulletMarker {
	case "-", "*", "+":
	default:
		return nil, capture.Errorf(capture.EUNSUPPORTED, "unsupported bullet list marker %q", c.bulletMarker)
	}

	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)

	registerStrikethrough(conv)
	registerHighlight(conv)
	registerFigure(conv)
	registerFencedCode(conv)

	c.conv = conv
	return c, nil
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", capture.Errorf(capture.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(rawHTML)
	if err != nil {
		return "", err
	}

	if c.bulletMarker != "-" {
		result = swapBulletMarker(result, c.bulletMarker)
	}

	return result, nil
}

// registerStrikethrough renders <del>, <s>, and <strike> as ~~text~~.
func registerStrikethrough(conv *converter.Converter) {
	render := func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
		w.WriteString("~~")
		ctx.RenderChildNodes(ctx, w, n)
		w.WriteString("~~")
		return converter.RenderSuccess
	}
	for _, tag := range []string{"del", "s", "strike"} {
		conv.Register.RendererFor(tag, converter.TagTypeInline, render, customRulePriority)
	}
}

// registerHighlight renders <mark> as ==text==.
func registerHighlight(conv *converter.Converter) {
	conv.Register.RendererFor("mark", converter.TagTypeInline,
		func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
			w.WriteString("==")
			ctx.RenderChildNodes(ctx, w, n)
			w.WriteString("==")
			return converter.RenderSuccess
		}, customRulePriority)
}

// registerFigure renders <figure> as an image followed by its
// <figcaption> as an emphasized paragraph.
func registerFigure(conv *converter.Converter) {
	conv.Register.RendererFor("figure", converter.TagTypeBlock,
		func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
			img := findElement(n, "img")
			if img == nil {
				ctx.RenderChildNodes(ctx, w, n)
				return converter.RenderSuccess
			}
			w.WriteString("\n\n![")
			w.WriteString(attrValue(img, "alt"))
			w.WriteString("](")
			w.WriteString(attrValue(img, "src"))
			w.WriteString(")\n")
			if caption := findElement(n, "figcaption"); caption != nil {
				if text := strings.TrimSpace(textContent(caption)); text != "" {
					w.WriteString("\n*")
					w.WriteString(text)
					w.WriteString("*\n")
				}
			}
			w.WriteString("\n")
			return converter.RenderSuccess
		}, customRulePriority)
}

// registerFencedCode renders <pre> as a fenced code block, sniffing the
// language from a language-*/lang-* class on the inner <code>.
func registerFencedCode(conv *converter.Converter) {
	conv.Register.RendererFor("pre", converter.TagTypeBlock,
		func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
			code := findElement(n, "code")
			lang := ""
			src := n
			if code != nil {
				lang = sniffLanguage(attrValue(code, "class"))
				src = code
			}
			w.WriteString("\n\n```")
			w.WriteString(lang)
			w.WriteString("\n")
			w.WriteString(strings.TrimRight(textContent(src), "\n"))
			w.WriteString("\n```\n\n")
			return converter.RenderSuccess
		}, customRulePriority)
}

// sniffLanguage extracts the language from a "language-go" or "lang-go"
// style class list.
func sniffLanguage(class string) string {
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok {
			return lang
		}
		if lang, ok := strings.CutPrefix(c, "lang-"); ok {
			return lang
		}
	}
	return ""
}

// swapBulletMarker rewrites leading "- " bullets to the configured marker.
func swapBulletMarker(md, marker string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "- ") {
			indent := line[:len(line)-len(trimmed)]
			lines[i] = indent + marker + trimmed[1:]
		}
	}
	return strings.Join(lines, "\n")
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
