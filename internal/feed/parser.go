package feed

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// BodyBudget is the maximum number of characters kept from a feed body
	BodyBudget = 1200

	// Ellipsis is appended to a truncated body, followed by ReadMoreHint
	Ellipsis = "..."

	// ReadMoreHint points viewers at the QR code rendered next to the slide
	ReadMoreHint = "<br><br><i>(Read the full article via the QR code)</i>"
)

// ExtractFirstImageURL returns the src of the first <img> element in the
// fragment, or "" when there is none.
func ExtractFirstImageURL(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Img {
				continue
			}
			for _, attr := range tok.Attr {
				if strings.EqualFold(attr.Key, "src") {
					if src := strings.TrimSpace(attr.Val); src != "" {
						return src
					}
				}
			}
		}
	}
}

// blockElements separate the text around them. Inline markup such as <b> or
// <a> is flattened without adding whitespace.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Br: true, atom.Caption: true, atom.Dd: true, atom.Div: true, atom.Dl: true,
	atom.Dt: true, atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Tbody: true, atom.Td: true, atom.Tfoot: true, atom.Th: true, atom.Thead: true,
	atom.Tr: true, atom.Ul: true,
}

// ToPlainText drops script and style elements, flattens the remaining markup
// to text with entities decoded, collapses whitespace runs and trims.
func ToPlainText(fragment string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	skip := 0

loop:
	for {
		switch z.Next() {
		case html.ErrorToken:
			break loop
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Type == html.StartTagToken && (tok.DataAtom == atom.Script || tok.DataAtom == atom.Style) {
				skip++
			}
			if blockElements[tok.DataAtom] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			tok := z.Token()
			if (tok.DataAtom == atom.Script || tok.DataAtom == atom.Style) && skip > 0 {
				skip--
			}
			if blockElements[tok.DataAtom] {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.WriteString(z.Token().Data)
			}
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Truncate caps text at BodyBudget characters. Longer text is cut at the last
// space at or before the budget, or exactly at the budget when there is no
// space, and gets Ellipsis and ReadMoreHint appended.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= BodyBudget {
		return text
	}

	runes := []rune(text)[:BodyBudget+1]
	cut := BodyBudget
	for i := BodyBudget; i > 0; i-- {
		if runes[i] == ' ' {
			cut = i
			break
		}
	}

	return strings.TrimRight(string(runes[:cut]), " ") + Ellipsis + ReadMoreHint
}
