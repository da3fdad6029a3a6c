package skolplattformen

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// scrapeForm extracts the first <form>'s input name/value pairs. Returns nil
// if the document has no form.
func scrapeForm(doc *goquery.Document) map[string]string {
	form := doc.Find("form").First()
	if form.Length() == 0 {
		return nil
	}

	fields := make(map[string]string)
	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok {
			return
		}
		fields[name] = input.AttrOr("value", "")
	})

	return fields
}

// anchorHref finds the href of the first anchor with the given class whose
// text matches, or any anchor with the class when text is empty.
func anchorHref(doc *goquery.Document, class, text string) (string, bool) {
	var href string
	var found bool

	doc.Find("a." + class).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if text != "" && strings.TrimSpace(a.Text()) != text {
			return true
		}
		href, found = a.Attr("href")
		return !found
	})

	return href, found
}

func parseDocument(r io.Reader) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(r)
}
