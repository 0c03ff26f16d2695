package htmlutil

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var ErrNotFound = errors.New("element not found")

// GetText concatenates every text node under `node`, without trimming anything.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// Text is GetText over the first element of `sel`, empty when there is none.
func Text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return GetText(sel.Nodes[0])
}

// Find returns the first element under `sel` matching `selector`, ok is false
// when nothing matches.
func Find(sel *goquery.Selection, selector string) (*goquery.Selection, bool) {
	found := sel.Find(selector).First()
	return found, found.Length() > 0
}

// Require is Find where a missing element is an error wrapping ErrNotFound.
func Require(sel *goquery.Selection, selector string) (*goquery.Selection, error) {
	found, ok := Find(sel, selector)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return found, nil
}

// Attr returns an attribute of the first element of `sel`, a missing
// attribute is an error wrapping ErrNotFound.
func Attr(sel *goquery.Selection, name string) (string, error) {
	value, ok := sel.First().Attr(name)
	if !ok {
		return "", fmt.Errorf("%w: attribute %s", ErrNotFound, name)
	}
	return value, nil
}

// ResolveHref resolves the href of the first element of `sel` against `base`.
func ResolveHref(base *url.URL, sel *goquery.Selection) (string, error) {
	href, err := Attr(sel, "href")
	if err != nil {
		return "", err
	}
	if href == "" {
		return "", fmt.Errorf("%w: empty href", ErrNotFound)
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	return base.ResolveReference(parsed).String(), nil
}
