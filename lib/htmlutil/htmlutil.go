package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

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

// InnerTextBr returns the text content of the selection with <br> elements
// rendered as newlines. literal newlines in the markup are dropped, the
// legacy site uses them only for source formatting.
func InnerTextBr(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		innerTextBrRecursive(n, &buffer)
	}
	return buffer.String()
}

func innerTextBrRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		text := strings.ReplaceAll(node.Data, "\n", "")
		buffer.WriteString(strings.ReplaceAll(text, "\r", ""))
		return
	}
	if node.Type == html.ElementNode && node.Data == "br" {
		buffer.WriteString("\n")
		return
	}
	child := node.FirstChild
	for child != nil {
		innerTextBrRecursive(child, buffer)
		child = child.NextSibling
	}
}

// KeyValueRows reads a two-column table into a map, first cell is the key,
// second cell is the value.
func KeyValueRows(sel *goquery.Selection) map[string]string {
	out := map[string]string{}
	sel.Each(func(_ int, row *goquery.Selection) {
		key := strings.TrimSpace(row.Children().First().Text())
		value := strings.TrimSpace(row.Children().First().Next().Text())
		if key == "" {
			return
		}
		out[key] = value
	})
	return out
}
