package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, input string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	require.NoError(t, err)
	return doc
}

func TestInnerTextBr(t *testing.T) {
	doc := parse(t, `<div id="d">første <b>linje</b><br>anden linje<br/>tredje linje</div>`)
	require.Equal(
		t,
		"første linje\nanden linje\ntredje linje",
		InnerTextBr(doc.Find("#d")),
	)
}

func TestKeyValueRows(t *testing.T) {
	doc := parse(t, `<table>
		<tr><td>Start</td><td> 26-07-2022 15:00 </td></tr>
		<tr><td>Rute</td><td>Skovshoved</td></tr>
		<tr><td></td><td>ignoreret</td></tr>
	</table>`)
	require.Equal(t, map[string]string{
		"Start": "26-07-2022 15:00",
		"Rute":  "Skovshoved",
	}, KeyValueRows(doc.Find("tr")))
}
