package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{in: "", expected: ""},
		{in: "  Sample  Product\n\tTitle ", expected: "Sample Product Title"},
		{in: "R$ 1.234,56", expected: "R$ 1.234,56"},
		{in: "a\x00b", expected: "ab"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CleanText(test.in), "input %q", test.in)
	}
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<html><head><title>
			Sample   Page
		</title></head>
		<body>
			<span class="price">R$ <b>1.234,56</b></span>
			<span class="price"> </span>
		</body></html>
	`))
	require.NoError(t, err)

	require.Equal(t, "Sample Page", SelectionText(doc.Find("title")))
	require.Equal(t, "R$ 1.234,56", SelectionText(doc.Find(".price")))
	require.Equal(t, "", SelectionText(doc.Find(".missing")))
	require.Equal(t, "Sample Page", CleanText(GetText(doc.Find("title").Nodes[0])))
}
