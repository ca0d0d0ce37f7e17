package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="generator" content="researchlab">
<title>%s</title>
</head>
<body>
<article>
`

const htmlTail = `</article>
</body>
</html>
`

// HTMLFragment converts markdown to HTML. Raw HTML in the input is dropped;
// goldmark leaves an "<!-- raw HTML omitted -->" comment in its place.
func HTMLFragment(md []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(md, &buf); err != nil {
		return nil, fmt.Errorf("report: render html: %w", err)
	}
	return buf.Bytes(), nil
}

// HTMLDocument wraps the rendered markdown in a standalone page.
func HTMLDocument(title string, md []byte) ([]byte, error) {
	frag, err := HTMLFragment(md)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, htmlHead, html.EscapeString(title))
	buf.Write(frag)
	buf.WriteString(htmlTail)
	return buf.Bytes(), nil
}
