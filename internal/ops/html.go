package ops

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/hpungsan/scribe/internal/errors"
)

// markdown renders minutes in goldmark's safe mode. The only raw HTML let
// through is the named anchors the converter puts before sections,
// resolutions and actions.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
		parser.WithAttribute(),
	),
	goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(util.Prioritized(anchorRenderer{}, 100)),
	),
)

const rawHTMLOmitted = "<!-- raw HTML omitted -->"

// anchorTagRe matches the two halves of `<a name="id"></a>`.
var anchorTagRe = regexp.MustCompile(`^(?:<a name="[A-Za-z0-9_-]+">|</a>)$`)

// anchorRenderer replaces goldmark's raw HTML rendering.
type anchorRenderer struct{}

func (anchorRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindRawHTML, renderRawHTML)
	reg.Register(ast.KindHTMLBlock, renderHTMLBlock)
}

func renderRawHTML(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}
	n := node.(*ast.RawHTML)
	var raw bytes.Buffer
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		raw.Write(seg.Value(source))
	}
	if anchorTagRe.Match(raw.Bytes()) {
		_, _ = w.Write(raw.Bytes())
	} else {
		_, _ = w.WriteString(rawHTMLOmitted)
	}
	return ast.WalkSkipChildren, nil
}

func renderHTMLBlock(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(rawHTMLOmitted + "\n")
	}
	return ast.WalkSkipChildren, nil
}

// RenderHTML converts minutes markdown to an HTML fragment. Jekyll front
// matter and the pandoc title block are not part of the rendered page.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(StripFrontMatter(md)), &buf); err != nil {
		return "", errors.NewInternal(err)
	}
	return buf.String(), nil
}

// StripFrontMatter removes a leading "---" YAML block or "%" pandoc title lines.
func StripFrontMatter(md string) string {
	if rest, ok := strings.CutPrefix(md, "---\n"); ok {
		if i := strings.Index(rest, "\n---\n"); i >= 0 {
			return strings.TrimLeft(rest[i+len("\n---\n"):], "\n")
		}
		if strings.HasSuffix(rest, "\n---") {
			return ""
		}
		return md
	}
	for strings.HasPrefix(md, "% ") {
		_, md, _ = strings.Cut(md, "\n")
	}
	return strings.TrimLeft(md, "\n")
}
