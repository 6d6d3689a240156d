package dom

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(src)
	require.NoError(t, err)
	return doc
}

func TestFragmentRoundTrip(t *testing.T) {
	doc := mustParse(t, `<div class="hero"><p>Hi</p></div>`)

	assert.True(t, doc.IsFragment())
	out, err := doc.Render(Clean)
	require.NoError(t, err)
	assert.Equal(t, `<div class="hero"><p>Hi</p></div>`, out)
}

func TestFullDocumentKeepsHead(t *testing.T) {
	doc := mustParse(t, `<!DOCTYPE html><html><head><title>T</title></head><body><h1>x</h1></body></html>`)

	assert.False(t, doc.IsFragment())
	out, err := doc.Render(Clean)
	require.NoError(t, err)
	assert.Contains(t, out, "<title>T</title>")
	assert.Contains(t, out, "<h1>x</h1>")
}

func TestEnsureIDIsStableAndStrippedOnCleanRender(t *testing.T) {
	doc := mustParse(t, `<div><span>A</span></div>`)
	span, err := doc.QueryOne("//span")
	require.NoError(t, err)

	id := doc.EnsureID(span)
	assert.Equal(t, id, doc.EnsureID(span))
	assert.Same(t, span, doc.NodeByID(id))

	clean, err := doc.Render(Clean)
	require.NoError(t, err)
	assert.NotContains(t, clean, IDAttr)

	raw, err := doc.Render(Raw)
	require.NoError(t, err)
	assert.Contains(t, raw, IDAttr+`="`+id+`"`)
}

func TestEnsureIDSkipsIDsAlreadyInMarkup(t *testing.T) {
	doc := mustParse(t, `<p data-pc-id="pc-1">a</p><p>b</p>`)
	nodes, err := doc.QueryAll("//p")
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	assert.Equal(t, "pc-1", doc.EnsureID(nodes[0]))
	assert.Equal(t, "pc-2", doc.EnsureID(nodes[1]))
}

func TestReplaceDetachesOldNodes(t *testing.T) {
	doc := mustParse(t, `<div id="a"></div>`)
	div, err := doc.QueryOne("//div")
	require.NoError(t, err)
	require.True(t, doc.Attached(div))

	require.NoError(t, doc.Replace(`<section></section>`))
	assert.False(t, doc.Attached(div))
	assert.ErrorIs(t, doc.SetStyle(div, "color", "red"), ErrDetached)
}

func TestSetStyleShorthandDropsLonghands(t *testing.T) {
	doc := mustParse(t, `<div style="margin-top: 4px; color: red"></div>`)
	div, _ := doc.QueryOne("//div")

	require.NoError(t, doc.SetStyle(div, "margin", "8px 16px"))
	assert.Equal(t, map[string]string{"color": "red", "margin": "8px 16px"}, doc.InlineStyles(div))
	assert.Equal(t, "16px", doc.ComputedStyle(div, "margin-left"))
	assert.Equal(t, "8px", doc.ComputedStyle(div, "margin-bottom"))

	require.NoError(t, doc.SetStyle(div, "color", ""))
	assert.NotContains(t, doc.InlineStyles(div), "color")

	assert.ErrorIs(t, doc.SetStyle(div, "color", "red; background: url(x)"), ErrInvalidStyle)
}

func TestComputedStyleCascade(t *testing.T) {
	doc := mustParse(t, `<html><head><style>
		p { color: blue; font-size: 14px }
		.lead { color: green }
		#hero .lead { color: purple !important }
		section { font-weight: 700 }
	</style></head><body>
		<section id="hero"><p class="lead" style="color: red">x</p><p>y</p></section>
		<span>z</span>
	</body></html>`)
	ps, err := doc.QueryAll("//p")
	require.NoError(t, err)
	lead, plain := ps[0], ps[1]

	assert.Equal(t, "purple", doc.ComputedStyle(lead, "color"))
	assert.Equal(t, "blue", doc.ComputedStyle(plain, "color"))
	assert.Equal(t, "700", doc.ComputedStyle(plain, "font-weight"))
	assert.Equal(t, "block", doc.ComputedStyle(plain, "display"))

	span, _ := doc.QueryOne("//span")
	assert.Equal(t, "inline", doc.ComputedStyle(span, "display"))
	assert.Equal(t, "0px", doc.ComputedStyle(span, "margin-top"))
}

func TestComputedStyleMatchesCombinatorsAndAttributes(t *testing.T) {
	doc := mustParse(t, `<html><head><style>
		.hero > h1 { color: red }
		a[href^="/buy"] { font-weight: 700 }
		li:first-child, li:hover { margin-top: 4px }
		h1::before { color: green }
		div ~ p { text-align: center }
	</style></head><body>
		<div class="hero"><h1>a</h1><section><h1>b</h1></section></div>
		<p><a href="/buy/now">x</a><a href="/about">y</a></p>
		<ul><li>1</li><li>2</li></ul>
	</body></html>`)
	h1s, err := doc.QueryAll("//h1")
	require.NoError(t, err)
	assert.Equal(t, "red", doc.ComputedStyle(h1s[0], "color"))
	assert.NotEqual(t, "red", doc.ComputedStyle(h1s[1], "color"))

	links, err := doc.QueryAll("//a")
	require.NoError(t, err)
	assert.Equal(t, "700", doc.ComputedStyle(links[0], "font-weight"))
	assert.NotEqual(t, "700", doc.ComputedStyle(links[1], "font-weight"))

	items, err := doc.QueryAll("//li")
	require.NoError(t, err)
	assert.Equal(t, "4px", doc.ComputedStyle(items[0], "margin-top"))
	assert.Equal(t, "0px", doc.ComputedStyle(items[1], "margin-top"))

	p, _ := doc.QueryOne("//p")
	assert.Equal(t, "center", doc.ComputedStyle(p, "text-align"))
}

func TestClassesAndAttributesHideSystemEntries(t *testing.T) {
	doc := mustParse(t, `<div class="card wide" data-pc-id="pc-9" title="t"></div>`)
	div, _ := doc.QueryOne("//div")

	assert.Equal(t, []string{"card", "wide"}, doc.Classes(div))
	assert.Equal(t, map[string]string{"class": "card wide", "title": "t"}, doc.Attributes(div))

	require.NoError(t, doc.SetClasses(div, []string{"a", "a", " ", "b"}))
	assert.Equal(t, "a b", doc.Attribute(div, "class"))

	assert.ErrorIs(t, doc.SetAttribute(div, "data-pc-id", "x"), ErrReservedAttribute)
	assert.ErrorIs(t, doc.SetAttribute(div, "on click", "x"), ErrInvalidAttribute)
}

func TestUserClassesWithEditorLikePrefixSurvive(t *testing.T) {
	doc := mustParse(t, `<div class="pc-card hero">x</div>`)
	div, _ := doc.QueryOne("//div")

	assert.Equal(t, []string{"pc-card", "hero"}, doc.Classes(div))
	doc.EnsureID(div)

	out, err := doc.Render(Clean)
	require.NoError(t, err)
	assert.Equal(t, `<div class="pc-card hero">x</div>`, out)

	require.NoError(t, doc.SetClasses(div, []string{"pc-grid"}))
	assert.Equal(t, "pc-grid", doc.Attribute(div, "class"))
}

func TestFragmentKeepsLeadingStyleBlock(t *testing.T) {
	src := `<style>.hero{color:red}</style><div class="hero">Hi</div>`
	doc := mustParse(t, src)
	require.True(t, doc.IsFragment())

	out, err := doc.Render(Clean)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	div, _ := doc.QueryOne("//div")
	assert.Equal(t, "red", doc.ComputedStyle(div, "color"))

	again := mustParse(t, out)
	div, _ = again.QueryOne("//div")
	assert.Equal(t, "red", again.ComputedStyle(div, "color"))
}

func TestEnsureIDAssignsUniqueIDsAcrossReplace(t *testing.T) {
	doc := mustParse(t, `<ul>`+strings.Repeat("<li>x</li>", 200)+`</ul>`)
	items, err := doc.QueryAll("//li")
	require.NoError(t, err)

	seen := make(map[string]bool, len(items))
	for _, li := range items {
		id := doc.EnsureID(li)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	require.NoError(t, doc.Replace(`<p data-pc-id="pc-201">a</p><p data-pc-id="pc-202">b</p><p>c</p>`))
	ps, err := doc.QueryAll("//p")
	require.NoError(t, err)
	fresh := doc.EnsureID(ps[2])
	assert.NotEqual(t, "pc-201", fresh)
	assert.NotEqual(t, "pc-202", fresh)
	assert.Same(t, ps[2], doc.NodeByID(fresh))
}

func TestSetHiddenRestoresPreviousDisplay(t *testing.T) {
	doc := mustParse(t, `<div style="display: flex"></div>`)
	div, _ := doc.QueryOne("//div")

	require.NoError(t, doc.SetHidden(div, true))
	assert.Equal(t, "none", doc.ComputedStyle(div, "display"))

	require.NoError(t, doc.SetHidden(div, false))
	assert.Equal(t, "flex", doc.InlineStyles(div)["display"])
	clean := doc.OuterHTML(div, Clean)
	assert.NotContains(t, clean, prevDisplayAttr)
}

func TestSetInnerHTMLReplacesChildren(t *testing.T) {
	doc := mustParse(t, `<ul><li>old</li></ul>`)
	ul, _ := doc.QueryOne("//ul")

	require.NoError(t, doc.SetInnerHTML(ul, `<li>a</li><li>b</li>`))
	assert.Equal(t, "<li>a</li><li>b</li>", doc.InnerHTML(ul, Clean))
	assert.Equal(t, "ab", doc.TextContent(ul))
}

func TestSetInnerHTMLRejectsUnsafeMarkup(t *testing.T) {
	cases := []string{
		`<li>a</li><script>alert(1)</script>`,
		`<li onclick="steal()">a</li>`,
		`<li><a href="javascript:alert(1)">x</a></li>`,
		`<li><img src="x" onerror="alert(1)"></li>`,
	}
	for _, fragment := range cases {
		doc := mustParse(t, `<ul><li>old</li></ul>`)
		ul, _ := doc.QueryOne("//ul")

		err := doc.SetInnerHTML(ul, fragment)
		assert.ErrorIs(t, err, ErrUnsafeFragment, fragment)
		assert.Equal(t, "<li>old</li>", doc.InnerHTML(ul, Clean), fragment)
	}
}

func TestSetInnerHTMLDropsPastedEditorAttributes(t *testing.T) {
	doc := mustParse(t, `<div><p data-pc-id="pc-1">keep</p><section></section></div>`)
	section, _ := doc.QueryOne("//section")
	kept, _ := doc.QueryOne("//p")

	require.NoError(t, doc.SetInnerHTML(section, `<p data-pc-id="pc-1" class="copy">dup</p><!-- note --><a href="/about" rel="noopener">About</a>`))
	assert.Equal(t, `<p class="copy">dup</p><a href="/about" rel="noopener">About</a>`, doc.InnerHTML(section, Raw))
	assert.Same(t, kept, doc.NodeByID("pc-1"))
}

func TestExportPretty(t *testing.T) {
	doc := mustParse(t, `<div><p>x</p></div>`)
	out, err := doc.Export(true)
	require.NoError(t, err)
	assert.Contains(t, out, "\n")
	assert.Equal(t, "<div><p>x</p></div>", strings.Join(strings.Fields(out), ""))
}

func TestFrameSerializesAccessAndRecoversPanics(t *testing.T) {
	frame := NewFrame(mustParse(t, `<p>x</p>`))
	defer frame.Close()
	ctx := context.Background()

	var text string
	require.NoError(t, frame.Do(ctx, func(d *Document) error {
		n, err := d.QueryOne("//p")
		if err != nil {
			return err
		}
		text = d.TextContent(n)
		return nil
	}))
	assert.Equal(t, "x", text)

	err := frame.Do(ctx, func(*Document) error { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	sentinel := errors.New("inner")
	assert.ErrorIs(t, frame.Do(ctx, func(*Document) error { return sentinel }), sentinel)
}

func TestFrameClosedAndCancelled(t *testing.T) {
	frame := NewFrame(mustParse(t, `<p>x</p>`))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := frame.Do(ctx, func(*Document) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	frame.Close()
	frame.Close()
	assert.ErrorIs(t, frame.Do(context.Background(), func(*Document) error { return nil }), ErrFrameClosed)
}
