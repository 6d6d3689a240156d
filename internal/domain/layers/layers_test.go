package layers

import (
	"testing"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/dom"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFrom(t *testing.T, src string, opts Options) (*dom.Document, []editor.LayerNode) {
	t.Helper()
	doc, err := dom.Parse(src)
	require.NoError(t, err)
	div, err := doc.QueryOne("//body/div")
	require.NoError(t, err)
	require.NotNil(t, div)
	return doc, Build(doc, div, opts)
}

func ids(tree []editor.LayerNode) []string {
	var out []string
	for _, n := range Flatten(tree) {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildTwoLeafSpans(t *testing.T) {
	_, tree := buildFrom(t, `<div><span>A</span><span>B</span></div>`, Options{})

	require.Len(t, tree, 2)
	for _, n := range tree {
		assert.Equal(t, 0, n.Depth)
		assert.False(t, n.HasChildren)
		assert.Equal(t, "span", n.TagName)
		assert.True(t, n.IsVisible)
	}
	assert.NotEqual(t, tree[0].ID, tree[1].ID)
}

func TestBuildKeepsDocumentOrder(t *testing.T) {
	doc, tree := buildFrom(t, `<div><span>A</span><span>B</span></div>`, Options{})

	first := doc.NodeByID(tree[0].ID)
	second := doc.NodeByID(tree[1].ID)
	assert.Equal(t, "A", doc.TextContent(first))
	assert.Equal(t, "B", doc.TextContent(second))
}

func TestBuildIDsStableAcrossRebuilds(t *testing.T) {
	doc, first := buildFrom(t, `<div><section><h1>T</h1><p>x</p></section><footer></footer></div>`, Options{})
	div, _ := doc.QueryOne("//body/div")
	second := Build(doc, div, Options{})

	assert.Equal(t, ids(first), ids(second))
	assert.Len(t, ids(first), 4)
}

func TestBuildDisplayNamesVisibilityAndLocks(t *testing.T) {
	src := `<div>
		<section data-layer-name="Hero"></section>
		<nav id="top"></nav>
		<p class="lead intro"></p>
		<script>1</script>
		<aside style="display: none"></aside>
	</div>`
	doc, tree := buildFrom(t, src, Options{})
	require.Len(t, tree, 4)

	assert.Equal(t, "Hero", tree[0].DisplayName)
	assert.Equal(t, "nav#top", tree[1].DisplayName)
	assert.Equal(t, "p.lead", tree[2].DisplayName)
	assert.Equal(t, "aside", tree[3].DisplayName)
	assert.False(t, tree[3].IsVisible)

	div, _ := doc.QueryOne("//body/div")
	locked := Build(doc, div, Options{Locked: map[string]bool{tree[1].ID: true}})
	assert.True(t, locked[1].IsLocked)
	assert.False(t, locked[0].IsLocked)
}

func TestBuildDetachedRootIsEmpty(t *testing.T) {
	doc, _ := buildFrom(t, `<div><span>A</span></div>`, Options{})
	div, _ := doc.QueryOne("//body/div")
	require.NoError(t, doc.Replace(`<p>new</p>`))

	assert.Empty(t, Build(doc, div, Options{}))
	assert.Empty(t, Build(doc, nil, Options{}))
}

func sampleTree() []editor.LayerNode {
	return []editor.LayerNode{
		{ID: "a", TagName: "section", DisplayName: "Hero", HasChildren: true, Children: []editor.LayerNode{
			{ID: "a1", TagName: "h1", DisplayName: "h1", Depth: 1, HasChildren: true, Children: []editor.LayerNode{
				{ID: "a1x", TagName: "span", DisplayName: "Title accent", Depth: 2},
			}},
			{ID: "a2", TagName: "p", DisplayName: "p", Depth: 1},
		}},
		{ID: "b", TagName: "footer", DisplayName: "footer", HasChildren: true, Children: []editor.LayerNode{
			{ID: "b1", TagName: "a", DisplayName: "a.link", Depth: 1},
		}},
	}
}

func TestExpandPathToNodeOnlyTouchesAncestors(t *testing.T) {
	tree := sampleTree()
	out := ExpandPathToNode(tree, "a1x")

	a, _ := Find(out, "a")
	a1, _ := Find(out, "a1")
	a1x, _ := Find(out, "a1x")
	b, _ := Find(out, "b")
	assert.True(t, a.IsExpanded)
	assert.True(t, a1.IsExpanded)
	assert.False(t, a1x.IsExpanded)
	assert.False(t, b.IsExpanded)

	original, _ := Find(tree, "a")
	assert.False(t, original.IsExpanded)
}

func TestToggleAndUpdateReturnNewTrees(t *testing.T) {
	tree := sampleTree()
	toggled := ToggleNodeExpanded(tree, "a2")
	n, _ := Find(toggled, "a2")
	assert.True(t, n.IsExpanded)

	toggled[0].Children[0].DisplayName = "mutated"
	assert.Equal(t, "h1", tree[0].Children[0].DisplayName)

	hidden := false
	updated, ok := UpdateNodeInTree(tree, "b1", Patch{IsVisible: &hidden})
	require.True(t, ok)
	b1, _ := Find(updated, "b1")
	assert.False(t, b1.IsVisible)

	_, ok = UpdateNodeInTree(tree, "missing", Patch{IsVisible: &hidden})
	assert.False(t, ok)
}

func TestFilterKeepsMatchingBranches(t *testing.T) {
	tree := sampleTree()
	out := Filter(tree, "ACCENT")

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
	assert.True(t, out[0].IsExpanded)
	require.Len(t, out[0].Children, 1)
	assert.Equal(t, "a1", out[0].Children[0].ID)
	assert.Equal(t, "a1x", out[0].Children[0].Children[0].ID)

	assert.Len(t, Flatten(tree), 6)
	assert.Len(t, Flatten(Filter(tree, "footer")), 1)
	assert.Len(t, Flatten(Filter(tree, "")), 6)
}

func TestMergeStateCarriesExpansionByID(t *testing.T) {
	previous := ToggleNodeExpanded(sampleTree(), "b")
	rebuilt := []editor.LayerNode{sampleTree()[1], sampleTree()[0]}

	merged := MergeState(previous, rebuilt)
	assert.Equal(t, "b", merged[0].ID)
	assert.True(t, merged[0].IsExpanded)
	assert.False(t, merged[1].IsExpanded)
}
