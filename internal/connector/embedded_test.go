package connector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanScripts(t *testing.T) {
	html := `<html><head>
<script>var analytics = {};</script>
<script>window.__DATA__ = {"shortcode":"abc"};</script>
</head><body>
<script type="application/json">{"items":[{"shortcode":"def"}]}</script>
</body></html>`

	scripts := scanScripts(html, "shortcode")
	require.Len(t, scripts, 2)
	assert.Contains(t, scripts[0], "abc")
	assert.Contains(t, scripts[1], "def")

	assert.Empty(t, scanScripts(html, "no_such_marker"))
}

func TestExtractJSON(t *testing.T) {
	t.Run("assignment wrapper", func(t *testing.T) {
		got, ok := extractJSON(`window.__INITIAL_STATE__ = {"a":{"b":[1,2]}};`)
		require.True(t, ok)
		obj, ok := got.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, obj, "a")
	})

	t.Run("function call wrapper", func(t *testing.T) {
		got, ok := extractJSON(`requireLazy(["X"],function(){handle({"require":[["M",null,[{"k":"v"}]]]});});`)
		require.True(t, ok)
		obj, ok := got.(map[string]any)
		require.True(t, ok)
		assert.Contains(t, obj, "require")
	})

	t.Run("braces inside strings", func(t *testing.T) {
		got, ok := extractJSON(`var x = {"caption":"look {at} this \" brace"};`)
		require.True(t, ok)
		assert.Equal(t, `look {at} this " brace`, jsonString(got, "caption"))
	})

	t.Run("no json", func(t *testing.T) {
		_, ok := extractJSON(`console.log("hi");`)
		assert.False(t, ok)
	})

	t.Run("unbalanced", func(t *testing.T) {
		_, ok := extractJSON(`var x = {"a": 1`)
		assert.False(t, ok)
	})
}

func TestFindEdgeNodes(t *testing.T) {
	root, ok := extractJSON(`{
		"data": {
			"user": {
				"edge_owner_to_timeline_media": {
					"count": 2,
					"edges": [
						{"node": {"shortcode": "one"}},
						{"node": {"shortcode": "two"}},
						{"broken": true}
					]
				}
			}
		}
	}`)
	require.True(t, ok)

	nodes := findEdgeNodes(root, "edges")
	require.Len(t, nodes, 2)
	assert.Equal(t, "one", jsonString(nodes[0], "shortcode"))
	assert.Equal(t, "two", jsonString(nodes[1], "shortcode"))

	assert.Empty(t, findEdgeNodes(root, "threads"))
}

func TestJSONAccessors(t *testing.T) {
	root, ok := extractJSON(`{"post":{"caption":{"text":"hello"},"taken_at":1710000000,"media":[{"url":"a"}]}}`)
	require.True(t, ok)

	assert.Equal(t, "hello", jsonString(root, "post", "caption", "text"))
	assert.Equal(t, "", jsonString(root, "post", "missing", "text"))

	n, found := jsonNumber(root, "post", "taken_at")
	require.True(t, found)
	assert.Equal(t, float64(1710000000), n)

	assert.NotNil(t, jsonMap(root, "post", "caption"))
	assert.Nil(t, jsonMap(root, "post", "caption", "text"))

	assert.Len(t, jsonSlice(root, "post", "media"), 1)
}

func TestWalkJSONDepthCap(t *testing.T) {
	node := any(map[string]any{"sentinel": true})
	for i := 0; i < 100; i++ {
		node = map[string]any{"nested": node}
	}

	sawSentinel := false
	visited := 0
	walkJSON(node, func(n any) bool {
		visited++
		if m, ok := n.(map[string]any); ok {
			if _, ok := m["sentinel"]; ok {
				sawSentinel = true
			}
		}
		return true
	})

	assert.False(t, sawSentinel, "nodes below the depth cap are never visited")
	assert.Equal(t, maxWalkDepth+1, visited)
}
