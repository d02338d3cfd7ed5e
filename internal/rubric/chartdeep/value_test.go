package chartdeep

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChart(t *testing.T) {
	t.Run("members keep document order", func(t *testing.T) {
		root := parseChart(`{"zeta": 1, "alpha": 2, "mid": 3}`)

		require.Equal(t, kindObject, root.kind)
		require.Len(t, root.members, 3)
		assert.Equal(t, "zeta", root.members[0].key)
		assert.Equal(t, "alpha", root.members[1].key)
		assert.Equal(t, "mid", root.members[2].key)
	})

	t.Run("duplicate keys replace the value in place", func(t *testing.T) {
		root := parseChart(`{"a": 1, "b": 2, "a": 3}`)

		require.Len(t, root.members, 2)
		assert.Equal(t, "a", root.members[0].key)
		a, ok := root.get("a")
		require.True(t, ok)
		assert.InDelta(t, 3.0, a.num, 0)
	})

	t.Run("non-object input collapses to an empty object", func(t *testing.T) {
		for _, content := range []string{`[1, 2, 3]`, `"bare string"`, `not json at all`, ``} {
			root := parseChart(content)

			assert.Equal(t, kindObject, root.kind, content)
			assert.Empty(t, root.members, content)
		}
	})

	t.Run("number literals remember their form", func(t *testing.T) {
		root := parseChart(`{"whole": 2, "fraction": 2.0, "exponent": 2e1, "negative": -3}`)

		whole, _ := root.get("whole")
		assert.True(t, whole.isInt)
		assert.InDelta(t, 2.0, whole.num, 0)

		fraction, _ := root.get("fraction")
		assert.False(t, fraction.isInt)

		exponent, _ := root.get("exponent")
		assert.False(t, exponent.isInt)
		assert.InDelta(t, 20.0, exponent.num, 0)

		negative, _ := root.get("negative")
		assert.True(t, negative.isInt)
	})

	t.Run("kinds decode recursively", func(t *testing.T) {
		root := parseChart(`{"s": "x", "b": true, "n": null, "arr": [1, {"inner": false}]}`)

		s, _ := root.get("s")
		assert.Equal(t, kindString, s.kind)
		b, _ := root.get("b")
		assert.Equal(t, kindBool, b.kind)
		n, _ := root.get("n")
		assert.Equal(t, kindNull, n.kind)
		arr, _ := root.get("arr")
		require.Equal(t, kindArray, arr.kind)
		require.Len(t, arr.items, 2)
		assert.Equal(t, kindObject, arr.items[1].kind)
	})
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name    string
		content string
		key     string
		want    bool
	}{
		{name: "true bool", content: `{"v": true}`, key: "v", want: true},
		{name: "false bool", content: `{"v": false}`, key: "v", want: false},
		{name: "null", content: `{"v": null}`, key: "v", want: false},
		{name: "zero number", content: `{"v": 0}`, key: "v", want: false},
		{name: "nonzero number", content: `{"v": 0.5}`, key: "v", want: true},
		{name: "empty string", content: `{"v": ""}`, key: "v", want: false},
		{name: "nonempty string", content: `{"v": "x"}`, key: "v", want: true},
		{name: "empty array", content: `{"v": []}`, key: "v", want: false},
		{name: "populated object", content: `{"v": {"a": 1}}`, key: "v", want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := parseChart(tc.content).get(tc.key)

			require.True(t, ok)
			assert.Equal(t, tc.want, v.truthy())
		})
	}
}

func TestDeepFind(t *testing.T) {
	t.Run("matches arrive in document order, depth first", func(t *testing.T) {
		root := parseChart(`{
			"layout": {"width": 640},
			"annotations": [{"width": 5}],
			"width": 900
		}`)

		matches := deepFind(root, "width")

		require.Len(t, matches, 3)
		assert.Equal(t, "layout.width", matches[0].path)
		assert.Equal(t, "annotations[0].width", matches[1].path)
		assert.Equal(t, "width", matches[2].path)
	})

	t.Run("a matching parent is reported before its subtree", func(t *testing.T) {
		root := parseChart(`{"legend": {"legend": false}}`)

		matches := deepFind(root, "legend")

		require.Len(t, matches, 2)
		assert.Equal(t, "legend", matches[0].path)
		assert.Equal(t, kindObject, matches[0].val.kind)
		assert.Equal(t, "legend.legend", matches[1].path)
		assert.Equal(t, kindBool, matches[1].val.kind)
	})

	t.Run("key match is case-insensitive both ways", func(t *testing.T) {
		root := parseChart(`{"ChartType": "Bar", "encoding": {"CHART_TYPE": "line"}}`)

		assert.Len(t, deepFind(root, "chartType"), 1)
		assert.Len(t, deepFind(root, "chart_type"), 1)
		assert.Len(t, deepFind(root, "charttype", "chart_type"), 2)
	})

	t.Run("multiple keys walk once in document order", func(t *testing.T) {
		root := parseChart(`{"gridColor": "#eeeeee", "axis": {"grid_color": "#dddddd"}}`)

		matches := deepFind(root, "grid_color", "gridColor")

		require.Len(t, matches, 2)
		assert.Equal(t, "gridColor", matches[0].path)
		assert.Equal(t, "axis.grid_color", matches[1].path)
	})
}
