package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_Placeholders(t *testing.T) {
	out, err := Render("Hello {{ name }}, your share is {{share}}%. {{missing}}!", map[string]any{
		"name": "Ada", "share": "25.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, your share is 25.00%. !", out)
}

func TestRender_IfElse(t *testing.T) {
	tpl := "{% if stage_name %}aka {{stage_name}}{% else %}no alias{% endif %}"
	cases := []struct {
		name string
		vars map[string]any
		want string
	}{
		{"string set", map[string]any{"stage_name": "Lane"}, "aka Lane"},
		{"empty string", map[string]any{"stage_name": ""}, "no alias"},
		{"nil", map[string]any{"stage_name": nil}, "no alias"},
		{"missing", map[string]any{}, "no alias"},
		{"zero", map[string]any{"stage_name": 0}, "no alias"},
		{"false", map[string]any{"stage_name": false}, "no alias"},
		{"empty list", map[string]any{"stage_name": []string{}}, "no alias"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Render(tpl, tc.vars)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestRender_Comparisons(t *testing.T) {
	tpl := `{% if role == "producer" %}P{% endif %}{% if role != 'writer' %}!W{% endif %}{% if not signed %}U{% endif %}`
	out, err := Render(tpl, map[string]any{"role": "producer", "signed": false})
	require.NoError(t, err)
	assert.Equal(t, "P!WU", out)
}

func TestRender_LoopsNested(t *testing.T) {
	tpl := "{% for p in publishers %}{{loop_index}}. {{p.name}}{% if p.share %} ({{p.share}}%){% endif %} for {{song}}\n{% endfor %}"
	out, err := Render(tpl, map[string]any{
		"song": "Night Drive",
		"publishers": []map[string]any{
			{"name": "North", "share": "30.00"},
			{"name": "South", "share": ""},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "1. North (30.00%) for Night Drive\n2. South for Night Drive\n", out)
}

func TestRender_Errors(t *testing.T) {
	for _, tpl := range []string{
		"{% if x %}never closed",
		"{% for x items %}{% endfor %}",
		"{% endif %}",
		"{% unknown %}",
		"Hello {%  %} world",
	} {
		_, err := Render(tpl, nil)
		assert.Error(t, err, tpl)
	}
}

func TestEscapeVars(t *testing.T) {
	vars := map[string]any{
		"name":  "<i>Ada</i> & Co",
		"count": 2,
		"items": []map[string]any{{"name": `"quoted"`}},
	}
	out := EscapeVars(vars)
	assert.Equal(t, "&lt;i&gt;Ada&lt;/i&gt; &amp; Co", out["name"])
	assert.Equal(t, 2, out["count"])
	assert.Equal(t, "&#34;quoted&#34;", out["items"].([]map[string]any)[0]["name"])
	assert.Equal(t, "<i>Ada</i> & Co", vars["name"])

	html, err := RenderHTML("Hi {{name}}", out)
	require.NoError(t, err)
	assert.NotContains(t, html, "<i>")
}

func TestMarkdownToHTML(t *testing.T) {
	out, err := MarkdownToHTML("# Split Sheet\n\n**Bold** and *italic*\n\n| Name | Share |\n|---|---|\n| Ada | 50.00% |\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Split Sheet</h1>")
	assert.Contains(t, out, "<strong>Bold</strong>")
	assert.Contains(t, out, "<em>italic</em>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<td>Ada</td>")
}
