// internal/garden/extract/extract_test.go
package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Extraction
// ==========================

func TestExtract_WellFormedIsIdentity(t *testing.T) {
	values := []any{
		map[string]any{"name": "Tomato", "days": float64(80), "tags": []any{"warm", "sun"}},
		[]any{map[string]any{"a": nil}, float64(1.5), "x", true},
		map[string]any{"nested": map[string]any{"deep": []any{[]any{}, map[string]any{}}}},
		[]any{},
	}

	for _, v := range values {
		b, err := json.Marshal(v)
		require.NoError(t, err)

		got, err := Extract(string(b))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestExtract_FenceInsideStringValue(t *testing.T) {
	v := map[string]any{"code": "wrap it in ```json fences```", "tail": "```"}
	b, err := json.Marshal(v)
	require.NoError(t, err)

	got, err := Extract(string(b))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	got, err = Extract("Sure! Here is the JSON:\n```json\n" + string(b) + "\n```\nHope this helps.")
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason Reason
	}{
		{"empty", "", ReasonEmpty},
		{"whitespace", "   \n\t ", ReasonEmpty},
		{"prose", "not json at all", ReasonNoStructure},
		{"unbalanced", "{unbalanced", ReasonNoStructure},
		{"mismatched", `{"a": [1, 2}`, ReasonNoStructure},
		{"garbage in braces", "{this is : not : json}", ReasonUnparseable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				v, err := Extract(tt.input)
				require.Error(t, err)
				assert.Nil(t, v)
				assert.True(t, IsFailure(err))

				var f *Failure
				require.ErrorAs(t, err, &f)
				assert.Equal(t, tt.reason, f.Reason)
			})
		})
	}
}

func TestExtract_BraceInsideString(t *testing.T) {
	v, err := Extract(`{"a": "value with } brace inside"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "value with } brace inside"}, v)
}

func TestExtract_ChatterAndFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{
			name:  "lead-in",
			input: `Here is the JSON: {"name": "Basil"}`,
			want:  map[string]any{"name": "Basil"},
		},
		{
			name:  "sure plus lead-in",
			input: "Sure! Here's the plant data:\n{\"name\": \"Basil\"}",
			want:  map[string]any{"name": "Basil"},
		},
		{
			name:  "sign-off",
			input: "{\"name\": \"Basil\"}\nI hope this helps! Let me know if you need more.",
			want:  map[string]any{"name": "Basil"},
		},
		{
			name:  "fenced",
			input: "```json\n[{\"name\": \"Basil\"}]\n```",
			want:  []any{map[string]any{"name": "Basil"}},
		},
		{
			name:  "sign-off words inside value are kept",
			input: `{"tip": "feel free to mulch"}`,
			want:  map[string]any{"tip": "feel free to mulch"},
		},
		{
			name:  "bracketed prose before the object",
			input: `Here is [your] answer {"ok": true}`,
			want:  map[string]any{"ok": true},
		},
		{
			name:  "first of several blobs",
			input: `first {"a": 1} then {"b": 2}`,
			want:  map[string]any{"a": float64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Repair
// ==========================

func TestExtract_Repair(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{
			name:  "trailing comma",
			input: `{"a": 1, "b": 2,}`,
			want:  map[string]any{"a": float64(1), "b": float64(2)},
		},
		{
			name:  "trailing comma in array",
			input: `{"a": [1, 2, ], }`,
			want:  map[string]any{"a": []any{float64(1), float64(2)}},
		},
		{
			name:  "line and block comments",
			input: "{\n  \"a\": 1, // first\n  /* second */ \"b\": \"x // not a comment\"\n}",
			want:  map[string]any{"a": float64(1), "b": "x // not a comment"},
		},
		{
			name:  "single quotes",
			input: `{'name': 'Bob\'s "pepper"', 'days': 70}`,
			want:  map[string]any{"name": `Bob's "pepper"`, "days": float64(70)},
		},
		{
			name:  "unquoted keys",
			input: `{name: "Kale", spacing_inches: 18, companion-plants: ["Dill"]}`,
			want: map[string]any{
				"name":             "Kale",
				"spacing_inches":   float64(18),
				"companion-plants": []any{"Dill"},
			},
		},
		{
			name:  "unquoted key pattern leaves strings alone",
			input: `{"note": "water, then: wait", count: 2}`,
			want:  map[string]any{"note": "water, then: wait", "count": float64(2)},
		},
		{
			name:  "python literals",
			input: `{"a": True, "b": [False, None]}`,
			want:  map[string]any{"a": true, "b": []any{false, nil}},
		},
		{
			name:  "raw newline inside string",
			input: "{\"a\": \"line one\nline two\"}",
			want:  map[string]any{"a": "line one\nline two"},
		},
		{
			name:  "control characters outside strings",
			input: "{\"a\":\x00 1\x07}",
			want:  map[string]any{"a": float64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExtractDetailed(tt.input)
			require.NoError(t, err)
			assert.True(t, res.Repaired)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestExtract_WellFormedIsNotRepaired(t *testing.T) {
	res, err := ExtractDetailed(`{"a": 1}`)
	require.NoError(t, err)
	assert.False(t, res.Repaired)
	assert.Equal(t, `{"a": 1}`, res.Region)
}

func TestExtractInto(t *testing.T) {
	var dst struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	err := ExtractInto("Here is the JSON: {'name': 'Chard', 'tags': ['leafy',],}", &dst)
	require.NoError(t, err)
	assert.Equal(t, "Chard", dst.Name)
	assert.Equal(t, []string{"leafy"}, dst.Tags)

	err = ExtractInto(`{"name": 5}`, &dst)
	assert.True(t, IsFailure(err))
}

// ==========================
// Scanner
// ==========================

func TestRegions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"nested", `x {"a": {"b": [1, {"c": 2}]}} y`, []string{`{"a": {"b": [1, {"c": 2}]}}`}},
		{"escaped quote", `{"a": "say \"}\" twice"}`, []string{`{"a": "say \"}\" twice"}`}},
		{"two regions", `[1] and {"b": 2}`, []string{`[1]`, `{"b": 2}`}},
		{"unbalanced then balanced", `{"a": [1, 2 {"b": 3}`, []string{`{"b": 3}`}},
		{"apostrophe in comment", "{\"a\": 1 // it's fine\n}", []string{"{\"a\": 1 // it's fine\n}"}},
		{"none", `no brackets here`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Regions(tt.input))
		})
	}
}

func TestStripChatter(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, StripChatter("Certainly! Here is the result:\n```json\n{\"a\": 1}\n```\nHope this helps."))
	assert.Equal(t, "", StripChatter("```"))
	assert.Equal(t, `{"a": 1}`, StripChatter("```json{\"a\": 1}```"))
	assert.Equal(t, "{\"a\": \"x ``` y\"}", StripChatter("```\n{\"a\": \"x ``` y\"}\n```"))
}
