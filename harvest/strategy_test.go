package harvest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_FirstNonEmptyWins(t *testing.T) {
	reviews := Field{Key: "review_count", Chain: []Strategy{
		Label{"span.r"},
		Label{"button.r"},
		Text{"span.r"},
	}}

	tests := []struct {
		name string
		page fakePage
		want string
	}{
		{
			name: "label element",
			page: fakePage{
				"span.r":   {{text: "(120)", attrs: map[string]string{"aria-label": "120 reviews"}}},
				"button.r": {{attrs: map[string]string{"aria-label": "999 reviews"}}},
			},
			want: "120 reviews",
		},
		{
			name: "falls back to control",
			page: fakePage{
				"span.r":   {{text: "(120)", attrs: map[string]string{"aria-label": "  "}}},
				"button.r": {{attrs: map[string]string{"aria-label": "121 reviews"}}},
			},
			want: "121 reviews",
		},
		{
			name: "falls back to text",
			page: fakePage{"span.r": {{text: " (122) "}}},
			want: "(122)",
		},
		{
			name: "nothing matches",
			page: fakePage{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newFakeHandle(map[string]fakePage{"u": tt.page})
			h.current = "u"

			got, err := reviews.Evaluate(context.Background(), h)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestField_UsesFirstMatchOnly(t *testing.T) {
	h := newFakeHandle(map[string]fakePage{"u": {"h1": {{text: "First"}, {text: "Second"}}}})
	h.current = "u"

	got, err := Field{Chain: []Strategy{Text{"h1"}}}.Evaluate(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "First", got)
}

func TestJoined(t *testing.T) {
	h := newFakeHandle(map[string]fakePage{"u": {"li": {{text: "Wi-Fi"}, {text: " "}, {text: "Outdoor seating "}}}})
	h.current = "u"

	got, err := Joined{Selector: "li", Sep: " | "}.Extract(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "Wi-Fi | Outdoor seating", got)
}

func TestAttr(t *testing.T) {
	h := newFakeHandle(map[string]fakePage{"u": {"a.site": {{attrs: map[string]string{"href": "https://cafe.example"}}}}})
	h.current = "u"

	got, err := Attr{Selector: "a.site", Name: "href"}.Extract(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "https://cafe.example", got)
}

func TestField_ErrorAbortsChain(t *testing.T) {
	h := newFakeHandle(map[string]fakePage{"u": {"b": {{text: "fallback"}}}})
	h.current = "u"
	h.queryErr["a"] = errBoom

	_, err := Field{Chain: []Strategy{Text{"a"}, Text{"b"}}}.Evaluate(context.Background(), h)
	assert.ErrorIs(t, err, errBoom)
}

func TestDefaultFields_CoverRecordKeys(t *testing.T) {
	keys := map[string]bool{}
	for _, f := range DefaultFields() {
		assert.NotEmpty(t, f.Chain, f.Key)
		keys[f.Key] = true
	}
	assert.Len(t, keys, 13)
	assert.True(t, keys["review_count"])
	assert.True(t, keys["popular_times"])
}
