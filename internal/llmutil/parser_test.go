package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Matched    bool   `json:"matched"`
	AssetIndex int    `json:"asset_index"`
	Reasoning  string `json:"reasoning"`
}

func TestParseJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     verdict
	}{
		{
			name:     "bare object",
			response: `{"matched": true, "asset_index": 1, "reasoning": "path"}`,
			want:     verdict{Matched: true, AssetIndex: 1, Reasoning: "path"},
		},
		{
			name:     "fenced with language tag",
			response: "```json\n{\"matched\": true, \"asset_index\": 0}\n```",
			want:     verdict{Matched: true, AssetIndex: 0},
		},
		{
			name:     "fenced without language tag",
			response: "```\n{\"matched\": false, \"asset_index\": -1}\n```",
			want:     verdict{Matched: false, AssetIndex: -1},
		},
		{
			name:     "conversational wrapper",
			response: "Sure! Here is my answer: {\"matched\": true, \"asset_index\": 2, \"reasoning\": \"{nested} braces\"} Hope it helps.",
			want:     verdict{Matched: true, AssetIndex: 2, Reasoning: "{nested} braces"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSONResponse[verdict](tt.response)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseJSONResponse_Array(t *testing.T) {
	got, err := ParseJSONResponse[[]int]("```json\n[1, 2, 3]\n```")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, *got)
}

func TestParseJSONResponse_Errors(t *testing.T) {
	_, err := ParseJSONResponse[verdict]("I could not decide.")
	assert.ErrorContains(t, err, "no JSON payload")

	_, err = ParseJSONResponse[verdict](`{"matched": tru}`)
	assert.ErrorContains(t, err, "failed to unmarshal")

	_, err = ParseJSONResponse[verdict]("   ")
	assert.Error(t, err)
}

func TestClipAndTruncate(t *testing.T) {
	assert.Equal(t, "abc", Clip("abcdef", 3))
	assert.Equal(t, "abcdef", Clip("abcdef", 10))
	assert.Equal(t, "", Clip("abcdef", 0))
	assert.Equal(t, "héé", Clip("hééllo", 3), "clipping counts runes, not bytes")

	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 3))
}
