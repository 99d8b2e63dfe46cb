package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBinaryScore(t *testing.T) {
	cases := []struct {
		reply string
		want  bool
	}{
		{`{"binary_score": "yes"}`, true},
		{`{"binary_score":"no"}`, false},
		{`{"binary_score": "Yes"}`, true},
		{"```json\n{\"binary_score\": \"NO\"}\n```", false},
		{`Sure! Here is the grade: {"binary_score": "yes"} Hope that helps.`, true},
	}
	for _, tc := range cases {
		got, err := ParseBinaryScore(tc.reply)
		require.NoError(t, err, tc.reply)
		assert.Equal(t, tc.want, got, tc.reply)
	}
}

func TestParseBinaryScoreRejectsInvalid(t *testing.T) {
	for _, reply := range []string{
		"yes",
		`{"score": "yes"}`,
		`{"binary_score": "maybe"}`,
		`{"binary_score": true}`,
		`{"binary_score": "yes"`,
		``,
	} {
		_, err := ParseBinaryScore(reply)
		assert.ErrorIs(t, err, ErrInvalidGrade, reply)
	}
}
