package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHeadersTracksHeadingPath(t *testing.T) {
	text := "# Intro\nhello\n## Auth\ntoken info\n### Keys\nrotate\n# Other\nx"

	sections := SplitHeaders(text, 3)
	require.Len(t, sections, 4)

	assert.Equal(t, "# Intro\nhello", sections[0].Text)
	assert.Equal(t, map[string]string{"Header 1": "Intro"}, sections[0].Metadata)

	assert.Equal(t, "## Auth\ntoken info", sections[1].Text)
	assert.Equal(t, map[string]string{"Header 1": "Intro", "Header 2": "Auth"}, sections[1].Metadata)

	assert.Equal(t, map[string]string{"Header 1": "Intro", "Header 2": "Auth", "Header 3": "Keys"}, sections[2].Metadata)

	assert.Equal(t, "# Other\nx", sections[3].Text)
	assert.Equal(t, map[string]string{"Header 1": "Other"}, sections[3].Metadata)
}

func TestSplitHeadersIgnoresCodeFencesAndDeepHeadings(t *testing.T) {
	text := "# API\n```bash\n# not a heading\n```\n#### deep\nstill api"

	sections := SplitHeaders(text, 3)
	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Text, "# not a heading")
	assert.Contains(t, sections[0].Text, "#### deep")
}

func TestSplitHeadersPreamble(t *testing.T) {
	sections := SplitHeaders("before any heading\n\n# Title\nbody", 3)
	require.Len(t, sections, 2)
	assert.Empty(t, sections[0].Metadata)
	assert.Equal(t, "before any heading", sections[0].Text)
}

func TestSplitRecursiveOverlap(t *testing.T) {
	assert.Equal(t, []string{"a b", "b c", "c d", "d e"}, SplitRecursive("a b c d e", 3, 1, nil))
}

func TestSplitRecursivePrefersParagraphs(t *testing.T) {
	text := "first paragraph\n\nsecond paragraph"
	assert.Equal(t, []string{"first paragraph", "second paragraph"}, SplitRecursive(text, 20, 0, nil))
}

func TestSplitRecursiveFallsBackToCharacters(t *testing.T) {
	chunks := SplitRecursive("abcdefghij", 4, 1, nil)
	require.NotEmpty(t, chunks)
	assert.Equal(t, "abcd", chunks[0])
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 4)
	}
}

func TestSplitterRespectsChunkSize(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("# CrustData API\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("The company endpoint returns headcount, funding and web traffic. ")
		if i%7 == 0 {
			sb.WriteString("\n\n## Section\n")
		}
		if i%13 == 0 {
			sb.WriteString(strings.Repeat("x", 150))
			sb.WriteString("\n")
		}
	}

	for _, plan := range []Plan{
		{ChunkSize: 50, ChunkOverlap: 10},
		{ChunkSize: 100, ChunkOverlap: 0},
		{ChunkSize: 300, ChunkOverlap: 299},
		{ChunkSize: 1000, ChunkOverlap: 200},
	} {
		splitter, err := NewSplitter(plan)
		require.NoError(t, err)

		chunks := splitter.Split(sb.String())
		require.NotEmpty(t, chunks)
		for i, c := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), plan.ChunkSize, "chunk %d for plan %+v", i, plan)
			assert.NotEmpty(t, strings.TrimSpace(c.Text))
			assert.Equal(t, i, c.Index)
			assert.Equal(t, "CrustData API", c.Metadata["Header 1"])
		}
	}
}

func TestSplitterMultibyteText(t *testing.T) {
	splitter, err := NewSplitter(Plan{ChunkSize: 5, ChunkOverlap: 2})
	require.NoError(t, err)

	for _, c := range splitter.Split("日本語のテキストを分割します") {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 5)
	}
}

func TestSplitterCopiesMetadataPerChunk(t *testing.T) {
	splitter, err := NewSplitter(Plan{ChunkSize: 10, ChunkOverlap: 0})
	require.NoError(t, err)

	chunks := splitter.Split("# Head\none two three four five six")
	require.Greater(t, len(chunks), 1)
	chunks[0].Metadata["Header 1"] = "changed"
	assert.Equal(t, "Head", chunks[1].Metadata["Header 1"])
}

func TestPlanValidation(t *testing.T) {
	_, err := NewSplitter(Plan{ChunkSize: 0})
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = NewSplitter(Plan{ChunkSize: 10, ChunkOverlap: 10})
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = NewSplitter(Plan{ChunkSize: 10, ChunkOverlap: -1})
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = NewSplitter(Plan{ChunkSize: 10, HeaderLevels: 7})
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestSplitterEmptyInput(t *testing.T) {
	splitter, err := NewSplitter(Plan{ChunkSize: 10})
	require.NoError(t, err)
	assert.Empty(t, splitter.Split(""))
	assert.Empty(t, splitter.Split("   \n\n  "))
}
