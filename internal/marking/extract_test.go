package marking

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEssay = `Interest rates are the cost of borrowing money.

When the Bank of England raises interest rates, borrowing becomes more expensive. Firms cut investment because projects are less profitable. This reduces aggregate demand and slows inflation.

However, the impact depends on time lags. Mortgage holders on fixed deals are not affected immediately.`

func minimalPayload(overall float64, echoedTotal int) string {
	return fmt.Sprintf(`{
  "overallMark": %g,
  "totalMarks": %d,
  "percentage": 99.9,
  "level": "Level 3",
  "gradeEstimate": "Grade B",
  "aoBreakdown": {
    "knowledge": {"score": 4, "total": 5, "feedback": "k"},
    "application": {"score": 3, "total": 4, "feedback": "ap"},
    "analysis": {"score": 5, "total": 6, "feedback": "an"},
    "evaluation": {"score": 6, "total": 10, "feedback": "ev"}
  }
}`, overall, echoedTotal)
}

func TestExtractJSONObject_NestedWithNoise(t *testing.T) {
	got, err := ExtractJSONObject(`noise {"a":{"b":1}} trailing`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{"b":1}}`, got)
}

func TestExtractJSONObject_BracesInsideStrings(t *testing.T) {
	got, err := ExtractJSONObject(`Here you go: {"feedback":"use a {diagram}","x":"}"} thanks`)
	require.NoError(t, err)
	assert.Equal(t, `{"feedback":"use a {diagram}","x":"}"}`, got)
}

func TestExtractJSONObject_SkipsBracesInProse(t *testing.T) {
	got, err := ExtractJSONObject(`I marked {the essay} below. {"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, got)
}

func TestExtractJSONObject_CodeFences(t *testing.T) {
	got, err := ExtractJSONObject("```json\n{\"overallMark\":10}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"overallMark":10}`, got)
}

func TestExtractJSONObject_FencesInsideStringsKept(t *testing.T) {
	payload := `{"overallFeedback":"Use a diagram, e.g. ` + "```python" + ` is not economics."}`
	got, err := ExtractJSONObject("```json\n" + payload + "\n```")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	got, err = ExtractJSONObject("Here you go:\n```json\n" + payload + "\n```\nThanks")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestExtractJSONObject_NoBrace(t *testing.T) {
	_, err := ExtractJSONObject("I am unable to mark this essay.")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "no JSON object found", perr.Reason)
	assert.Equal(t, "I am unable to mark this essay.", perr.Preview)
}

func TestExtractJSONObject_Unbalanced(t *testing.T) {
	_, err := ExtractJSONObject(`{"overallMark": 10, "aoBreakdown": {`)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "malformed JSON object", perr.Reason)
}

func TestParseError_PreviewIsBounded(t *testing.T) {
	raw := "{" + strings.Repeat("x", 5000)
	_, err := ExtractMarkingResult(raw, MarkingRequest{Question: "Q", Marks: 10, Essay: "E"})

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.LessOrEqual(t, len([]rune(perr.Preview)), maxPreviewRunes+3)
	assert.Less(t, len(perr.Error()), 1000)
}

func TestExtractMarkingResult_OverwritesTotalMarks(t *testing.T) {
	for _, echoed := range []int{0, 5, 25, 100} {
		raw := "Sure! Here is the marking:\n```json\n" + minimalPayload(12, echoed) + "\n```\nLet me know."
		res, err := ExtractMarkingResult(raw, MarkingRequest{Question: "Q", Marks: 20, Essay: sampleEssay})
		require.NoError(t, err)
		assert.Equal(t, 20, res.TotalMarks)
		assert.Equal(t, 60.0, res.Percentage)
	}
}

func TestExtractMarkingResult_PercentageRoundTrip(t *testing.T) {
	for _, total := range []int{5, 8, 10, 13, 15, 20, 25, 37} {
		for overall := 0; overall <= total; overall++ {
			res, err := ExtractMarkingResult(minimalPayload(float64(overall), 0), MarkingRequest{Question: "Q", Marks: total, Essay: "E"})
			require.NoError(t, err)
			want := math.Round(float64(overall)/float64(total)*1000) / 10
			assert.Equal(t, want, res.Percentage, "%d/%d", overall, total)
		}
	}
}

func TestExtractMarkingResult_NeverNullCollections(t *testing.T) {
	res, err := ExtractMarkingResult(minimalPayload(10, 25), MarkingRequest{Question: "Q", Marks: 25, Essay: "E"})
	require.NoError(t, err)

	out, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	for _, key := range []string{"sentenceHighlights", "analysisChains", "paragraphs", "strengths", "improvements", "sentenceRewrites"} {
		v, ok := decoded[key]
		require.True(t, ok, key)
		assert.NotNil(t, v, key)
		assert.IsType(t, []any{}, v, key)
	}
	assert.NotContains(t, decoded, "extractDataPoints")
	assert.NotContains(t, decoded, "extractApplication")
}

func TestExtractMarkingResult_NullCollectionsBackfilled(t *testing.T) {
	raw := strings.Replace(minimalPayload(10, 25), `"level"`, `"strengths": null, "paragraphs": [{"index": 0, "function": "Setup", "summary": "s"}], "analysisChains": [{"id": 1, "quality": "weak", "feedback": "f"}], "level"`, 1)
	res, err := ExtractMarkingResult(raw, MarkingRequest{Question: "Q", Marks: 25, Essay: "E"})
	require.NoError(t, err)

	assert.NotNil(t, res.Strengths)
	require.Len(t, res.Paragraphs, 1)
	assert.NotNil(t, res.Paragraphs[0].ChainsFound)
	assert.NotNil(t, res.Paragraphs[0].ApplicationUsed)
	assert.NotNil(t, res.Paragraphs[0].MissingApplication)
	require.Len(t, res.AnalysisChains, 1)
	assert.NotNil(t, res.AnalysisChains[0].Chain)
}

func TestExtractMarkingResult_ExtractFieldsOnlyWithExtract(t *testing.T) {
	raw := strings.Replace(minimalPayload(10, 25), `"level"`, `"extractDataPoints": [{"id": "D1", "text": "5.25%", "category": "statistic", "relevance": "high", "studentUsage": {"used": false}}], "level"`, 1)

	with, err := ExtractMarkingResult(raw, MarkingRequest{Question: "Q", Marks: 25, Essay: "E", ExtractText: "Bank Rate 5.25%"})
	require.NoError(t, err)
	require.Len(t, with.ExtractDataPoints, 1)
	assert.Equal(t, "statistic", with.ExtractDataPoints[0].Category)
	require.NotNil(t, with.ExtractApplication)
	assert.NotNil(t, with.ExtractApplication.Used)
	assert.NotNil(t, with.ExtractApplication.UnusedButRelevant)

	without, err := ExtractMarkingResult(raw, MarkingRequest{Question: "Q", Marks: 25, Essay: "E"})
	require.NoError(t, err)
	assert.Nil(t, without.ExtractDataPoints)
	assert.Nil(t, without.ExtractApplication)
}

func TestExtractMarkingResult_ShapeValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"missing overallMark", `{"aoBreakdown": {}}`, `"overallMark"`},
		{"string overallMark", `{"overallMark": "18", "aoBreakdown": {}}`, `"overallMark" must be a number`},
		{"missing evaluation", strings.Replace(minimalPayload(1, 1), `"evaluation"`, `"other"`, 1), `"aoBreakdown.evaluation"`},
		{"highlights not array", strings.Replace(minimalPayload(1, 1), `"level"`, `"sentenceHighlights": {"text": "x"}, "level"`, 1), `"sentenceHighlights" must be an array`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractMarkingResult(tt.raw, MarkingRequest{Question: "Q", Marks: 10, Essay: "E"})

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Contains(t, perr.Error(), tt.want)
		})
	}
}

func TestExtractMarkingResult_SoftWarnings(t *testing.T) {
	raw := `{
  "overallMark": 30,
  "aoBreakdown": {
    "knowledge": {"score": 7, "total": 5, "feedback": "k"},
    "application": {"score": 3, "total": 4, "feedback": "ap"},
    "analysis": {"score": 5, "total": 6, "feedback": "an"},
    "evaluation": {"score": 6, "total": 10, "feedback": "ev"}
  },
  "sentenceHighlights": [
    {"text": "Firms cut investment because projects are less profitable.", "role": "analysis", "quality": "strong", "feedback": "good link"},
    {"text": "Interest  rates are the cost of borrowing money.", "role": "knowledge", "quality": "adequate", "feedback": "definition"},
    {"text": "Higher rates always cause a recession.", "role": "misconception", "quality": "weak", "feedback": "not in essay"}
  ]
}`
	res, err := ExtractMarkingResult(raw, MarkingRequest{Question: "Q", Marks: 25, Essay: sampleEssay})
	require.NoError(t, err)

	codes := map[string]int{}
	for _, w := range res.Warnings {
		codes[w.Code]++
	}
	assert.Equal(t, 2, codes[WarnScoreOutOfRange])
	assert.Equal(t, 1, codes[WarnHighlightNotFound])

	assert.Equal(t, 7.0, res.AOBreakdown.Knowledge.Score, "scores are kept as-is")
	require.Len(t, res.SentenceHighlights, 3)

	h := res.SentenceHighlights[0]
	require.NotNil(t, h.ParagraphIndex)
	require.NotNil(t, h.SentenceIndex)
	assert.Equal(t, 1, *h.ParagraphIndex)
	assert.Equal(t, 1, *h.SentenceIndex)

	h = res.SentenceHighlights[1]
	require.NotNil(t, h.ParagraphIndex)
	assert.Equal(t, 0, *h.ParagraphIndex)

	assert.Nil(t, res.SentenceHighlights[2].ParagraphIndex)
}

func TestExtractSentenceRewrite(t *testing.T) {
	raw := "```json\n" + `{"originalText": "something else", "rewrittenText": " Higher rates raise the cost of borrowing, so firms delay investment. ", "improvementType": "Analysis", "explanation": "Adds a link.", "impactOnMark": "+1"}` + "\n```"

	rw, err := ExtractSentenceRewrite(raw, RewriteRequest{Sentence: "Rates go up so investment falls.", Question: "Q"})
	require.NoError(t, err)
	assert.Equal(t, "Rates go up so investment falls.", rw.OriginalText)
	assert.Equal(t, "Higher rates raise the cost of borrowing, so firms delay investment.", rw.RewrittenText)
	assert.Equal(t, ImprovementAnalysis, rw.ImprovementType)
	assert.Equal(t, "+1", rw.ImpactOnMark)
}

func TestExtractSentenceRewrite_UnknownTypeAndEmpty(t *testing.T) {
	rw, err := ExtractSentenceRewrite(`{"rewrittenText": "Better.", "improvementType": "style"}`, RewriteRequest{Sentence: "s", Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, ImprovementClarity, rw.ImprovementType)

	_, err = ExtractSentenceRewrite(`{"rewrittenText": "  "}`, RewriteRequest{Sentence: "s", Question: "q"})
	var perr *ParseError
	require.True(t, errors.As(err, &perr))

	_, err = ExtractSentenceRewrite(`{"explanation": "x"}`, RewriteRequest{Sentence: "s", Question: "q"})
	require.True(t, errors.As(err, &perr))
}
