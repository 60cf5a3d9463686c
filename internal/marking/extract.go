package marking

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	openingFencePattern = regexp.MustCompile("^```[a-zA-Z]*")
	closingFencePattern = regexp.MustCompile("```$")
	outerObjectPattern  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSONObject isolates the JSON object in raw model output. Code fences
// and surrounding prose are ignored. Objects are located by brace-depth
// scanning that skips braces inside strings; if no balanced candidate parses,
// the outermost {...} span is tried before giving up.
func ExtractJSONObject(raw string) (string, error) {
	text := trimFences(raw)
	if !strings.Contains(text, "{") {
		return "", newParseError("no JSON object found", raw, nil)
	}

	for offset := 0; offset < len(text); {
		start := strings.IndexByte(text[offset:], '{')
		if start == -1 {
			break
		}
		start += offset
		candidate, ok := scanBalanced(text[start:])
		if ok && gjson.Valid(candidate) {
			return candidate, nil
		}
		offset = start + 1
	}

	if m := outerObjectPattern.FindString(text); m != "" && gjson.Valid(m) {
		return m, nil
	}
	return "", newParseError("malformed JSON object", raw, nil)
}

// trimFences drops a code fence wrapping the whole reply. Fences inside the
// object are part of string values and are left alone; any other fence is
// prose that the brace scan skips.
func trimFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(openingFencePattern.ReplaceAllString(text, ""))
	return strings.TrimSpace(closingFencePattern.ReplaceAllString(text, ""))
}

// scanBalanced returns the prefix of s, which must start with '{', up to and
// including the matching '}'.
func scanBalanced(s string) (string, bool) {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

type shapeKind int

const (
	shapeNumber shapeKind = iota
	shapeString
	shapeObject
	shapeArray
)

func (k shapeKind) String() string {
	return [...]string{"a number", "a string", "an object", "an array"}[k]
}

type shapeRule struct {
	path     string
	kind     shapeKind
	required bool
}

var markingShape = []shapeRule{
	{"overallMark", shapeNumber, true},
	{"aoBreakdown", shapeObject, true},
	{"aoBreakdown.knowledge", shapeObject, true},
	{"aoBreakdown.knowledge.score", shapeNumber, true},
	{"aoBreakdown.knowledge.total", shapeNumber, true},
	{"aoBreakdown.application", shapeObject, true},
	{"aoBreakdown.application.score", shapeNumber, true},
	{"aoBreakdown.application.total", shapeNumber, true},
	{"aoBreakdown.analysis", shapeObject, true},
	{"aoBreakdown.analysis.score", shapeNumber, true},
	{"aoBreakdown.analysis.total", shapeNumber, true},
	{"aoBreakdown.evaluation", shapeObject, true},
	{"aoBreakdown.evaluation.score", shapeNumber, true},
	{"aoBreakdown.evaluation.total", shapeNumber, true},
	{"level", shapeString, false},
	{"gradeEstimate", shapeString, false},
	{"overallFeedback", shapeString, false},
	{"nextSteps", shapeString, false},
	{"strengths", shapeArray, false},
	{"improvements", shapeArray, false},
	{"sentenceHighlights", shapeArray, false},
	{"analysisChains", shapeArray, false},
	{"paragraphs", shapeArray, false},
	{"sentenceRewrites", shapeArray, false},
	{"extractDataPoints", shapeArray, false},
	{"extractApplication", shapeObject, false},
}

var rewriteShape = []shapeRule{
	{"rewrittenText", shapeString, true},
	{"improvementType", shapeString, false},
	{"explanation", shapeString, false},
	{"impactOnMark", shapeString, false},
}

// checkShape verifies required keys and value types. Null counts as absent.
func checkShape(obj string, rules []shapeRule) error {
	for _, rule := range rules {
		r := gjson.Get(obj, rule.path)
		if !r.Exists() || r.Type == gjson.Null {
			if rule.required {
				return fmt.Errorf("missing required field %q", rule.path)
			}
			continue
		}
		var ok bool
		switch rule.kind {
		case shapeNumber:
			ok = r.Type == gjson.Number
		case shapeString:
			ok = r.Type == gjson.String
		case shapeObject:
			ok = r.IsObject()
		case shapeArray:
			ok = r.IsArray()
		}
		if !ok {
			return fmt.Errorf("field %q must be %s", rule.path, rule.kind)
		}
	}
	return nil
}

// ExtractMarkingResult parses raw model output into a normalised result for
// req. The model's totalMarks and percentage are never trusted.
func ExtractMarkingResult(raw string, req MarkingRequest) (*MarkingResult, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	if err := checkShape(obj, markingShape); err != nil {
		return nil, newParseError("payload does not match marking schema", raw, err)
	}

	var result MarkingResult
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil, newParseError("payload does not match marking schema", raw, err)
	}

	normalize(&result, req)
	result.Warnings = inspect(&result, req)
	return &result, nil
}

// Percentage is overall/total as a percentage with one decimal place.
func Percentage(overall float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(overall/float64(total)*1000) / 10
}

func normalize(r *MarkingResult, req MarkingRequest) {
	r.TotalMarks = req.Marks
	r.Percentage = Percentage(r.OverallMark, req.Marks)

	r.Strengths = nonNil(r.Strengths)
	r.Improvements = nonNil(r.Improvements)
	r.SentenceHighlights = nonNil(r.SentenceHighlights)
	r.AnalysisChains = nonNil(r.AnalysisChains)
	r.Paragraphs = nonNil(r.Paragraphs)
	r.SentenceRewrites = nonNil(r.SentenceRewrites)

	for i := range r.AnalysisChains {
		r.AnalysisChains[i].Chain = nonNil(r.AnalysisChains[i].Chain)
	}
	for i := range r.Paragraphs {
		p := &r.Paragraphs[i]
		p.ChainsFound = nonNil(p.ChainsFound)
		p.ApplicationUsed = nonNil(p.ApplicationUsed)
		p.MissingApplication = nonNil(p.MissingApplication)
	}

	if !req.HasExtract() {
		r.ExtractDataPoints = nil
		r.ExtractApplication = nil
		return
	}
	r.ExtractDataPoints = nonNil(r.ExtractDataPoints)
	if r.ExtractApplication == nil {
		r.ExtractApplication = &ExtractApplication{}
	}
	r.ExtractApplication.Used = nonNil(r.ExtractApplication.Used)
	r.ExtractApplication.UnusedButRelevant = nonNil(r.ExtractApplication.UnusedButRelevant)
}

// inspect flags inconsistencies without rejecting the result. Highlights that
// are found in the essay get their paragraph and sentence indices filled in
// when the model left them out.
func inspect(r *MarkingResult, req MarkingRequest) []Warning {
	var warnings []Warning

	if r.OverallMark < 0 || r.OverallMark > float64(r.TotalMarks) {
		warnings = append(warnings, Warning{
			Code:    WarnScoreOutOfRange,
			Message: fmt.Sprintf("overall mark %g outside 0-%d", r.OverallMark, r.TotalMarks),
		})
	}

	aos := []struct {
		name  string
		score AOScore
	}{
		{"knowledge", r.AOBreakdown.Knowledge},
		{"application", r.AOBreakdown.Application},
		{"analysis", r.AOBreakdown.Analysis},
		{"evaluation", r.AOBreakdown.Evaluation},
	}
	for _, ao := range aos {
		if ao.score.Score < 0 || ao.score.Score > ao.score.Total {
			warnings = append(warnings, Warning{
				Code:    WarnScoreOutOfRange,
				Message: fmt.Sprintf("%s score %g outside 0-%g", ao.name, ao.score.Score, ao.score.Total),
			})
		}
	}

	idx := newEssayIndex(req.Essay)
	for i := range r.SentenceHighlights {
		h := &r.SentenceHighlights[i]
		if !idx.Contains(h.Text) {
			warnings = append(warnings, Warning{
				Code:    WarnHighlightNotFound,
				Message: fmt.Sprintf("highlight %d not found in essay: %q", i, preview(h.Text)),
			})
			continue
		}
		if h.ParagraphIndex == nil {
			if p, s, ok := idx.Locate(h.Text); ok {
				h.ParagraphIndex, h.SentenceIndex = &p, &s
			}
		}
	}

	return warnings
}

// ExtractSentenceRewrite parses a single rewrite from raw model output. The
// original text is always taken from the request.
func ExtractSentenceRewrite(raw string, req RewriteRequest) (*SentenceRewrite, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	if err := checkShape(obj, rewriteShape); err != nil {
		return nil, newParseError("payload does not match rewrite schema", raw, err)
	}

	var out rewriteOutput
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return nil, newParseError("payload does not match rewrite schema", raw, err)
	}
	if strings.TrimSpace(out.RewrittenText) == "" {
		return nil, newParseError("rewrittenText is empty", raw, nil)
	}

	return &SentenceRewrite{
		OriginalText:    strings.TrimSpace(req.Sentence),
		RewrittenText:   strings.TrimSpace(out.RewrittenText),
		ImprovementType: normalizeImprovementType(out.ImprovementType),
		Explanation:     strings.TrimSpace(out.Explanation),
		ImpactOnMark:    strings.TrimSpace(out.ImpactOnMark),
	}, nil
}

func normalizeImprovementType(s string) ImprovementType {
	switch t := ImprovementType(strings.ToLower(strings.TrimSpace(s))); t {
	case ImprovementAnalysis, ImprovementApplication, ImprovementEvaluation, ImprovementClarity:
		return t
	}
	return ImprovementClarity
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
