package marking

import (
	"fmt"
	"math"
)

// MarkScheme splits a question's marks between KAA and evaluation.
type MarkScheme struct {
	TotalMarks      int
	KAAMarks        int
	EvaluationMarks int
	StructureHint   string
}

// Preset splits are hand-tuned per allocation and do not follow the fallback
// ratio, e.g. 20 marks is 14/6 rather than 12/8.
var presetSchemes = map[int]MarkScheme{
	25: {KAAMarks: 15, EvaluationMarks: 10, StructureHint: "6 paragraphs: Intro + 2 KAA (5+ link chains each) + 2 Evaluation + Conclusion"},
	20: {KAAMarks: 14, EvaluationMarks: 6, StructureHint: "5 paragraphs: Intro + 2 KAA + 2 Evaluation + Conclusion"},
	15: {KAAMarks: 9, EvaluationMarks: 6, StructureHint: "4 paragraphs: Brief intro + 2 KAA + 2 Evaluation"},
	10: {KAAMarks: 6, EvaluationMarks: 4, StructureHint: "3-4 paragraphs: 2 KAA + 2 short Evaluation"},
	8:  {KAAMarks: 6, EvaluationMarks: 2, StructureHint: "3 paragraphs: 2 KAA + 1 Evaluation"},
	5:  {KAAMarks: 5, EvaluationMarks: 0, StructureHint: "1-2 paragraphs: KAA only, no evaluation needed"},
}

const fallbackStructureHint = "Standard structure"

// ResolveScheme returns the mark scheme for a positive mark allocation.
func ResolveScheme(marks int) MarkScheme {
	if s, ok := presetSchemes[marks]; ok {
		s.TotalMarks = marks
		return s
	}
	// ceil(0.6m) and floor(0.4m) in integer arithmetic, so the two always
	// sum to m.
	return MarkScheme{
		TotalMarks:      marks,
		KAAMarks:        (6*marks + 9) / 10,
		EvaluationMarks: (4 * marks) / 10,
		StructureHint:   fallbackStructureHint,
	}
}

// NeedsEvaluation is false for short questions marked on KAA alone.
func (s MarkScheme) NeedsEvaluation() bool {
	return s.EvaluationMarks > 0
}

// AOSplit divides the KAA marks between knowledge, application and analysis.
// The three parts always sum to KAAMarks.
func (s MarkScheme) AOSplit() (knowledge, application, analysis int) {
	knowledge = int(math.Round(float64(s.KAAMarks) * 0.35))
	application = int(math.Round(float64(s.KAAMarks) * 0.25))
	analysis = s.KAAMarks - knowledge - application
	return knowledge, application, analysis
}

// Band is a level with its inclusive mark range.
type Band struct {
	Level int
	Label string
	Min   int
	Max   int
}

func (b Band) Range() string {
	if b.Min == b.Max {
		return fmt.Sprintf("%d", b.Min)
	}
	return fmt.Sprintf("%d-%d", b.Min, b.Max)
}

var bandLabels = map[int]string{4: "Excellent", 3: "Good", 2: "Basic", 1: "Poor"}

// Bands derives the four level ranges for total marks, highest level first.
// Levels 4, 3 and 2 start at 75%, 50% and 25% of total (rounded); level 1
// covers everything below level 2. Levels that end up empty are dropped.
func Bands(total int) []Band {
	if total <= 0 {
		return nil
	}
	starts := map[int]int{
		4: int(math.Round(float64(total) * 0.75)),
		3: int(math.Round(float64(total) * 0.50)),
		2: int(math.Round(float64(total) * 0.25)),
		1: 0,
	}

	var bands []Band
	upper := total
	for level := 4; level >= 1; level-- {
		lo := starts[level]
		if lo > upper {
			continue
		}
		bands = append(bands, Band{Level: level, Label: bandLabels[level], Min: lo, Max: upper})
		upper = lo - 1
		if upper < 0 {
			break
		}
	}
	return bands
}
