package marking

import (
	"fmt"
	"strings"
)

// Prompt is the pair of messages sent to the completion service.
type Prompt struct {
	System string
	User   string
}

const markingSystemMessage = `You are EconMarker, a fair but rigorous Edexcel A-Level Economics examiner. You read paragraphs as units, reward good work, and give constructive feedback. Follow the workflow exactly and return ONLY valid JSON.`

// HighlightRule is sent verbatim to the model, which does the selecting.
const HighlightRule = `Highlight ONLY sentences that contain a chain element, an application example, a missed application opportunity, a misconception, or genuine improvement potential. NEVER highlight pure signposting/setup sentences that are contextually fine once the full paragraph is read.`

// BuildMarkingPrompt composes the marking instruction for a request. It is a
// pure function of its input.
func BuildMarkingPrompt(req MarkingRequest) Prompt {
	scheme := ResolveScheme(req.Marks)
	hasExtract := req.HasExtract()

	var b strings.Builder

	b.WriteString("You are a fair but rigorous examiner marking an Edexcel A-Level Economics essay. Recognise good work while identifying precisely what would earn more marks.\n\n")

	fmt.Fprintf(&b, "QUESTION:\n%s\n\n", strings.TrimSpace(req.Question))

	if hasExtract {
		fmt.Fprintf(&b, "EXTRACT/DATA:\n%s\n\n", strings.TrimSpace(req.ExtractText))
	}

	if g := strings.TrimSpace(req.Guidance); g != "" {
		fmt.Fprintf(&b, "EXAMINER GUIDANCE (reference material, not part of the essay):\n%s\n\n", g)
	}

	writeMarkScheme(&b, scheme)
	writeWorkflow(&b, scheme, hasExtract)
	writeBands(&b, scheme)

	fmt.Fprintf(&b, "STUDENT ESSAY:\n%s\n\n", strings.TrimSpace(req.Essay))

	b.WriteString("Return ONLY this JSON (no markdown, no code blocks). Replace every example value with your own marking:\n\n")
	b.WriteString(markingTemplate(scheme, hasExtract))
	b.WriteString("\n\nIMPORTANT:\n")
	b.WriteString("- Highlight 10-15 key sentences, copying each \"text\" EXACTLY from the essay\n")
	b.WriteString("- Identify 2-4 analysis chains if present and reference them by id\n")
	b.WriteString("- Each AO score must not exceed its total\n")
	b.WriteString("- Most essays are Level 2-3; that is normal\n")

	return Prompt{System: markingSystemMessage, User: b.String()}
}

func writeMarkScheme(b *strings.Builder, s MarkScheme) {
	k, ap, an := s.AOSplit()
	b.WriteString("MARK SCHEME:\n")
	fmt.Fprintf(b, "- Total: %d marks\n", s.TotalMarks)
	fmt.Fprintf(b, "- KAA (Knowledge, Application, Analysis): %d marks (knowledge %d, application %d, analysis %d)\n", s.KAAMarks, k, ap, an)
	if s.NeedsEvaluation() {
		fmt.Fprintf(b, "- Evaluation: %d marks\n", s.EvaluationMarks)
	} else {
		b.WriteString("- Evaluation: 0 marks. No evaluation is needed for this question; award 0 evaluation marks and do not penalise its absence.\n")
	}
	fmt.Fprintf(b, "- Expected structure: %s\n\n", s.StructureHint)
}

func writeWorkflow(b *strings.Builder, s MarkScheme, hasExtract bool) {
	steps := []string{
		"Read the ENTIRE essay before judging any sentence.",
		"Split the essay into paragraphs (blank lines separate paragraphs; index from 0).",
		"Classify each paragraph's main function: Knowledge / Application / Analysis / Evaluation / Setup / Mixed. Summarise it in one sentence and note the application it uses and the application it misses.",
		"Extract reasoning chains. A chain is a series of causally linked steps with at least 3 links (e.g. \"Interest rates fall -> borrowing is cheaper -> investment rises -> AD rises -> real GDP rises\"). 5+ links = strong, 3-4 = adequate, 1-2 = weak. Record whether application is integrated into the chain.",
		scoringStep(s),
		"Select 10-15 sentences to highlight. " + HighlightRule,
	}
	if hasExtract {
		steps = append(steps, "Track the extract: list each relevant data point from the extract in \"extractDataPoints\" with whether and how well the student used it, and fill \"extractApplication\" with used and unused-but-relevant references.")
	}
	steps = append(steps,
		"For up to 3 weak sentences, write an improved version in \"sentenceRewrites\" stating the improvement type and its likely impact on the mark.",
		"Write strengths, improvements, overallFeedback and nextSteps. Start positive, be specific, end with encouragement.",
	)
	if !s.NeedsEvaluation() {
		steps = append(steps, "This question carries no evaluation marks: set evaluation score and total to 0.")
	}

	b.WriteString("=== WORKFLOW (follow in order) ===\n")
	for i, step := range steps {
		fmt.Fprintf(b, "%d) %s\n", i+1, step)
	}
	b.WriteString("\n")
}

func scoringStep(s MarkScheme) string {
	if s.NeedsEvaluation() {
		return "Score Knowledge, Application and Analysis against the KAA level bands below, and Evaluation against the evaluation bands. Place the essay in a level FIRST, then choose a mark within it."
	}
	return "Score Knowledge, Application and Analysis against the KAA level bands below. Evaluation carries 0 marks. Place the essay in a level FIRST, then choose a mark within it."
}

var bandDescriptors = map[int]string{
	4: "detailed, accurate knowledge; specific application; sustained analysis with 5+ link chains; supported, justified judgements",
	3: "good, mostly accurate knowledge; adequate application; clear analysis with 3-4 link chains; some evaluation lacking full depth",
	2: "limited knowledge with gaps; mostly generic application; 1-2 link chains; minimal evaluation",
	1: "fragmented knowledge; no real application; no chains of reasoning; no evaluation",
}

// kaaBandDescriptors are used when the question carries no evaluation marks.
var kaaBandDescriptors = map[int]string{
	4: "detailed, accurate knowledge; specific application; sustained analysis with 5+ link chains",
	3: "good, mostly accurate knowledge; adequate application; clear analysis with 3-4 link chains",
	2: "limited knowledge with gaps; mostly generic application; 1-2 link chains",
	1: "fragmented knowledge; no real application; no chains of reasoning",
}

func writeBands(b *strings.Builder, s MarkScheme) {
	descriptors := bandDescriptors
	if !s.NeedsEvaluation() {
		descriptors = kaaBandDescriptors
	}
	b.WriteString("LEVEL BOUNDARIES (overall mark):\n")
	for _, band := range Bands(s.TotalMarks) {
		fmt.Fprintf(b, "Level %d (%s): %s marks - %s\n", band.Level, band.Label, band.Range(), descriptors[band.Level])
	}
	b.WriteString("\nKAA BANDS:\n")
	for _, band := range Bands(s.KAAMarks) {
		fmt.Fprintf(b, "Level %d: %s marks\n", band.Level, band.Range())
	}
	if s.NeedsEvaluation() {
		b.WriteString("\nEVALUATION BANDS:\n")
		for _, band := range Bands(s.EvaluationMarks) {
			fmt.Fprintf(b, "Level %d: %s marks\n", band.Level, band.Range())
		}
	}
	b.WriteString("\n")
}

func markingTemplate(s MarkScheme, hasExtract bool) string {
	k, ap, an := s.AOSplit()

	extract := ""
	if hasExtract {
		extract = `
  "extractApplication": {
    "used": [{"text": "Extract detail the student used", "paragraphIndex": 1, "sentenceIndex": 0}],
    "unusedButRelevant": [{"text": "Extract detail the student could have used"}]
  },
  "extractDataPoints": [
    {
      "id": "D1",
      "text": "Data point quoted from the extract",
      "category": "statistic|context|stakeholder|policy|other",
      "relevance": "high|medium|low",
      "studentUsage": {"used": true, "usageQuality": "strong|adequate|weak", "sentenceIds": ["P1S0"], "potentialImpact": "How using it better would lift the mark"}
    }
  ],`
	}

	return fmt.Sprintf(`{
  "overallMark": 0,
  "totalMarks": %d,
  "percentage": 0.0,
  "level": "Level 1-4",
  "gradeEstimate": "Grade A*-U",
  "aoBreakdown": {
    "knowledge": {"score": 0, "total": %d, "feedback": "Specific feedback on knowledge"},
    "application": {"score": 0, "total": %d, "feedback": "Specific feedback on application"},
    "analysis": {"score": 0, "total": %d, "feedback": "Specific feedback on analysis chains"},
    "evaluation": {"score": 0, "total": %d, "feedback": "Specific feedback on evaluation"}
  },
  "strengths": ["Specific strength with example"],
  "improvements": ["Specific improvement with HOW to fix it"],
  "overallFeedback": "Balanced 2-3 paragraph summary",
  "nextSteps": "(1) specific step (2) another step (3) third step",
  "paragraphs": [
    {"index": 0, "function": "Knowledge|Application|Analysis|Evaluation|Setup|Mixed", "summary": "One-sentence summary", "chainsFound": [1], "applicationUsed": ["Example used"], "missingApplication": ["Example that was missed"]}
  ],
  "analysisChains": [
    {"id": 1, "chain": ["Step 1", "Step 2", "Step 3"], "quality": "strong|adequate|weak", "feedback": "Why this chain is strong or weak", "applicationIntegrated": true}
  ],
  "sentenceHighlights": [
    {"text": "EXACT sentence from the essay", "role": "analysis|application|knowledge|evaluation|setup|misconception", "quality": "strong|adequate|weak", "feedback": "Specific feedback", "chainId": 1, "paragraphIndex": 0, "sentenceIndex": 0}
  ],%s
  "sentenceRewrites": [
    {"originalText": "Weak sentence from the essay", "rewrittenText": "Improved sentence", "improvementType": "analysis|application|evaluation|clarity", "explanation": "Why it is better", "impactOnMark": "+1|+2|clarity"}
  ]
}`, s.TotalMarks, k, ap, an, s.EvaluationMarks, extract)
}
