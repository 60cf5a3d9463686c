package marking

// Quality grades a highlighted sentence or an analysis chain.
type Quality string

const (
	QualityStrong   Quality = "strong"
	QualityAdequate Quality = "adequate"
	QualityWeak     Quality = "weak"
)

// SentenceRole is the function a highlighted sentence plays in the essay.
type SentenceRole string

const (
	RoleAnalysis      SentenceRole = "analysis"
	RoleApplication   SentenceRole = "application"
	RoleKnowledge     SentenceRole = "knowledge"
	RoleEvaluation    SentenceRole = "evaluation"
	RoleSetup         SentenceRole = "setup"
	RoleMisconception SentenceRole = "misconception"
)

type ParagraphFunction string

const (
	FunctionKnowledge   ParagraphFunction = "Knowledge"
	FunctionApplication ParagraphFunction = "Application"
	FunctionAnalysis    ParagraphFunction = "Analysis"
	FunctionEvaluation  ParagraphFunction = "Evaluation"
	FunctionSetup       ParagraphFunction = "Setup"
	FunctionMixed       ParagraphFunction = "Mixed"
)

type ImprovementType string

const (
	ImprovementAnalysis    ImprovementType = "analysis"
	ImprovementApplication ImprovementType = "application"
	ImprovementEvaluation  ImprovementType = "evaluation"
	ImprovementClarity     ImprovementType = "clarity"
)

// MarkingRequest is the input of a single marking call.
type MarkingRequest struct {
	Question    string `json:"question" validate:"notblank"`
	Marks       int    `json:"marks" validate:"required,gt=0"`
	Essay       string `json:"essay" validate:"notblank"`
	ExtractText string `json:"extractText,omitempty"`

	// Guidance is optional examiner-report text retrieved for the question.
	Guidance string `json:"-"`
}

// HasExtract reports whether the student was given an extract to use.
func (r MarkingRequest) HasExtract() bool {
	return trimmed(r.ExtractText) != ""
}

// RewriteRequest asks for a single weak sentence to be improved.
type RewriteRequest struct {
	Sentence string `json:"sentence" validate:"notblank"`
	Question string `json:"question" validate:"notblank"`
	Context  string `json:"context,omitempty"`
	Role     string `json:"role,omitempty"`
	Marks    int    `json:"marks,omitempty" validate:"gte=0"`
}

type AOScore struct {
	Score    float64 `json:"score"`
	Total    float64 `json:"total"`
	Feedback string  `json:"feedback"`
}

type AOBreakdown struct {
	Knowledge   AOScore `json:"knowledge"`
	Application AOScore `json:"application"`
	Analysis    AOScore `json:"analysis"`
	Evaluation  AOScore `json:"evaluation"`
}

type SentenceHighlight struct {
	Text           string       `json:"text"`
	Role           SentenceRole `json:"role"`
	Quality        Quality      `json:"quality"`
	Feedback       string       `json:"feedback"`
	ChainID        *int         `json:"chainId,omitempty"`
	ParagraphIndex *int         `json:"paragraphIndex,omitempty"`
	SentenceIndex  *int         `json:"sentenceIndex,omitempty"`
}

type AnalysisChain struct {
	ID                    int      `json:"id"`
	Chain                 []string `json:"chain"`
	Quality               Quality  `json:"quality"`
	Feedback              string   `json:"feedback"`
	ApplicationIntegrated *bool    `json:"applicationIntegrated,omitempty"`
}

type ParagraphMeta struct {
	Index              int               `json:"index"`
	Function           ParagraphFunction `json:"function"`
	Summary            string            `json:"summary"`
	ChainsFound        []int             `json:"chainsFound"`
	ApplicationUsed    []string          `json:"applicationUsed"`
	MissingApplication []string          `json:"missingApplication"`
}

type StudentUsage struct {
	Used            bool     `json:"used"`
	UsageQuality    Quality  `json:"usageQuality,omitempty"`
	SentenceIDs     []string `json:"sentenceIds,omitempty"`
	PotentialImpact string   `json:"potentialImpact,omitempty"`
}

type ExtractDataPoint struct {
	ID           string       `json:"id"`
	Text         string       `json:"text"`
	Category     string       `json:"category"`
	Relevance    string       `json:"relevance"`
	StudentUsage StudentUsage `json:"studentUsage"`
}

type ExtractReference struct {
	Text           string `json:"text"`
	ParagraphIndex *int   `json:"paragraphIndex,omitempty"`
	SentenceIndex  *int   `json:"sentenceIndex,omitempty"`
}

type ExtractApplication struct {
	Used              []ExtractReference `json:"used"`
	UnusedButRelevant []ExtractReference `json:"unusedButRelevant"`
}

type SentenceRewrite struct {
	OriginalText    string          `json:"originalText"`
	RewrittenText   string          `json:"rewrittenText"`
	ImprovementType ImprovementType `json:"improvementType"`
	Explanation     string          `json:"explanation"`
	ImpactOnMark    string          `json:"impactOnMark"`
}

// Warning is a non-fatal inconsistency found in model output.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarnScoreOutOfRange   = "ao_score_out_of_range"
	WarnHighlightNotFound = "highlight_not_found"
)

// MarkingResult is the normalised marking payload returned to callers and
// persisted as JSON.
type MarkingResult struct {
	OverallMark        float64             `json:"overallMark"`
	TotalMarks         int                 `json:"totalMarks"`
	Percentage         float64             `json:"percentage"`
	Level              string              `json:"level"`
	GradeEstimate      string              `json:"gradeEstimate"`
	AOBreakdown        AOBreakdown         `json:"aoBreakdown"`
	Strengths          []string            `json:"strengths"`
	Improvements       []string            `json:"improvements"`
	OverallFeedback    string              `json:"overallFeedback"`
	NextSteps          string              `json:"nextSteps"`
	SentenceHighlights []SentenceHighlight `json:"sentenceHighlights"`
	AnalysisChains     []AnalysisChain     `json:"analysisChains"`
	Paragraphs         []ParagraphMeta     `json:"paragraphs"`
	ExtractApplication *ExtractApplication `json:"extractApplication,omitempty"`
	ExtractDataPoints  []ExtractDataPoint  `json:"extractDataPoints,omitempty"`
	SentenceRewrites   []SentenceRewrite   `json:"sentenceRewrites"`
	Warnings           []Warning           `json:"warnings,omitempty"`
}
