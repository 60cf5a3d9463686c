package marking

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

const (
	defaultRewriteMarks = 25
	defaultRewriteRole  = "analysis"
)

const rewriteSystemMessage = `You are an expert economics teacher helping students improve their writing. Return only valid JSON.`

// rewriteOutput is the shape the model must produce for a single rewrite.
type rewriteOutput struct {
	RewrittenText   string `json:"rewrittenText" jsonschema:"required,description=The improved sentence(s)"`
	ImprovementType string `json:"improvementType" jsonschema:"required,enum=analysis,enum=application,enum=evaluation,enum=clarity"`
	Explanation     string `json:"explanation" jsonschema:"required,description=Why the rewrite is better in 1-2 sentences"`
	ImpactOnMark    string `json:"impactOnMark" jsonschema:"required,description=Likely effect on the mark such as +1 or +2 or clarity"`
}

// RewriteSchema is the strict JSON schema for rewrite output, usable as a
// structured-output constraint by gateways that support one.
var RewriteSchema = GenerateSchema[rewriteOutput]()

// BuildRewritePrompt composes the instruction for improving one sentence.
func BuildRewritePrompt(req RewriteRequest) Prompt {
	marks := req.Marks
	if marks <= 0 {
		marks = defaultRewriteMarks
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = defaultRewriteRole
	}

	var b strings.Builder
	b.WriteString("You are an expert Edexcel A-Level Economics examiner helping a student improve their essay.\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\n", strings.TrimSpace(req.Question))
	if c := strings.TrimSpace(req.Context); c != "" {
		fmt.Fprintf(&b, "CONTEXT: %s\n", c)
	}
	fmt.Fprintf(&b, "MARKS: %d\n\n", marks)
	fmt.Fprintf(&b, "WEAK SENTENCE TO IMPROVE:\n%q\n\n", strings.TrimSpace(req.Sentence))
	fmt.Fprintf(&b, "SENTENCE ROLE: %s\n\n", role)
	b.WriteString(`Your task: rewrite this sentence so it would score higher marks. The rewrite should:
1. Keep the core economic concept
2. Add more developed reasoning (extra links if it is analysis)
3. Use precise economic terminology
4. Be longer and more detailed where needed (up to 2-3 sentences)
5. Show deeper understanding

Return ONLY a JSON object with this structure:
{
  "rewrittenText": "The improved sentence(s)",
  "improvementType": "analysis|application|evaluation|clarity",
  "explanation": "Brief explanation of why this is better (1-2 sentences)",
  "impactOnMark": "+1|+2|clarity"
}`)

	return Prompt{System: rewriteSystemMessage, User: b.String()}
}

// GenerateSchema reflects T into a JSON schema map that satisfies strict
// structured-output rules: every object closed and every property required.
func GenerateSchema[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	var v T
	schema := reflector.Reflect(v)

	raw, err := schema.MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		panic(err)
	}
	delete(m, "$schema")
	closeObjects(m)
	return m
}

func closeObjects(schema map[string]any) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]any); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			schema["required"] = required
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]any); ok {
				closeObjects(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		closeObjects(items)
	}
}
