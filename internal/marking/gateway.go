package marking

import "context"

// CompletionOptions fixes the decoding parameters of one completion call.
type CompletionOptions struct {
	Temperature     float64
	MaxOutputTokens int
	// JSONMode asks the service for a JSON object response when supported.
	JSONMode bool
	// SchemaName and Schema request strict structured output when set.
	SchemaName string
	Schema     map[string]any
}

// Gateway performs a single completion call and returns the raw text.
// Implementations must not retry.
type Gateway interface {
	Complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error)
}

// GatewayFunc adapts a function to Gateway.
type GatewayFunc func(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error)

func (f GatewayFunc) Complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	return f(ctx, prompt, opts)
}

// DefaultMarkingOptions favour consistency: the marking schema is large and
// brittle.
var DefaultMarkingOptions = CompletionOptions{
	Temperature:     0.15,
	MaxOutputTokens: 6000,
	JSONMode:        true,
}

var DefaultRewriteOptions = CompletionOptions{
	Temperature:     0.3,
	MaxOutputTokens: 500,
	JSONMode:        true,
	SchemaName:      "sentence_rewrite",
	Schema:          RewriteSchema,
}
