package marking

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
)

const DefaultTimeout = 90 * time.Second

// Marker runs the marking and rewrite pipelines against a Gateway. It holds no
// mutable state and is safe for concurrent use.
type Marker struct {
	gateway        Gateway
	markingOptions CompletionOptions
	rewriteOptions CompletionOptions
	timeout        time.Duration
}

type Option func(*Marker)

func WithMarkingOptions(opts CompletionOptions) Option {
	return func(m *Marker) { m.markingOptions = opts }
}

func WithRewriteOptions(opts CompletionOptions) Option {
	return func(m *Marker) { m.rewriteOptions = opts }
}

// WithTimeout bounds each completion call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(m *Marker) { m.timeout = d }
}

func NewMarker(gateway Gateway, opts ...Option) *Marker {
	m := &Marker{
		gateway:        gateway,
		markingOptions: DefaultMarkingOptions,
		rewriteOptions: DefaultRewriteOptions,
		timeout:        DefaultTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MarkEssay validates req, makes exactly one completion call and returns the
// normalised result. Errors are *ValidationError, *ConfigurationError,
// *GatewayError or *ParseError.
func (m *Marker) MarkEssay(ctx context.Context, req MarkingRequest) (*MarkingResult, error) {
	if err := ValidateMarkingRequest(req); err != nil {
		return nil, err
	}

	prompt := BuildMarkingPrompt(req)
	log.Printf("📝 Marking prompt length: %d characters", len(prompt.User))

	raw, err := m.complete(ctx, prompt, m.markingOptions)
	if err != nil {
		return nil, err
	}

	result, err := ExtractMarkingResult(raw, req)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			log.Printf("❌ Failed to parse marking response: %v\nPreview: %s", perr, perr.Preview)
		}
		return nil, err
	}

	for _, w := range result.Warnings {
		log.Printf("⚠️  Marking warning [%s]: %s", w.Code, w.Message)
	}
	return result, nil
}

// RewriteSentence improves one sentence using the same gateway and
// extraction contract as MarkEssay.
func (m *Marker) RewriteSentence(ctx context.Context, req RewriteRequest) (*SentenceRewrite, error) {
	if err := ValidateRewriteRequest(req); err != nil {
		return nil, err
	}

	raw, err := m.complete(ctx, BuildRewritePrompt(req), m.rewriteOptions)
	if err != nil {
		return nil, err
	}

	rewrite, err := ExtractSentenceRewrite(raw, req)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			log.Printf("❌ Failed to parse rewrite response: %v\nPreview: %s", perr, perr.Preview)
		}
		return nil, err
	}
	return rewrite, nil
}

func (m *Marker) complete(ctx context.Context, prompt Prompt, opts CompletionOptions) (string, error) {
	if m.gateway == nil {
		return "", &ConfigurationError{Setting: "completion gateway", Reason: "is not configured"}
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	raw, err := m.gateway.Complete(ctx, prompt, opts)
	if err != nil {
		return "", asGatewayError(ctx, err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", &GatewayError{Kind: GatewayEmpty, Err: ErrEmptyCompletion}
	}
	return raw, nil
}

// asGatewayError converts whatever the gateway returned into one of the
// boundary error types.
func asGatewayError(ctx context.Context, err error) error {
	var cerr *ConfigurationError
	if errors.As(err, &cerr) {
		return cerr
	}
	var gerr *GatewayError
	if errors.As(err, &gerr) {
		return gerr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &GatewayError{Kind: GatewayTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return &GatewayError{Kind: GatewayCanceled, Err: err}
	case errors.Is(err, ErrEmptyCompletion):
		return &GatewayError{Kind: GatewayEmpty, Err: err}
	case errors.Is(err, ErrNoChoices):
		return &GatewayError{Kind: GatewayNoChoices, Err: err}
	}

	switch ctx.Err() {
	case context.DeadlineExceeded:
		return &GatewayError{Kind: GatewayTimeout, Err: err}
	case context.Canceled:
		return &GatewayError{Kind: GatewayCanceled, Err: err}
	}
	return &GatewayError{Kind: GatewayUpstream, Err: err}
}
