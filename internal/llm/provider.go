package llm

import "context"

// Request contains one completion request to the text oracle
type Request struct {
	System string
	Prompt string
}

// Response contains the oracle's raw output. Downstream stages treat
// Text as untrusted input, never as ground truth.
type Response struct {
	Text       string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for text-generation backends
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Complete generates text from a prompt
	Complete(ctx context.Context, req Request, model string) (*Response, error)
}
