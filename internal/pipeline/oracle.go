package pipeline

import (
	"context"
	"fmt"

	"github.com/medconnect/agent/internal/llm"
)

// Oracle is the pipeline's view of the text-generation service. Its
// output is untrusted input to every downstream stage.
type Oracle interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// RouterOracle binds an llm.Router to a fixed provider and model
type RouterOracle struct {
	router   *llm.Router
	provider string
	model    string
}

// NewRouterOracle creates an oracle backed by the given router
func NewRouterOracle(router *llm.Router, provider, model string) *RouterOracle {
	return &RouterOracle{router: router, provider: provider, model: model}
}

func (o *RouterOracle) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p, err := o.router.GetProvider(o.provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	model := o.model
	if model == "" {
		model = p.DefaultModel()
	}
	return p.Complete(ctx, req, model)
}
