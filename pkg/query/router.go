package query

import (
	"context"
	"strings"

	"github.com/opsgraph/backend/pkg/common"
	"github.com/opsgraph/backend/pkg/logger"
)

// defaultVectorTriggers are the question substrings that route to the
// similarity strategy when no explicit trigger list is configured.
var defaultVectorTriggers = []string{"similar", "passage"}

// Router dispatches a question to one retrieval strategy. Questions
// mentioning similarity go to the vector strategy when one is configured;
// everything else goes to the graph query strategy.
type Router struct {
	graph    Strategy
	vector   Strategy
	triggers []string
}

// NewRouterParams defines the configuration parameters for creating a
// new Router.
//
// Graph is the fallback strategy and must be set. Vector is optional;
// without it every question routes to Graph. VectorTriggers overrides the
// default trigger substrings, matched case-insensitively.
type NewRouterParams struct {
	Graph          Strategy
	Vector         Strategy
	VectorTriggers []string
}

// NewRouter creates a new Router configured with the provided parameters.
func NewRouter(params NewRouterParams) (*Router, error) {
	if params.Graph == nil {
		return nil, common.ConfigurationErrorf("router requires a graph query strategy")
	}
	triggers := params.VectorTriggers
	if len(triggers) == 0 {
		triggers = defaultVectorTriggers
	}
	normalized := make([]string, 0, len(triggers))
	for _, trigger := range triggers {
		trigger = strings.ToLower(strings.TrimSpace(trigger))
		if trigger == "" {
			continue
		}
		normalized = append(normalized, trigger)
	}

	return &Router{
		graph:    params.Graph,
		vector:   params.Vector,
		triggers: normalized,
	}, nil
}

// Route returns the strategy that will handle the question.
func (r *Router) Route(question string) Strategy {
	if r.vector == nil {
		return r.graph
	}
	lowered := strings.ToLower(question)
	for _, trigger := range r.triggers {
		if strings.Contains(lowered, trigger) {
			return r.vector
		}
	}
	return r.graph
}

// Ask routes the question to a strategy and returns its answer. Blank
// questions are rejected before any strategy runs. A strategy failure is
// captured in the answer's Error field, not returned as an error.
func (r *Router) Ask(ctx context.Context, question string) (Answer, error) {
	if strings.TrimSpace(question) == "" {
		return Answer{}, common.ValidationErrorf("question is empty")
	}

	strategy := r.Route(question)
	logger.Debug("[Query] Routing question", "strategy", strategy.Name())

	answer, err := strategy.Answer(ctx, question)
	if err != nil {
		logger.Error("[Query] Strategy failed", "strategy", strategy.Name(), "err", err)
		return Answer{Strategy: strategy.Name(), Error: err.Error()}, nil
	}
	answer.Strategy = strategy.Name()
	return answer, nil
}
