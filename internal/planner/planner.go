// File: internal/planner/planner.go
//
// Package planner turns a natural-language query into an ordered TaskPlan.
// The LLM is consulted first; any failure or an empty step list falls back
// to a rule-based plan so a capture run always has something to execute.
package planner

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mzahir/trailcap/api/schemas"
	"github.com/mzahir/trailcap/internal/config"
	"github.com/mzahir/trailcap/internal/llmutil"
)

// Planner produces and refines workflow plans.
type Planner struct {
	client schemas.LLMClient
	cfg    config.PlannerConfig
	logger *zap.Logger
}

// New creates a planner over an LLM client.
func New(client schemas.LLMClient, cfg config.PlannerConfig, logger *zap.Logger) *Planner {
	return &Planner{
		client: client,
		cfg:    cfg,
		logger: logger.Named("planner"),
	}
}

// ParseQuery turns a query into a TaskPlan. appName "any" triggers URL-based
// application detection. A nil pageCtx is allowed. ParseQuery never returns
// an error for LLM failures; it degrades to the fallback plan instead.
func (p *Planner) ParseQuery(ctx context.Context, query, appName, currentURL string, pageCtx *schemas.PageContext) *schemas.TaskPlan {
	if appName == "" || appName == "any" {
		appName = detectApp(currentURL)
	}
	p.logger.Info("Parsing query",
		zap.String("query", query),
		zap.String("app", appName),
	)

	response, err := p.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: parsingSystemPrompt,
		UserPrompt:   buildParsingPrompt(query, appName, currentURL, pageCtx),
		Options: schemas.GenerationOptions{
			Temperature:     p.cfg.Temperature,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		p.logger.Error("Failed to parse query", zap.Error(err))
		return p.fallbackPlan(query, appName)
	}

	plan, err := llmutil.ParseJSONResponse[schemas.TaskPlan](response)
	if err != nil {
		p.logger.Error("Failed to decode plan", zap.Error(err))
		return p.fallbackPlan(query, appName)
	}
	if len(plan.Steps) == 0 {
		p.logger.Warn("No steps generated, using fallback")
		return p.fallbackPlan(query, appName)
	}

	p.logger.Info("Plan parsed",
		zap.String("action", plan.Action),
		zap.String("entity", plan.Entity),
		zap.Int("steps", len(plan.Steps)),
	)
	return plan
}

// RefinedStep is a StepPlan plus the model's confidence in the refinement.
type RefinedStep struct {
	schemas.StepPlan
	Confidence string `json:"confidence"`
}

// RefineStep asks the LLM to rewrite a step against the live page state.
// On any failure the original step is returned unchanged.
func (p *Planner) RefineStep(ctx context.Context, step schemas.StepPlan, pageCtx *schemas.PageContext) schemas.StepPlan {
	p.logger.Info("Refining step", zap.String("description", step.Description))

	response, err := p.client.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: refineSystemPrompt,
		UserPrompt:   buildRefinePrompt(step, pageCtx),
		Options: schemas.GenerationOptions{
			Temperature:     p.cfg.Temperature,
			ForceJSONFormat: true,
		},
	})
	if err != nil {
		p.logger.Error("Refinement failed", zap.Error(err))
		return step
	}

	refined, err := llmutil.ParseJSONResponse[RefinedStep](response)
	if err != nil {
		p.logger.Error("Failed to decode refined step", zap.Error(err))
		return step
	}

	p.logger.Info("Step refined",
		zap.String("description", refined.Description),
		zap.String("confidence", refined.Confidence),
	)
	return refined.StepPlan
}

// detectApp maps known product URLs to application names.
func detectApp(currentURL string) string {
	switch {
	case strings.Contains(currentURL, "notion.so"):
		return "notion"
	case strings.Contains(currentURL, "asana.com"):
		return "asana"
	case strings.Contains(currentURL, "linear.app"):
		return "linear"
	default:
		return "any"
	}
}

// fallbackPlan derives a minimal plan from keyword patterns in the query.
func (p *Planner) fallbackPlan(query, appName string) *schemas.TaskPlan {
	p.logger.Warn("Using fallback plan")

	q := strings.ToLower(query)
	action := "interact"
	entity := "element"

	switch {
	case strings.Contains(q, "create") || strings.Contains(q, "add") || strings.Contains(q, "new"):
		action = "create"
		switch {
		case strings.Contains(q, "task"):
			entity = "task"
		case strings.Contains(q, "project"):
			entity = "project"
		case strings.Contains(q, "page"):
			entity = "page"
		case strings.Contains(q, "database") || strings.Contains(q, "table"):
			entity = "database"
		}
	case strings.Contains(q, "filter"):
		action = "filter"
		entity = "database"
	case strings.Contains(q, "search"):
		action = "search"
	}

	return &schemas.TaskPlan{
		App:    appName,
		Action: action,
		Entity: entity,
		Steps: []schemas.StepPlan{
			{
				ActionType:  schemas.ActionWait,
				Value:       "1.0",
				Description: "preparing to " + action + " " + entity,
			},
		},
	}
}
