package usecase

import (
	"context"
	"fmt"
	"time"

	"NewsTrader/internal/domain/models"
	"NewsTrader/internal/domain/repository"
	applogger "NewsTrader/pkg/logger"
)

// Decision sources, as reported in metrics.
const (
	SourceOracle      = "oracle"
	SourceFallback    = "fallback"
	SourceRateLimited = "rate_limited"
)

// Gate decides whether the oracle may be called right now.
type Gate interface {
	Allow() bool
}

const promptTemplate = `You are an AI trader. Analyze this headline and decide BUY, SELL, or HOLD.

News: "%s"%s

Output JSON only:
{"action": "BUY/SELL/HOLD", "ticker": "SYMBOL", "confidence": 0.0-1.0, "reasoning": "one sentence", "allocation_percent": 0.01-0.10}`

// DecisionPipeline turns a headline into a decision. The oracle is tried when
// the gate allows it; every failure falls back to the keyword classifier.
type DecisionPipeline struct {
	oracle     repository.DecisionOracle
	gate       Gate
	classifier *Classifier
	timeout    time.Duration
	metrics    repository.Metrics
	log        *applogger.Logger
}

// NewDecisionPipeline builds the pipeline. oracle may be nil, in which case
// every decision comes from the classifier.
func NewDecisionPipeline(
	oracle repository.DecisionOracle,
	gate Gate,
	classifier *Classifier,
	timeout time.Duration,
	metrics repository.Metrics,
	log *applogger.Logger,
) *DecisionPipeline {
	return &DecisionPipeline{
		oracle:     oracle,
		gate:       gate,
		classifier: classifier,
		timeout:    timeout,
		metrics:    metrics,
		log:        log,
	}
}

// Analyze always returns a decision.
func (p *DecisionPipeline) Analyze(ctx context.Context, item models.NewsItem) models.Decision {
	if p.oracle == nil {
		return p.fallback(item, SourceFallback)
	}
	if !p.gate.Allow() {
		p.log.Debug("oracle rate limited, using fallback", applogger.String("title", item.Title))
		return p.fallback(item, SourceRateLimited)
	}

	d, err := p.ask(ctx, item)
	if err != nil {
		p.metrics.RecordError("oracle")
		p.log.Warn("oracle failed, using fallback", applogger.Error(err), applogger.String("title", item.Title))
		return p.fallback(item, SourceFallback)
	}
	p.metrics.RecordDecision(SourceOracle, string(d.Action))
	return d
}

func (p *DecisionPipeline) ask(ctx context.Context, item models.NewsItem) (models.Decision, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := p.oracle.Propose(ctx, BuildPrompt(item))
	p.metrics.RecordLatency("oracle", time.Since(start).Seconds())
	if err != nil {
		return models.Decision{}, fmt.Errorf("propose: %w", err)
	}
	d, err := models.ParseDecision(raw)
	if err != nil {
		return models.Decision{}, fmt.Errorf("parse oracle output: %w", err)
	}
	return d, nil
}

func (p *DecisionPipeline) fallback(item models.NewsItem, source string) models.Decision {
	d := p.classifier.Classify(item.Title)
	p.metrics.RecordDecision(source, string(d.Action))
	return d
}

// BuildPrompt renders the oracle prompt for a headline.
func BuildPrompt(item models.NewsItem) string {
	hint := ""
	if item.TickerHint != "" {
		hint = fmt.Sprintf("\nRelated ticker: %s", item.TickerHint)
	}
	return fmt.Sprintf(promptTemplate, item.Title, hint)
}
