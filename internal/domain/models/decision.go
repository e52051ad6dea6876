package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Action is the trade direction proposed for a headline.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// ParseAction normalizes free-form text into an Action.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToUpper(strings.TrimSpace(s))) {
	case ActionBuy:
		return ActionBuy, true
	case ActionSell:
		return ActionSell, true
	case ActionHold:
		return ActionHold, true
	}
	return "", false
}

// Decision is the per-headline trade proposal. Never persisted.
type Decision struct {
	Action            Action  `json:"action" validate:"required,oneof=BUY SELL HOLD"`
	Ticker            string  `json:"ticker" default:"SPY" validate:"required,max=16"`
	Confidence        float64 `json:"confidence" validate:"gte=0,lte=1"`
	AllocationPercent float64 `json:"allocation_percent" default:"0.05" validate:"gt=0,lte=1"`
	Reasoning         string  `json:"reasoning"`
}

// ErrEmptyDecision is returned when the raw oracle text has no JSON payload.
var ErrEmptyDecision = errors.New("empty decision payload")

var decisionValidator = validator.New()

// ParseDecision decodes raw oracle output into a validated Decision.
// Markdown code fences and a leading "json" language tag are stripped first.
func ParseDecision(raw string) (Decision, error) {
	body := stripFences(raw)
	if body == "" {
		return Decision{}, ErrEmptyDecision
	}

	var wire struct {
		Action            string   `json:"action"`
		Ticker            string   `json:"ticker"`
		Confidence        *float64 `json:"confidence"`
		AllocationPercent *float64 `json:"allocation_percent"`
		Reasoning         string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}

	action, ok := ParseAction(wire.Action)
	if !ok {
		return Decision{}, fmt.Errorf("unknown action %q", wire.Action)
	}
	// defaults go in first so only absent fields take them; an explicit
	// allocation_percent of 0 must still fail validation
	var d Decision
	if err := defaults.Set(&d); err != nil {
		return Decision{}, fmt.Errorf("decision defaults: %w", err)
	}
	d.Action = action
	d.Reasoning = strings.TrimSpace(wire.Reasoning)
	if t := strings.ToUpper(strings.TrimSpace(wire.Ticker)); t != "" {
		d.Ticker = t
	}
	if wire.Confidence != nil {
		d.Confidence = *wire.Confidence
	}
	if wire.AllocationPercent != nil {
		d.AllocationPercent = *wire.AllocationPercent
	}

	if err := d.Validate(); err != nil {
		return Decision{}, err
	}
	return d, nil
}

// Validate checks field ranges.
func (d Decision) Validate() error {
	if err := decisionValidator.Struct(d); err != nil {
		return fmt.Errorf("invalid decision: %w", err)
	}
	return nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "```") {
		parts := strings.Split(s, "```")
		if len(parts) >= 2 {
			s = strings.TrimSpace(parts[1])
		}
		s = strings.TrimSpace(strings.TrimPrefix(s, "json"))
	}
	// tolerate chatter around the object
	if i := strings.Index(s, "{"); i > 0 {
		s = s[i:]
	}
	if j := strings.LastIndex(s, "}"); j >= 0 && j < len(s)-1 {
		s = s[:j+1]
	}
	return s
}
