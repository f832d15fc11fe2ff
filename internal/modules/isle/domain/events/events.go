// Package events defines the domain events emitted by the ISLE compilation
// module.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the common interface of all compilation domain events.
type Event interface {
	GetEventType() string
	GetEventVersion() string
	GetTimestamp() time.Time
}

// RuleSetCompiled records the outcome of one compilation run over a logical
// rule set.
type RuleSetCompiled struct {
	EventID    string
	InputFiles []string
	Target     string
	DefCount   int
	RuleCount  int
	ErrorCount int
	Duration   time.Duration
	Timestamp  time.Time
}

// NewRuleSetCompiled creates the event with a fresh identifier.
func NewRuleSetCompiled(inputFiles []string, target string, defCount, ruleCount, errorCount int, duration time.Duration) RuleSetCompiled {
	return RuleSetCompiled{
		EventID:    uuid.New().String(),
		InputFiles: inputFiles,
		Target:     target,
		DefCount:   defCount,
		RuleCount:  ruleCount,
		ErrorCount: errorCount,
		Duration:   duration,
		Timestamp:  time.Now(),
	}
}

func (e RuleSetCompiled) GetEventType() string    { return "isle.ruleset.compiled" }
func (e RuleSetCompiled) GetEventVersion() string { return "1.0" }
func (e RuleSetCompiled) GetTimestamp() time.Time { return e.Timestamp }

// Succeeded reports whether the run produced generated code.
func (e RuleSetCompiled) Succeeded() bool {
	return e.ErrorCount == 0
}
