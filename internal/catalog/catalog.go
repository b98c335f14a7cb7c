// Package catalog holds the fixed definitions of the supported instruments
// and their scoring rules. Everything here is immutable after init and safe
// for concurrent reads.
package catalog

import (
	"fmt"
	"strings"

	"psych-assessment-service/internal/domain"
)

// Instrument is a questionnaire definition bound to its scoring rule.
type Instrument struct {
	Kind           domain.InstrumentKind `json:"kind"`
	Title          string                `json:"title"`
	Instruction    string                `json:"instruction"`
	Reference      string                `json:"reference"`
	Questions      []domain.Question     `json:"questions"`
	DefaultOptions []domain.Option       `json:"defaultOptions,omitempty"`

	score func(questions []domain.Question, responses domain.Responses) domain.ScoreResult
}

var instruments = map[domain.InstrumentKind]Instrument{
	domain.InstrumentDASS21: dass21,
	domain.InstrumentDSM5:   dsm5,
	domain.InstrumentWHOQOL: whoqol,
}

// Kinds lists the catalog keys in display order.
func Kinds() []domain.InstrumentKind {
	return []domain.InstrumentKind{domain.InstrumentDASS21, domain.InstrumentDSM5, domain.InstrumentWHOQOL}
}

// Get returns a copy of the instrument registered under kind.
func Get(kind domain.InstrumentKind) (Instrument, error) {
	inst, ok := instruments[kind]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: %q", domain.ErrUnknownInstrument, kind)
	}
	inst.Questions = cloneQuestions(inst.Questions)
	inst.DefaultOptions = cloneOptions(inst.DefaultOptions)
	return inst, nil
}

// ParseKind resolves a user-supplied key such as "DASS21" or "dass21".
func ParseKind(raw string) (domain.InstrumentKind, error) {
	kind := domain.InstrumentKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := instruments[kind]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownInstrument, raw)
	}
	return kind, nil
}

// QuestionCount is the number of items a complete administration answers.
func (i Instrument) QuestionCount() int {
	return len(i.Questions)
}

// OptionsFor resolves the option scale of question index: the question's own
// options when present, the instrument default otherwise.
func (i Instrument) OptionsFor(index int) []domain.Option {
	if index < 0 || index >= len(i.Questions) {
		return nil
	}
	if opts := i.Questions[index].Options; len(opts) > 0 {
		return opts
	}
	return i.DefaultOptions
}

// Allows reports whether value is a valid answer for question index.
func (i Instrument) Allows(index, value int) bool {
	for _, opt := range i.OptionsFor(index) {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Score applies the instrument's scoring rule. It has no side effects and
// always yields the same result for the same responses.
func (i Instrument) Score(responses domain.Responses) domain.ScoreResult {
	return i.score(i.Questions, responses)
}

func cloneQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for idx, q := range in {
		q.Options = cloneOptions(q.Options)
		out[idx] = q
	}
	return out
}

func cloneOptions(in []domain.Option) []domain.Option {
	if in == nil {
		return nil
	}
	out := make([]domain.Option, len(in))
	copy(out, in)
	return out
}
