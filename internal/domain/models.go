package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// InstrumentKind identifies one of the questionnaires in the catalog.
type InstrumentKind string

const (
	InstrumentDASS21 InstrumentKind = "dass21"
	InstrumentDSM5   InstrumentKind = "dsm5"
	InstrumentWHOQOL InstrumentKind = "whoqol"
)

// Option is a selectable answer and the integer value it records.
type Option struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Question is a single item of an instrument. Tag carries the sub-scale or
// domain the item belongs to; Options overrides the instrument defaults when non-empty.
type Question struct {
	Text    string   `json:"text"`
	Tag     string   `json:"tag,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Responses maps a question index to the selected option value.
type Responses map[int]int

// Clone returns an independent copy of the mapping.
func (r Responses) Clone() Responses {
	out := make(Responses, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ScoreResult is the instrument-specific output of a scoring rule.
type ScoreResult interface {
	Instrument() InstrumentKind
}

// DASS21Score holds the normalized sub-scale scores, each in [0,42].
type DASS21Score struct {
	Depression int `json:"depression"`
	Anxiety    int `json:"anxiety"`
	Stress     int `json:"stress"`
}

func (DASS21Score) Instrument() InstrumentKind { return InstrumentDASS21 }

// DSM5Score is the flat sum of all Level 1 items, in [0,92].
type DSM5Score struct {
	TotalScore int `json:"totalScore"`
}

func (DSM5Score) Instrument() InstrumentKind { return InstrumentDSM5 }

// WHOQOLScore passes the raw answers through; domain aggregation is not computed.
type WHOQOLScore struct {
	RawResponses Responses `json:"rawResponses"`
}

func (WHOQOLScore) Instrument() InstrumentKind { return InstrumentWHOQOL }

// DecodeScores restores the concrete score type stored as JSON for kind.
func DecodeScores(kind InstrumentKind, raw []byte) (ScoreResult, error) {
	switch kind {
	case InstrumentDASS21:
		var s DASS21Score
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case InstrumentDSM5:
		var s DSM5Score
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	case InstrumentWHOQOL:
		var s WHOQOLScore
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownInstrument, kind)
}

// User is the identity supplied by the auth collaborator.
type User struct {
	UID    string `json:"uid"`
	Email  string `json:"email"`
	IsDemo bool   `json:"isDemo"`
}

// Profile is the account document written at sign-up.
type Profile struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	Age          int       `json:"age"`
	Gender       string    `json:"gender"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (p Profile) User() User {
	return User{UID: p.UID, Email: p.Email}
}

// SubmissionReady is emitted by a session once it has been scored.
type SubmissionReady struct {
	UserID     string         `json:"userId"`
	Instrument InstrumentKind `json:"instrument"`
	Scores     ScoreResult    `json:"scores"`
	Responses  Responses      `json:"responses"`
}

// AssessmentRecord is the persisted form of one submission. It is never mutated.
type AssessmentRecord struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Instrument InstrumentKind `json:"instrument"`
	Scores     ScoreResult    `json:"scores"`
	Responses  Responses      `json:"responses"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// UnmarshalJSON decodes scores according to the record's instrument.
func (r *AssessmentRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         string          `json:"id"`
		UserID     string          `json:"userId"`
		Instrument InstrumentKind  `json:"instrument"`
		Scores     json.RawMessage `json:"scores"`
		Responses  Responses       `json:"responses"`
		CreatedAt  time.Time       `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	scores, err := DecodeScores(raw.Instrument, raw.Scores)
	if err != nil {
		return err
	}
	*r = AssessmentRecord{
		ID:         raw.ID,
		UserID:     raw.UserID,
		Instrument: raw.Instrument,
		Scores:     scores,
		Responses:  raw.Responses,
		CreatedAt:  raw.CreatedAt,
	}
	return nil
}

// TrendPoint is one DASS-21 submission as shown on the progress dashboard.
type TrendPoint struct {
	Date       time.Time `json:"date"`
	Depression int       `json:"depression"`
	Anxiety    int       `json:"anxiety"`
	Stress     int       `json:"stress"`
}
