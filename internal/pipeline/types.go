package pipeline

import (
	"encoding/json"
	"time"
)

// Query is one user question submitted to the pipeline. Immutable once created.
type Query struct {
	// ID identifies the request; assigned by the caller (e.g. a UUID).
	ID string `json:"id"`
	// Text is the raw user question.
	Text string `json:"text"`
	// History is an optional snippet of prior conversation turns, oldest first.
	History []Turn `json:"history,omitempty"`
}

// Turn is a single prior conversation exchange.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// QueryVariant is one search-oriented phrasing of a Query.
// Variant 0 is always the original query text, verbatim.
type QueryVariant struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Original reports whether this variant is the unmodified user query.
func (v QueryVariant) Original() bool { return v.Index == 0 }

// SearchMethod records how a candidate was retrieved.
type SearchMethod string

const (
	MethodVector  SearchMethod = "vector"
	MethodKeyword SearchMethod = "keyword"
	MethodBoth    SearchMethod = "both"
)

// Candidate is one retrieved passage with provenance. Candidates are value
// objects: never mutated after creation, only replaced by merged copies.
type Candidate struct {
	DocumentID      string       `json:"document_id"`
	DocumentName    string       `json:"document_name"`
	DocumentVersion string       `json:"document_version"`
	Section         string       `json:"section"`
	Page            int          `json:"page,omitempty"` // 0 = unknown
	Content         string       `json:"content"`
	VectorScore     float64      `json:"vector_score,omitempty"`  // 0..1, meaningful when Method includes vector
	KeywordScore    float64      `json:"keyword_score,omitempty"` // 0..1, meaningful when Method includes keyword
	Method          SearchMethod `json:"method"`
	VariantIndex    int          `json:"variant_index"`
}

// DedupedCandidate is a Candidate with duplicates merged across variants and
// methods. Scores hold the best value seen per method.
type DedupedCandidate struct {
	Candidate
	// VariantIndexes is the sorted set of variant indices that produced this
	// candidate. The first entry is the lowest-indexed variant.
	VariantIndexes []int `json:"variant_indexes"`
}

// RankedCandidate is a DedupedCandidate with its fused relevance score and
// 0-based rank position.
type RankedCandidate struct {
	DedupedCandidate
	FinalScore float64 `json:"final_score"`
	Rank       int     `json:"rank"`
}

// CompressedSegment is a budgeted slice of a ranked candidate's content,
// carrying the 1-based citation index used in the generation prompt.
type CompressedSegment struct {
	CitationIndex int             `json:"citation_index"`
	Text          string          `json:"text"`
	Source        RankedCandidate `json:"source"`
}

// Citation is the externally visible projection of a CompressedSegment.
type Citation struct {
	Index           int          `json:"index"`
	DocumentName    string       `json:"document_name"`
	DocumentVersion string       `json:"document_version"`
	Section         string       `json:"section"`
	Page            int          `json:"page,omitempty"`
	Excerpt         string       `json:"excerpt"`
	Relevance       float64      `json:"relevance"`
	Method          SearchMethod `json:"method"`
}

// SourcesUsed summarizes the documents cited by an Answer.
type SourcesUsed struct {
	DocumentCount int      `json:"document_count"`
	Versions      []string `json:"versions"`
	HasOutdated   bool     `json:"has_outdated"`
}

// Answer is the terminal output of a successful query.
type Answer struct {
	Text            string      `json:"text"`
	Citations       []Citation  `json:"citations"`
	Confidence      int         `json:"confidence"` // 0..100
	VersionWarnings []string    `json:"version_warnings"`
	Sources         SourcesUsed `json:"sources_used"`
}

// Stage tags a pipeline step. Stages advance strictly forward, ending in
// exactly one of StageDone or StageError.
type Stage string

const (
	StageStart    Stage = "START"
	StageRewrite  Stage = "REWRITE"
	StageRetrieve Stage = "RETRIEVE"
	StageDedup    Stage = "DEDUP"
	StageRerank   Stage = "RERANK"
	StageCompress Stage = "COMPRESS"
	StageGenerate Stage = "GENERATE"
	StageDone     Stage = "DONE"
	StageError    Stage = "ERROR"
)

// stageOrder maps each stage to its position in the state machine.
var stageOrder = map[Stage]int{
	StageStart:    0,
	StageRewrite:  1,
	StageRetrieve: 2,
	StageDedup:    3,
	StageRerank:   4,
	StageCompress: 5,
	StageGenerate: 6,
	StageDone:     7,
	StageError:    7,
}

// Order returns the stage's position in the state machine. Terminal stages
// share the highest position.
func (s Stage) Order() int { return stageOrder[s] }

// Level is the severity of a LogEvent.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// LogEvent is one entry in a query's pipeline trace. The ordered sequence of
// LogEvents for a query is append-only.
type LogEvent struct {
	Time    time.Time      `json:"time"`
	Level   Level          `json:"level"`
	Stage   Stage          `json:"stage"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// EventType discriminates the client-visible event stream.
type EventType string

const (
	EventLog    EventType = "log"
	EventAnswer EventType = "answer"
	EventError  EventType = "error"
)

// ErrorData is the payload of a terminal error event. It carries only a
// user-safe message, never internal detail.
type ErrorData struct {
	Message string `json:"message"`
}

// Event is one element of the pipeline-to-caller stream: zero or more log
// events followed by exactly one answer or error terminal.
type Event struct {
	Type   EventType  `json:"type"`
	Log    *LogEvent  `json:"-"`
	Answer *Answer    `json:"-"`
	Err    *ErrorData `json:"-"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool { return e.Type != EventLog }

// MarshalJSON renders the event as {"type": ..., "data": ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	var data any
	switch e.Type {
	case EventLog:
		data = e.Log
	case EventAnswer:
		data = e.Answer
	case EventError:
		data = e.Err
	}
	return json.Marshal(struct {
		Type EventType `json:"type"`
		Data any       `json:"data"`
	}{Type: e.Type, Data: data})
}
