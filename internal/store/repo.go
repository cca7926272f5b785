package store

import "time"

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match (empty = all)
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Failed  bool      // only unsuccessful calls
}

// ModelCallEventData captures the data for a single chat completion attempt.
type ModelCallEventData struct {
	Provider         string
	Model            string
	Purpose          string
	PromptTokens     int
	CompletionTokens int
	LatencyMs        int64
	Success          bool
	FinishReason     string
	ErrorMessage     string
	ErrorKind        string // config, provider, transport, empty, invalid
	RequestBody      string
	ResponseBody     string
}

// ModelCallEvent is a persisted chat completion attempt.
type ModelCallEvent struct {
	ID        int
	Timestamp time.Time
	ModelCallEventData
}

// PurposeUsage aggregates token usage for one purpose label.
type PurposeUsage struct {
	Purpose          string
	Calls            int
	Failed           int
	PromptTokens     int
	CompletionTokens int
	AvgLatencyMs     int64
}

// FailureCount counts unsuccessful calls for one purpose and error kind.
type FailureCount struct {
	Purpose   string
	ErrorKind string
	Calls     int
	LastError string
}

// ModelUsage aggregates token usage for one model.
type ModelUsage struct {
	Model            string
	Calls            int
	PromptTokens     int
	CompletionTokens int
}
