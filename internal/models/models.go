package models

// Document is a single source file loaded from the support corpus.
// It only lives between loading and chunking.
type Document struct {
	Source  string
	Content string
}

// Chunk is a contiguous window of a document's text, the unit of
// embedding and retrieval. (Source, SequenceIndex) identifies a chunk
// uniquely within one ingestion run and is the storage key.
type Chunk struct {
	Source        string
	SequenceIndex int
	Text          string
}

// SearchResult pairs a retrieved chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Roles a conversation turn can carry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message in a session's history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// SourceRef attributes part of an answer to a chunk of the corpus.
type SourceRef struct {
	Source   string `json:"source"`
	Position int    `json:"position"`
}

// Answer is the result of one ask call. PersistWarning is set when the
// answer was generated but writing the session history failed; the
// answer is still valid in that case.
type Answer struct {
	Text           string
	Sources        []SourceRef
	PersistWarning error
}
