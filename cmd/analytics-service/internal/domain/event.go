package domain

// EventType names a lifecycle event emitted by the host chatbot.
type EventType string

const (
	EventMessageReceived  EventType = "message_received"
	EventMemoriesRecalled EventType = "memories_recalled"
	EventFastReplyEmitted EventType = "fast_reply_emitted"
	EventResponseEmitted  EventType = "response_emitted"
	EventDocumentsStored  EventType = "documents_stored"
	EventFeedback         EventType = "feedback_received"
)

// ModelType distinguishes language-model calls from embedder calls.
type ModelType string

const (
	ModelTypeLLM      ModelType = "llm"
	ModelTypeEmbedder ModelType = "embedder"
)

// ModelHint carries the attributes of the live model client, used when the
// settings store cannot name the model.
type ModelHint struct {
	ModelName string `json:"model_name,omitempty"`
	Model     string `json:"model,omitempty"`
	RepoID    string `json:"repo_id,omitempty"`
	Class     string `json:"class,omitempty"`
}

// ModelInteraction is the last model call of an assistant turn.
type ModelInteraction struct {
	ModelType    ModelType  `json:"model_type"`
	InputTokens  int64      `json:"input_tokens"`
	OutputTokens int64      `json:"output_tokens"`
	Client       *ModelHint `json:"client,omitempty"`
}

// MessageReceived is emitted when a user message is accepted.
type MessageReceived struct {
	TurnID     string `json:"turn_id"`
	UserID     string `json:"user_id"`
	Text       string `json:"text"`
	LocaleHint string `json:"locale_hint,omitempty"`
}

// MemoriesRecalled is emitted after retrieval. A nil source marks a malformed entry.
type MemoriesRecalled struct {
	TurnID  string    `json:"turn_id"`
	UserID  string    `json:"user_id"`
	Sources []*string `json:"sources"`
}

// FastReplyEmitted is emitted when a shortcut reply bypasses normal response emission.
type FastReplyEmitted struct {
	TurnID         string `json:"turn_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
	DefaultMessage string `json:"default_message,omitempty"`
}

// ResponseEmitted is emitted when the assistant answers a turn.
type ResponseEmitted struct {
	TurnID      string            `json:"turn_id"`
	UserID      string            `json:"user_id"`
	Text        string            `json:"text,omitempty"`
	Interaction *ModelInteraction `json:"interaction,omitempty"`
}

// DocumentsStored is emitted when documents are embedded into memory.
type DocumentsStored struct {
	Documents []string   `json:"documents"`
	Embedder  *ModelHint `json:"embedder,omitempty"`
}

// Feedback is a validated thumbs up/down from a user.
type Feedback struct {
	UserID    string `json:"user_id"`
	Positive  bool   `json:"positive"`
	Temporary bool   `json:"temporary"`
}
