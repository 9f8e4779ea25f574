package domain

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is a single entry in the session-scoped chat log. Messages are
// never persisted; IDs are monotonic within a session and have no meaning
// outside it.
type ChatMessage struct {
	ID     int64
	Text   string
	Sender Sender
}
