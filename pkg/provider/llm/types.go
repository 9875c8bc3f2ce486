package llm

// Role values for Message. The assistant never sends any other role; the
// "system" role appears at most once and always first in an outbound request.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation history. Messages are
// immutable once appended to a transcript. The JSON field names match the
// wire format shared by Ollama and OpenAI-compatible chat endpoints.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`
}

// System returns a system-role message with the given content.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User returns a user-role message with the given content.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant returns an assistant-role message with the given content.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
