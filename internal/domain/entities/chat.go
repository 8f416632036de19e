package entities

// Chat roles of the math fairy transcript.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of a conversation with the math fairy.
type ChatMessage struct {
	Role string
	Text string
}
