// Package dialogue owns per-(channel, chat) conversation state: the ordered
// message history and the set of already-processed message identifiers.
package dialogue

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no dialogue exists for the given key.
var ErrNotFound = errors.New("dialogue not found")

// Role is the author of a message turn.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
)

// Message is one turn in a dialogue. MessageID carries the external identifier
// of inbound user messages; generated assistant messages have none. Messages
// are immutable once appended.
type Message struct {
	Role      Role   `json:"role"`
	Text      string `json:"text"`
	MessageID string `json:"message_id,omitempty"`
}

// Dialogue is the conversation between one channel and one external chat.
// Messages is append-only in arrival order; ProcessedMessageIDs is the
// membership set that makes webhook retries idempotent.
type Dialogue struct {
	ID                  string    `json:"id"`
	ChannelID           string    `json:"chat_bot_id"`
	ChatID              string    `json:"chat_id"`
	Messages            []Message `json:"message_list"`
	ProcessedMessageIDs []string  `json:"processed_message_ids"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Processed reports whether messageID has already been handled.
func (d *Dialogue) Processed(messageID string) bool {
	for _, id := range d.ProcessedMessageIDs {
		if id == messageID {
			return true
		}
	}
	return false
}

// MarkProcessed records messageID in the processed set. Idempotent.
func (d *Dialogue) MarkProcessed(messageID string) {
	if d.Processed(messageID) {
		return
	}
	d.ProcessedMessageIDs = append(d.ProcessedMessageIDs, messageID)
}

// Append adds messages to the history in order.
func (d *Dialogue) Append(msgs ...Message) {
	d.Messages = append(d.Messages, msgs...)
}
