package models

// WebhookPayload is the subset of a WhatsApp Cloud API webhook callback the worker
// channel reads.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry groups the changes of one business account.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange carries inbound messages.
type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue holds the messages of a change; delivery statuses are ignored.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is a worker message. Only text and interactive replies carry commands.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type InteractiveContent struct {
	Type        string       `json:"type"`
	ButtonReply *ReplyOption `json:"button_reply,omitempty"`
	ListReply   *ReplyOption `json:"list_reply,omitempty"`
}

// ReplyOption is a pressed button or a selected list row.
type ReplyOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Body returns the command text of the message, or "" when it carries none.
func (m InboundMessage) Body() string {
	if m.Text != nil {
		return m.Text.Body
	}
	if m.Interactive != nil {
		if m.Interactive.ButtonReply != nil {
			return m.Interactive.ButtonReply.ID
		}
		if m.Interactive.ListReply != nil {
			return m.Interactive.ListReply.ID
		}
	}
	return ""
}

// OutboundMessageRequest is a message pushed to a worker. An empty To targets the farm group.
type OutboundMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message" binding:"required"`
}
