package models

// WebhookPayload is the part of a WhatsApp Cloud API callback the payroll
// bot reads: inbound messages. Delivery receipts and contact metadata are
// ignored and not decoded.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	Messages []InboundMessage `json:"messages"`
}

// InboundMessage is a technician's message. Only text and quick-reply
// messages can carry a command.
type InboundMessage struct {
	ID          string       `json:"id"`
	From        string       `json:"from"`
	Type        string       `json:"type"`
	Text        *TextContent `json:"text,omitempty"`
	Interactive *Interactive `json:"interactive,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

// Interactive holds a tapped button or list row. Its ID is the command text,
// e.g. "/pay".
type Interactive struct {
	ButtonReply *ReplyOption `json:"button_reply,omitempty"`
	ListReply   *ReplyOption `json:"list_reply,omitempty"`
}

type ReplyOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CommandText returns the text a command is parsed from, or "" for messages
// such as images or voice notes.
func (m InboundMessage) CommandText() string {
	switch {
	case m.Text != nil:
		return m.Text.Body
	case m.Interactive != nil && m.Interactive.ButtonReply != nil:
		return m.Interactive.ButtonReply.ID
	case m.Interactive != nil && m.Interactive.ListReply != nil:
		return m.Interactive.ListReply.ID
	}
	return ""
}
