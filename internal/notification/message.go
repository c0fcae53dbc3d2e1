package notification

import "context"

type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
)

// Action is an inline button. Data comes back verbatim as a callback.
type Action struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// Attachment is either a file the transport already knows (FileID) or bytes to
// upload (Body).
type Attachment struct {
	Kind        AttachmentKind `json:"kind"`
	Filename    string         `json:"filename,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Body        []byte         `json:"-"`
	FileID      string         `json:"file_id,omitempty"`
}

// Message is one outbound chat message. Text is the caption when an
// attachment is present.
type Message struct {
	ChatID     int64       `json:"chat_id"`
	Text       string      `json:"text"`
	Actions    []Action    `json:"actions,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Sender delivers a single message over the chat transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SenderFunc func(ctx context.Context, msg Message) error

func (f SenderFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
