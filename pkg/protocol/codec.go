package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

var registry = map[string]func() Message{
	TypeClearList:            func() Message { return &ClearList{} },
	TypeExportPDF:            func() Message { return &ExportPDF{} },
	TypeExportBatch:          func() Message { return &ExportBatch{} },
	TypeRequestPNGFallback:   func() Message { return &RequestPNGFallback{} },
	TypeCancel:               func() Message { return &Cancel{} },
	TypePluginReady:          func() Message { return &PluginReady{} },
	TypeSelectionChanged:     func() Message { return &SelectionChanged{} },
	TypeFramesUpdated:        func() Message { return &FramesUpdated{} },
	TypeBatchWarning:         func() Message { return &BatchWarning{} },
	TypeVectorExportProgress: func() Message { return &VectorExportProgress{} },
	TypeGeneratePDF:          func() Message { return &GeneratePDF{} },
	TypeMergeVectorPDFs:      func() Message { return &MergeVectorPDFs{} },
	TypeMergeStart:           func() Message { return &MergeStart{} },
	TypeMergeChunk:           func() Message { return &MergeChunk{} },
	TypeMergeEnd:             func() Message { return &MergeEnd{} },
	TypePNGFallbackResult:    func() Message { return &PNGFallbackResult{} },
	TypeError:                func() Message { return &Error{} },
}

// Encode returns the wire form of msg: a JSON object whose "type" member
// names the message, followed by the payload members.
func Encode(msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Type(), err)
	}

	typ, _ := json.Marshal(msg.Type())

	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(typ)
	if body := bytes.TrimSpace(payload[1 : len(payload)-1]); len(body) > 0 {
		buf.WriteByte(',')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a wire message. The returned value is the message struct
// itself, not a pointer.
func Decode(data []byte) (Message, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	newMsg, ok := registry[envelope.Type]
	if !ok {
		return nil, fmt.Errorf("decode message: unknown type %q", envelope.Type)
	}

	msg := newMsg()
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", envelope.Type, err)
	}
	return deref(msg), nil
}

// DecodeRequest parses a wire message that must be a request.
func DecodeRequest(data []byte) (Request, error) {
	msg, err := Decode(data)
	if err != nil {
		return nil, err
	}
	req, ok := msg.(Request)
	if !ok {
		return nil, fmt.Errorf("decode request: %s is not a request", msg.Type())
	}
	return req, nil
}

func deref(msg Message) Message {
	switch m := msg.(type) {
	case *ClearList:
		return *m
	case *ExportPDF:
		return *m
	case *ExportBatch:
		return *m
	case *RequestPNGFallback:
		return *m
	case *Cancel:
		return *m
	case *PluginReady:
		return *m
	case *SelectionChanged:
		return *m
	case *FramesUpdated:
		return *m
	case *BatchWarning:
		return *m
	case *VectorExportProgress:
		return *m
	case *GeneratePDF:
		return *m
	case *MergeVectorPDFs:
		return *m
	case *MergeStart:
		return *m
	case *MergeChunk:
		return *m
	case *MergeEnd:
		return *m
	case *PNGFallbackResult:
		return *m
	case *Error:
		return *m
	default:
		return msg
	}
}

// Notifier delivers notifications to the presentation side in order.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Message) error { return nil })

// Multi fans a notification out to every notifier, stopping at the first error.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, msg Message) error {
		for _, n := range notifiers {
			if err := n.Notify(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

// StreamNotifier writes each notification as one line of JSON.
type StreamNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStreamNotifier returns a notifier writing JSON lines to w.
func NewStreamNotifier(w io.Writer) *StreamNotifier {
	return &StreamNotifier{w: w}
}

// Notify encodes msg and writes it followed by a newline.
func (s *StreamNotifier) Notify(ctx context.Context, msg Message) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(data, '\n'))
	return err
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu       sync.Mutex
	Messages []Message
}

// Notify records msg.
func (r *Recorder) Notify(ctx context.Context, msg Message) error {
	r.mu.Lock()
	r.Messages = append(r.Messages, msg)
	r.mu.Unlock()
	return nil
}

// Types returns the recorded message types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.Messages))
	for i, m := range r.Messages {
		types[i] = m.Type()
	}
	return types
}

// Reset drops the recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.Messages = nil
	r.mu.Unlock()
}
