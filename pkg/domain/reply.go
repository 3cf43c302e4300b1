package domain

import (
	"context"
	"strings"
)

// Message is a single piece of output produced by an intent handler.
type Message struct {
	Text string `json:"text"`
	SSML bool   `json:"ssml,omitempty"`
}

// Reply collects the output of one request.
// Rendering it for a specific platform is left to the caller.
type Reply struct {
	Messages   []Message `json:"messages"`
	EndSession bool      `json:"end_session"`
}

// Prompt appends text and keeps the session open.
func (r *Reply) Prompt(text string) {
	r.Messages = append(r.Messages, newMessage(text))
}

// EndSessionWith appends text and marks the conversation as finished.
func (r *Reply) EndSessionWith(text string) {
	r.Messages = append(r.Messages, newMessage(text))
	r.EndSession = true
}

// Text joins all message texts with a single space.
func (r *Reply) Text() string {
	parts := make([]string, 0, len(r.Messages))
	for _, m := range r.Messages {
		parts = append(parts, m.Text)
	}
	return strings.Join(parts, " ")
}

func newMessage(text string) Message {
	return Message{Text: text, SSML: IsSSML(text)}
}

// IsSSML reports whether text contains markup tags.
func IsSSML(text string) bool {
	return strings.Contains(text, "</") || strings.Contains(text, "/>")
}

type replyKey struct{}

// WithReply attaches a reply collector to ctx.
func WithReply(ctx context.Context, r *Reply) context.Context {
	return context.WithValue(ctx, replyKey{}, r)
}

// ReplyFromContext returns the request's reply collector.
// A detached collector is returned when none is attached, so handlers never need a nil check.
func ReplyFromContext(ctx context.Context) *Reply {
	if r, ok := ctx.Value(replyKey{}).(*Reply); ok {
		return r
	}
	return &Reply{}
}
