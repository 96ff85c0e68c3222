package core

import "context"

type (
	// PushMessage is a mobile push notification to one or more device tokens.
	PushMessage struct {
		Tokens []string
		Title  string
		Body   string
		Data   map[string]interface{}
	}

	// PushService is any service that can deliver push notifications.
	PushService interface {
		SendPush(ctx context.Context, messages ...*PushMessage) error
	}

	// Notifier dispatches emails and pushes without blocking the caller.
	// Delivery failures are logged by the notifier and never returned.
	Notifier interface {
		Email(messages ...*EmailMessage)
		Push(messages ...*PushMessage)
	}
)

// NewPushMessage drops empty tokens; it returns nil when none is left.
func NewPushMessage(title, body string, data map[string]interface{}, tokens ...string) *PushMessage {
	toks := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = CleanString(t); t != "" {
			toks = append(toks, t)
		}
	}
	if len(toks) == 0 {
		return nil
	}
	return &PushMessage{Tokens: toks, Title: title, Body: body, Data: data}
}
