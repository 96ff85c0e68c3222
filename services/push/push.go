package pushsvc

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sony/gobreaker/v2"

	"github.com/vidyasetu/vidyasetu/core"
	"github.com/vidyasetu/vidyasetu/services/breaker"
)

// expoBatchSize is the max number of messages per Expo push request.
const expoBatchSize = 100

type expoMessage struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Sound string                 `json:"sound"`
}

// ExpoService delivers pushes through the Expo push API behind a circuit breaker.
type ExpoService struct {
	url         string
	accessToken string
	breaker     *gobreaker.CircuitBreaker[*rest.Response]
}

var _ core.PushService = (*ExpoService)(nil)

func NewExpoService(logger core.Logger, conf *core.Config) *ExpoService {
	return &ExpoService{
		url:         conf.ExpoPushURL,
		accessToken: conf.ExpoAccessToken,
		breaker:     breaker.New[*rest.Response]("expo", logger),
	}
}

func expoMessages(messages []*core.PushMessage) []expoMessage {
	var out []expoMessage
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		for _, token := range msg.Tokens {
			out = append(out, expoMessage{To: token, Title: msg.Title, Body: msg.Body, Data: msg.Data, Sound: "default"})
		}
	}
	return out
}

func (svc *ExpoService) SendPush(ctx context.Context, messages ...*core.PushMessage) error {
	batch := expoMessages(messages)
	for start := 0; start < len(batch); start += expoBatchSize {
		end := start + expoBatchSize
		if end > len(batch) {
			end = len(batch)
		}
		if err := svc.send(ctx, batch[start:end]); err != nil {
			return core.NewDependencyError("expo", err)
		}
	}
	return nil
}

func (svc *ExpoService) send(ctx context.Context, batch []expoMessage) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return errors.Wrap(err, "encoding push messages")
	}
	req := rest.Request{
		Method:  rest.Post,
		BaseURL: svc.url,
		Headers: map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		Body: body,
	}
	if svc.accessToken != "" {
		req.Headers["Authorization"] = "Bearer " + svc.accessToken
	}

	_, err = svc.breaker.Execute(func() (*rest.Response, error) {
		res, err := rest.SendWithContext(ctx, req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= http.StatusBadRequest {
			return res, errors.Errorf("status: %d - body: %s", res.StatusCode, res.Body)
		}
		return res, nil
	})
	return err
}

// ConsoleService writes pushes to its output and keeps them for inspection.
type ConsoleService struct {
	out io.Writer

	mu   sync.Mutex
	sent []core.PushMessage
}

var _ core.PushService = (*ConsoleService)(nil)

func NewConsoleService(out io.Writer) *ConsoleService {
	return &ConsoleService{out: out}
}

func (svc *ConsoleService) SendPush(_ context.Context, messages ...*core.PushMessage) error {
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		if svc.out != nil {
			line := "PUSH [" + strings.Join(msg.Tokens, ",") + "] " + msg.Title + ": " + msg.Body + "\n"
			if _, err := io.WriteString(svc.out, line); err != nil {
				return errors.Wrap(err, "writing push")
			}
		}
		svc.mu.Lock()
		svc.sent = append(svc.sent, *msg)
		svc.mu.Unlock()
	}
	return nil
}

// Sent returns the pushes sent so far.
func (svc *ConsoleService) Sent() []core.PushMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.PushMessage(nil), svc.sent...)
}

func (svc *ConsoleService) Reset() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.sent = nil
}
