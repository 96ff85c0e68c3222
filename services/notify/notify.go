package notify

import (
	"context"
	"sync"
	"time"

	"github.com/vidyasetu/vidyasetu/core"
)

const (
	channelEmail = "email"
	channelPush  = "push"

	outcomeSent    = "sent"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"

	sendTimeout = 30 * time.Second
)

// Recorder is told about the outcome of every notification.
type Recorder interface {
	Notification(channel, outcome string)
}

type job struct {
	emails []*core.EmailMessage
	pushes []*core.PushMessage
}

func (j job) channel() string {
	if len(j.emails) > 0 {
		return channelEmail
	}
	return channelPush
}

type sender struct {
	emails   core.EmailService
	pushes   core.PushService
	logger   core.Logger
	recorder Recorder
}

func (s sender) record(channel, outcome string) {
	if s.recorder != nil {
		s.recorder.Notification(channel, outcome)
	}
}

func (s sender) send(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	var err error
	if len(j.emails) > 0 {
		err = s.emails.SendMessages(ctx, j.emails...)
	} else {
		err = s.pushes.SendPush(ctx, j.pushes...)
	}
	if err != nil {
		s.logger.Error("sending "+j.channel()+" notification", err)
		s.record(j.channel(), outcomeFailed)
		return
	}
	s.record(j.channel(), outcomeSent)
}

func emailJob(messages []*core.EmailMessage) (job, bool) {
	var j job
	for _, m := range messages {
		if m != nil {
			j.emails = append(j.emails, m)
		}
	}
	return j, len(j.emails) > 0
}

func pushJob(messages []*core.PushMessage) (job, bool) {
	var j job
	for _, m := range messages {
		if m != nil && len(m.Tokens) > 0 {
			j.pushes = append(j.pushes, m)
		}
	}
	return j, len(j.pushes) > 0
}

// Dispatcher delivers notifications in the background from a bounded queue.
// It is a suture.Service; enqueueing never blocks.
type Dispatcher struct {
	sender
	queue   chan job
	workers int
}

var _ core.Notifier = (*Dispatcher)(nil)

func NewDispatcher(emails core.EmailService, pushes core.PushService, logger core.Logger, recorder Recorder, conf *core.Config) *Dispatcher {
	size, workers := conf.Notify.QueueSize, conf.Notify.Workers
	if size <= 0 {
		size = 100
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		sender:  sender{emails: emails, pushes: pushes, logger: logger, recorder: recorder},
		queue:   make(chan job, size),
		workers: workers,
	}
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.queue <- j:
	default:
		d.logger.Warn("notification queue full, dropping "+j.channel()+" notification", map[string]interface{}{
			"emails": len(j.emails),
			"pushes": len(j.pushes),
		})
		d.record(j.channel(), outcomeDropped)
	}
}

func (d *Dispatcher) Email(messages ...*core.EmailMessage) {
	if j, ok := emailJob(messages); ok {
		d.enqueue(j)
	}
}

func (d *Dispatcher) Push(messages ...*core.PushMessage) {
	if j, ok := pushJob(messages); ok {
		d.enqueue(j)
	}
}

// Serve runs the workers until ctx is cancelled, then delivers what is left in the queue.
func (d *Dispatcher) Serve(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j := <-d.queue:
					d.send(ctx, j)
				}
			}
		}()
	}
	wg.Wait()
	d.drain()
	return ctx.Err()
}

func (d *Dispatcher) drain() {
	for {
		select {
		case j := <-d.queue:
			d.send(context.Background(), j)
		default:
			return
		}
	}
}

func (d *Dispatcher) String() string {
	return "notify-dispatcher"
}

// Inline delivers notifications synchronously in the caller's goroutine.
type Inline struct {
	sender
}

var _ core.Notifier = (*Inline)(nil)

func NewInline(emails core.EmailService, pushes core.PushService, logger core.Logger, recorder Recorder) *Inline {
	return &Inline{sender{emails: emails, pushes: pushes, logger: logger, recorder: recorder}}
}

func (n *Inline) Email(messages ...*core.EmailMessage) {
	if j, ok := emailJob(messages); ok {
		n.send(context.Background(), j)
	}
}

func (n *Inline) Push(messages ...*core.PushMessage) {
	if j, ok := pushJob(messages); ok {
		n.send(context.Background(), j)
	}
}
