package fake

import (
	"context"
	"sync"

	"github.com/dnlogistics/freightdesk/internal/integrations/mailer"
)

// FakeSender records messages instead of delivering them. Used by tests and
// by the worker when no mail relay is configured.
type FakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message

	Err error
}

func New() *FakeSender { return &FakeSender{} }

func (f *FakeSender) Send(ctx context.Context, msg mailer.Message) error {
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *FakeSender) Sent() []mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]mailer.Message, len(f.sent))
	copy(out, f.sent)
	return out
}
