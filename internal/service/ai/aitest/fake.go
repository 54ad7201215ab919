// Package aitest provides a scripted chat model for tests.
package aitest

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// FakeChatModel answers every request with Reply (or Err) and records the
// prompts it received.
type FakeChatModel struct {
	Reply string
	Err   error
	// ChunkSize splits streamed replies into pieces of this many bytes.
	ChunkSize int
	// Gate, when set, blocks each call until it is closed.
	Gate chan struct{}

	mu    sync.Mutex
	calls [][]*schema.Message
}

var _ model.BaseChatModel = (*FakeChatModel)(nil)

// Generate returns the scripted reply.
func (f *FakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if err := f.record(ctx, input); err != nil {
		return nil, err
	}
	return schema.AssistantMessage(f.Reply, nil), nil
}

// Stream returns the scripted reply split into chunks.
func (f *FakeChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := f.record(ctx, input); err != nil {
		return nil, err
	}

	size := f.ChunkSize
	if size <= 0 {
		size = 4
	}
	var chunks []*schema.Message
	for rest := f.Reply; rest != ""; {
		n := min(size, len(rest))
		chunks = append(chunks, schema.AssistantMessage(rest[:n], nil))
		rest = rest[n:]
	}
	return schema.StreamReaderFromArray(chunks), nil
}

// Calls returns the prompts received so far.
func (f *FakeChatModel) Calls() [][]*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*schema.Message(nil), f.calls...)
}

// LastPrompt returns the most recent prompt as "role:content" strings.
func (f *FakeChatModel) LastPrompt() []string {
	calls := f.Calls()
	if len(calls) == 0 {
		return nil
	}
	var out []string
	for _, msg := range calls[len(calls)-1] {
		out = append(out, string(msg.Role)+":"+msg.Content)
	}
	return out
}

func (f *FakeChatModel) record(ctx context.Context, input []*schema.Message) error {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.Err
}

// Factory returns a model factory that always yields f.
func (f *FakeChatModel) Factory() func(context.Context, string) (model.BaseChatModel, error) {
	return func(context.Context, string) (model.BaseChatModel, error) {
		return f, nil
	}
}
