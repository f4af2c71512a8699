package httpapi

import (
	"context"
	"encoding/json"
	"sync"

	"crm-console/internal/event"
	"crm-console/internal/hub"
)

type insertedMessage struct {
	chatID string
	msg    event.InboundMessage
}

type fakeStore struct {
	mu        sync.Mutex
	calls     []event.CallEvent
	messages  []insertedMessage
	statuses  map[string]string
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{statuses: make(map[string]string)}
}

func (f *fakeStore) InsertCallEvent(_ context.Context, ev event.CallEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.calls = append(f.calls, ev)
	return nil
}

func (f *fakeStore) InsertMessage(_ context.Context, chatID string, msg event.InboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.messages = append(f.messages, insertedMessage{chatID: chatID, msg: msg})
	return nil
}

func (f *fakeStore) UpdateMessageStatus(_ context.Context, messageID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.statuses[messageID] = status
	return nil
}

type fakeAssigner struct {
	mu    sync.Mutex
	chats []string
	err   error
}

func (f *fakeAssigner) EnsureAssigned(_ context.Context, chatID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.chats = append(f.chats, chatID)
	return nil
}

// recordPublisher captures published envelopes without a live hub.
type recordPublisher struct {
	mu     sync.Mutex
	events []any
}

func (p *recordPublisher) Publish(v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, v)
}

func (p *recordPublisher) published() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.events...)
}

// jsonSink collects hub frames decoded as JSON objects.
type jsonSink struct {
	mu     sync.Mutex
	frames []map[string]any
}

func (s *jsonSink) WriteFrame(f hub.Frame) error {
	if f.Comment {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(f.Data, &obj); err != nil {
		return err
	}
	s.mu.Lock()
	s.frames = append(s.frames, obj)
	s.mu.Unlock()
	return nil
}

func (s *jsonSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *jsonSink) frame(i int) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[i]
}
