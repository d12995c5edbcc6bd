package relay

import (
	"context"
	"sync"
)

// fakeChannel records payloads and can be told to fail, block or panic.
type fakeChannel struct {
	id      string
	sendErr error
	block   bool // wait for ctx cancellation
	panics  bool

	mu         sync.Mutex
	got        [][]byte
	closeCalls int
}

func newFake(id string) *fakeChannel { return &fakeChannel{id: id} }

func (f *fakeChannel) ID() string         { return f.id }
func (f *fakeChannel) RemoteAddr() string { return "fake:" + f.id }

func (f *fakeChannel) Send(ctx context.Context, payload []byte) error {
	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	f.got = append(f.got, append([]byte(nil), payload...))
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	f.closeCalls++
	f.mu.Unlock()
	return nil
}

func (f *fakeChannel) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.got...)
}

func (f *fakeChannel) closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}
