// Package testutil provides test doubles for the editor session: a mock of
// the remote channel and an observer that records what the sidebar and tab
// bar would show.
package testutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bretbouchard/sandbox/internal/channel"
	"github.com/bretbouchard/sandbox/internal/editor"
	"github.com/bretbouchard/sandbox/internal/shared/paths"
	"github.com/bretbouchard/sandbox/internal/types"
)

// MockRemote is a mock implementation of editor.Remote.
//
// Connect, Disconnect and Emit go through testify's mock; set expectations
// with m.Mock.On, since the Remote interface has its own On. Requests and
// subscriptions are recorded so a test decides when, and whether, each
// request is answered.
type MockRemote struct {
	mock.Mock

	t        *testing.T
	nextSub  uint64
	handlers map[string]map[uint64]channel.Handler
	requests []*Request
}

var _ editor.Remote = (*MockRemote)(nil)

// Request is one recorded channel request
type Request struct {
	Event string
	Args  []any

	t       *testing.T
	reply   channel.Reply
	replied bool
}

// NewMockRemote creates a mock remote whose Connect and Disconnect succeed.
// Emit has no default; call AllowEmits or set an expectation.
func NewMockRemote(t *testing.T) *MockRemote {
	t.Helper()
	m := NewStrictMockRemote(t)

	m.Mock.On("Connect", mock.Anything).Return(nil).Maybe()
	m.Mock.On("Disconnect").Return(nil).Maybe()

	return m
}

// NewStrictMockRemote creates a mock remote with no expectations set.
func NewStrictMockRemote(t *testing.T) *MockRemote {
	t.Helper()
	m := &MockRemote{
		t:        t,
		handlers: make(map[string]map[uint64]channel.Handler),
	}
	m.Test(t)
	return m
}

// AllowEmits accepts every Emit
func (m *MockRemote) AllowEmits() {
	m.Mock.On("Emit", mock.Anything, mock.Anything).Return(nil).Maybe()
}

// Connect mocks the Connect method.
func (m *MockRemote) Connect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// Disconnect mocks the Disconnect method.
func (m *MockRemote) Disconnect() error {
	return m.Called().Error(0)
}

// Emit mocks the Emit method. Expectations match the event and the args
// as one []any.
func (m *MockRemote) Emit(event string, args ...any) error {
	if args == nil {
		args = []any{}
	}
	return m.Called(event, args).Error(0)
}

// Request records a request
func (m *MockRemote) Request(event string, reply channel.Reply, args ...any) {
	m.requests = append(m.requests, &Request{Event: event, Args: args, t: m.t, reply: reply})
}

// On records a handler
func (m *MockRemote) On(event string, handler channel.Handler) channel.Subscription {
	m.nextSub++
	if m.handlers[event] == nil {
		m.handlers[event] = make(map[uint64]channel.Handler)
	}
	m.handlers[event][m.nextSub] = handler
	return channel.Subscription{Event: event, ID: m.nextSub}
}

// Off removes a handler
func (m *MockRemote) Off(sub channel.Subscription) {
	delete(m.handlers[sub.Event], sub.ID)
}

// Handlers returns the number of handlers subscribed to an event
func (m *MockRemote) Handlers(event string) int {
	return len(m.handlers[event])
}

// Push delivers a server event to every subscribed handler
func (m *MockRemote) Push(event string, args ...any) {
	m.t.Helper()
	raw, err := types.EncodeArgs(args...)
	require.NoError(m.t, err)
	for _, h := range m.handlers[event] {
		h(raw)
	}
}

// Requests returns the recorded requests for an event, oldest first
func (m *MockRemote) Requests(event string) []*Request {
	var out []*Request
	for _, r := range m.requests {
		if r.Event == event {
			out = append(out, r)
		}
	}
	return out
}

// LastRequest returns the newest request for an event
func (m *MockRemote) LastRequest(event string) *Request {
	m.t.Helper()
	reqs := m.Requests(event)
	require.NotEmpty(m.t, reqs, "no %s request", event)
	return reqs[len(reqs)-1]
}

// Reply answers the request with ack args
func (r *Request) Reply(args ...any) {
	r.t.Helper()
	require.False(r.t, r.replied, "%s answered twice", r.Event)
	raw, err := types.EncodeArgs(args...)
	require.NoError(r.t, err)
	r.replied = true
	r.reply(raw, nil)
}

// Fail ends the request with an error
func (r *Request) Fail(err error) {
	r.t.Helper()
	require.False(r.t, r.replied, "%s answered twice", r.Event)
	r.replied = true
	r.reply(nil, err)
}

// Recorder is an editor.Observer that keeps what it was told
type Recorder struct {
	Tabs     []editor.Tab
	ActiveID string
	Tree     []types.Node
	Notices  []editor.Notice

	TabUpdates  int
	TreeUpdates int
}

var _ editor.Observer = (*Recorder)(nil)

// TabsChanged records the tab bar
func (r *Recorder) TabsChanged(tabs []editor.Tab, activeID string) {
	r.Tabs = tabs
	r.ActiveID = activeID
	r.TabUpdates++
}

// TreeChanged records the sidebar tree
func (r *Recorder) TreeChanged(tree []types.Node) {
	r.Tree = tree
	r.TreeUpdates++
}

// Notify records a notice
func (r *Recorder) Notify(notice editor.Notice) {
	r.Notices = append(r.Notices, notice)
}

// LastNotice returns the newest notice, if any
func (r *Recorder) LastNotice() (editor.Notice, bool) {
	if len(r.Notices) == 0 {
		return editor.Notice{}, false
	}
	return r.Notices[len(r.Notices)-1], true
}

// SampleTree returns a workspace tree with three files and a folder
func SampleTree(sandboxID string) []types.Node {
	pkg := paths.FileID(sandboxID, "pkg")
	return []types.Node{
		types.NewFile(paths.FileID(sandboxID, "main.go"), "main.go"),
		types.NewFile(paths.FileID(sandboxID, "README.md"), "README.md"),
		types.NewFolder(pkg, "pkg",
			types.NewFile(paths.ChildID(pkg, "util.go"), "util.go"),
		),
	}
}

// RawArgs encodes args the way the channel delivers them
func RawArgs(t *testing.T, args ...any) []json.RawMessage {
	t.Helper()
	raw, err := types.EncodeArgs(args...)
	require.NoError(t, err)
	return raw
}
