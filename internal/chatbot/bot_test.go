package chatbot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/subpool/internal/executor"
	"github.com/corvidlabs/subpool/internal/orchestrator"
	"github.com/corvidlabs/subpool/internal/pool"
	"github.com/corvidlabs/subpool/internal/store"
	"github.com/corvidlabs/subpool/pkg/types"
)

type stubHandle struct {
	execute func(types.Task) (types.TaskResult, error)
}

func (h *stubHandle) Execute(_ context.Context, task types.Task) (types.TaskResult, error) {
	return h.execute(task)
}
func (h *stubHandle) Stop() {}

func uppercasePool(t *testing.T) *pool.Pool {
	t.Helper()
	cfg := pool.Config{
		MaxWorkers:        2,
		TaskTimeout:       time.Second,
		IdleTimeout:       time.Hour,
		IdleCheckInterval: time.Hour,
		DrainSurgeCap:     pool.DefaultDrainSurgeCap,
		HealthQueueCap:    100,
		HealthErrCap:      1,
		NewHandle: func(executor.Spec) (executor.Handle, error) {
			return &stubHandle{execute: func(task types.Task) (types.TaskResult, error) {
				return types.OkResult(strings.ToUpper(task.InitialText), nil), nil
			}}, nil
		},
	}
	p := pool.New(cfg, nil)
	t.Cleanup(func() { p.Shutdown(context.Background(), false, 0) })
	return p
}

type recordingSender struct {
	sent  []string
	edits []string
	next  int
}

func (s *recordingSender) SendOrEdit(targetID, text string, isEdit bool) string {
	s.next++
	if isEdit {
		s.edits = append(s.edits, text)
	} else {
		s.sent = append(s.sent, text)
	}
	return targetID + "-reply"
}

func TestHandleMessageStoresEveryMessageRegardlessOfParse(t *testing.T) {
	p := uppercasePool(t)
	o := orchestrator.New(p, orchestrator.Config{MaxMessageLength: 4096})
	st := store.New()
	sender := &recordingSender{}
	bot := New(o, st, sender, 10, time.Second)

	bot.HandleMessage("chat1", "msg1", "hello world")
	_, text, ok := st.FindTarget("chat1", func(string) bool { return true })
	require.True(t, ok)
	assert.Equal(t, "hello world", text)
	assert.Empty(t, sender.sent) // not a chain, no reply sent
}

func TestHandleMessageRunsChainAgainstMatchingPriorMessage(t *testing.T) {
	p := uppercasePool(t)
	o := orchestrator.New(p, orchestrator.Config{MaxMessageLength: 4096})
	st := store.New()
	sender := &recordingSender{}
	bot := New(o, st, sender, 10, time.Second)

	bot.HandleMessage("chat1", "msg1", "hello world")
	bot.HandleMessage("chat1", "msg2", "s/hello/HI/")

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "HELLO WORLD", sender.sent[0])
}

func TestHandleMessageNoMatchingTargetSendsNothing(t *testing.T) {
	p := uppercasePool(t)
	o := orchestrator.New(p, orchestrator.Config{MaxMessageLength: 4096})
	st := store.New()
	sender := &recordingSender{}
	bot := New(o, st, sender, 10, time.Second)

	bot.HandleMessage("chat1", "msg1", "s/nomatch/x/")
	assert.Empty(t, sender.sent)
}

func TestHandleMessageSecondChainOnSameTargetEditsInsteadOfSending(t *testing.T) {
	p := uppercasePool(t)
	o := orchestrator.New(p, orchestrator.Config{MaxMessageLength: 4096})
	st := store.New()
	sender := &recordingSender{}
	bot := New(o, st, sender, 10, time.Second)

	bot.HandleMessage("chat1", "msg1", "hello world")
	bot.HandleMessage("chat1", "msg2", "s/hello/HI/")
	bot.HandleMessage("chat1", "msg3", "s/hello/YO/")

	assert.Len(t, sender.sent, 1)
	assert.Len(t, sender.edits, 1)
}
