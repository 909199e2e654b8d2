package gateway

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mobtimer/internal/engine"
	"github.com/roach88/mobtimer/internal/roster"
)

type published struct {
	subject string
	data    string
}

type fakeNATS struct {
	published  []published
	subscribed string
	handler    nats.MsgHandler
	publishErr error
	subErr     error
	drained    bool
}

func (f *fakeNATS) Publish(subject string, data []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{subject, string(data)})
	return nil
}

func (f *fakeNATS) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.subscribed = subject
	f.handler = cb
	return nil, nil
}

func (f *fakeNATS) Drain() error {
	f.drained = true
	return nil
}

func TestBridge_Subjects(t *testing.T) {
	b := NewBridge(&fakeNATS{}, "team.mob", &fakeEnqueuer{})

	assert.Equal(t, "team.mob.events.timerChange", b.EventSubject(engine.EventTimerChange))
	assert.Equal(t, "team.mob.commands", b.CommandSubject())
}

func TestBridge_PublishesEvents(t *testing.T) {
	conn := &fakeNATS{}
	b := NewBridge(conn, "mobtimer", &fakeEnqueuer{})

	b.HandleEvent(engine.TimerChange{SecondsRemaining: 42, SecondsPerTurn: 600})
	b.HandleEvent(engine.Paused{})
	b.HandleEvent(engine.Alert{Seconds: 0})

	require.Len(t, conn.published, 3)
	assert.Equal(t, "mobtimer.events.timerChange", conn.published[0].subject)
	assert.JSONEq(t, `{"event":"timerChange","data":{"secondsRemaining":42,"secondsPerTurn":600}}`, conn.published[0].data)
	assert.Equal(t, "mobtimer.events.paused", conn.published[1].subject)
	assert.JSONEq(t, `{"event":"paused"}`, conn.published[1].data)
	assert.Equal(t, "mobtimer.events.alert", conn.published[2].subject)
	assert.JSONEq(t, `{"event":"alert","data":0}`, conn.published[2].data)
}

func TestBridge_PublishErrorIsNotFatal(t *testing.T) {
	conn := &fakeNATS{publishErr: errors.New("nats: connection closed")}
	b := NewBridge(conn, "mobtimer", &fakeEnqueuer{})

	assert.NotPanics(t, func() { b.HandleEvent(engine.Started{}) })
}

func TestBridge_EnqueuesCommands(t *testing.T) {
	conn := &fakeNATS{}
	cmds := &fakeEnqueuer{}
	b := NewBridge(conn, "mobtimer", cmds)

	require.NoError(t, b.Start())
	require.Equal(t, "mobtimer.commands", conn.subscribed)
	require.NotNil(t, conn.handler)

	conn.handler(&nats.Msg{Subject: "mobtimer.commands", Data: []byte(`{"command":"removeMobber","data":{"id":"a","name":"Ann"}}`)})
	conn.handler(&nats.Msg{Subject: "mobtimer.commands", Data: []byte(`{"command":"nope"}`)})
	conn.handler(&nats.Msg{Subject: "mobtimer.commands", Data: []byte(`not json`)})
	conn.handler(&nats.Msg{Subject: "mobtimer.commands", Data: []byte(`{"command":"updateMobber","data":{"id":"b","name":"Bob","disabled":true}}`)})

	assert.Equal(t, []engine.Command{
		engine.RemoveMobber{ID: "a"},
		engine.UpdateMobber{Mobber: roster.Mobber{ID: "b", Name: "Bob", Disabled: true}},
	}, cmds.commands())
}

func TestBridge_StartSubscribeError(t *testing.T) {
	b := NewBridge(&fakeNATS{subErr: errors.New("nats: invalid subject")}, "mobtimer", &fakeEnqueuer{})

	err := b.Start()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mobtimer.commands")
}

func TestBridge_Close(t *testing.T) {
	conn := &fakeNATS{}
	b := NewBridge(conn, "mobtimer", &fakeEnqueuer{})

	require.NoError(t, b.Close())
	assert.True(t, conn.drained)
}
