//go:build linux

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeEvents(t *testing.T, evs ...inputEvent) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, ev := range evs {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, ev))
	}
	return buf.Bytes()
}

func TestDecodeInputEvent(t *testing.T) {
	assert.Equal(t, 24, inputEventSize)

	// EV_ABS / ABS_MISC / 1 as the kernel lays it out.
	raw := []byte{
		0x10, 0, 0, 0, 0, 0, 0, 0, // sec
		0x20, 0, 0, 0, 0, 0, 0, 0, // usec
		0x03, 0x00, // type
		0x28, 0x00, // code
		0x01, 0, 0, 0, // value
	}
	ev, err := decodeInputEvent(bytes.NewReader(nil), raw)
	require.NoError(t, err)
	assert.Equal(t, inputEvent{Sec: 0x10, Usec: 0x20, Type: EV_ABS, Code: ABS_MISC, Value: 1}, ev)
	assert.True(t, ev.isTrigger())

	_, err = decodeInputEvent(bytes.NewReader(nil), raw[:20])
	assert.Error(t, err)
}

func TestInputEventNames(t *testing.T) {
	typeName, codeName := predatorPress().names()
	assert.Equal(t, "EV_ABS", typeName)
	assert.Equal(t, "ABS_MISC", codeName)
}

func startReader(t *testing.T, ctx context.Context, r *os.File) (<-chan inputEvent, <-chan error) {
	t.Helper()
	events := make(chan inputEvent, eventQueueSize)
	done := make(chan error, 1)
	go func() {
		defer close(events)
		done <- readInputEventsEpoll(ctx, r, events)
	}()
	return events, done
}

func TestReadInputEventsEpoll_DeliversAndCancels(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, done := startReader(t, ctx, r)

	want := []inputEvent{
		{Type: EV_ABS, Code: ABS_MISC, Value: 1},
		{Type: EV_SYN},
		{Type: EV_ABS, Code: ABS_MISC, Value: 0},
	}
	_, err = w.Write(encodeEvents(t, want...))
	require.NoError(t, err)

	for i, ev := range want {
		select {
		case got := <-events:
			assert.Equal(t, ev, got, "event %d", i)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	// Nothing else is pending; cancel must wake the reader.
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not stop after cancel")
	}
}

func TestReadInputEventsEpoll_Hangup(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	_, done := startReader(t, context.Background(), r)
	require.NoError(t, w.Close())

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "hangup")
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not report hangup")
	}
}
