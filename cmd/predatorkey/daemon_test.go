//go:build linux

package main

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner records argv[0] of every run and delegates to fn.
type scriptedRunner struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, argv []string) error
}

func (r *scriptedRunner) Run(ctx context.Context, argv []string) error {
	r.mu.Lock()
	r.calls = append(r.calls, argv[0])
	r.mu.Unlock()
	if r.fn == nil {
		return nil
	}
	return r.fn(ctx, argv)
}

func (r *scriptedRunner) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

func twoCommandDispatcher(runner commandRunner) *Dispatcher {
	cfg := DispatchConfig{
		Commands: CommandSpec{Primary: "primary", Extra: []string{"extra"}},
		Debounce: 300 * time.Millisecond,
	}
	return newDispatcher(cfg, runner, discardLogger())
}

func TestConsumeEvents_ReadErrorLetsRunningCommandsFinish(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	_, err = w.Write(encodeEvents(t, predatorPress()))
	require.NoError(t, err)

	var primaryErr error
	runner := &scriptedRunner{fn: func(ctx context.Context, argv []string) error {
		if argv[0] != "primary" {
			return nil
		}
		// The device goes away while the command is still running.
		_ = w.Close()
		select {
		case <-time.After(200 * time.Millisecond):
		case <-ctx.Done():
			primaryErr = ctx.Err()
		}
		return primaryErr
	}}

	err = consumeEvents(context.Background(), r, twoCommandDispatcher(runner))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hangup")
	assert.NoError(t, primaryErr)
	assert.Equal(t, []string{"primary", "extra"}, runner.names())
}

func TestConsumeEvents_RunsEventsReadBeforeError(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	_, err = w.Write(encodeEvents(t, predatorPress()))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	runner := &scriptedRunner{}
	err = consumeEvents(context.Background(), r, twoCommandDispatcher(runner))
	require.Error(t, err)
	assert.Equal(t, []string{"primary", "extra"}, runner.names())
}

func TestConsumeEvents_CancelStopsRunningCommand(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	_, err = w.Write(encodeEvents(t, predatorPress()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runner := &scriptedRunner{fn: func(ctx context.Context, argv []string) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}}

	err = consumeEvents(ctx, r, twoCommandDispatcher(runner))
	require.NoError(t, err)
	assert.Equal(t, []string{"primary"}, runner.names())
}

// newTestDaemon wires a daemon to src, with open standing in for os.Open.
func newTestDaemon(src deviceSource, open func(string) (*os.File, error)) (*daemon, *scriptedRunner, *bytes.Buffer) {
	var logs bytes.Buffer
	cfg := DefaultConfig()
	cfg.Commands.Primary = "primary"
	runner := &scriptedRunner{}
	return &daemon{
		cfg:    cfg,
		src:    src,
		runner: runner,
		open:   open,
		logger: setupLogger(&logs, LogLevelInfo),
	}, runner, &logs
}

func predatorSource() *fakeSource {
	return newFakeSource(&fakeDevice{
		path: defaultGuessPath,
		name: defaultNameContains,
		caps: predatorCaps(),
	})
}

func TestDaemon_DeviceNotFound(t *testing.T) {
	opened := false
	d, runner, logs := newTestDaemon(newFakeSource(), func(string) (*os.File, error) {
		opened = true
		return nil, fs.ErrNotExist
	})

	d.run(context.Background())

	assert.False(t, opened)
	assert.Empty(t, runner.names())
	assert.Contains(t, logs.String(), "could not find Predator key device")
	assert.Contains(t, logs.String(), ErrDeviceNotFound.Error())
}

func TestDaemon_PermissionDenied(t *testing.T) {
	d, _, logs := newTestDaemon(predatorSource(), func(path string) (*os.File, error) {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission}
	})

	d.run(context.Background())

	assert.Contains(t, logs.String(), "permission denied")
	assert.Contains(t, logs.String(), "sudo usermod -a -G input $USER")
	assert.NotContains(t, logs.String(), "exiting")
}

func TestDaemon_ReadErrorStopsLoop(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	require.NoError(t, w.Close())

	d, _, logs := newTestDaemon(predatorSource(), func(string) (*os.File, error) { return r, nil })

	d.run(context.Background())

	assert.Contains(t, logs.String(), "monitoring device")
	assert.Contains(t, logs.String(), "input loop stopped")
	assert.Contains(t, logs.String(), "hangup")
	assert.NotContains(t, logs.String(), "usermod")
	assert.NotContains(t, logs.String(), "exiting")
}

func TestDaemon_InterruptLogsFarewell(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer w.Close()

	d, runner, logs := newTestDaemon(predatorSource(), func(string) (*os.File, error) { return r, nil })
	pressed := make(chan struct{})
	runner.fn = func(context.Context, []string) error {
		close(pressed)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		d.run(ctx)
	}()

	_, err = w.Write(encodeEvents(t, predatorPress()))
	require.NoError(t, err)

	select {
	case <-pressed:
	case <-time.After(2 * time.Second):
		t.Fatal("key press was not dispatched")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("daemon did not stop after cancel")
	}

	out := logs.String()
	assert.Contains(t, out, "listening for Predator key")
	assert.Contains(t, out, defaultNameContains)
	assert.Contains(t, out, "predator key pressed")
	assert.Contains(t, out, "exiting")
	assert.NotContains(t, out, "input loop stopped")
}
