package main

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Daemon
// ============================================================================
// run locates the device once, then hands it to the dispatcher for the rest
// of the process lifetime. Every terminal condition is logged and returns;
// there is no retry or reconnect.
// ============================================================================

// daemon holds the collaborators of one run. Tests swap them for fakes.
type daemon struct {
	cfg    Config
	src    deviceSource
	runner commandRunner
	open   func(path string) (*os.File, error)
	logger *slog.Logger
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) {
	src, err := newDeviceSource(cfg.Device.Enumerator)
	if err != nil {
		logger.Error("could not find Predator key device", "error", err)
		return
	}
	d := &daemon{
		cfg:    cfg,
		src:    src,
		runner: newExecRunner(logger),
		open:   os.Open,
		logger: logger,
	}
	d.run(ctx)
}

func (d *daemon) run(ctx context.Context) {
	path, err := d.locate()
	if err != nil {
		d.logger.Error("could not find Predator key device", "error", err)
		return
	}
	d.logger.Info("monitoring device", "path", path)

	f, err := d.open(path)
	if err != nil {
		reportLoopError(d.logger, path, err)
		return
	}
	defer f.Close()

	if name, err := d.deviceName(path); err == nil {
		d.logger.Info("listening for Predator key", "name", name)
	}

	dispatcher := newDispatcher(d.cfg.ToDispatchConfig(), d.runner, d.logger)
	err = consumeEvents(ctx, f, dispatcher)

	switch {
	case ctx.Err() != nil:
		d.logger.Info("exiting")
	case err != nil:
		reportLoopError(d.logger, path, err)
	}
}

func (d *daemon) locate() (string, error) {
	strategies, err := buildStrategies(d.cfg.Device)
	if err != nil {
		return "", err
	}
	return locateDevice(strategies, d.src, d.logger)
}

func (d *daemon) deviceName(path string) (string, error) {
	dev, err := d.src.Open(path)
	if err != nil {
		return "", err
	}
	defer dev.Close()
	return dev.Name()
}

// consumeEvents runs the epoll reader and the dispatcher until ctx is
// canceled or the reader fails. The reader closes the event channel on exit.
//
// The dispatcher runs on ctx rather than the group context: after a read
// error it still runs the commands of every event already read, and a
// command in flight is only killed by an interrupt.
func consumeEvents(ctx context.Context, f *os.File, d *Dispatcher) error {
	g, gctx := errgroup.WithContext(ctx)
	events := make(chan inputEvent, eventQueueSize)

	g.Go(func() error {
		defer close(events)
		return readInputEventsEpoll(gctx, f, events)
	})
	g.Go(func() error {
		return d.Run(ctx, events)
	})

	return g.Wait()
}

func reportLoopError(logger *slog.Logger, path string, err error) {
	if isPermissionDenied(err) {
		logger.Error("permission denied",
			"path", path,
			"error", err,
			"tip", "run with sudo or add your user to the input group: sudo usermod -a -G input $USER, then log out and back in")
		return
	}
	logger.Error("input loop stopped", "path", path, "error", err)
}
