package main

import (
	"context"
	"log/slog"
	"time"
)

// DispatchConfig is everything the dispatcher needs to act on a trigger.
type DispatchConfig struct {
	Commands CommandSpec
	Debounce time.Duration
}

// Dispatcher consumes input events and runs the configured commands when the
// Predator key is pressed.
//
// It is not safe for concurrent use: Run owns the debounce state and executes
// commands inline, so the next event is not looked at until every command of
// the current trigger has exited.
type Dispatcher struct {
	cfg    DispatchConfig
	runner commandRunner
	logger *slog.Logger
	now    func() time.Time

	// Time of the last accepted trigger; zero means never.
	lastTrigger time.Time
}

func newDispatcher(cfg DispatchConfig, runner commandRunner, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		now:    time.Now,
	}
}

// Run handles events until ctx is canceled or events is closed. Events
// still buffered when the reader stops are handled before it returns.
func (d *Dispatcher) Run(ctx context.Context, events <-chan inputEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			d.Handle(ctx, ev)
		}
	}
}

// Handle processes a single event and reports whether it fired the commands.
func (d *Dispatcher) Handle(ctx context.Context, ev inputEvent) bool {
	if ev.Type != EV_SYN {
		typeName, codeName := ev.names()
		d.logger.Debug("event",
			"type", ev.Type, "code", ev.Code, "value", ev.Value,
			"type_name", typeName, "code_name", codeName)
	}

	if !ev.isTrigger() {
		return false
	}

	now := d.now()
	// The first press always passes: the zero time is far enough in the past.
	if !d.lastTrigger.IsZero() && now.Sub(d.lastTrigger) <= d.cfg.Debounce {
		d.logger.Debug("debounced", "since_last", now.Sub(d.lastTrigger))
		return false
	}
	d.lastTrigger = now

	d.logger.Info("predator key pressed")
	runCommands(ctx, d.runner, d.cfg.Commands, d.logger)
	return true
}
