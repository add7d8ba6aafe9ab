//go:build linux

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// readInputEventsEpoll reads events from the device file until ctx is
// canceled or the device fails.
//
// The file is registered with epoll together with an eventfd. Canceling ctx
// writes to the eventfd, which wakes epoll_wait so the reader can return
// without waiting for the next key press.
//
// Returns nil on cancellation; any read or device error is returned wrapped.
func readInputEventsEpoll(ctx context.Context, f *os.File, events chan<- inputEvent) error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create1: %w", err)
	}
	defer unix.Close(epfd)

	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return fmt.Errorf("eventfd: %w", err)
	}
	defer unix.Close(wakeFd)

	devFd := int(f.Fd())
	for _, fd := range []int{devFd, wakeFd} {
		event := unix.EpollEvent{
			Events: unix.EPOLLIN, // Notify when readable
			Fd:     int32(fd),
		}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
			return fmt.Errorf("epoll_ctl_add fd=%d: %w", fd, err)
		}
	}

	stop := context.AfterFunc(ctx, func() {
		var one [8]byte
		binary.NativeEndian.PutUint64(one[:], 1)
		_, _ = unix.Write(wakeFd, one[:])
	})
	defer stop()

	epollEvents := make([]unix.EpollEvent, 2)
	buf := make([]byte, inputEventSize)
	reader := bytes.NewReader(buf)

	for {
		// -1 = wait indefinitely
		n, err := unix.EpollWait(epfd, epollEvents, -1)
		if err != nil {
			// Interrupted system call (e.g., SIGINT delivered to this thread)
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			if int(epollEvents[i].Fd) == wakeFd {
				return nil
			}
		}

		for i := 0; i < n; i++ {
			if epollEvents[i].Events&unix.EPOLLIN == 0 &&
				epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				return fmt.Errorf("device error/hangup: %s", f.Name())
			}

			if _, err := io.ReadFull(f, buf); err != nil {
				return fmt.Errorf("read from %s: %w", f.Name(), err)
			}

			ev, err := decodeInputEvent(reader, buf)
			if err != nil {
				// Skip malformed events
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
