//go:build windows
// +build windows

package subprocess

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
)

// multiplex pumps every buffer-backed pipe with one goroutine per active
// direction, joined before the exit wait. Readiness polling does not
// compose with pipe handles on Windows the way POSIX poll does; blocking
// one short-lived goroutine per stream gives the same ordering and
// completion guarantees.
func (s *Subprocess) multiplex() error {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	report := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	if w := s.stdin.parentEnd(); w != nil {
		input := s.stdin.r.input
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.stdin.closeParentEnd()
			if _, err := w.Write(input); err != nil && !brokenPipe(err) {
				report(fmt.Errorf("write stdin: %w", err))
			}
		}()
	}

	for _, out := range []*stream{&s.stdout, &s.stderr} {
		r := out.parentEnd()
		if r == nil {
			continue
		}
		out := out
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer out.closeParentEnd()
			if _, err := io.Copy(out.r.sink, r); err != nil && !brokenPipe(err) {
				report(fmt.Errorf("read %s: %w", out.role, err))
			}
		}()
	}

	wg.Wait()
	return firstErr
}

// brokenPipe reports the conditions that stand in for EOF on Windows
// anonymous pipes: the child closed its end, or our own end was closed
// under a pending operation.
func brokenPipe(err error) bool {
	return errors.Is(err, syscall.ERROR_BROKEN_PIPE) ||
		errors.Is(err, syscall.ERROR_NO_DATA) ||
		errors.Is(err, os.ErrClosed)
}
