package subprocess

import (
	"fmt"
	"os"
	"sync"
)

// Pipe is an OS anonymous pipe: a unidirectional byte channel with a read
// end and a write end created together.
//
// A single Pipe may be shared between two invocations to chain them
// manually (the stdout target of one process and the stdin target of the
// next). Each end is closed exactly once no matter how many invocations
// reference the Pipe; closing an already-closed end is a no-op.
type Pipe struct {
	mu sync.Mutex
	r  *os.File
	w  *os.File
}

// NewPipe creates an OS pipe.
func NewPipe() (*Pipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pipe: %w", err)
	}
	return &Pipe{r: r, w: w}, nil
}

// Reader returns the read end, or nil if it has been closed.
func (p *Pipe) Reader() *os.File {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.r
}

// Writer returns the write end, or nil if it has been closed.
func (p *Pipe) Writer() *os.File {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.w
}

// CloseRead closes the read end. Safe to call more than once.
func (p *Pipe) CloseRead() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.r == nil {
		return nil
	}
	err := p.r.Close()
	p.r = nil
	return err
}

// CloseWrite closes the write end. Safe to call more than once.
//
// The reading side only observes EOF once every copy of the write end is
// closed, including the parent's own.
func (p *Pipe) CloseWrite() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.w == nil {
		return nil
	}
	err := p.w.Close()
	p.w = nil
	return err
}

// Close closes both ends.
func (p *Pipe) Close() error {
	rErr := p.CloseRead()
	wErr := p.CloseWrite()
	if rErr != nil {
		return rErr
	}
	return wErr
}
