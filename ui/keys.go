package ui

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// Keystrokes forwards operator input to running ffmpeg processes, so typing
// q (then enter) stops an encode cleanly. It returns nil when in is not a
// terminal.
//
// Input is read by a single goroutine started on first use. Prompts must
// therefore happen before the first run, which the batch phases guarantee.
func Keystrokes(in *os.File) func(ctx context.Context) <-chan byte {
	if in == nil || !(isatty.IsTerminal(in.Fd()) || isatty.IsCygwinTerminal(in.Fd())) {
		return nil
	}
	return newKeyForwarder(in).subscribe
}

type keyForwarder struct {
	in   io.Reader
	once sync.Once
	keys chan byte
}

func newKeyForwarder(in io.Reader) *keyForwarder {
	return &keyForwarder{in: in, keys: make(chan byte)}
}

// subscribe relays keys until ctx ends.
func (f *keyForwarder) subscribe(ctx context.Context) <-chan byte {
	f.once.Do(func() { go f.read() })

	out := make(chan byte)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-f.keys:
				if !ok {
					return
				}
				select {
				case out <- b:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (f *keyForwarder) read() {
	defer close(f.keys)
	buf := make([]byte, 1)
	for {
		n, err := f.in.Read(buf)
		if n == 1 && buf[0] != '\n' && buf[0] != '\r' {
			f.keys <- buf[0]
		}
		if err != nil {
			return
		}
	}
}
