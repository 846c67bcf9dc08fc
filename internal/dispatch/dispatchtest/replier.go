// Package dispatchtest provides a recording dispatch.Replier for tests.
package dispatchtest

import (
	"context"
	"sync"
)

// Replier records every message it is asked to deliver.
type Replier struct {
	mu      sync.Mutex
	Replies []string
	Sends   []string
	// Err, when set, is returned by both methods after recording.
	Err error
}

func (r *Replier) Reply(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Replies = append(r.Replies, text)
	return r.Err
}

func (r *Replier) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sends = append(r.Sends, text)
	return r.Err
}

// Messages returns replies followed by sends.
func (r *Replier) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.Replies...)
	return append(out, r.Sends...)
}
