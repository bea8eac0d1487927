package clipboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/halvard/muninn/internal/capture"
	"github.com/halvard/muninn/internal/inbox"
	"github.com/halvard/muninn/internal/models"
	"github.com/halvard/muninn/internal/testutil"
)

// fakeSource replays a sequence of clipboard values.
type fakeSource struct {
	mu     sync.Mutex
	values []string
	pos    int
}

func (f *fakeSource) Text() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pos < len(f.values) {
		v := f.values[f.pos]
		f.pos++
		return v, nil
	}
	return f.values[len(f.values)-1], nil
}

func fastConfig() capture.Config {
	cfg := capture.DefaultConfig()
	cfg.PollIntervalMS = 50
	return cfg
}

func waitForEntries(t *testing.T, in *inbox.Inbox, want int) []inbox.Entry {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		entries, err := in.List()
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) >= want {
			return entries
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d inbox entries", want)
	return nil
}

func TestMonitorCapturesURL(t *testing.T) {
	s := testutil.TestBrain(t)
	in := inbox.New(s)
	src := &fakeSource{values: []string{
		"",
		"Check out this link: https://example.com/article/123",
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMonitor(fastConfig(), in, src, nil)
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	entries := waitForEntries(t, in, 1)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}

	item := entries[0].Item
	if item.CaptureMethod != models.MethodClipboardURL {
		t.Errorf("method = %q", item.CaptureMethod)
	}
	if item.Source != "https://example.com/article/123" {
		t.Errorf("source = %q", item.Source)
	}
	if item.Confidence != 0.5 {
		t.Errorf("confidence = %v", item.Confidence)
	}
	if item.SuggestedDomain != "inbox" {
		t.Errorf("domain = %q", item.SuggestedDomain)
	}
}

func TestMonitorSkipsUnchangedText(t *testing.T) {
	s := testutil.TestBrain(t)
	in := inbox.New(s)
	src := &fakeSource{values: []string{
		"Read later maybe: https://example.org/one-article",
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMonitor(fastConfig(), in, src, nil)
	go func() { _ = m.Run(ctx) }()

	waitForEntries(t, in, 1)
	// Give the loop a few more polls of the same value.
	time.Sleep(300 * time.Millisecond)
	cancel()

	entries, _ := in.List()
	if len(entries) != 1 {
		t.Errorf("len = %d, want 1 (unchanged text polled once)", len(entries))
	}
}

func TestMonitorCancellation(t *testing.T) {
	s := testutil.TestBrain(t)
	in := inbox.New(s)
	src := &fakeSource{values: []string{""}}

	ctx, cancel := context.WithCancel(context.Background())
	m := NewMonitor(fastConfig(), in, src, nil)

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}

func TestMonitorTextCapture(t *testing.T) {
	s := testutil.TestBrain(t)
	in := inbox.New(s)
	cfg := fastConfig()
	cfg.CaptureText = true
	src := &fakeSource{values: []string{
		"",
		"A genuinely interesting thought about software design, no links.",
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMonitor(cfg, in, src, nil)
	go func() { _ = m.Run(ctx) }()

	entries := waitForEntries(t, in, 1)
	cancel()

	if entries[0].Item.CaptureMethod != models.MethodClipboardText {
		t.Errorf("method = %q", entries[0].Item.CaptureMethod)
	}
}
