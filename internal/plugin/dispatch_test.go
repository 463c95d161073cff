package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"
)

// installPlugin writes a script plugin and its manifest under dir.
func installPlugin(t *testing.T, dir, name, script string, actions ...string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	manifest, _ := json.Marshal(Manifest{Name: name, Version: "1.0.0", Executable: "run.sh", Actions: actions})
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

type results struct {
	mu   sync.Mutex
	errs []error
	done chan struct{}
}

func newResults(n int) *results {
	return &results{done: make(chan struct{}, n)}
}

func (r *results) record(_ Job, _ *Response, err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *results) wait(t *testing.T, n int) []error {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for result %d", i+1)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func newTestDispatcher(t *testing.T, queue int, res *results) *Dispatcher {
	t.Helper()
	dir := t.TempDir()
	installPlugin(t, dir, "ok", `cat >/dev/null; echo '{"success":true}'`+"\n", "press")

	mgr := NewManager(dir)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	return NewDispatcher(mgr, NewExecutor(5*time.Second), queue, res.record)
}

func TestDispatcher_RunsJobs(t *testing.T) {
	res := newResults(3)
	d := newTestDispatcher(t, 8, res)
	d.Start(2)
	defer d.Close(context.Background())

	jobs := []Job{
		{Plugin: "ok", Request: &Request{Action: "press"}},
		{Plugin: "missing", Request: &Request{Action: "press"}},
		{Plugin: "ok", Request: &Request{Action: "click"}},
	}
	for _, j := range jobs {
		if err := d.Submit(j); err != nil {
			t.Fatalf("Submit() failed: %v", err)
		}
	}

	var ok, notFound, unsupported int
	for _, err := range res.wait(t, 3) {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrPluginNotFound):
			notFound++
		case errors.Is(err, ErrUnsupportedAction):
			unsupported++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || notFound != 1 || unsupported != 1 {
		t.Errorf("got ok=%d notFound=%d unsupported=%d", ok, notFound, unsupported)
	}
}

func TestDispatcher_QueueFull(t *testing.T) {
	res := newResults(2)
	d := newTestDispatcher(t, 1, res)

	job := Job{Plugin: "ok", Request: &Request{Action: "press"}}
	if err := d.Submit(job); err != nil {
		t.Fatalf("first Submit() failed: %v", err)
	}
	if err := d.Submit(job); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}

	// Close drains the queued job once a worker runs.
	d.Start(1)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if errs := res.wait(t, 1); errs[0] != nil {
		t.Errorf("queued job failed: %v", errs[0])
	}
}

func TestDispatcher_SubmitAfterClose(t *testing.T) {
	d := newTestDispatcher(t, 1, newResults(1))
	d.Start(1)
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := d.Submit(Job{Plugin: "ok", Request: &Request{Action: "press"}}); !errors.Is(err, ErrDispatcherClosed) {
		t.Errorf("expected ErrDispatcherClosed, got %v", err)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}
