package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pose"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/testdata"
)

const flipDefinition = `{"family":"palm_flip","palm_flip":{"period":0.05}}`

// recordedEvents is what a default palm flip at a 50ms period emits for each
// embedded trace.
var recordedEvents = map[string][]gesture.ReplayEvent{
	"palm_flip": {
		{At: 0.1, Kind: gesture.Activated, Reason: gesture.ReasonCompleted},
		{At: 0.15, Kind: gesture.Deactivated, Reason: gesture.ReasonReleased},
	},
	"palm_flip_slow": {
		{At: 0.15, Kind: gesture.Abandoned, Reason: gesture.ReasonTimeout},
	},
	"palm_flip_reversed": {
		{At: 0.15, Kind: gesture.Abandoned, Reason: gesture.ReasonReversed},
	},
	"palm_flip_lost": {
		{At: 0.1, Kind: gesture.Activated, Reason: gesture.ReasonCompleted},
		{At: 0.15, Kind: gesture.Deactivated, Reason: gesture.ReasonTrackingLost},
	},
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func doJSON(t *testing.T, client *http.Client, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewBufferString(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s decode error = %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func TestE2E_EmbeddedTracesLoad(t *testing.T) {
	names := testdata.TraceNames()
	if len(names) != len(recordedEvents) {
		t.Fatalf("TraceNames() = %v, want %d traces", names, len(recordedEvents))
	}
	for _, name := range names {
		trace, err := testdata.LoadTrace(name)
		if err != nil {
			t.Errorf("LoadTrace(%q) error = %v", name, err)
			continue
		}
		if len(trace) == 0 {
			t.Errorf("trace %q is empty", name)
		}
		if _, ok := recordedEvents[name]; !ok {
			t.Errorf("trace %q has no expected events", name)
		}
	}

	if _, err := testdata.LoadTrace("missing"); err == nil {
		t.Error("LoadTrace(missing) should fail")
	}
}

func TestE2E_ReplayRecordedTraces(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s := newStore(t)
	ts := httptest.NewServer(server.New(server.Config{Store: s}))
	defer ts.Close()
	client := ts.Client()

	var created struct {
		ID string `json:"id"`
	}
	code := doJSON(t, client, http.MethodPost, ts.URL+"/api/recognizers",
		`{"name":"flip","definition":`+flipDefinition+`}`, &created)
	if code != http.StatusCreated {
		t.Fatalf("create recognizer status = %d", code)
	}
	base := ts.URL + "/api/recognizers/" + created.ID

	def, err := gesture.ParseDefinition([]byte(flipDefinition))
	if err != nil {
		t.Fatal(err)
	}

	for name, want := range recordedEvents {
		t.Run(name, func(t *testing.T) {
			trace, err := testdata.LoadTrace(name)
			if err != nil {
				t.Fatal(err)
			}

			got, err := gesture.Replay(def, trace)
			if err != nil {
				t.Fatalf("Replay() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Replay() = %+v, want %+v", got, want)
			}

			raw, _ := testdata.RawTrace(name)
			var stored struct {
				ID int64 `json:"id"`
			}
			body := fmt.Sprintf(`{"name":%q,"trace":%s}`, name, raw)
			if code := doJSON(t, client, http.MethodPost, base+"/traces", body, &stored); code != http.StatusCreated {
				t.Fatalf("upload trace status = %d", code)
			}

			var replayed struct {
				Events []gesture.ReplayEvent `json:"events"`
				Frames int                   `json:"frames"`
			}
			code := doJSON(t, client, http.MethodPost, base+"/replay", fmt.Sprintf(`{"trace_id":%d}`, stored.ID), &replayed)
			if code != http.StatusOK {
				t.Fatalf("replay status = %d", code)
			}
			if replayed.Frames != len(trace) {
				t.Errorf("replay frames = %d, want %d", replayed.Frames, len(trace))
			}
			if !reflect.DeepEqual(replayed.Events, want) {
				t.Errorf("API replay = %+v, want %+v", replayed.Events, want)
			}
		})
	}

	var list struct {
		Traces []struct {
			Name string `json:"name"`
		} `json:"traces"`
	}
	if code := doJSON(t, client, http.MethodGet, base+"/traces", "", &list); code != http.StatusOK {
		t.Fatalf("list traces status = %d", code)
	}
	if len(list.Traces) != len(recordedEvents) {
		t.Errorf("stored %d traces, want %d", len(list.Traces), len(recordedEvents))
	}
}

func TestE2E_ActionBinding(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s := newStore(t)
	ts := httptest.NewServer(server.New(server.Config{Store: s}))
	defer ts.Close()
	client := ts.Client()

	var created struct {
		ID string `json:"id"`
	}
	if code := doJSON(t, client, http.MethodPost, ts.URL+"/api/recognizers",
		`{"name":"flip","definition":`+flipDefinition+`}`, &created); code != http.StatusCreated {
		t.Fatalf("create recognizer status = %d", code)
	}

	bindings := []string{
		fmt.Sprintf(`{"recognizer_id":%q,"plugin_name":"keyboard","action_name":"media","config":{"key":"play-pause"}}`, created.ID),
		fmt.Sprintf(`{"recognizer_id":%q,"plugin_name":"keyboard","action_name":"keystroke","trigger":"deactivated","config":{"key":"escape"}}`, created.ID),
	}
	for _, body := range bindings {
		if code := doJSON(t, client, http.MethodPost, ts.URL+"/api/actions", body, nil); code != http.StatusCreated {
			t.Fatalf("create action status = %d for %s", code, body)
		}
	}

	bad := fmt.Sprintf(`{"recognizer_id":%q,"plugin_name":"keyboard","action_name":"media","trigger":"abandoned"}`, created.ID)
	if code := doJSON(t, client, http.MethodPost, ts.URL+"/api/actions", bad, nil); code != http.StatusBadRequest {
		t.Errorf("abandoned trigger status = %d, want %d", code, http.StatusBadRequest)
	}

	var list struct {
		Actions []struct {
			RecognizerID string `json:"recognizer_id"`
			PluginName   string `json:"plugin_name"`
			ActionName   string `json:"action_name"`
			Trigger      string `json:"trigger"`
			Enabled      bool   `json:"enabled"`
		} `json:"actions"`
	}
	if code := doJSON(t, client, http.MethodGet, ts.URL+"/api/actions", "", &list); code != http.StatusOK {
		t.Fatalf("list actions status = %d", code)
	}
	if len(list.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(list.Actions))
	}
	triggers := map[string]bool{}
	for _, a := range list.Actions {
		if a.RecognizerID != created.ID || a.PluginName != "keyboard" || !a.Enabled {
			t.Errorf("unexpected action: %+v", a)
		}
		triggers[a.Trigger] = true
	}
	if !triggers[store.TriggerActivated] || !triggers[store.TriggerDeactivated] {
		t.Errorf("expected both triggers, got %v", triggers)
	}

	activated, err := s.Actions().ListFor(created.ID, store.TriggerActivated)
	if err != nil {
		t.Fatal(err)
	}
	if len(activated) != 1 || activated[0].ActionName != "media" {
		t.Errorf("ListFor(activated) = %+v", activated)
	}
}

func TestE2E_LiveDetectionToggle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s := newStore(t)
	sensor := pose.NewScriptedSensor()
	sensor.Set(pose.Sample{PalmNormal: pose.Down, Tracked: true})

	a := app.New(app.Config{Store: s, Sensor: sensor, FrameInterval: 5 * time.Millisecond, EnabledByDefault: true})
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	events, cancel := a.Subscribe(16)
	defer cancel()

	ts := httptest.NewServer(server.New(server.Config{Store: s, Runtime: a, Events: a}))
	defer ts.Close()
	client := ts.Client()

	var created struct {
		ID string `json:"id"`
	}
	if code := doJSON(t, client, http.MethodPost, ts.URL+"/api/recognizers",
		`{"name":"flip","definition":`+flipDefinition+`}`, &created); code != http.StatusCreated {
		t.Fatalf("create recognizer status = %d", code)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		var state struct {
			Stage string `json:"stage"`
		}
		doJSON(t, client, http.MethodGet, ts.URL+"/api/recognizers/"+created.ID+"/state", "", &state)
		if state.Stage == "palm_down" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("recognizer never saw the palm down, stage %q", state.Stage)
		}
		time.Sleep(10 * time.Millisecond)
	}

	sensor.Set(pose.Sample{PalmNormal: pose.Up, Tracked: true})
	expect(t, events, gesture.Activated, gesture.ReasonCompleted)

	if code := doJSON(t, client, http.MethodPut, ts.URL+"/api/detection", `{"enabled":false}`, nil); code != http.StatusOK {
		t.Fatalf("disable detection status = %d", code)
	}
	expect(t, events, gesture.Deactivated, gesture.ReasonStopped)

	// The disabled state survives a restart of the runtime.
	restarted := app.New(app.Config{Store: s, Sensor: sensor, EnabledByDefault: true})
	if restarted.IsEnabled() {
		t.Error("detection setting was not persisted")
	}

	var journal struct {
		Events []store.Event `json:"events"`
	}
	if code := doJSON(t, client, http.MethodGet, ts.URL+"/api/events?recognizer_id="+created.ID, "", &journal); code != http.StatusOK {
		t.Fatalf("list events status = %d", code)
	}
	if len(journal.Events) != 2 {
		t.Errorf("journal has %d events, want 2", len(journal.Events))
	}
}

func expect(t *testing.T, events <-chan app.Event, kind gesture.Kind, reason gesture.Reason) {
	t.Helper()
	select {
	case ev := <-events:
		if ev.Kind != kind || ev.Reason != reason {
			t.Fatalf("event = %s/%s, want %s/%s", ev.Kind, ev.Reason, kind, reason)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", kind)
	}
}
