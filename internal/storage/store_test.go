package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/san-kum/optcon/internal/dynamo"
)

func sampleResult() *dynamo.Result {
	return &dynamo.Result{
		States:     []dynamo.State{{1.0, 0.0}, {0.9, -0.1}, {0.7, -0.25}},
		Controls:   []dynamo.Control{{0.5}, {-0.125}},
		Times:      []float64{0.0, 0.01, 0.02},
		Metrics:    map[string]float64{"control_effort": 0.00625},
		StepsTaken: 2,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{
		Kind:        "shooting",
		Model:       "pendulum",
		Integrator:  "rk4",
		Spline:      "zoh",
		Shots:       2,
		DefectNorms: []float64{0, 1e-3},
	}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := uuid.Parse(runID); err != nil {
		t.Errorf("run id %q is not a uuid: %v", runID, err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.ID != runID || meta.Model != "pendulum" || meta.Spline != "zoh" || meta.Shots != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["control_effort"] != 0.00625 {
		t.Errorf("metrics not taken from result: %v", meta.Metrics)
	}
	if len(meta.DefectNorms) != 2 || meta.DefectNorms[1] != 1e-3 {
		t.Errorf("defect norms %v", meta.DefectNorms)
	}

	result, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}
	want := sampleResult()
	if len(result.States) != 3 || len(result.Controls) != 2 || result.StepsTaken != 2 {
		t.Fatalf("got %d states, %d controls", len(result.States), len(result.Controls))
	}
	for i := range want.States {
		if result.Times[i] != want.Times[i] {
			t.Errorf("time %d: %v, want %v", i, result.Times[i], want.Times[i])
		}
		for j := range want.States[i] {
			if result.States[i][j] != want.States[i][j] {
				t.Errorf("state %d: %v, want %v", i, result.States[i], want.States[i])
			}
		}
	}
	if result.Controls[1][0] != -0.125 {
		t.Errorf("control 1: %v", result.Controls[1])
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, model := range []string{"pendulum", "cartpole"} {
		if _, err := st.Save(RunMetadata{Kind: "rollout", Model: model}, sampleResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	// stray directory without metadata
	if err := os.Mkdir(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Timestamp.Before(runs[1].Timestamp) {
		t.Error("runs should be listed newest first")
	}
}

func TestStoreFileStructure(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runID, err := st.Save(RunMetadata{Model: "spring_mass"}, sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, runID, "states.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "time,x0,x1,u0" {
		t.Errorf("header %q", lines[0])
	}
	if lines[3] != "0.02,0.7,-0.25,0" {
		t.Errorf("last row %q", lines[3])
	}

	if _, err := os.Stat(filepath.Join(dir, runID, "metadata.json")); err != nil {
		t.Error("metadata.json not created")
	}
}

func TestLoadMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); err == nil {
		t.Error("expected error")
	}
	if _, err := st.LoadResult("nope"); err == nil {
		t.Error("expected error")
	}
}

func TestExport(t *testing.T) {
	var buf bytes.Buffer
	if err := Export(&buf, RunMetadata{Model: "pendulum"}, sampleResult()); err != nil {
		t.Fatal(err)
	}

	var doc ExportData
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Meta.Model != "pendulum" || len(doc.States) != 3 || len(doc.Controls) != 2 {
		t.Errorf("unexpected export %+v", doc)
	}
}
