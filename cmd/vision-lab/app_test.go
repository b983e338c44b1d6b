package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/vision-lab/internal/config"
)

// runApp runs the CLI with args and captures both streams. The exit code
// handed to cli.OsExiter is returned instead of exiting the test binary.
func runApp(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	t.Setenv("VISION_LAB_LOG_LEVEL", "")

	exiter := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = exiter })

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	if err := app.RunContext(context.Background(), append([]string{"vision-lab"}, args...)); err != nil && code == 0 {
		code = 1
	}
	return out.String(), errOut.String(), code
}

func TestVersion(t *testing.T) {
	stdout, _, code := runApp(t, "version")
	if code != 0 || !strings.HasPrefix(stdout, "vision-lab dev\n") || !strings.Contains(stdout, "Git commit: unknown") {
		t.Errorf("version output %q (code %d)", stdout, code)
	}
}

func TestConfigDump(t *testing.T) {
	stdout, _, code := runApp(t, "config", "dump", "capstone")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	var cfg config.Config
	if err := yaml.Unmarshal([]byte(stdout), &cfg); err != nil {
		t.Fatalf("dump is not YAML: %v", err)
	}
	if cfg.Input != "street_scene.jpg" || len(cfg.Targets) != 2 {
		t.Errorf("unexpected dump: %+v", cfg)
	}

	_, stderr, code := runApp(t, "config", "dump", "nope")
	if code != 1 || !strings.Contains(stderr, "❌") || !strings.Contains(stderr, "unknown preset") {
		t.Errorf("unknown preset: code=%d stderr=%q", code, stderr)
	}
}

func TestConfigDump_Out(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuned.yaml")
	stdout, _, code := runApp(t, "config", "dump", "--out", path, "assignment3")
	if code != 0 || !strings.Contains(stdout, "Config saved: "+path) {
		t.Fatalf("code=%d stdout=%q", code, stdout)
	}
	want, _ := config.Preset("assignment3")
	got, err := config.Load(path, nil)
	if err != nil {
		t.Fatalf("saved config does not load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("saved config mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignment1_MissingInput(t *testing.T) {
	dir := t.TempDir()
	_, stderr, code := runApp(t, "assignment1",
		"--input", filepath.Join(dir, "image.jpg"),
		"--output", filepath.Join(dir, "out.jpg"))
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if !strings.Contains(stderr, "❌") || !strings.Contains(stderr, "image not found") {
		t.Errorf("stderr %q", stderr)
	}
	if !strings.Contains(stderr, "[1/8]") {
		t.Error("progress line missing before the failure")
	}
}

func TestResolveConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	tuned := filepath.Join(dir, "tuned.yaml")
	if err := os.WriteFile(tuned, []byte("max_dimension: 640\ninput: from-file.jpg\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var got *config.Config
	app := newApp()
	app.Writer, app.ErrWriter = &bytes.Buffer{}, &bytes.Buffer{}
	app.Commands = []*cli.Command{{
		Name:  "probe",
		Flags: runFlags(),
		Action: func(c *cli.Context) error {
			var err error
			got, err = resolveConfig(c, "capstone")
			return err
		},
	}}
	args := []string{"vision-lab", "probe", "--config", tuned, "--input", "flag.jpg", "--no-monitor", "--report-file", "r.txt"}
	if err := app.RunContext(context.Background(), args); err != nil {
		t.Fatal(err)
	}
	if got.Input != "flag.jpg" {
		t.Errorf("flag should win over file: Input = %q", got.Input)
	}
	if got.MaxDimension != 640 {
		t.Errorf("file value lost: MaxDimension = %d", got.MaxDimension)
	}
	if got.Monitor.Enabled || got.Report.File != "r.txt" || got.Output != "capstone_output.jpg" {
		t.Errorf("unexpected config: %+v", got)
	}
}

func TestBatch_RequiresFolder(t *testing.T) {
	_, stderr, code := runApp(t, "batch")
	if code != 1 || !strings.Contains(stderr, "folder argument") {
		t.Errorf("code=%d stderr=%q", code, stderr)
	}
}
