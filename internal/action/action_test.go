package action

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dyne/rot13/internal/log"
)

// fakeCore records every boundary call in memory.
type fakeCore struct {
	inputs  map[string]string
	outputs map[string]string
	failed  []string
	logs    []string
}

func newFakeCore() *fakeCore {
	return &fakeCore{inputs: map[string]string{}, outputs: map[string]string{}}
}

func (c *fakeCore) GetInput(name string) (string, bool) {
	v, ok := c.inputs[name]
	return v, ok
}

func (c *fakeCore) SetOutput(name, value string) error {
	c.outputs[name] = value
	return nil
}

func (c *fakeCore) SetFailed(message string) {
	c.failed = append(c.failed, message)
}

func (c *fakeCore) Infof(format string, args ...any) {
	c.logs = append(c.logs, format)
}

func TestRunHappyPath(t *testing.T) {
	core := newFakeCore()
	core.inputs[InputName] = "Hello, World!"
	if err := Run(core); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := core.outputs[OutputName]; got != "Uryyb, Jbeyq!" {
		t.Fatalf("unexpected output: %q", got)
	}
	if len(core.outputs) != 1 {
		t.Fatalf("expected exactly one output write, got %d", len(core.outputs))
	}
	if len(core.failed) != 0 {
		t.Fatalf("unexpected failure reports: %v", core.failed)
	}
	if len(core.logs) == 0 {
		t.Fatal("expected a diagnostic log line")
	}
}

func TestRunEmptyInput(t *testing.T) {
	core := newFakeCore()
	core.inputs[InputName] = ""
	if err := Run(core); err != nil {
		t.Fatalf("run: %v", err)
	}
	got, ok := core.outputs[OutputName]
	if !ok || got != "" {
		t.Fatalf("empty input must produce one empty output write, got %q (present=%v)", got, ok)
	}
}

func TestRunMissingInput(t *testing.T) {
	core := newFakeCore()
	err := Run(core)
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Input != InputName {
		t.Fatalf("wrong input named: %q", verr.Input)
	}
	if len(core.failed) != 1 {
		t.Fatalf("expected exactly one failure report, got %v", core.failed)
	}
	if len(core.outputs) != 0 {
		t.Fatalf("no output may be written on failure, got %v", core.outputs)
	}
}

func TestValidatePassthrough(t *testing.T) {
	for _, in := range []string{"", "abc", "line1\nline2"} {
		got, err := Validate(in, true)
		if err != nil {
			t.Fatalf("Validate(%q): %v", in, err)
		}
		if got != in {
			t.Fatalf("value changed: %q -> %q", in, got)
		}
	}
}

func TestEnvCoreRoundTrip(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "output")
	t.Setenv("INPUT_STRING", "abcXYZ")
	var stdout bytes.Buffer
	core := &EnvCore{OutputPath: outPath, Stdout: &stdout, Logger: log.Discard()}
	if err := Run(core); err != nil {
		t.Fatalf("run: %v", err)
	}
	if core.Failed() {
		t.Fatal("unexpected failed state")
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output file: %v", err)
	}
	if string(data) != "result=nopKLM\n" {
		t.Fatalf("unexpected output file: %q", data)
	}
}

func TestEnvCoreMissingInput(t *testing.T) {
	// INPUT_STRING must be absent for this test; Setenv arranges restore.
	t.Setenv("INPUT_STRING", "placeholder")
	os.Unsetenv("INPUT_STRING")
	var stdout bytes.Buffer
	core := &EnvCore{OutputPath: filepath.Join(t.TempDir(), "output"), Stdout: &stdout, Logger: log.Discard()}
	if err := Run(core); err == nil {
		t.Fatal("expected validation error")
	}
	if !core.Failed() {
		t.Fatal("failure not recorded")
	}
	if !strings.HasPrefix(stdout.String(), "::error::") {
		t.Fatalf("expected workflow error command, got %q", stdout.String())
	}
}

func TestFormatOutputMultiline(t *testing.T) {
	got := formatOutput("result", "a\nb")
	if !strings.HasPrefix(got, "result<<ghadelimiter_") {
		t.Fatalf("expected heredoc form, got %q", got)
	}
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 4 || lines[1] != "a" || lines[2] != "b" {
		t.Fatalf("malformed heredoc block: %q", got)
	}
	delimiter := strings.TrimPrefix(lines[0], "result<<")
	if lines[3] != delimiter {
		t.Fatalf("delimiter mismatch: %q vs %q", lines[3], delimiter)
	}
}

func TestEscapeData(t *testing.T) {
	if got := escapeData("50% done\nnext"); got != "50%25 done%0Anext" {
		t.Fatalf("unexpected escape: %q", got)
	}
}
