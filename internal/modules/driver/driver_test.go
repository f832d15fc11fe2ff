package driver

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/joelreymont/hoist/internal/modules/isle/domain/shared/value_objects"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

// stubCompiler returns canned results and records how it was invoked.
type stubCompiler struct {
	output     string
	errs       *value_objects.CompileErrors
	calls      int
	gotFiles   []string
	gotOptions ports.CompileOptions
}

func (s *stubCompiler) Compile(inputFiles []string, options ports.CompileOptions) (string, error) {
	s.calls++
	s.gotFiles = inputFiles
	s.gotOptions = options
	if s.errs != nil {
		return "", s.errs
	}
	return s.output, nil
}

func failingCompiler(messages ...string) *stubCompiler {
	errs := value_objects.NewCompileErrors()
	for _, message := range messages {
		errs.Append(value_objects.NewSourceLocation("a.isle", 1, 1, 0),
			value_objects.ErrorKindSemantic, message)
	}
	return &stubCompiler{errs: errs}
}

func TestParseInvocation(t *testing.T) {
	tests := []struct {
		name      string
		argv      []string
		wantFiles []string
		wantErr   bool
	}{
		{
			name:    "no arguments beyond program name",
			argv:    []string{"islec"},
			wantErr: true,
		},
		{
			name:      "single input file",
			argv:      []string{"islec", "rules.isle"},
			wantFiles: []string{"rules.isle"},
		},
		{
			name:      "multiple files keep order",
			argv:      []string{"islec", "a.isle", "b.isle", "c.isle"},
			wantFiles: []string{"a.isle", "b.isle", "c.isle"},
		},
		{
			name:      "paths are opaque, no extension check",
			argv:      []string{"islec", "not-a-rule-file.txt"},
			wantFiles: []string{"not-a-rule-file.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := ParseInvocation(tt.argv)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected usage error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInvocation() error = %v", err)
			}
			if !reflect.DeepEqual(files, tt.wantFiles) {
				t.Errorf("ParseInvocation() = %v, want %v", files, tt.wantFiles)
			}
		})
	}
}

func TestUsageErrorMessage(t *testing.T) {
	_, err := ParseInvocation([]string{"custom-name"})
	if err == nil {
		t.Fatal("expected usage error, got nil")
	}
	message := err.Error()
	if !strings.HasPrefix(message, "Usage:") {
		t.Errorf("usage message %q does not start with Usage:", message)
	}
	if !strings.Contains(message, "custom-name") {
		t.Errorf("usage message %q does not echo the invocation name", message)
	}
	if !strings.Contains(message, "<input.isle> [<input2.isle> ...]") {
		t.Errorf("usage message %q does not show the argument pattern", message)
	}
}

func TestRun_UsageFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	compiler := &stubCompiler{output: "unused"}

	code := Run([]string{"islec"}, &stdout, &stderr, compiler)

	if code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout not empty on usage failure: %q", stdout.String())
	}
	if !strings.HasPrefix(stderr.String(), "Usage:") {
		t.Errorf("stderr %q does not start with Usage:", stderr.String())
	}
	if compiler.calls != 0 {
		t.Errorf("compiler invoked %d time(s) on usage failure, want 0", compiler.calls)
	}
}

func TestRun_Success(t *testing.T) {
	var stdout, stderr bytes.Buffer
	compiler := &stubCompiler{output: "fn foo() {}"}

	code := Run([]string{"islec", "rules.isle"}, &stdout, &stderr, compiler)

	if code != ExitSuccess {
		t.Errorf("exit code = %d, want %d", code, ExitSuccess)
	}
	if got := stdout.String(); got != "fn foo() {}\n" {
		t.Errorf("stdout = %q, want %q", got, "fn foo() {}\n")
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr not empty on success: %q", stderr.String())
	}
	if compiler.calls != 1 {
		t.Errorf("compiler invoked %d time(s), want exactly 1", compiler.calls)
	}
}

func TestRun_CompileFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	compiler := failingCompiler("unknown type \"Inst\"", "unbound variable \"x\"")

	code := Run([]string{"islec", "a.isle", "b.isle"}, &stdout, &stderr, compiler)

	if code != ExitFailure {
		t.Errorf("exit code = %d, want %d", code, ExitFailure)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout not empty on compile failure: %q", stdout.String())
	}
	got := stderr.String()
	if !strings.HasPrefix(got, "ISLE compilation failed:\n") {
		t.Errorf("stderr %q does not start with the failure header", got)
	}
	rendering := strings.TrimPrefix(got, "ISLE compilation failed:\n")
	if strings.TrimSpace(rendering) == "" {
		t.Error("error rendering after the header is empty")
	}
	if !strings.Contains(rendering, "unknown type") || !strings.Contains(rendering, "unbound variable") {
		t.Errorf("error rendering %q is missing diagnostics", rendering)
	}
}

func TestRun_ArgumentOrderPreserved(t *testing.T) {
	var stdout, stderr bytes.Buffer
	compiler := &stubCompiler{output: "ok"}

	Run([]string{"islec", "a.isle", "b.isle"}, &stdout, &stderr, compiler)

	want := []string{"a.isle", "b.isle"}
	if !reflect.DeepEqual(compiler.gotFiles, want) {
		t.Errorf("compiler received %v, want %v", compiler.gotFiles, want)
	}
}

func TestRun_OptionsAreFixed(t *testing.T) {
	first := &stubCompiler{output: "ok"}
	second := &stubCompiler{output: "ok"}
	var discard bytes.Buffer

	Run([]string{"islec", "a.isle"}, &discard, &discard, first)
	Run([]string{"islec", "b.isle", "c.isle"}, &discard, &discard, second)

	if !reflect.DeepEqual(first.gotOptions, second.gotOptions) {
		t.Errorf("options differ across runs: %+v vs %+v", first.gotOptions, second.gotOptions)
	}
	if first.gotOptions.Target != ports.TargetZig {
		t.Errorf("target = %v, want %v", first.gotOptions.Target, ports.TargetZig)
	}
	if first.gotOptions.ExcludeGlobalAllowPragmas {
		t.Error("ExcludeGlobalAllowPragmas = true, want false")
	}
	if len(first.gotOptions.Prefixes) != 0 {
		t.Errorf("prefixes = %v, want empty", first.gotOptions.Prefixes)
	}
}
