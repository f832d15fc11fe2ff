package isle

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/joelreymont/hoist/internal/modules/isle/domain/shared/value_objects"
	"github.com/joelreymont/hoist/internal/modules/isle/ports"
)

type compileCase struct {
	Name          string            `toml:"name"`
	FileOrder     []string          `toml:"file_order"`
	WantFragments []string          `toml:"want_fragments"`
	WantErrors    []string          `toml:"want_errors"`
	Files         map[string]string `toml:"files"`
}

type compileFixture struct {
	Cases []compileCase `toml:"cases"`
}

func loadCompileCases(t *testing.T) []compileCase {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "compile_cases.toml"))
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	var fixture compileFixture
	if err := toml.Unmarshal(data, &fixture); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	if len(fixture.Cases) == 0 {
		t.Fatal("fixture contains no cases")
	}
	return fixture.Cases
}

func writeCaseFiles(t *testing.T, tc compileCase) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(tc.FileOrder))
	for _, name := range tc.FileOrder {
		content, ok := tc.Files[name]
		if !ok {
			t.Fatalf("case %q lists %q in file_order but has no content for it", tc.Name, name)
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestCompiler_Fixtures(t *testing.T) {
	for _, tc := range loadCompileCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			compiler := NewCompiler()
			paths := writeCaseFiles(t, tc)

			output, err := compiler.Compile(paths, ports.CompileOptions{Target: ports.TargetZig})

			if len(tc.WantErrors) > 0 {
				if err == nil {
					t.Fatalf("expected failure, got output:\n%s", output)
				}
				if output != "" {
					t.Error("generated code returned alongside errors")
				}
				var compileErrs *value_objects.CompileErrors
				if !errors.As(err, &compileErrs) {
					t.Fatalf("error type = %T, want *CompileErrors", err)
				}
				rendering := compileErrs.Error()
				for _, want := range tc.WantErrors {
					if !strings.Contains(rendering, want) {
						t.Errorf("diagnostics %q do not mention %q", rendering, want)
					}
				}
				return
			}

			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			for _, want := range tc.WantFragments {
				if !strings.Contains(output, want) {
					t.Errorf("output is missing %q\n%s", want, output)
				}
			}
		})
	}
}

func TestCompiler_UnreadableInputs(t *testing.T) {
	dir := t.TempDir()
	compiler := NewCompiler()

	missing1 := filepath.Join(dir, "missing1.isle")
	missing2 := filepath.Join(dir, "missing2.isle")
	_, err := compiler.Compile([]string{missing1, missing2}, ports.CompileOptions{})
	if err == nil {
		t.Fatal("expected an error for unreadable inputs")
	}

	var compileErrs *value_objects.CompileErrors
	if !errors.As(err, &compileErrs) {
		t.Fatalf("error type = %T, want *CompileErrors", err)
	}
	if compileErrs.Len() != 2 {
		t.Errorf("got %d diagnostics, want one per unreadable file", compileErrs.Len())
	}
	for _, diag := range compileErrs.All() {
		if diag.Kind() != value_objects.ErrorKindIO {
			t.Errorf("diagnostic kind = %v, want io", diag.Kind())
		}
	}
}

func TestCompiler_RecordsCompilationEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.isle")
	source := "(type T extern (primitive T))\n(decl f (T) T)\n(rule (f x) x)\n"
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	compiler := NewCompiler()
	if compiler.LastEvent() != nil {
		t.Error("event present before any compilation")
	}

	if _, err := compiler.Compile([]string{path}, ports.CompileOptions{Target: ports.TargetZig}); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	event := compiler.LastEvent()
	if event == nil {
		t.Fatal("no event recorded after compilation")
	}
	if event.EventID == "" {
		t.Error("event has no identifier")
	}
	if event.GetEventType() != "isle.ruleset.compiled" {
		t.Errorf("event type = %q", event.GetEventType())
	}
	if !event.Succeeded() {
		t.Error("successful run recorded as failed")
	}
	if event.DefCount != 3 || event.RuleCount != 1 {
		t.Errorf("counts = %d defs / %d rules, want 3 / 1", event.DefCount, event.RuleCount)
	}
	if event.Target != "zig" {
		t.Errorf("target = %q, want zig", event.Target)
	}
}

func TestCompiler_RustTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.isle")
	source := "(type T extern (primitive T))\n(decl f (T) T)\n(rule (f x) x)\n"
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := NewCompiler().Compile([]string{path}, ports.CompileOptions{Target: ports.TargetRust})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !strings.Contains(output, "pub fn f<C: Context>(ctx: &mut C, arg0: T) -> T {") {
		t.Errorf("Rust output missing constructor:\n%s", output)
	}
}
