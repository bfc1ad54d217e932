package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/LingHeChen/nodescript/value"
)

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(""), &stdout, &stderr)
	return strings.TrimSpace(stdout.String()), stderr.String(), code
}

func TestRunModes(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"-m", "expression", "-e", `{"name":"Upper","params":["hello"]}`}, `"HELLO"`},
		{[]string{"-m", "condition", "--var", "level=12", "-e", `{"name":"Greater","params":["level",10]}`}, `true`},
		{[]string{"-m", "condition", "-e", `False`}, `false`},
		{[]string{"-e", `{"name":"CacheVariable","params":["coins",5]}`}, "{\n  \"coins\": 5\n}"},
	}
	for _, tc := range cases {
		out, errOut, code := runCLI(t, tc.args...)
		if code != 0 {
			t.Fatalf("%v exited %d: %s", tc.args, code, errOut)
		}
		if out != tc.want {
			t.Errorf("%v printed %q, want %q", tc.args, out, tc.want)
		}
	}
}

func TestParseOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.yaml")
	src := "name: LoadScene\nparams: [Intro]\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	out, errOut, code := runCLI(t, "-p", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	got, err := value.ParseJSON([]byte(out))
	if err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if diff := cmp.Diff(value.MustParseJSON(`{"name":"LoadScene","params":["Intro"]}`), got); diff != "" {
		t.Errorf("parsed script (-want +got):\n%s", diff)
	}
}

func TestConfigAndFunctions(t *testing.T) {
	dir := t.TempDir()
	fns := `[{"name":"Double","value":{"name":"Math","params":["x*2"]}}]`
	if err := os.WriteFile(filepath.Join(dir, "fns.json"), []byte(fns), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := "[assets]\nroot = " + quote(dir) + "\nfunctions = [\"fns.json\"]\n\n" +
		"[[domain]]\nname = \"Level\"\ncomponents = [\"Player\"]\n"
	cfgPath := filepath.Join(dir, "game.toml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, code := runCLI(t, "-c", cfgPath, "-m", "expression",
		"-e", `{"name":"Double","params":{"x":21}}`)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "42" {
		t.Errorf("Double printed %q", out)
	}

	out, errOut, code = runCLI(t, "-c", cfgPath, "--receiver", "Level.Player", "-m", "expression",
		"-e", `{"name":"ReceiverName"}`)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != `"Level.Player"` {
		t.Errorf("ReceiverName printed %q", out)
	}

	if _, _, code := runCLI(t, "-c", cfgPath, "--receiver", "Level.HUD", "-e", "True"); code == 0 {
		t.Error("missing receiver should fail")
	}
}

func TestSampleScript(t *testing.T) {
	out, errOut, code := runCLI(t, "-c", "testdata/game.toml", "testdata/intro.yaml")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	got, err := value.ParseJSON([]byte(out))
	if err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	want := value.MustParseJSON(`{
		"bonus": 3,
		"coins": 30,
		"title": "Chapter 2 (hard)",
		"version_ok": true,
		"welcome": "Good morning, Ada"
	}`)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("session variables (-want +got):\n%s", diff)
	}
}

func TestRunErrors(t *testing.T) {
	bad := [][]string{
		{"-m", "sideways", "-e", "True"},
		{"--var", "novalue", "-e", "True"},
		{filepath.Join(t.TempDir(), "missing.json")},
	}
	for _, args := range bad {
		if _, _, code := runCLI(t, args...); code == 0 {
			t.Errorf("%v should fail", args)
		}
	}
	if out, _, code := runCLI(t, "--version"); code != 0 || !strings.Contains(out, version) {
		t.Errorf("--version printed %q (exit %d)", out, code)
	}
}

func TestIncomplete(t *testing.T) {
	cases := map[string]bool{
		`{"name":"Upper",`:       true,
		`{"name":"Upper"}`:       false,
		`["a", "]"`:              true,
		`"unterminated`:          true,
		`True`:                   false,
		`:mode {`:                false,
		"[1,\n2]":                false,
		`{"s":"brace } inside"}`: false,
	}
	for src, want := range cases {
		if got := incomplete(src); got != want {
			t.Errorf("incomplete(%q) = %v, want %v", src, got, want)
		}
	}
}

func quote(s string) string {
	return `'` + s + `'`
}
