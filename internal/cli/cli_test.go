package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/gogpu/scenesync"
)

const script = `
width: 32
height: 32
scene:
  id: root
  children:
    - {id: a, rect: [0, 0, 8, 8], color: "#00ff00"}
    - id: g
      children:
        - {id: b, rect: [8, 8, 8, 8]}
frames:
  - []
  - - {op: translate, node: a, x: 4, y: 4}
  - - {op: remove, parent: root, child: g}
`

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { scenesync.SetLogger(nil) })
	var out, errOut bytes.Buffer
	root := RootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	path := writeScript(t, script)
	png := filepath.Join(t.TempDir(), "out.png")

	out, err := execute(t, "run", path, "--png", png, "--slow-assert")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d stat lines, want 3:\n%s", len(lines), out)
	}
	for i, l := range lines {
		if !strings.HasPrefix(l, "frame "+string(rune('1'+i))+":") {
			t.Errorf("line %d = %q", i, l)
		}
	}
	if !strings.Contains(lines[2], "1 instances") {
		t.Errorf("last frame did not dispose the removed group: %q", lines[2])
	}
	if fi, err := os.Stat(png); err != nil || fi.Size() == 0 {
		t.Errorf("png not written: %v", err)
	}
}

func TestRunCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown node", "scene: {id: r}\nframes: [[{op: visible, node: z, value: false}]]", "unknown node"},
		{"bad yaml", "scene: [", "decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, "run", writeScript(t, tt.src))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
	if _, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing script accepted")
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("v1.2.3", "abc123", "")
	defer SetVersion(scenesync.Version, "", "")

	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "scenesync v1.2.3") || !strings.Contains(out, "commit: abc123") {
		t.Errorf("version output = %q", out)
	}
	if strings.Contains(out, "built:") {
		t.Errorf("empty build date printed: %q", out)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("expected the default logger without one attached")
	}
	l := newLogger(&bytes.Buffer{}, log.InfoLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Error("attached logger not returned")
	}
}
