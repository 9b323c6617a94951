package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"pkt.systems/companion/schema"
	"pkt.systems/pslog"
)

func newCaptureLogger(capture *logCapture) pslog.Logger {
	return pslog.NewWithOptions(capture, pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       true,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	})
}

func TestWithComponentAddsFields(t *testing.T) {
	capture := &logCapture{}
	log := WithComponent(newCaptureLogger(capture), schema.ComponentID{NamespaceID: "com.music.app", MemberID: "PlayerActivity"})
	log.Info("hello")

	entry := capture.firstEntry(t)
	if entry["namespace"] != "com.music.app" {
		t.Fatalf("expected namespace field, got %+v", entry)
	}
	if entry["member"] != "PlayerActivity" {
		t.Fatalf("expected member field, got %+v", entry)
	}
}

func TestWithComponentSkipsEmptyMember(t *testing.T) {
	capture := &logCapture{}
	log := WithComponent(newCaptureLogger(capture), schema.ComponentID{NamespaceID: "firefox"})
	log.Info("hello")

	entry := capture.firstEntry(t)
	if _, ok := entry["member"]; ok {
		t.Fatalf("did not expect member for namespace-only id")
	}
}

func TestWithRequestContextDeduplicates(t *testing.T) {
	capture := &logCapture{}
	logger := newCaptureLogger(capture).With("request", "r1")
	ctx := ContextWithRequestLogger(context.Background(), logger, "r1")
	WithRequestContext(ctx, "r1").Info("hello")

	line := capture.buf.String()
	if n := bytes.Count([]byte(line), []byte(`"request"`)); n != 1 {
		t.Fatalf("expected request field once, got %d in %s", n, line)
	}
}

func TestWithRequestAddsField(t *testing.T) {
	capture := &logCapture{}
	WithRequest(newCaptureLogger(capture), "abc").Info("hello")
	entry := capture.firstEntry(t)
	if entry["request"] != "abc" {
		t.Fatalf("expected request field, got %+v", entry)
	}
}

type logCapture struct {
	buf bytes.Buffer
}

func (c *logCapture) Write(p []byte) (int, error) {
	return c.buf.Write(p)
}

func (c *logCapture) firstEntry(t *testing.T) map[string]any {
	t.Helper()
	data := c.buf.Bytes()
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		idx = len(data)
	}
	line := bytes.TrimSpace(data[:idx])
	entry := map[string]any{}
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("parse log entry: %v", err)
	}
	return entry
}
