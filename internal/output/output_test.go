package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("🔍", "Scanning sources...")

	// Then: output contains icon and message
	output := buf.String()
	assert.Contains(t, output, "🔍")
	assert.Contains(t, output, "Scanning sources...")
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "detail")
	assert.Equal(t, "   detail\n", buf.String())
}

func TestWriter_LevelIcons(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		icon  string
		msg   string
	}{
		{"success", func(w *Writer) { w.Success("Index saved") }, "✅", "Index saved"},
		{"successf", func(w *Writer) { w.Successf("%d keys", 3) }, "✅", "3 keys"},
		{"warning", func(w *Writer) { w.Warning("2 sources failed") }, "⚠️", "2 sources failed"},
		{"warningf", func(w *Writer) { w.Warningf("%s skipped", "a.jar") }, "⚠️", "a.jar skipped"},
		{"error", func(w *Writer) { w.Error("Failed to load") }, "❌", "Failed to load"},
		{"errorf", func(w *Writer) { w.Errorf("code %s", "ERR_203") }, "❌", "code ERR_203"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.write(New(buf))
			assert.Contains(t, buf.String(), tt.icon)
			assert.Contains(t, buf.String(), tt.msg)
		})
	}
}

func TestWriter_BufferIsPlain(t *testing.T) {
	// Given: a writer on a non-terminal
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing styled output
	w.Error("boom")
	w.Header("Stats")

	// Then: no escape sequences are written
	assert.False(t, w.useColor)
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.Equal(t, "❌ boom\nStats\n", buf.String())
}

func TestWriter_List(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).List([]string{"a.B", "a.C"})
	assert.Equal(t, "a.B\na.C\n", buf.String())
}

func TestWriter_List_Empty(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).List(nil)
	assert.Empty(t, buf.String())
}

func TestWriter_Fields_SortedAndAligned(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Fields(map[string]string{
		"values":     "12",
		"categories": "3",
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "  categories:"))
	assert.True(t, strings.HasPrefix(lines[1], "  values:"))
	assert.Equal(t, strings.Index(lines[0], "3"), strings.Index(lines[1], "12"))
}

func TestWriter_Code_PrintsCodeBlock(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Code("line1\nline2")
	assert.Equal(t, "\n  line1\n  line2\n\n", buf.String())
}

func TestWriter_Statusf_FormatsMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a formatted status message
	w.Statusf("📂", "Found %d units in %s", 42, "lib/app.jar")

	// Then: output contains formatted message
	assert.Contains(t, buf.String(), "Found 42 units in lib/app.jar")
}

func TestWriter_Newline_PrintsEmptyLine(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Newline()
	assert.Equal(t, "\n", buf.String())
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.True(t, DetectNoColor())
}
