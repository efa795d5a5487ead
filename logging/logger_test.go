package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutBufferDropsOversized(t *testing.T) {
	large := bytes.NewBuffer(make([]byte, 0, maxPooledBuffer+1))
	large.WriteString("payload")
	putBuffer(large)
	// 超限的缓冲区不回池，内容原样保留
	assert.Equal(t, "payload", large.String())

	small := new(bytes.Buffer)
	small.WriteString("payload")
	putBuffer(small)
	assert.Zero(t, small.Len())
}

func TestDetachCopies(t *testing.T) {
	buf := getBuffer()
	buf.WriteString("first")
	out := detach(buf)
	putBuffer(buf)

	reused := getBuffer()
	reused.WriteString("second")
	defer putBuffer(reused)

	assert.Equal(t, "first", string(out))
}

func TestTextFormatterLine(t *testing.T) {
	f := NewTextFormatter()
	f.ColorOutput = false

	out, err := f.Format(&LogEntry{
		Time:     time.Now(),
		Level:    LogLevelWarn,
		Category: "orders",
		Message:  "slow query",
		Fields:   []Field{{Key: "ms", Value: 120}},
	})
	require.NoError(t, err)

	line := string(out)
	assert.True(t, strings.HasSuffix(line, "}\n"))
	assert.Equal(t, 1, strings.Count(line, "\n"))
	assert.Contains(t, line, "WARN [orders] slow query {ms=120}")
}

type statusCode int

func (s statusCode) String() string { return "status-" + strings.Repeat("x", int(s)) }

func TestJsonFormatterLine(t *testing.T) {
	out, err := NewJsonFormatter().Format(&LogEntry{
		Time:    time.Now(),
		Level:   LogLevelError,
		Message: "<script> & co",
		Fields: []Field{
			{Key: "err", Value: errors.New("boom")},
			{Key: "code", Value: statusCode(2)},
		},
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasSuffix(out, []byte("}\n")))
	assert.Equal(t, 1, bytes.Count(out, []byte("\n")))
	assert.Contains(t, string(out), `"msg":"<script> & co"`)

	var data map[string]any
	require.NoError(t, json.Unmarshal(out, &data))
	assert.Equal(t, "ERROR", data["level"])
	assert.NotContains(t, data, "category")
	assert.Equal(t, map[string]any{"err": "boom", "code": "status-xx"}, data["fields"])
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedBuffer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *lockedBuffer) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

type rawFormatter struct{}

func (rawFormatter) Format(entry *LogEntry) ([]byte, error) {
	if entry.Message == "bad" {
		return nil, errors.New("cannot format")
	}
	return []byte(entry.Message), nil
}

func TestAsyncWriterTerminatesLines(t *testing.T) {
	out := &lockedBuffer{}
	w := NewAsyncWriter(out, rawFormatter{}, 4)

	var errs []error
	w.SetErrorHandler(func(err error) { errs = append(errs, err) })

	for _, msg := range []string{"a", "b\n", "bad", ""} {
		w.WriteLog(&LogEntry{Message: msg})
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.Equal(t, "a\nb\n\n", out.String())
	require.Len(t, errs, 1)
	assert.EqualError(t, errs[0], "cannot format")
}

func TestAsyncWriterKeepsFormatterNewline(t *testing.T) {
	out := &lockedBuffer{}
	w := NewAsyncWriter(out, NewJsonFormatter(), 8)
	for i := 0; i < 5; i++ {
		w.WriteLog(&LogEntry{Time: time.Now(), Level: LogLevelInfo, Message: "async"})
	}
	require.NoError(t, w.Close())

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, 5)
	for _, line := range lines {
		assert.NotEmpty(t, line)
	}
}

func TestNewConsoleFactory(t *testing.T) {
	factory, err := NewConsoleFactory("Debug", "JSON")
	require.NoError(t, err)
	assert.NotNil(t, factory.CreateLogger("test"))
	require.NoError(t, factory.Close())

	factory, err = NewConsoleFactory("loud", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
	assert.Contains(t, err.Error(), "xml")
	// 配置有误时仍返回可用的工厂
	require.NotNil(t, factory)
	assert.NotNil(t, factory.CreateLogger("fallback"))
	_ = factory.Close()
}

func BenchmarkAsyncLogging(b *testing.B) {
	w := NewAsyncWriter(io.Discard, NewTextFormatter(), 10000)
	defer w.Close()

	entry := &LogEntry{Time: time.Now(), Level: LogLevelInfo, Message: "bench"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.WriteLog(entry)
	}
}
