package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leowzz/docsmith/internal/models"
	"github.com/leowzz/docsmith/internal/ocr"
	"github.com/leowzz/docsmith/pkg/logger"
)

type fakeEngine struct {
	mu        sync.Mutex
	recognize func(data []byte) (ocr.Result, error)
	seen      [][]byte
	closed    int
}

func (e *fakeEngine) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	e.mu.Lock()
	e.seen = append(e.seen, image)
	e.mu.Unlock()
	if e.recognize != nil {
		return e.recognize(image)
	}
	return ocr.Result{Text: "hello world", Confidence: 88}, nil
}

func (e *fakeEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed++
	return nil
}

type fakePDF struct {
	text string
}

func (p *fakePDF) Extract(ctx context.Context, data []byte, engine ocr.Engine) string {
	return p.text
}

func newTestRunner(t *testing.T, engine *fakeEngine, pdfText string) (*Runner, *Queue, *Intake) {
	t.Helper()
	q := NewQueue()
	factoryCalls := 0
	factory := func(language string) (ocr.Engine, error) {
		factoryCalls++
		require.Equal(t, 1, factoryCalls, "one engine per run")
		return engine, nil
	}
	r := NewRunner(q, factory, &fakePDF{text: pdfText}, logger.NewTestLogger())
	return r, q, NewIntake(logger.NewTestLogger())
}

func TestRunProcessesInOrder(t *testing.T) {
	engine := &fakeEngine{}
	r, q, in := newTestRunner(t, engine, "")

	payloads := [][]byte{
		append([]byte{}, pngHeader...),
		append(append([]byte{}, pngHeader...), 'x'),
		append(append([]byte{}, pngHeader...), 'y'),
	}
	for i, data := range payloads {
		_, err := in.AddBytes(q, []string{"a.png", "b.png", "c.png"}[i], data)
		require.NoError(t, err)
	}

	require.NoError(t, r.Run(context.Background(), "eng"))

	require.Len(t, engine.seen, 3)
	for i, data := range payloads {
		require.Equal(t, data, engine.seen[i])
	}

	for _, item := range q.Snapshot() {
		require.Equal(t, models.StatusCompleted, item.Status)
		require.Equal(t, 100, item.Progress)
		require.Equal(t, "hello world", item.Text)
		require.Equal(t, 2, item.WordCount)
		require.NotNil(t, item.Confidence)
		require.InDelta(t, 88.0, *item.Confidence, 0.001)
		require.NotNil(t, item.CompletedAt)
	}
	require.Equal(t, 1, engine.closed)
}

func TestRunItemFailureDoesNotAbortRun(t *testing.T) {
	engine := &fakeEngine{}
	engine.recognize = func(data []byte) (ocr.Result, error) {
		if len(engine.seen) == 2 { // second item
			return ocr.Result{}, errors.New("blurred input")
		}
		return ocr.Result{Text: "ok", Confidence: 90}, nil
	}
	r, q, in := newTestRunner(t, engine, "")

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		_, err := in.AddBytes(q, name, pngHeader)
		require.NoError(t, err)
	}

	require.NoError(t, r.Run(context.Background(), "eng"))

	items := q.Snapshot()
	require.Equal(t, models.StatusCompleted, items[0].Status)
	require.Equal(t, models.StatusError, items[1].Status)
	require.Equal(t, "blurred input", items[1].Error)
	require.Equal(t, models.StatusCompleted, items[2].Status)

	stats := q.Stats()
	require.Equal(t, 2, stats.CompletedFiles)
	require.Equal(t, 1, stats.ErrorFiles)
}

func TestRunPDFAlwaysCompletes(t *testing.T) {
	// PDF failures surface as placeholder text, not as item errors.
	engine := &fakeEngine{}
	r, q, in := newTestRunner(t, engine, "[Error processing PDF: broken xref]")

	_, err := in.AddBytes(q, "bad.pdf", pdfHeader)
	require.NoError(t, err)

	require.NoError(t, r.Run(context.Background(), "eng"))

	item := q.Snapshot()[0]
	require.Equal(t, models.StatusCompleted, item.Status)
	require.Equal(t, "[Error processing PDF: broken xref]", item.Text)
	require.Nil(t, item.Confidence)
}

func TestRunSkipsFinishedItems(t *testing.T) {
	engine := &fakeEngine{}
	q := NewQueue()
	in := NewIntake(logger.NewTestLogger())
	factory := func(string) (ocr.Engine, error) { return engine, nil }
	r := NewRunner(q, factory, &fakePDF{}, logger.NewTestLogger())

	_, err := in.AddBytes(q, "first.png", pngHeader)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background(), "eng"))
	require.Len(t, engine.seen, 1)

	_, err = in.AddBytes(q, "second.png", pngHeader)
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background(), "eng"))

	// Only the new item was processed the second time.
	require.Len(t, engine.seen, 2)
	for _, item := range q.Snapshot() {
		require.Equal(t, models.StatusCompleted, item.Status)
	}
}

func TestRunRefusesConcurrentStart(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	engine := &fakeEngine{}
	engine.recognize = func(data []byte) (ocr.Result, error) {
		close(started)
		<-release
		return ocr.Result{Text: "ok"}, nil
	}
	r, q, in := newTestRunner(t, engine, "")

	_, err := in.AddBytes(q, "slow.png", pngHeader)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background(), "eng") }()

	<-started
	require.True(t, r.Running())
	require.ErrorIs(t, r.Run(context.Background(), "eng"), ErrRunInProgress)

	close(release)
	require.NoError(t, <-done)
	require.False(t, r.Running())
}

func TestRunCancellationLeavesRestPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := &fakeEngine{}
	engine.recognize = func(data []byte) (ocr.Result, error) {
		cancel() // cancel mid-run, after the first item started
		return ocr.Result{Text: "ok"}, nil
	}
	r, q, in := newTestRunner(t, engine, "")

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		_, err := in.AddBytes(q, name, pngHeader)
		require.NoError(t, err)
	}

	err := r.Run(ctx, "eng")
	require.ErrorIs(t, err, context.Canceled)

	items := q.Snapshot()
	require.Equal(t, models.StatusCompleted, items[0].Status)
	require.Equal(t, models.StatusPending, items[1].Status)
	require.Equal(t, models.StatusPending, items[2].Status)
	require.Equal(t, 1, engine.closed)
}

func TestQueueTransitionsAreMonotonic(t *testing.T) {
	q := NewQueue()
	in := NewIntake(logger.NewTestLogger())
	item, err := in.AddBytes(q, "a.png", pngHeader)
	require.NoError(t, err)

	// pending -> processing is the only way in.
	q.setProgress(item.ID, 50)
	got, _ := q.Item(item.ID)
	require.Equal(t, 0, got.Progress)

	_, ok := q.markProcessing(item.ID)
	require.True(t, ok)
	q.complete(item.ID, "done", 1, nil, time.Millisecond)

	// Completed items never move again.
	_, ok = q.markProcessing(item.ID)
	require.False(t, ok)
	q.fail(item.ID, "late failure")
	got, _ = q.Item(item.ID)
	require.Equal(t, models.StatusCompleted, got.Status)
	require.Empty(t, got.Error)
}
