package reconcile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/ffsimple/probe"
)

type fakeProber struct {
	err   error
	calls int
}

func (f *fakeProber) ProbeFresh(_ context.Context, path string) (*probe.Metadata, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &probe.Metadata{Path: path, Duration: 12}, nil
}

type fakeTrasher struct {
	trashed []string
}

func (f *fakeTrasher) Trash(path string) error {
	f.trashed = append(f.trashed, path)
	return os.Remove(path)
}

type fakePrompter struct {
	choice Choice
	err    error
	asked  []Question
}

func (f *fakePrompter) Choose(_ context.Context, q Question) (Choice, error) {
	f.asked = append(f.asked, q)
	return f.choice, f.err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func terminalStates(r Result) int {
	n := 0
	for _, b := range []bool{r.OK, r.Cancelled, r.Skipped, r.Unanswered} {
		if b {
			n++
		}
	}
	return n
}

func TestReconcileFreshOutputCreatesParent(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "deeper", "out.mp4")

	r := New(&fakeProber{}, &fakeTrasher{}, nil, nil)
	res, err := r.Reconcile(context.Background(), out, Policy{})
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, out, res.Output)
	assert.Nil(t, res.Existing)
	assert.DirExists(t, filepath.Dir(out))
	assert.Equal(t, 1, terminalStates(res))
}

func TestReconcileSkipIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	writeFile(t, out, "original")

	trasher := &fakeTrasher{}
	prompter := &fakePrompter{choice: ChoiceOverwrite}
	r := New(&fakeProber{}, trasher, prompter, nil)

	first, err := r.Reconcile(context.Background(), out, Policy{Skip: true, Overwrite: true})
	require.NoError(t, err)
	second, err := r.Reconcile(context.Background(), out, Policy{Skip: true, Overwrite: true})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, first.Skipped)
	assert.Equal(t, 1, terminalStates(first))
	require.NotNil(t, first.Existing)
	assert.Equal(t, 12.0, first.Existing.Duration)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
	assert.Empty(t, trasher.trashed)
	assert.Empty(t, prompter.asked)
}

func TestReconcileOverwriteTrashesOnce(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	writeFile(t, out, "original")

	trasher := &fakeTrasher{}
	r := New(&fakeProber{}, trasher, nil, nil)

	res, err := r.Reconcile(context.Background(), out, Policy{Overwrite: true})
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, out, res.Output)
	assert.Equal(t, []string{out}, trasher.trashed)
	assert.NoFileExists(t, out)
	assert.Equal(t, 1, terminalStates(res))
}

func TestReconcileOverwritePermanent(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	writeFile(t, out, "original")

	trasher := &fakeTrasher{}
	r := New(&fakeProber{}, trasher, nil, nil)

	res, err := r.Reconcile(context.Background(), out, Policy{Overwrite: true, Permanent: true})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, trasher.trashed)
	assert.NoFileExists(t, out)
}

func TestReconcileQuietIsUnanswered(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	writeFile(t, out, "original")

	prompter := &fakePrompter{choice: ChoiceOverwrite}
	r := New(&fakeProber{}, &fakeTrasher{}, prompter, nil)

	res, err := r.Reconcile(context.Background(), out, Policy{Quiet: true})
	require.ErrorIs(t, err, ErrUnanswered)

	var recErr ReconciliationError
	assert.ErrorAs(t, err, &recErr)
	assert.True(t, res.Unanswered)
	assert.Equal(t, 1, terminalStates(res))
	assert.Empty(t, prompter.asked)
	assert.FileExists(t, out)
}

func TestReconcileWithoutPrompterIsUnanswered(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	writeFile(t, out, "original")

	res, err := New(&fakeProber{}, nil, nil, nil).Reconcile(context.Background(), out, Policy{})
	assert.ErrorIs(t, err, ErrUnanswered)
	assert.True(t, res.Unanswered)
}

func TestReconcilePrompt(t *testing.T) {
	tests := []struct {
		name    string
		choice  Choice
		taken   []string
		wantErr error
		check   func(t *testing.T, out string, res Result, trasher *fakeTrasher)
	}{
		{
			name:   "overwrite",
			choice: ChoiceOverwrite,
			check: func(t *testing.T, out string, res Result, trasher *fakeTrasher) {
				assert.True(t, res.OK)
				assert.Equal(t, out, res.Output)
				assert.Len(t, trasher.trashed, 1)
			},
		},
		{
			name:    "cancel",
			choice:  ChoiceCancel,
			wantErr: ErrCancelled,
			check: func(t *testing.T, out string, res Result, trasher *fakeTrasher) {
				assert.True(t, res.Cancelled)
				assert.FileExists(t, out)
				assert.Empty(t, trasher.trashed)
			},
		},
		{
			name:   "rename",
			choice: ChoiceRename,
			taken:  []string{"out (1).mp4", "out (2).mp4"},
			check: func(t *testing.T, out string, res Result, trasher *fakeTrasher) {
				assert.True(t, res.OK)
				assert.Equal(t, filepath.Join(filepath.Dir(out), "out (3).mp4"), res.Output)
				assert.FileExists(t, out)
				assert.Empty(t, trasher.trashed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "out.mp4")
			writeFile(t, out, "original")
			for _, name := range tt.taken {
				writeFile(t, filepath.Join(dir, name), "x")
			}

			trasher := &fakeTrasher{}
			prompter := &fakePrompter{choice: tt.choice}
			res, err := New(&fakeProber{}, trasher, prompter, nil).Reconcile(context.Background(), out, Policy{})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Len(t, prompter.asked, 1)
			assert.Equal(t, out, prompter.asked[0].Path)
			assert.Equal(t, Choices, prompter.asked[0].Choices)
			assert.Equal(t, 1, terminalStates(res))
			tt.check(t, out, res, trasher)
		})
	}
}

func TestReconcilePromptError(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	writeFile(t, out, "original")

	boom := errors.New("no tty")
	_, err := New(&fakeProber{}, nil, &fakePrompter{err: boom}, nil).Reconcile(context.Background(), out, Policy{})
	assert.ErrorIs(t, err, boom)
}

func TestReconcileUnreadableExisting(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")
	writeFile(t, out, "garbage")

	prober := &fakeProber{err: errors.New("invalid data")}
	res, err := New(prober, nil, nil, nil).Reconcile(context.Background(), out, Policy{Skip: true})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.True(t, res.Unreadable)
	assert.Nil(t, res.Existing)
	assert.Equal(t, 1, prober.calls)
}

func TestReconcileRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	_, err := New(&fakeProber{}, nil, nil, nil).Reconcile(context.Background(), dir, Policy{Overwrite: true})
	assert.Error(t, err)
}

func TestFreeNameExhausted(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "clip.mkv")
	writeFile(t, out, "x")
	writeFile(t, filepath.Join(dir, "clip (1).mkv"), "x")
	writeFile(t, filepath.Join(dir, "clip (2).mkv"), "x")

	_, err := FreeName(out, 2)
	var exhausted *RenameExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Attempts)

	var recErr ReconciliationError
	assert.ErrorAs(t, err, &recErr)

	name, err := FreeName(out, 3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip (3).mkv"), name)
}

func TestChoiceString(t *testing.T) {
	assert.Equal(t, "overwrite", ChoiceOverwrite.String())
	assert.Equal(t, "cancel", ChoiceCancel.String())
	assert.Equal(t, "rename", ChoiceRename.String())
}
