package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	text  string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, msgs []Message) (*Completion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Completion{Text: s.text}, nil
}

func (s *stubCompleter) ModelName() string { return s.text }

type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vec, nil
}

func (s *stubEmbedder) ModelName() string { return "stub" }

func TestGroupCompleterFailover(t *testing.T) {
	primary := &stubCompleter{err: errors.New("quota exceeded")}
	backup := &stubCompleter{text: "from backup"}
	group := NewGroupCompleter([]CompleterEntry{
		{Name: "primary", Completer: primary},
		{Name: "backup", Completer: backup},
	})

	res, err := group.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	require.Equal(t, "from backup", res.Text)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, backup.calls)
}

func TestGroupCompleterFirstWins(t *testing.T) {
	primary := &stubCompleter{text: "from primary"}
	backup := &stubCompleter{text: "from backup"}
	group := NewGroupCompleter([]CompleterEntry{
		{Name: "primary", Completer: primary},
		{Name: "backup", Completer: backup},
	})

	res, err := group.Complete(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "from primary", res.Text)
	require.Equal(t, 0, backup.calls)
}

func TestGroupCompleterAllFail(t *testing.T) {
	failure := errors.New("down")
	group := NewGroupCompleter([]CompleterEntry{
		{Name: "a", Completer: &stubCompleter{err: errors.New("first down")}},
		{Name: "b", Completer: &stubCompleter{err: failure}},
	})

	_, err := group.Complete(context.Background(), nil)
	require.ErrorIs(t, err, failure)
}

func TestGroupCompleterSingleEntryUnwrapped(t *testing.T) {
	single := &stubCompleter{text: "solo"}
	group := NewGroupCompleter([]CompleterEntry{{Name: "solo", Completer: single}})
	require.Same(t, ICompleter(single), group)
}

func TestGroupEmbedderFailover(t *testing.T) {
	primary := &stubEmbedder{err: errors.New("throttled")}
	backup := &stubEmbedder{vec: []float32{1, 2, 3}}
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "primary", Embedder: primary},
		{Name: "backup", Embedder: backup},
	})

	vec, err := group.Embed(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2, 3}, vec)
	require.Equal(t, 1, primary.calls)
}

func TestGroupEmpty(t *testing.T) {
	require.Nil(t, NewGroupCompleter(nil))
	require.Nil(t, NewGroupEmbedder(nil))
}
