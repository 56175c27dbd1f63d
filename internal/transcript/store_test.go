package transcript

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diogo/advisor/internal/models"
)

func greeting() models.Message {
	return models.NewSystemMessage(models.GreetingText)
}

func TestNew_CopiesInitial(t *testing.T) {
	initial := []models.Message{greeting()}
	s := New(initial...)
	initial[0].Content = "changed"

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, models.GreetingText, last.Content)
	assert.Equal(t, uint64(0), s.Version())
}

func TestAppend_TwoElementsInOneOperation(t *testing.T) {
	s := New(greeting())
	sub, cancel := s.Subscribe()
	defer cancel()

	s.AppendPending(models.NewUserMessage("Should I buy?"), models.NewSystemMessage(models.PlaceholderText))

	snap := <-sub
	assert.Equal(t, uint64(1), snap.Version, "a two-element append is one mutation")
	require.Len(t, snap.Messages, 3)
	assert.Equal(t, models.RoleUser, snap.Messages[1].Role)
	assert.True(t, snap.Pending)
	assert.True(t, snap.IsPending(2))
	assert.False(t, snap.IsPending(1))
}

func TestAppend_Empty(t *testing.T) {
	s := New()
	s.Append()
	s.AppendPending()
	assert.Equal(t, uint64(0), s.Version())
	assert.False(t, s.Pending())
}

func TestAppend_PlaceholderTextIsOrdinaryContent(t *testing.T) {
	tests := []struct {
		name    string
		initial []models.Message
	}{
		{
			name:    "answer equal to placeholder text",
			initial: []models.Message{greeting(), models.NewUserMessage("a"), models.NewSystemMessage(models.PlaceholderText)},
		},
		{
			name:    "greeting equal to placeholder text",
			initial: []models.Message{models.NewSystemMessage(models.PlaceholderText)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.initial...)
			assert.False(t, s.Pending(), "seeded messages are never pending")

			s.AppendPending(models.NewUserMessage("b"), models.NewSystemMessage(models.PlaceholderText))
			assert.Equal(t, len(tt.initial)+2, s.Len())
			assert.True(t, s.Pending())

			s.Append(models.NewUserMessage("c"))
			assert.Equal(t, len(tt.initial)+3, s.Len())
			assert.False(t, s.Pending())
		})
	}
}

func TestReplaceLastWith(t *testing.T) {
	s := New(greeting())
	s.AppendPending(models.NewUserMessage("q"), models.NewSystemMessage(models.PlaceholderText))

	ok := s.ReplaceLastWith(models.NewSystemMessage("Yes, diversify."))
	require.True(t, ok)

	msgs := s.SnapshotFrom(0)
	require.Len(t, msgs, 3)
	assert.Equal(t, models.NewSystemMessage("Yes, diversify."), msgs[2])
	assert.False(t, s.Pending())
}

func TestReplaceLastWith_PlaceholderTextClearsPending(t *testing.T) {
	s := New(greeting())
	s.AppendPending(models.NewUserMessage("q"), models.NewSystemMessage(models.PlaceholderText))

	require.True(t, s.ReplaceLastWith(models.NewSystemMessage(models.PlaceholderText)))
	snap := s.Snapshot()
	assert.False(t, snap.Pending)
	assert.False(t, snap.IsPending(2))
}

func TestReplaceLastWith_Empty(t *testing.T) {
	s := New()
	assert.False(t, s.ReplaceLastWith(models.NewSystemMessage("x")))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, uint64(0), s.Version())
}

func TestDropLast(t *testing.T) {
	s := New(greeting())
	s.AppendPending(models.NewUserMessage("q"), models.NewSystemMessage(models.PlaceholderText))

	require.True(t, s.DropLast())
	assert.False(t, s.Pending())
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, models.NewUserMessage("q"), last)
	assert.Equal(t, 2, s.Len())
}

func TestDropLast_Empty(t *testing.T) {
	s := New()
	assert.False(t, s.DropLast())
	_, ok := s.Last()
	assert.False(t, ok)
}

func TestSnapshotFrom(t *testing.T) {
	s := New(greeting(), models.NewUserMessage("a"), models.NewSystemMessage("b"))

	tests := []struct {
		name  string
		index int
		want  int
	}{
		{"from greeting", 0, 3},
		{"skip greeting", 1, 2},
		{"at end", 3, 0},
		{"past end", 10, 0},
		{"negative", -2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, s.SnapshotFrom(tt.index), tt.want)
		})
	}
}

func TestSnapshotFrom_IsIndependentCopy(t *testing.T) {
	s := New(greeting(), models.NewUserMessage("a"))
	snap := s.SnapshotFrom(1)
	snap[0].Content = "mutated"

	msgs := s.SnapshotFrom(1)
	assert.Equal(t, "a", msgs[0].Content)
}

func TestSubscribe_KeepsNewest(t *testing.T) {
	s := New()
	sub, cancel := s.Subscribe()
	defer cancel()

	s.Append(models.NewUserMessage("1"))
	s.Append(models.NewUserMessage("2"))
	s.Append(models.NewUserMessage("3"))

	snap := <-sub
	assert.Equal(t, uint64(3), snap.Version)
	assert.Equal(t, 3, snap.Len())

	select {
	case extra := <-sub:
		t.Fatalf("unexpected extra snapshot %d", extra.Version)
	default:
	}
}

func TestSubscribe_Cancel(t *testing.T) {
	s := New()
	sub, cancel := s.Subscribe()
	cancel()
	cancel()

	_, open := <-sub
	assert.False(t, open, "channel should be closed after cancel")
	s.Append(models.NewUserMessage("after cancel"))
}

func TestObserve_DeliversEveryVersionInOrder(t *testing.T) {
	s := New(greeting())
	var got []Snapshot
	stop := s.Observe(func(snap Snapshot) { got = append(got, snap) })

	s.AppendPending(models.NewUserMessage("q"), models.NewSystemMessage(models.PlaceholderText))
	s.ReplaceLastWith(models.NewSystemMessage("a"))
	stop()
	stop()
	s.DropLast()

	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Version)
	assert.True(t, got[0].Pending)
	assert.Equal(t, uint64(2), got[1].Version)
	assert.False(t, got[1].Pending)
	assert.Equal(t, "a", got[1].Messages[2].Content)
}

func TestStore_ConcurrentReadersSeeConsistentState(t *testing.T) {
	s := New(greeting())
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.AppendPending(models.NewUserMessage("q"), models.NewSystemMessage(models.PlaceholderText))
			s.ReplaceLastWith(models.NewSystemMessage("a"))
		}()
		go func() {
			defer wg.Done()
			snap := s.Snapshot()
			if snap.Pending {
				last := snap.Messages[snap.Len()-1]
				assert.Equal(t, models.PlaceholderText, last.Content)
			}
		}()
	}
	wg.Wait()
	assert.False(t, s.Pending())
}
