package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cliparena/clip-arena-hub/internal/domain/comment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue implements comment.Queue; only Push is exercised by the command.
type fakeQueue struct {
	pushed  []comment.Event
	pushErr error
}

func (f *fakeQueue) Push(_ context.Context, e comment.Event) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, e)
	return nil
}

func (f *fakeQueue) PopBatch(context.Context, int) []comment.QueuedEvent      { return nil }
func (f *fakeQueue) Acknowledge(context.Context, []comment.QueuedEvent)       {}
func (f *fakeQueue) AcknowledgeOne(context.Context, string)                   {}
func (f *fakeQueue) Health(context.Context) comment.QueueHealth               { return comment.QueueHealth{} }
func (f *fakeQueue) RecoverOrphans(context.Context) int                       { return 0 }
func (f *fakeQueue) MarkProcessed(context.Context)                            {}
func (f *fakeQueue) MoveToDeadLetter(context.Context, comment.Event, error, int, time.Time) {
}

func TestPostComment_EnqueuesEvent(t *testing.T) {
	queue := &fakeQueue{}
	h := NewPostCommentHandler(queue, nil)

	res, err := h.Handle(context.Background(), PostCommentCommand{
		ClipID:   "clip-a",
		ActorKey: "user-1",
		Action:   comment.ActionCreated,
		Data:     map[string]any{"body": "first"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.EventID)

	require.Len(t, queue.pushed, 1)
	e := queue.pushed[0]
	assert.Equal(t, res.EventID, e.EventID)
	assert.Equal(t, "clip-a", e.ClipID)
	assert.Equal(t, comment.ActionCreated, e.Action)
	assert.False(t, e.Timestamp.IsZero())
}

func TestPostComment_RejectsUnknownAction(t *testing.T) {
	queue := &fakeQueue{}
	h := NewPostCommentHandler(queue, nil)

	_, err := h.Handle(context.Background(), PostCommentCommand{
		ClipID:   "clip-a",
		ActorKey: "user-1",
		Action:   comment.Action("upvoted"),
	})
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Empty(t, queue.pushed)
}

func TestPostComment_EnqueueFailureIsReturned(t *testing.T) {
	queue := &fakeQueue{pushErr: errors.New("queue unavailable")}
	h := NewPostCommentHandler(queue, nil)

	_, err := h.Handle(context.Background(), PostCommentCommand{
		ClipID:   "clip-a",
		ActorKey: "user-1",
		Action:   comment.ActionDeleted,
	})
	assert.Error(t, err)
}
