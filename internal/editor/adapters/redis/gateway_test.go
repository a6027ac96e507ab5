package redis_test

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	noteredis "notetaker/internal/editor/adapters/redis"
	"notetaker/internal/editor/config"
	"notetaker/internal/editor/domain/entities"
	"notetaker/internal/editor/ports/gateway"
	"notetaker/pkg/stream"
)

func newGateway(t *testing.T) (*noteredis.Gateway, *miniredis.Miniredis) {
	t.Helper()

	s := miniredis.RunT(t)
	host, portStr, _ := strings.Cut(s.Addr(), ":")
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := &config.RedisConfig{
		Host:      host,
		Port:      port,
		PoolSize:  4,
		Timeout:   time.Second,
		KeyPrefix: "test",
	}
	g, err := noteredis.NewGateway(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g, s
}

func receive[T any](t *testing.T, ch <-chan T) (T, bool) {
	t.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(2 * time.Second):
		t.Fatal("stream delivered nothing")
		var zero T
		return zero, false
	}
}

func TestGateway_CRUD(t *testing.T) {
	g, s := newGateway(t)
	ctx := context.Background()

	first, err := g.CreateNote(ctx, "a")
	require.NoError(t, err)
	second, err := g.CreateNote(ctx, "b")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	notes, err := g.ListNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.Note{first, second}, notes)
	assert.True(t, s.Exists("test:notes"))

	updated, err := g.UpdateNote(ctx, first.ID, "a!")
	require.NoError(t, err)
	assert.Equal(t, entities.Note{ID: first.ID, Note: "a!"}, updated)

	require.NoError(t, g.DeleteNote(ctx, second.ID))

	notes, err = g.ListNotes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entities.Note{{ID: first.ID, Note: "a!"}}, notes)
}

func TestGateway_UnknownNote(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()

	_, err := g.UpdateNote(ctx, "ghost", "x")
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	err = g.DeleteNote(ctx, "ghost")
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	notes, err := g.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestGateway_Subscriptions(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()

	creates, err := g.SubscribeOnCreate(ctx)
	require.NoError(t, err)
	updates, err := g.SubscribeOnUpdate(ctx)
	require.NoError(t, err)
	deletes, err := g.SubscribeOnDelete(ctx)
	require.NoError(t, err)

	note, err := g.CreateNote(ctx, "hello")
	require.NoError(t, err)
	created, ok := receive(t, creates.C())
	require.True(t, ok)
	assert.Equal(t, note, created)

	_, err = g.UpdateNote(ctx, note.ID, "bye")
	require.NoError(t, err)
	updated, ok := receive(t, updates.C())
	require.True(t, ok)
	assert.Equal(t, entities.Note{ID: note.ID, Note: "bye"}, updated)

	require.NoError(t, g.DeleteNote(ctx, note.ID))
	id, ok := receive(t, deletes.C())
	require.True(t, ok)
	assert.Equal(t, note.ID, id)

	creates.Unsubscribe()
	_, ok = receive(t, creates.C())
	assert.False(t, ok)
	assert.NoError(t, creates.Err())

	require.NoError(t, g.Close())
	_, ok = receive(t, updates.C())
	assert.False(t, ok)
	assert.ErrorIs(t, updates.Err(), noteredis.ErrGatewayClosed)

	_, err = g.SubscribeOnDelete(ctx)
	assert.Error(t, err)
}

func TestGateway_CloseWithStalledSubscriber(t *testing.T) {
	g, _ := newGateway(t)
	ctx := context.Background()

	creates, err := g.SubscribeOnCreate(ctx)
	require.NoError(t, err)

	for i := 0; i < stream.DefaultBuffer+4; i++ {
		_, err := g.CreateNote(ctx, "note "+strconv.Itoa(i))
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool {
		return len(creates.C()) == stream.DefaultBuffer
	}, 2*time.Second, 5*time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- g.Close() }()

	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("close blocked on a subscriber that stopped reading")
	}
	assert.ErrorIs(t, creates.Err(), noteredis.ErrGatewayClosed)
}
