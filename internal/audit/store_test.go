package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "hornet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenCreatesSchemaAndIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hornet.db")
	st, err := Open(path)
	require.NoError(t, err)
	st.Close()

	st2, err := Open(path)
	require.NoError(t, err)
	defer st2.Close()
}

func TestCreateAndCloseSession(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()
	start := time.Now().Truncate(time.Second)

	require.NoError(t, st.CreateSession(ctx, id, start, "203.0.113.9", 4422))
	require.NoError(t, st.CloseSession(ctx, id, start.Add(time.Minute)))
}

func TestRecordAndListCommandsOrderedByTime(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	sessionID := uuid.New()
	require.NoError(t, st.CreateSession(ctx, sessionID, time.Now(), "10.0.0.1", 5555))

	require.NoError(t, st.RecordCommand(ctx, sessionID, "ls", "test02", "a.txt"))
	require.NoError(t, st.RecordCommand(ctx, sessionID, "pwd", "test02", "/"))

	commands, err := st.Commands(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "ls", commands[0].Command)
	assert.Equal(t, "pwd", commands[1].Command)
	assert.Equal(t, sessionID, commands[0].SessionID)
}

func TestCommandsEmptyForUnknownSession(t *testing.T) {
	st := openTestStore(t)
	commands, err := st.Commands(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, commands)
}
