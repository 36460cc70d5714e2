package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mnemo-run/mnemo/internal/chunk"
	"github.com/mnemo-run/mnemo/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	return s
}

func TestStoreLifecycle(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Init("how does auth work", "/repo")
	require.NoError(t, err)
	assert.Len(t, id, idLength)

	require.NoError(t, s.Result(id, "k1", "v1", 1))
	require.NoError(t, s.Result(id, "k2", "v2", 2))

	sess, err := s.Status(id)
	require.NoError(t, err)
	assert.Equal(t, "v1", sess.Results["k1"])
	assert.Equal(t, "v2", sess.Results["k2"])
	assert.GreaterOrEqual(t, len(sess.Iterations), 2)
	assert.Equal(t, StatusActive, sess.Status)

	answer := "auth uses JWT"
	require.NoError(t, s.Finalize(id, &answer))

	sess, err = s.Status(id)
	require.NoError(t, err)
	assert.Equal(t, StatusFinalized, sess.Status)
	require.NotNil(t, sess.FinalAnswer)
	assert.Equal(t, answer, *sess.FinalAnswer)

	err = s.Result(id, "k3", "v3", 3)
	require.Error(t, err)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestStoreResult_ConcurrentWritesAllLand(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Init("concurrent result test", "/repo")
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			assert.NoError(t, s.Result(id, key, fmt.Sprintf("v%d", i), float64(i)))
		}(i)
	}
	wg.Wait()

	sess, err := s.Status(id)
	require.NoError(t, err)
	assert.Len(t, sess.Results, n, "every concurrent writer's result must survive the lock-guarded read-modify-write")
	assert.Len(t, sess.Iterations, n)
}

func TestStoreUnknownSession(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Status("deadbeefdead")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	err = s.Result("deadbeefdead", "k", "v", 1)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestStoreManifest(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Init("q", "/repo")
	require.NoError(t, err)

	m := chunk.Manifest{
		Strategy: chunk.StrategyLines,
		Target:   "/repo/main.go",
		Chunks: []chunk.Chunk{
			{ID: "abc123", Source: "/repo/main.go", StartLine: 1, EndLine: 10, CharCount: 200},
		},
	}
	require.NoError(t, s.StoreManifest(id, m))

	sess, err := s.Status(id)
	require.NoError(t, err)
	require.NotNil(t, sess.Manifest)
	assert.Equal(t, m.Strategy, sess.Manifest.Strategy)
	assert.Len(t, sess.Manifest.Chunks, 1)
}

func TestStoreList(t *testing.T) {
	s := newTestStore(t)
	id1, _ := s.Init("q1", "/a")
	id2, _ := s.Init("q2", "/b")

	sessions, err := s.List()
	require.NoError(t, err)
	ids := map[string]bool{}
	for _, sess := range sessions {
		ids[sess.ID] = true
	}
	assert.True(t, ids[id1])
	assert.True(t, ids[id2])
}
