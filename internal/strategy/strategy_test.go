package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestShowEmptyStore(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Show()
	require.NoError(t, err)
	assert.Equal(t, "No learned patterns recorded yet.", got)
}

func TestAppendPatternThenShow(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendPattern("search tags before content on config questions"))
	require.NoError(t, s.AppendPattern("recall with tags=[deploy] narrows noisy queries"))

	got, err := s.Show()
	require.NoError(t, err)
	assert.Contains(t, got, "search tags before content on config questions")
	assert.Contains(t, got, "recall with tags=[deploy] narrows noisy queries")
}

func TestAppendPatternIgnoresBlank(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendPattern("   "))
	got, err := s.Show()
	require.NoError(t, err)
	assert.Equal(t, "No learned patterns recorded yet.", got)
}

func TestPerfThenLog(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Perf("deploy migrations", []string{"deploy", "migrations"}, 5, 2, 1, "found stale entry"))
	require.NoError(t, s.Perf("auth rollout", []string{"auth"}, 3, 3, 2, ""))

	got, err := s.Log(10)
	require.NoError(t, err)
	assert.Contains(t, got, "deploy migrations")
	assert.Contains(t, got, "auth rollout")
}

func TestLogLimitsToLastN(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Perf("q", nil, i, i, 0, ""))
	}
	got, err := s.Log(2)
	require.NoError(t, err)
	count := 0
	for i := 0; i < len(got); i++ {
		if got[i] == '\n' {
			count++
		}
	}
	assert.Equal(t, 1, count) // 2 records joined by 1 newline
}

func TestLogEmptyStore(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Log(10)
	require.NoError(t, err)
	assert.Equal(t, "No performance records yet.", got)
}
