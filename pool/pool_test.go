package pool

import (
	"errors"
	"os"
	"testing"

	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/transport/procexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	procexec.RunWorkerIfChild()
	os.Exit(m.Run())
}

func init() {
	RegisterMapWorker("pool_test_square", func(item interface{}) interface{} {
		v := item.(float64)
		return v * v
	})
}

func floats(vs ...float64) []interface{} {
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func TestChunks(t *testing.T) {
	assert.Equal(t, []SliceMsg{{0, 3}, {3, 6}, {6, 7}}, Chunks(7, 3))
	assert.Equal(t, []SliceMsg{{0, 5}}, Chunks(5, 10))
	assert.Equal(t, []SliceMsg{{0, 1}, {1, 2}, {2, 3}}, Chunks(3, 1))
	assert.Nil(t, Chunks(0, 3))
}

func TestMapSquare(t *testing.T) {
	data := floats(1, 2, 3, 4, 5, 6, 7)

	p := New(2, "pool_test_square", messenger.Plain)
	p.SetStartKwargs(map[string]interface{}{"data": data})
	require.NoError(t, p.Start())
	defer p.Terminate()

	got, err := p.Map(len(data), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, floats(1, 4, 9, 16, 25, 36, 49), got)
}

func TestMapUnorderedIsAMultisetMatch(t *testing.T) {
	data := floats(1, 2, 3, 4, 5, 6, 7, 8, 9)

	p := New(3, "pool_test_square", messenger.Plain)
	p.SetStartKwargs(map[string]interface{}{"data": data})
	require.NoError(t, p.Start())
	defer p.Terminate()

	var got []interface{}
	err := p.MapUnordered(len(data), 2, nil, func(item interface{}) error {
		got = append(got, item)
		return nil
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, floats(1, 4, 9, 16, 25, 36, 49, 64, 81), got)
}

func TestMapEmptyInput(t *testing.T) {
	p := New(2, "pool_test_square", messenger.Plain)
	p.SetStartKwargs(map[string]interface{}{"data": []interface{}{}})
	require.NoError(t, p.Start())
	defer p.Terminate()

	got, err := p.Map(0, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMapSingleWorkerSequential(t *testing.T) {
	data := floats(1, 2, 3, 4)

	p := New(1, "pool_test_square", messenger.Plain)
	p.SetStartKwargs(map[string]interface{}{"data": data})
	require.NoError(t, p.Start())
	defer p.Terminate()

	got, err := p.Map(len(data), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, floats(1, 4, 9, 16), got)
}

func TestPoolScopeTerminatesWorkersOnError(t *testing.T) {
	p := New(2, "pool_test_square", messenger.Plain)
	p.SetStartKwargs(map[string]interface{}{"data": floats(1, 2)})

	var scoped *Pool
	err := With(2, "pool_test_square", messenger.Plain, map[string]interface{}{"data": floats(1, 2)}, func(pp *Pool) error {
		scoped = pp
		return errors.New("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	require.NotNil(t, scoped)
	for _, r := range scoped.resources {
		assert.False(t, r.IsAlive())
	}

	// The separately-constructed p above was never started; Terminate on
	// an unstarted pool is a no-op, exercising that boundary too.
	require.NoError(t, p.Terminate())
}

func TestPoolStartFailureAbortsStartedResources(t *testing.T) {
	p := New(2, "pool_test_does_not_exist", messenger.Plain)
	err := p.Start()
	require.Error(t, err)
	for _, r := range p.resources {
		assert.False(t, r.IsAlive())
	}
}
