package resource

import (
	"os"
	"testing"

	"github.com/coproc-go/coproc/coprocerrors"
	"github.com/coproc-go/coproc/messenger"
	"github.com/coproc-go/coproc/transport/procexec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain lets this binary double as the worker process: Start launches
// it by re-executing os.Executable(), and RunWorkerIfChild intercepts
// before any test runs if the environment markers are set.
func TestMain(m *testing.M) {
	procexec.RunWorkerIfChild()
	os.Exit(m.Run())
}

func init() {
	RegisterWorker("resource_test_echo", messenger.Plain, func(m *messenger.Messenger, kwargs map[string]interface{}) error {
		greeting, _ := kwargs["greeting"].(string)
		for {
			payload, err := m.ReceiveBlocking(nil)
			if coprocerrors.ErrorCode(err) == coprocerrors.CodeResourceRequestedClose {
				return nil
			}
			if err != nil {
				return err
			}
			if err := m.SendReply(greeting+":"+payload.(string), nil); err != nil {
				return err
			}
		}
	})
}

func TestResourceLifecycle(t *testing.T) {
	r := New("resource_test_echo", messenger.Plain)
	assert.False(t, r.IsAlive())

	_, err := r.Messenger()
	require.Error(t, err)
	assert.Equal(t, coprocerrors.CodeWorkerIsDead, coprocerrors.ErrorCode(err))

	require.NoError(t, r.Start(map[string]interface{}{"greeting": "hi"}))
	assert.True(t, r.IsAlive())

	require.Error(t, r.Start(nil))

	pid, err := r.PID()
	require.NoError(t, err)
	assert.Greater(t, pid, 0)

	m, err := r.Messenger()
	require.NoError(t, err)
	require.NoError(t, m.SendRequest("world", nil))
	reply, err := m.ReceiveBlocking(nil)
	require.NoError(t, err)
	assert.Equal(t, "hi:world", reply)

	require.NoError(t, r.Join(true))
	assert.False(t, r.IsAlive())

	require.Error(t, r.Join(true))
	require.NoError(t, r.Join(false))

	// Reuse: a subsequent Start spins up a brand new child.
	require.NoError(t, r.Start(map[string]interface{}{"greeting": "again"}))
	m2, err := r.Messenger()
	require.NoError(t, err)
	require.NoError(t, m2.SendRequest("x", nil))
	reply2, err := m2.ReceiveBlocking(nil)
	require.NoError(t, err)
	assert.Equal(t, "again:x", reply2)
	require.NoError(t, r.Terminate(true))
}

func TestResourceTerminateWithoutCheckAliveIsNoop(t *testing.T) {
	r := New("resource_test_echo", messenger.Plain)
	require.NoError(t, r.Terminate(false))
	require.Error(t, r.Terminate(true))
}
