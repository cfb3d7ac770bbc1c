package messenger

import (
	"testing"
	"time"

	"github.com/coproc-go/coproc/api/priority"
	"github.com/coproc-go/coproc/coprocerrors"
	"github.com/coproc-go/coproc/internal/testtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoRoundTrip(t *testing.T) {
	client, server := NewPair(Priority)
	defer client.Close()
	defer server.Close()

	require.NoError(t, client.SendRequest("ping", nil))
	assert.Equal(t, int64(1), client.Remaining(nil))

	got, err := server.ReceiveBlocking(nil)
	require.NoError(t, err)
	assert.Equal(t, "ping", got)

	require.NoError(t, server.SendReply("pong", nil))

	reply, err := client.ReceiveBlocking(nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
	assert.Equal(t, int64(0), client.Remaining(nil))
}

func TestSendRequestMultipleThenReceiveRemaining(t *testing.T) {
	client, server := NewPair(Plain)
	defer client.Close()
	defer server.Close()

	require.NoError(t, client.SendRequestMultiple([]interface{}{1, 2, 3}, "ch"))
	assert.Equal(t, int64(3), client.Remaining("ch"))

	for i := 0; i < 3; i++ {
		v, err := server.ReceiveBlocking("ch")
		require.NoError(t, err)
		require.NoError(t, server.SendReply(v.(int)*10, "ch"))
	}

	got, err := client.ReceiveRemaining("ch")
	require.NoError(t, err)
	assert.ElementsMatch(t, []interface{}{10, 20, 30}, got)
	assert.Equal(t, int64(0), client.Remaining("ch"))
}

func TestCloseRequestSurfacesAsError(t *testing.T) {
	client, server := NewPair(Plain)
	defer client.Close()
	defer server.Close()

	require.NoError(t, client.SendCloseRequest())

	_, err := server.ReceiveBlocking(nil)
	require.Error(t, err)
	assert.Equal(t, coprocerrors.CodeResourceRequestedClose, coprocerrors.ErrorCode(err))
}

func TestErrorFrameSurfacesAsPeerError(t *testing.T) {
	client, server := NewPair(Plain)
	defer client.Close()
	defer server.Close()

	require.NoError(t, client.SendError(assertError("boom")))

	_, err := server.ReceiveBlocking(nil)
	require.Error(t, err)
	assert.Equal(t, coprocerrors.CodePeerError, coprocerrors.ErrorCode(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestPriorityOrderingWithSynchronizingSleep(t *testing.T) {
	client, server := NewPair(Priority)
	defer client.Close()
	defer server.Close()

	low := prioritizedForPriority{"low", priority.Priority(10)}
	high := prioritizedForPriority{"high", priority.Priority(1)}

	require.NoError(t, client.SendNoRequest(low, "ch"))
	require.NoError(t, client.SendNoRequest(high, "ch"))

	// Give the pipe a moment so both frames are sitting in the transport
	// before the receiver drains -- otherwise a fast receiver could drain
	// "low" alone before "high" is even sent, which would make the
	// ordering check trivially true for the wrong reason.
	testtime.Sleep(5 * testtime.Millisecond)

	first, err := server.ReceiveBlocking("ch")
	require.NoError(t, err)
	second, err := server.ReceiveBlocking("ch")
	require.NoError(t, err)

	assert.Equal(t, "high", first.(prioritizedForPriority).value)
	assert.Equal(t, "low", second.(prioritizedForPriority).value)
}

type prioritizedForPriority struct {
	value interface{}
	prio  priority.Priority
}

func (p prioritizedForPriority) Priority() priority.Priority { return p.prio }

func TestAvailableDrainsNonBlocking(t *testing.T) {
	client, server := NewPair(Plain)
	defer client.Close()
	defer server.Close()

	n, err := server.Available(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, client.SendNoRequest("x", nil))
	testtime.Sleep(5 * testtime.Millisecond)

	n, err = server.Available(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAwaitAvailableBlocksUntilOneFrame(t *testing.T) {
	client, server := NewPair(Plain)
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() { done <- server.AwaitAvailable() }()

	testtime.Sleep(5 * testtime.Millisecond)
	require.NoError(t, client.SendNoRequest("x", nil))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitAvailable never returned")
	}

	items, err := server.ReceiveAvailable(nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"x"}, items)
}

type assertError string

func (e assertError) Error() string { return string(e) }
