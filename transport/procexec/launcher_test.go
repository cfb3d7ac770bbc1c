package procexec

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/coproc-go/coproc/api/frame"
	"github.com/coproc-go/coproc/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain lets this same test binary double as the worker child: when
// Launch re-execs it, RunWorkerIfChild recognizes the environment markers,
// runs the matching registered worker, and exits before ever reaching
// m.Run(). A plain `go test` invocation has none of those markers set, so
// RunWorkerIfChild is a no-op there and the suite runs as normal.
func TestMain(m *testing.M) {
	RunWorkerIfChild()
	os.Exit(m.Run())
}

func init() {
	RegisterWorker("procexec_test_doubler", func(conn wire.Conn, kwargs json.RawMessage) error {
		for {
			f, err := conn.Recv()
			if err != nil {
				return nil
			}
			switch f.Kind {
			case frame.KindClose:
				return nil
			case frame.KindData:
				n, _ := f.Payload.(float64)
				if err := conn.Send(frame.DataFrame(n*2, f.Channel, false, true)); err != nil {
					return err
				}
			}
		}
	})
}

func TestLaunchDoublerWorker(t *testing.T) {
	handle, conn, err := Launch("procexec_test_doubler", nil)
	require.NoError(t, err)
	defer handle.Kill()

	require.NoError(t, conn.Send(frame.DataFrame(float64(21), nil, true, false)))
	reply, err := conn.Recv()
	require.NoError(t, err)
	assert.Equal(t, float64(42), reply.Payload)

	require.NoError(t, conn.Send(frame.CloseFrame()))
	require.NoError(t, handle.Wait())
}

func TestLaunchUnregisteredWorkerFails(t *testing.T) {
	_, _, err := Launch("procexec_test_does_not_exist", nil)
	require.Error(t, err)
}
