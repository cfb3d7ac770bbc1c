package messenger

import (
	"errors"
	"testing"

	"github.com/coproc-go/coproc/api/frame"
	"github.com/coproc-go/coproc/wire/wiretest"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSendRequestSurfacesTransportError exercises the Send path against a
// mocked Conn that fails, rather than a real pipe, so a broken transport
// can be forced deterministically.
func TestSendRequestSurfacesTransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := wiretest.NewMockConn(ctrl)
	conn.EXPECT().Send(gomock.Any()).Return(errors.New("broken pipe"))

	m := New(Plain, conn)
	err := m.SendRequest("ping", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	// A failed send must not be counted as sent.
	assert.Equal(t, int64(0), m.Remaining(nil))
}

// TestReceiveBlockingSurfacesRecvError exercises ReceiveBlocking against a
// Conn whose Recv always errors.
func TestReceiveBlockingSurfacesRecvError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	conn := wiretest.NewMockConn(ctrl)
	conn.EXPECT().Recv().Return(frame.Frame{}, errors.New("eof")).AnyTimes()

	m := New(Plain, conn)
	_, err := m.ReceiveBlocking(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "eof")
}
