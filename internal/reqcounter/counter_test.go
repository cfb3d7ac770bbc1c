package reqcounter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterDefaultsToZero(t *testing.T) {
	c := New()
	assert.Zero(t, c.RequestsSent("unseen"))
	assert.Zero(t, c.RepliesReceived("unseen"))
	assert.Zero(t, c.Remaining("unseen"))
}

func TestCounterTracksRequestsAndReplies(t *testing.T) {
	c := New()
	c.RecordSentRequest("ch")
	c.RecordSent("ch")
	assert.EqualValues(t, 1, c.RequestsSent("ch"))
	assert.EqualValues(t, 1, c.MessagesSent("ch"))
	assert.EqualValues(t, 1, c.Remaining("ch"))

	c.RecordReceivedReply("ch")
	c.RecordReceived("ch")
	assert.EqualValues(t, 1, c.RepliesReceived("ch"))
	assert.EqualValues(t, 1, c.MessagesReceived("ch"))
	assert.EqualValues(t, 0, c.Remaining("ch"))
}

func TestCounterChannelsAreIndependent(t *testing.T) {
	c := New()
	c.RecordSentRequest("a")
	c.RecordSentRequest("a")
	c.RecordSentRequest("b")

	assert.EqualValues(t, 2, c.RequestsSent("a"))
	assert.EqualValues(t, 1, c.RequestsSent("b"))
}
