package chat

import (
	"testing"
	"time"

	"chat-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessagePersistsBroadcastsAndIndexes(t *testing.T) {
	m, store, index := newTestManager(t)

	bob := connect(t, m, "bob-token")
	carol := connect(t, m, "carol-token")
	require.NoError(t, m.Join(bob, "general"))
	require.NoError(t, m.Join(carol, "general"))
	recvEvent(t, bob)
	recvEvent(t, bob)
	recvEvent(t, carol)

	m.Dispatch(bob, sendEvent(t, models.EventSendMessage, models.SendMessagePayload{Text: "hi"}))

	// Every member receives the canonical record, the sender included.
	for _, c := range []*Client{bob, carol} {
		got := message(t, recvEvent(t, c))
		assert.Equal(t, int64(1), got.ID, "id must be storage-assigned")
		assert.Equal(t, "bob", got.Sender)
		assert.Equal(t, "hi", got.Text)
		assert.Equal(t, "2024-01-02T03:04:05Z", got.Timestamp, "timestamp must be storage-assigned")
	}

	assert.Equal(t, 1, store.savedCount())
	require.Eventually(t, func() bool {
		return len(index.indexed()) == 1
	}, time.Second, 10*time.Millisecond, "persisted message should reach the indexer")
	assert.Equal(t, int64(1), index.indexed()[0].ID)
}

func TestSendMessageWithoutRoomIsDiscardedSilently(t *testing.T) {
	m, store, index := newTestManager(t)

	bob := connect(t, m, "bob-token")

	m.Dispatch(bob, sendEvent(t, models.EventSendMessage, models.SendMessagePayload{Text: "into the void"}))

	noEvent(t, bob, 100*time.Millisecond)
	assert.Equal(t, 0, store.attemptCount())
	assert.Empty(t, index.indexed())
}

func TestPersistFailureDropsEventAndRecovers(t *testing.T) {
	m, store, index := newTestManager(t)

	bob := connect(t, m, "bob-token")
	carol := connect(t, m, "carol-token")
	require.NoError(t, m.Join(bob, "general"))
	require.NoError(t, m.Join(carol, "general"))
	recvEvent(t, bob)
	recvEvent(t, bob)
	recvEvent(t, carol)

	store.setFailNext()
	m.Dispatch(bob, sendEvent(t, models.EventSendMessage, models.SendMessagePayload{Text: "lost"}))
	m.Dispatch(bob, sendEvent(t, models.EventSendMessage, models.SendMessagePayload{Text: "kept"}))

	// The failed event is invisible: the next frame each member sees is the
	// message that persisted.
	for _, c := range []*Client{bob, carol} {
		got := message(t, recvEvent(t, c))
		assert.Equal(t, "kept", got.Text)
	}

	assert.Equal(t, 2, store.attemptCount())
	assert.Equal(t, 1, store.savedCount())

	// No index call for the dropped event either.
	require.Eventually(t, func() bool {
		return len(index.indexed()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "kept", index.indexed()[0].Content)
}

func TestMessagesBroadcastInPersistedOrder(t *testing.T) {
	m, store, _ := newTestManager(t)

	bob := connect(t, m, "bob-token")
	carol := connect(t, m, "carol-token")
	observer := connect(t, m, "observer-token")
	require.NoError(t, m.Join(bob, "general"))
	require.NoError(t, m.Join(carol, "general"))
	require.NoError(t, m.Join(observer, "general"))
	recvEvent(t, bob)
	recvEvent(t, bob)
	recvEvent(t, bob)
	recvEvent(t, carol)
	recvEvent(t, carol)
	recvEvent(t, observer)

	m.Dispatch(bob, sendEvent(t, models.EventSendMessage, models.SendMessagePayload{Text: "first"}))
	first := message(t, recvEvent(t, observer))
	m.Dispatch(carol, sendEvent(t, models.EventSendMessage, models.SendMessagePayload{Text: "second"}))
	second := message(t, recvEvent(t, observer))

	assert.Equal(t, "first", first.Text)
	assert.Equal(t, "second", second.Text)
	assert.Less(t, first.ID, second.ID, "broadcast order must match persisted order")
	assert.Equal(t, 2, store.savedCount())
}

func TestRoomsDoNotContend(t *testing.T) {
	m, store, _ := newTestManager(t)

	bob := connect(t, m, "bob-token")
	carol := connect(t, m, "carol-token")
	require.NoError(t, m.Join(bob, "room-a"))
	require.NoError(t, m.Join(carol, "room-b"))
	recvEvent(t, bob)
	recvEvent(t, carol)

	m.Dispatch(bob, sendEvent(t, models.EventSendMessage, models.SendMessagePayload{Text: "to a"}))
	m.Dispatch(carol, sendEvent(t, models.EventSendMessage, models.SendMessagePayload{Text: "to b"}))

	gotA := message(t, recvEvent(t, bob))
	gotB := message(t, recvEvent(t, carol))
	assert.Equal(t, "to a", gotA.Text)
	assert.Equal(t, "to b", gotB.Text)
	assert.Equal(t, 2, store.savedCount())

	// Neither room saw the other's message.
	noEvent(t, bob, 100*time.Millisecond)
	noEvent(t, carol, 100*time.Millisecond)
}

func TestMalformedSendPayloadIsDropped(t *testing.T) {
	m, store, _ := newTestManager(t)

	bob := connect(t, m, "bob-token")
	require.NoError(t, m.Join(bob, "general"))
	recvEvent(t, bob)

	m.Dispatch(bob, models.Event{Event: models.EventSendMessage, Data: []byte(`"not an object"`)})

	noEvent(t, bob, 100*time.Millisecond)
	assert.Equal(t, 0, store.attemptCount())
}
