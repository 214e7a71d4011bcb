package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexiq-backend/utilities"
)

func TestForwardPublishesLevelChanges(t *testing.T) {
	bus := utilities.NewEventBus()
	pub := &MemoryPublisher{}
	Forward(bus, pub, time.Second)

	userID := uuid.New()
	bus.Publish(utilities.EventLevelChanged, utilities.LevelChangedEvent{UserID: userID, From: "A2", To: "B1", Score: 17})
	bus.Publish(utilities.EventUserRegistered, utilities.UserRegisteredEvent{UserID: userID})
	bus.Wait()

	msgs := pub.Messages()
	require.Len(t, msgs, 2)
	byKey := map[string][]byte{}
	for _, m := range msgs {
		byKey[m.RoutingKey] = m.Body
	}
	require.Contains(t, byKey, KeyLevelChanged)
	require.Contains(t, byKey, KeyUserRegistered)

	var got utilities.LevelChangedEvent
	require.NoError(t, json.Unmarshal(byKey[KeyLevelChanged], &got))
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "B1", got.To)
	assert.Equal(t, 17, got.Score)
}

func TestDisabledPublisherDropsEvents(t *testing.T) {
	pub, err := NewAMQPPublisher("", "")
	require.NoError(t, err)
	assert.False(t, pub.Enabled())
	assert.NoError(t, pub.Publish(context.Background(), KeyLevelChanged, map[string]string{"a": "b"}))
	assert.NoError(t, pub.Close())
}
