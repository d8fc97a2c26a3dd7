package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/backend/internal/domain/billing"
	"github.com/bizledger/backend/internal/domain/shared"
)

func newApprovedEvent(t *testing.T) *billing.DocumentApprovedEvent {
	doc, err := billing.NewQuotation(uuid.New(), 1, "Customer", "Project", 30)
	require.NoError(t, err)
	return billing.NewDocumentApprovedEvent(doc)
}

func TestInMemoryEventBus_PublishToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := &recordingHandler{}
	bus.Subscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newApprovedEvent(t)))
	assert.Len(t, handler.events(), 1)
}

func TestInMemoryEventBus_HandlerOnlyGetsItsTypes(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := &recordingHandler{}
	bus.Subscribe(handler, billing.EventTypeDocumentRejected)

	require.NoError(t, bus.Publish(context.Background(), newApprovedEvent(t)))
	assert.Empty(t, handler.events())
}

func TestInMemoryEventBus_HandlerErrorPropagates(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	failing := &recordingHandler{failWith: errors.New("boom")}
	ok := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(ok)

	err := bus.Publish(context.Background(), newApprovedEvent(t))
	assert.EqualError(t, err, "boom")
	// the error does not stop other handlers
	assert.Len(t, ok.events(), 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	handler := &recordingHandler{}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newApprovedEvent(t)))
	assert.Empty(t, handler.events())
}

func TestHandlerRegistry_WildcardReceivesEverything(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcard := &recordingHandler{}
	registry.Register(wildcard)

	handlers := registry.GetHandlers("anything.at.all")
	require.Len(t, handlers, 1)
	assert.Equal(t, shared.EventHandler(wildcard), handlers[0])
}
