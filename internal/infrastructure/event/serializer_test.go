package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizledger/backend/internal/domain/billing"
)

func TestEventSerializer_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterDomainEvents(serializer)

	doc, err := billing.NewQuotation(uuid.New(), 3, "Mrs. Tan", "Kitchen renovation", 30)
	require.NoError(t, err)
	_, err = doc.AddItem("Tiles", "Floor tile", "box", decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.NewFromInt(60))
	require.NoError(t, err)
	require.NoError(t, doc.Approve())

	original := billing.NewDocumentApprovedEvent(doc)
	payload, err := serializer.Serialize(original)
	require.NoError(t, err)

	decoded, err := serializer.Deserialize(billing.EventTypeDocumentApproved, payload)
	require.NoError(t, err)

	approved, ok := decoded.(*billing.DocumentApprovedEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), approved.EventID())
	assert.Equal(t, original.TenantID(), approved.TenantID())
	assert.Equal(t, doc.ID, approved.DocumentID)
	require.Len(t, approved.Items, 1)
	assert.Equal(t, "Floor tile", approved.Items[0].Name)
	assert.True(t, approved.Items[0].CostPrice.Equal(decimal.NewFromInt(60)))
}

func TestEventSerializer_UnknownType(t *testing.T) {
	serializer := NewEventSerializer()

	_, err := serializer.Deserialize("NoSuchEvent", []byte(`{}`))
	assert.ErrorContains(t, err, "unknown event type")
}

func TestRegisterDomainEvents_CoversAllTypes(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterDomainEvents(serializer)

	for _, eventType := range []string{
		billing.EventTypeDocumentCreated,
		billing.EventTypeDocumentApproved,
		billing.EventTypeDocumentRejected,
		billing.EventTypeDocumentConverted,
		billing.EventTypePaymentRecorded,
	} {
		assert.True(t, serializer.IsRegistered(eventType), eventType)
	}
}
