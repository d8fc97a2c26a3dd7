package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuotation(t *testing.T) *Document {
	t.Helper()
	doc, err := NewQuotation(uuid.New(), 1, "Acme Builders", "Warehouse refit", 30)
	require.NoError(t, err)
	_, err = doc.AddItem("Materials", "Tile A", "box", decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.Zero)
	require.NoError(t, err)
	doc.ClearDomainEvents()
	return doc
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "001", FormatNumber(1))
	assert.Equal(t, "042", FormatNumber(42))
	assert.Equal(t, "999", FormatNumber(999))
	assert.Equal(t, "1000", FormatNumber(1000))
}

func TestNewQuotation(t *testing.T) {
	t.Run("creates pending quotation with formatted number", func(t *testing.T) {
		doc, err := NewQuotation(uuid.New(), 7, "Acme", "Roof", 14)
		require.NoError(t, err)
		assert.Equal(t, DocumentTypeQuotation, doc.Type)
		assert.Equal(t, StatusPending, doc.Status)
		assert.Equal(t, "007", doc.Number)
		require.Len(t, doc.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeDocumentCreated, doc.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects non-positive ordinal", func(t *testing.T) {
		_, err := NewQuotation(uuid.New(), 0, "Acme", "", 0)
		assert.Error(t, err)
	})

	t.Run("rejects blank customer", func(t *testing.T) {
		_, err := NewQuotation(uuid.New(), 1, "  ", "", 0)
		assert.Error(t, err)
	})
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to DocumentStatus
		allowed  bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusConverted, false},
		{StatusApproved, StatusConverted, true},
		{StatusApproved, StatusPaid, true},
		{StatusApproved, StatusPartial, true},
		{StatusApproved, StatusRejected, true},
		{StatusApproved, StatusPending, true},
		{StatusRejected, StatusPending, true},
		{StatusRejected, StatusApproved, false},
		{StatusConverted, StatusPaid, true},
		{StatusPartial, StatusPaid, true},
		{StatusPaid, StatusPartial, false},
		{StatusPaid, StatusPending, false},
	}
	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equal(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestApprove(t *testing.T) {
	t.Run("approves pending document with items", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())
		assert.Equal(t, StatusApproved, doc.Status)
		require.NotNil(t, doc.ApprovedAt)
		require.Len(t, doc.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeDocumentApproved, doc.GetDomainEvents()[0].EventType())
	})

	t.Run("refuses approval without items", func(t *testing.T) {
		doc, err := NewQuotation(uuid.New(), 1, "Acme", "", 0)
		require.NoError(t, err)
		assert.Error(t, doc.Approve())
	})

	t.Run("refuses double approval", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())
		assert.Error(t, doc.Approve())
	})
}

func TestReject(t *testing.T) {
	doc := newTestQuotation(t)
	require.NoError(t, doc.Reject("pricing off"))
	assert.Equal(t, StatusRejected, doc.Status)
	assert.Equal(t, "pricing off", doc.RejectReason)
}

func TestEditResetsReviewState(t *testing.T) {
	t.Run("approved document drops to pending on item edit", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())

		_, err := doc.AddItem("Labour", "Install", "day", decimal.NewFromInt(2), decimal.NewFromInt(250), decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, doc.Status)
		assert.Nil(t, doc.ApprovedAt)
	})

	t.Run("rejected document drops to pending on header edit", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Reject("no"))

		require.NoError(t, doc.UpdateDetails("Acme Builders", "Warehouse refit v2", 30))
		assert.Equal(t, StatusPending, doc.Status)
		assert.Empty(t, doc.RejectReason)
	})

	t.Run("subtotal tracks item changes", func(t *testing.T) {
		doc := newTestQuotation(t)
		assert.Equal(t, "1000", doc.Subtotal.String())

		_, err := doc.AddItem("Labour", "Install", "day", decimal.NewFromInt(2), decimal.NewFromInt(250), decimal.Zero)
		require.NoError(t, err)
		assert.Equal(t, "1500", doc.Subtotal.String())
	})
}

func TestConvertToInvoice(t *testing.T) {
	t.Run("requires approved status", func(t *testing.T) {
		doc := newTestQuotation(t)
		err := doc.ConvertToInvoice(1, nil, nil)
		assert.Error(t, err)
		assert.Equal(t, DocumentTypeQuotation, doc.Type)
	})

	t.Run("refuses rejected quotation", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Reject("no"))
		assert.Error(t, doc.ConvertToInvoice(1, nil, nil))
	})

	t.Run("no payments yields converted", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())
		doc.ClearDomainEvents()

		require.NoError(t, doc.ConvertToInvoice(3, nil, nil))
		assert.Equal(t, DocumentTypeInvoice, doc.Type)
		assert.Equal(t, StatusConverted, doc.Status)
		assert.Equal(t, "003", doc.Number)
		require.NotNil(t, doc.InvoiceDate)
		require.NotNil(t, doc.DueDate)
		assert.Equal(t, doc.InvoiceDate.AddDate(0, 0, 30).Unix(), doc.DueDate.Unix())

		require.Len(t, doc.GetDomainEvents(), 1)
		converted, ok := doc.GetDomainEvents()[0].(*DocumentConvertedEvent)
		require.True(t, ok)
		assert.Equal(t, "001", converted.QuotationNumber)
		assert.Equal(t, "003", converted.InvoiceNumber)
	})

	t.Run("full payment yields paid", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())

		p, err := NewPayment(doc.ID, decimal.NewFromInt(1000), "bank", "", time.Now())
		require.NoError(t, err)
		require.NoError(t, doc.ConvertToInvoice(2, nil, []Payment{*p}))
		assert.Equal(t, StatusPaid, doc.Status)
	})

	t.Run("partial payment yields partial", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())

		p, err := NewPayment(doc.ID, decimal.NewFromInt(400), "cash", "", time.Now())
		require.NoError(t, err)
		require.NoError(t, doc.ConvertToInvoice(2, nil, []Payment{*p}))
		assert.Equal(t, StatusPartial, doc.Status)
		assert.Equal(t, "600", doc.Outstanding().String())
	})

	t.Run("custom due date wins over payment terms", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())

		custom := time.Now().AddDate(0, 2, 0)
		require.NoError(t, doc.ConvertToInvoice(2, &custom, nil))
		assert.Equal(t, custom.Unix(), doc.DueDate.Unix())
	})

	t.Run("type never reverts", func(t *testing.T) {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())
		require.NoError(t, doc.ConvertToInvoice(2, nil, nil))
		assert.Error(t, doc.ConvertToInvoice(3, nil, nil))
	})
}

func TestRecordPayment(t *testing.T) {
	newInvoice := func(t *testing.T) *Document {
		doc := newTestQuotation(t)
		require.NoError(t, doc.Approve())
		require.NoError(t, doc.ConvertToInvoice(2, nil, nil))
		doc.ClearDomainEvents()
		return doc
	}

	t.Run("partial then paid", func(t *testing.T) {
		doc := newInvoice(t)

		_, err := doc.RecordPayment(decimal.NewFromInt(400), "bank", "", time.Now())
		require.NoError(t, err)
		assert.Equal(t, StatusPartial, doc.Status)

		_, err = doc.RecordPayment(decimal.NewFromInt(600), "bank", "", time.Now())
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, doc.Status)
		assert.True(t, doc.Outstanding().IsZero())
	})

	t.Run("refuses payment on quotation", func(t *testing.T) {
		doc := newTestQuotation(t)
		_, err := doc.RecordPayment(decimal.NewFromInt(10), "bank", "", time.Now())
		assert.Error(t, err)
	})

	t.Run("refuses payment once fully paid", func(t *testing.T) {
		doc := newInvoice(t)
		_, err := doc.RecordPayment(decimal.NewFromInt(1000), "bank", "", time.Now())
		require.NoError(t, err)
		_, err = doc.RecordPayment(decimal.NewFromInt(1), "bank", "", time.Now())
		assert.Error(t, err)
	})

	t.Run("refuses non-positive amount", func(t *testing.T) {
		doc := newInvoice(t)
		_, err := doc.RecordPayment(decimal.Zero, "bank", "", time.Now())
		assert.Error(t, err)
	})
}

func TestCanModify(t *testing.T) {
	doc := newTestQuotation(t)
	assert.True(t, doc.CanModify())

	require.NoError(t, doc.Approve())
	assert.True(t, doc.CanModify())

	require.NoError(t, doc.ConvertToInvoice(2, nil, nil))
	assert.False(t, doc.CanModify())

	_, err := doc.AddItem("x", "y", "z", decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero)
	assert.Error(t, err)
}
