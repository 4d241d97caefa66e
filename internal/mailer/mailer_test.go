package mailer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "gopkg.in/mail.v2"
)

type fakeDialer struct {
	fails int
	calls int
	sent  []*mail.Message
}

func (d *fakeDialer) DialAndSend(m ...*mail.Message) error {
	d.calls++
	if d.calls <= d.fails {
		return errors.New("connection refused")
	}
	d.sent = append(d.sent, m...)
	return nil
}

type line struct {
	Quantity     int
	ProductName  string
	VariantLabel string
	Total        string
}

func confirmation() map[string]any {
	return map[string]any{
		"Name":        "Ana",
		"OrderNumber": "SF-ABCDEFGHJK",
		"Items":       []line{{2, "Classic Tee", "Blue / S", "30.00"}},
		"Subtotal":    "30.00",
		"Shipping":    "5.00",
		"Total":       "35.00",
		"Address":     "1 Main St, Lisbon",
	}
}

func TestSMTPMailer_RetriesThenSends(t *testing.T) {
	d := &fakeDialer{fails: 1}
	m := &SMTPMailer{fromEmail: "shop@example.com", dialer: d}

	status, err := m.Send(OrderConfirmationTemplate, "Ana", "ana@example.com", confirmation())
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, 2, d.calls)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"Order SF-ABCDEFGHJK confirmed"}, d.sent[0].GetHeader("Subject"))
}

func TestSMTPMailer_GivesUp(t *testing.T) {
	d := &fakeDialer{fails: 10}
	m := &SMTPMailer{fromEmail: "shop@example.com", dialer: d}

	_, err := m.Send(OrderStatusTemplate, "Ana", "ana@example.com", map[string]any{
		"Name": "Ana", "OrderNumber": "SF-1", "Status": "shipped", "Message": "Your order SF-1 is on its way",
	})
	assert.Error(t, err)
	assert.Equal(t, maxRetries, d.calls)
}

func TestSMTPMailer_UnknownTemplate(t *testing.T) {
	m := &SMTPMailer{fromEmail: "shop@example.com", dialer: &fakeDialer{}}
	_, err := m.Send("missing.tmpl", "Ana", "ana@example.com", nil)
	assert.Error(t, err)
}
