package push

import (
	"context"
	"testing"

	"github.com/9ssi7/exponent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	msgs []*exponent.Message
}

func (f *fakeSender) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	f.msgs = append(f.msgs, msgs...)
	return nil, nil
}

type fakeTokens map[int64][]string

func (f fakeTokens) GetTokensByUserIDs(_ context.Context, ids []int64) (map[int64][]string, error) {
	out := map[int64][]string{}
	for _, id := range ids {
		out[id] = f[id]
	}
	return out, nil
}

func TestOrderStatus_OneMessagePerDevice(t *testing.T) {
	s := &fakeSender{}
	n := NewNotifier(s, fakeTokens{7: {"ExponentPushToken[a]", "ExponentPushToken[b]"}})

	err := n.OrderStatus(context.Background(), OrderUpdate{
		UserID: 7, OrderID: 100, OrderNumber: "SF-ABCDEFGHJK", Status: "shipped",
		Title: "Order update", Body: "Your order SF-ABCDEFGHJK is on its way",
	})
	require.NoError(t, err)
	require.Len(t, s.msgs, 2)
	assert.Equal(t, "100", s.msgs[0].Data["orderId"])
	assert.Equal(t, "shipped", s.msgs[1].Data["status"])
}

func TestOrderStatus_NoTokens(t *testing.T) {
	s := &fakeSender{}
	n := NewNotifier(s, fakeTokens{})

	err := n.OrderStatus(context.Background(), OrderUpdate{UserID: 7})
	assert.ErrorIs(t, err, ErrNoTokens)
	assert.Empty(t, s.msgs)
}
