package push

import (
	"context"
	"errors"
	"strconv"

	"github.com/9ssi7/exponent"
)

var ErrNoTokens = errors.New("no push tokens")

type TokenSource interface {
	GetTokensByUserIDs(ctx context.Context, userIDs []int64) (map[int64][]string, error)
}

type Notifier struct {
	sender Sender
	tokens TokenSource
}

func NewNotifier(sender Sender, tokens TokenSource) *Notifier {
	return &Notifier{sender: sender, tokens: tokens}
}

type OrderUpdate struct {
	UserID      int64
	OrderID     int64
	OrderNumber string
	Status      string
	Title       string
	Body        string
}

// OrderStatus pushes an order update to every device of the customer.
func (n *Notifier) OrderStatus(ctx context.Context, u OrderUpdate) error {
	byUser, err := n.tokens.GetTokensByUserIDs(ctx, []int64{u.UserID})
	if err != nil {
		return err
	}
	tokens := byUser[u.UserID]
	if len(tokens) == 0 {
		return ErrNoTokens
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: u.Title,
			Body:  u.Body,
			// drives deep linking in the app
			Data: map[string]string{
				"type":        "order",
				"status":      u.Status,
				"orderId":     strconv.FormatInt(u.OrderID, 10),
				"orderNumber": u.OrderNumber,
				"screen":      "orders/" + strconv.FormatInt(u.OrderID, 10),
			},
		})
	}

	_, err = n.sender.Publish(ctx, msgs)
	return err
}
