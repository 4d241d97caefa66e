package orders

import (
	"fmt"
	"time"

	"github.com/speps/go-hashids/v2"
)

// no I, O, 0 or 1 so numbers read well over the phone
const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type OrderNumberGenerator struct {
	h   *hashids.HashID
	now func() time.Time
}

func NewOrderNumberGenerator(salt string) (*OrderNumberGenerator, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.Alphabet = orderNumberAlphabet
	hd.MinLength = 10

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("order number generator: %w", err)
	}
	return &OrderNumberGenerator{h: h, now: time.Now}, nil
}

// Generate encodes the user id and the current nanosecond clock, e.g. "SF-7KXQ2MTPH9AZ".
func (g *OrderNumberGenerator) Generate(userID int64) (string, error) {
	enc, err := g.h.EncodeInt64([]int64{userID, g.now().UnixNano()})
	if err != nil {
		return "", fmt.Errorf("encode order number: %w", err)
	}
	return "SF-" + enc, nil
}

// Decode returns the user id and timestamp an order number was built from.
func (g *OrderNumberGenerator) Decode(number string) (int64, time.Time, error) {
	if len(number) < 4 || number[:3] != "SF-" {
		return 0, time.Time{}, fmt.Errorf("malformed order number %q", number)
	}
	parts, err := g.h.DecodeInt64WithError(number[3:])
	if err != nil || len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("malformed order number %q", number)
	}
	return parts[0], time.Unix(0, parts[1]), nil
}
