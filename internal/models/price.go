package models

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrNegativePrice = errors.New("price cannot be negative")

// Price is a non-negative monetary amount. The zero value is a valid zero
// price; every other way in is validated.
type Price struct {
	amount decimal.Decimal
}

func NewPrice(amount decimal.Decimal) (Price, error) {
	if amount.IsNegative() {
		return Price{}, fmt.Errorf("%w: %s", ErrNegativePrice, amount)
	}
	return Price{amount: amount}, nil
}

func NewPriceFromInt(amount int64) (Price, error) {
	return NewPrice(decimal.NewFromInt(amount))
}

func (p Price) Amount() decimal.Decimal {
	return p.amount
}

func (p Price) Add(other Price) Price {
	return Price{amount: p.amount.Add(other.amount)}
}

func (p Price) MulQuantity(quantity int) Price {
	return Price{amount: p.amount.Mul(decimal.NewFromInt(int64(quantity)))}
}

func (p Price) Sub(other Price) (Price, error) {
	return NewPrice(p.amount.Sub(other.amount))
}

func (p Price) Equal(other Price) bool {
	return p.amount.Equal(other.amount)
}

func (p Price) LessThan(other Price) bool {
	return p.amount.LessThan(other.amount)
}

func (p Price) String() string {
	return p.amount.String()
}

func (p Price) MarshalJSON() ([]byte, error) {
	return p.amount.MarshalJSON()
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(data); err != nil {
		return err
	}

	price, err := NewPrice(amount)
	if err != nil {
		return err
	}

	*p = price
	return nil
}

func (p Price) Value() (driver.Value, error) {
	return p.amount.Value()
}

// Scan re-validates so a bad row never yields a negative Price in memory.
func (p *Price) Scan(src interface{}) error {
	var amount decimal.Decimal
	if err := amount.Scan(src); err != nil {
		return err
	}

	price, err := NewPrice(amount)
	if err != nil {
		return err
	}

	*p = price
	return nil
}
