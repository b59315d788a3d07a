package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"auction-bidding/internal/biddingerrors"

	"github.com/shopspring/decimal"
)

// currencySymbols lists the symbols a price may start with
var currencySymbols = []string{"$", "€", "£", "¥", "₹"}

var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// Price is a currency-tagged decimal amount such as "$15" or "€12.50".
// The original text is kept so prices round-trip verbatim.
type Price struct {
	Symbol string
	Amount decimal.Decimal
	text   string
}

// ParsePrice validates text as a leading currency symbol followed by a
// non-negative decimal amount
func ParsePrice(text string) (Price, error) {
	trimmed := strings.TrimSpace(text)
	for _, symbol := range currencySymbols {
		if !strings.HasPrefix(trimmed, symbol) {
			continue
		}
		raw := strings.TrimPrefix(trimmed, symbol)
		if !amountPattern.MatchString(raw) {
			return Price{}, fmt.Errorf("%w: %q has no numeric amount", biddingerrors.ErrInvalidFormat, text)
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return Price{}, fmt.Errorf("%w: %q: %v", biddingerrors.ErrInvalidFormat, text, err)
		}
		return Price{Symbol: symbol, Amount: amount, text: trimmed}, nil
	}
	return Price{}, fmt.Errorf("%w: %q should start with a currency symbol", biddingerrors.ErrInvalidFormat, text)
}

// MustParsePrice is ParsePrice for literals known to be valid
func MustParsePrice(text string) Price {
	p, err := ParsePrice(text)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the price as it was submitted
func (p Price) String() string {
	return p.text
}

// IsZero reports whether p was never set
func (p Price) IsZero() bool {
	return p.text == ""
}

// Equal compares currency and numeric value, ignoring formatting
func (p Price) Equal(other Price) bool {
	return p.Symbol == other.Symbol && p.Amount.Equal(other.Amount)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.text)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	parsed, err := ParsePrice(text)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
