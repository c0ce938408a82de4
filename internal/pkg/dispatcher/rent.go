package dispatcher

import (
	"github.com/tidwall/gjson"
)

// RentQuote is the client-facing rent summary.
type RentQuote struct {
	MedianRent  float64 `json:"medianRent"`
	LastUpdated string  `json:"lastUpdated"`
}

// RentFields holds the rent figures a provider response may carry. Providers
// have used several field names over time; a nil field was absent or null.
type RentFields struct {
	MedianRent *float64
	Rent       *float64
	Price      *float64
	Median     *float64
}

// rentFieldPrecedence lists the response fields in lookup order.
var rentFieldPrecedence = []string{"medianRent", "rent", "price", "median"}

// ParseRentFields extracts the known rent fields from a JSON body.
func ParseRentFields(body []byte) RentFields {
	var f RentFields
	targets := []**float64{&f.MedianRent, &f.Rent, &f.Price, &f.Median}
	results := gjson.GetManyBytes(body, rentFieldPrecedence...)
	for i, r := range results {
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		v := r.Float()
		*targets[i] = &v
	}
	return f
}

// Value returns the first present field in precedence order
// (medianRent, rent, price, median), or 0 when none is present.
// A present zero wins over later fields.
func (f RentFields) Value() float64 {
	for _, v := range []*float64{f.MedianRent, f.Rent, f.Price, f.Median} {
		if v != nil {
			return *v
		}
	}
	return 0
}
