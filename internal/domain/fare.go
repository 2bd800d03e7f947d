package domain

// AppliedDiscount is the standing discount applied to a fare.
type AppliedDiscount struct {
	Type   DiscountType `json:"type"`
	Rate   float64      `json:"rate"`
	Amount float64      `json:"amount"`
}

// AppliedPromotion is one promotion applied to a fare.
type AppliedPromotion struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	IsPercentage bool    `json:"is_percentage"`
	Value        float64 `json:"value"`
	Amount       float64 `json:"amount"`
}

// FareQuote is a priced fare with the ordered effects that produced it.
type FareQuote struct {
	BaseFare   float64
	FinalFare  float64
	Discount   *AppliedDiscount
	Promotions []AppliedPromotion
}
