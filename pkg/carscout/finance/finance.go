// Package finance computes monthly payments for a vehicle loan.
package finance

import (
	"fmt"
	"math"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
)

const (
	MaxTermMonths = 96
	MaxAPR        = 40
)

// Loan describes a financing request. APR and TaxRate are percentages.
type Loan struct {
	Price       float64 `json:"price"`
	DownPayment float64 `json:"downPayment"`
	TradeIn     float64 `json:"tradeIn"`
	APR         float64 `json:"apr"`
	TermMonths  int     `json:"termMonths"`
	TaxRate     float64 `json:"taxRate"`
}

// Quote is the result of a payment calculation, rounded to cents.
type Quote struct {
	AmountFinanced float64 `json:"amountFinanced"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalInterest  float64 `json:"totalInterest"`
	TotalCost      float64 `json:"totalCost"`
}

func (l Loan) Validate() error {
	switch {
	case l.Price <= 0:
		return dal.ValidationError("price must be positive")
	case l.DownPayment < 0 || l.TradeIn < 0:
		return dal.ValidationError("down payment and trade-in must not be negative")
	case l.DownPayment > l.Price:
		return dal.ValidationError("down payment must not exceed the price")
	case l.TermMonths < 1 || l.TermMonths > MaxTermMonths:
		return dal.ValidationError(fmt.Sprintf("term must be between 1 and %d months", MaxTermMonths))
	case l.APR < 0 || l.APR > MaxAPR:
		return dal.ValidationError(fmt.Sprintf("apr must be between 0 and %d", MaxAPR))
	case l.TaxRate < 0:
		return dal.ValidationError("tax rate must not be negative")
	}
	return nil
}

// Calculate amortises the financed amount over the loan term.
func Calculate(l Loan) (Quote, error) {
	if err := l.Validate(); err != nil {
		return Quote{}, err
	}

	financed := math.Max(0, l.Price-l.DownPayment-l.TradeIn) * (1 + l.TaxRate/100)
	n := float64(l.TermMonths)

	var monthly float64
	if r := l.APR / 100 / 12; r == 0 {
		monthly = financed / n
	} else {
		monthly = financed * r / (1 - math.Pow(1+r, -n))
	}

	total := monthly * n
	return Quote{
		AmountFinanced: cents(financed),
		MonthlyPayment: cents(monthly),
		TotalInterest:  cents(total - financed),
		TotalCost:      cents(total + l.DownPayment + l.TradeIn),
	}, nil
}

func cents(x float64) float64 {
	return math.Round(x*100) / 100
}
