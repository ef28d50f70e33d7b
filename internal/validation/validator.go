package validation

import (
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/kitchen-orderflow/internal/secure"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// the submitted total must equal the sum of price * quantity over items
	v.RegisterStructValidation(createOrderStructValidation, CreateOrderRequest{})

	// buyer text must never look like an encrypted field
	_ = v.RegisterValidation("unsealed", func(fl validatorv10.FieldLevel) bool {
		return !secure.IsSealed(fl.Field().String())
	})

	return v
}

func createOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(CreateOrderRequest)

	sum := decimal.Zero
	for _, it := range req.Items {
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	total := decimal.NewFromFloat(req.Total)
	if !sum.Round(2).Equal(total.Round(2)) {
		sl.ReportError(req.Total, "total", "Total", "total_match_items", fmt.Sprintf("items sum %s != total %s", sum.StringFixed(2), total.StringFixed(2)))
	}
}
