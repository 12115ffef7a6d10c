package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// registerCustomValidations adds domain-specific binding rules. "decimal"
// accepts any string shopspring/decimal can parse, so amount fields are
// rejected at bind time instead of deep inside a service.
func registerCustomValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
			_, err := decimal.NewFromString(fl.Field().String())
			return err == nil
		})
	}
}
