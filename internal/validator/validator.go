// Package validator registers the custom binding tags used by request structs:
//
//	iso4217          three-letter ISO 4217 currency code
//	transaction_type income or expense
//	sort_order       asc or desc
//	user_role        user or admin
//	flexible_date    RFC3339 timestamp or YYYY-MM-DD date
package validator

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"budgetify/internal/models"
	"budgetify/internal/money"
)

// Register installs the custom tags on Gin's validator. It is safe to call
// more than once.
func Register() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("iso4217", func(fl validator.FieldLevel) bool {
		return money.IsCurrency(fl.Field().String())
	})
	_ = v.RegisterValidation("transaction_type", func(fl validator.FieldLevel) bool {
		return models.TransactionType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("sort_order", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "asc" || s == "desc"
	})
	_ = v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("flexible_date", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return true
		}
		_, err := time.Parse(time.DateOnly, s)
		return err == nil
	})
}
