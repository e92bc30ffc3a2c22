package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// msisdnPattern matches Rwandan mobile numbers in international format,
// e.g. 250781234567.
var msisdnPattern = regexp.MustCompile(`^250(7[2389])\d{7}$`)

// RegisterValidators installs custom binding validators on gin's engine.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("msisdn", func(fl validator.FieldLevel) bool {
			return msisdnPattern.MatchString(fl.Field().String())
		})
	}
}

// NormalizeMsisdn strips punctuation and the leading 0/+ forms down to the
// 250XXXXXXXXX shape the gateways expect. Returns "" if it cannot.
func NormalizeMsisdn(s string) string {
	digits := regexp.MustCompile(`\D`).ReplaceAllString(s, "")
	if digits == "" {
		return ""
	}
	if len(digits) == 10 && digits[0] == '0' {
		digits = "250" + digits[1:]
	} else if len(digits) == 9 {
		digits = "250" + digits
	}
	if !msisdnPattern.MatchString(digits) {
		return ""
	}
	return digits
}
