// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// hexColorRegex accepts #RGB and #RRGGBB.
var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// iso4217Codes lists the active ISO 4217 currency codes.
var iso4217Codes = []string{
	"AED", "AFN", "ALL", "AMD", "ANG", "AOA", "ARS", "AUD", "AWG", "AZN",
	"BAM", "BBD", "BDT", "BGN", "BHD", "BIF", "BMD", "BND", "BOB", "BRL",
	"BSD", "BTN", "BWP", "BYN", "BZD", "CAD", "CDF", "CHF", "CLP", "CNY",
	"COP", "CRC", "CUP", "CVE", "CZK", "DJF", "DKK", "DOP", "DZD", "EGP",
	"ERN", "ETB", "EUR", "FJD", "FKP", "GBP", "GEL", "GHS", "GIP", "GMD",
	"GNF", "GTQ", "GYD", "HKD", "HNL", "HRK", "HTG", "HUF", "IDR", "ILS",
	"INR", "IQD", "IRR", "ISK", "JMD", "JOD", "JPY", "KES", "KGS", "KHR",
	"KMF", "KPW", "KRW", "KWD", "KYD", "KZT", "LAK", "LBP", "LKR", "LRD",
	"LSL", "LYD", "MAD", "MDL", "MGA", "MKD", "MMK", "MNT", "MOP", "MRU",
	"MUR", "MVR", "MWK", "MXN", "MYR", "MZN", "NAD", "NGN", "NIO", "NOK",
	"NPR", "NZD", "OMR", "PAB", "PEN", "PGK", "PHP", "PKR", "PLN", "PYG",
	"QAR", "RON", "RSD", "RUB", "RWF", "SAR", "SBD", "SCR", "SDG", "SEK",
	"SGD", "SHP", "SLE", "SOS", "SRD", "SSP", "STN", "SVC", "SYP", "SZL",
	"THB", "TJS", "TMT", "TND", "TOP", "TRY", "TTD", "TWD", "TZS", "UAH",
	"UGX", "USD", "UYU", "UZS", "VES", "VND", "VUV", "WST", "XAF", "XCD",
	"XOF", "XPF", "YER", "ZAR", "ZMW", "ZWL",
}

var validCurrencies = func() map[string]bool {
	set := make(map[string]bool, len(iso4217Codes))
	for _, code := range iso4217Codes {
		set[code] = true
	}
	return set
}()

// oneOf builds a validator that accepts exactly the given string values.
func oneOf(values ...string) validator.Func {
	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	return func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().String()]
	}
}

// Register installs the custom tags on Gin's binding engine. Call once
// at startup before any request binding happens.
func Register() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("iso4217", func(fl validator.FieldLevel) bool {
		return validCurrencies[fl.Field().String()]
	})
	_ = v.RegisterValidation("hex_color", func(fl validator.FieldLevel) bool {
		return hexColorRegex.MatchString(fl.Field().String())
	})
	// Weekdays follow time.Weekday numbering, Sunday is 0.
	_ = v.RegisterValidation("day_of_week", func(fl validator.FieldLevel) bool {
		d := fl.Field().Int()
		return d >= 0 && d <= 6
	})

	_ = v.RegisterValidation("transaction_type", oneOf("income", "expense", "transfer"))
	_ = v.RegisterValidation("category_type", oneOf("income", "expense"))
	_ = v.RegisterValidation("account_type", oneOf("cash", "savings", "credit_card"))
	_ = v.RegisterValidation("period_type", oneOf("daily", "weekly", "fortnightly", "monthly", "annually"))
	_ = v.RegisterValidation("day_of_month_type",
		oneOf("fixed", "last_day", "first_weekday", "last_weekday", "first_of_week", "last_of_week"))
	_ = v.RegisterValidation("match_status", oneOf("pending", "confirmed", "dismissed"))
}
