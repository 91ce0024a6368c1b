package types

import "strings"

// currencyPrecision maps ISO currency codes to their minor-unit exponent.
// Currencies not listed here default to 2 decimal places.
var currencyPrecision = map[string]int32{
	"bhd": 3,
	"jod": 3,
	"kwd": 3,
	"omr": 3,
	"tnd": 3,
	"jpy": 0,
	"krw": 0,
	"vnd": 0,
	"clp": 0,
	"isk": 0,
}

// GetCurrencyPrecision returns the number of minor-unit decimal places for a
// given 3 letter ISO currency code
func GetCurrencyPrecision(code string) int32 {
	if precision, ok := currencyPrecision[strings.ToLower(code)]; ok {
		return precision
	}
	return 2
}
