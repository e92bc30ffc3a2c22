package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMsisdn(t *testing.T) {
	cases := map[string]string{
		"250781234567":    "250781234567",
		"+250781234567":   "250781234567",
		"0781234567":      "250781234567",
		"781234567":       "250781234567",
		"+250 78 123 4567": "250781234567",
		"0731234567":      "250731234567",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeMsisdn(in), "input %q", in)
	}
}

func TestNormalizeMsisdnRejectsGarbage(t *testing.T) {
	for _, in := range []string{
		"",
		"not a number",
		"12345",
		"250701234567",  // 70 is not a Rwandan mobile prefix
		"2507812345678", // too long
		"456781234567",  // wrong country code
	} {
		assert.Empty(t, NormalizeMsisdn(in), "input %q", in)
	}
}
