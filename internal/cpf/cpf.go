// Package cpf validates Brazilian individual taxpayer numbers (CPF).
//
// Validate is the only authority on whether a number is acceptable; every
// caller that needs an answer, including the public hint endpoint, goes
// through it.
package cpf

import (
	"errors"
	"strings"
)

// Length is the number of digits in a CPF, check digits included.
const Length = 11

var ErrWrongLength = errors.New("identification number must have 11 digits")

// IDNumber holds the 11 digits of a CPF with formatting removed.
type IDNumber string

// Parse strips formatting from raw and checks the digit count only.
// A wrong checksum is not a parse error.
func Parse(raw string) (IDNumber, error) {
	d := Digits(raw)
	if len(d) != Length {
		return "", ErrWrongLength
	}
	return IDNumber(d), nil
}

func (n IDNumber) String() string {
	return string(n)
}

func (n IDNumber) Valid() bool {
	return Validate(string(n))
}

func (n IDNumber) Formatted() string {
	return Format(string(n))
}

// Digits returns raw with every non-digit removed.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Validate reports whether raw, after stripping formatting, is an 11 digit
// CPF whose two check digits are correct. Sequences of a single repeated
// digit are rejected.
func Validate(raw string) bool {
	d := Digits(raw)
	if len(d) != Length {
		return false
	}
	if strings.Count(d, d[:1]) == Length {
		return false
	}

	digits := make([]int, Length)
	for i := range d {
		digits[i] = int(d[i] - '0')
	}

	return checkDigit(digits[:9]) == digits[9] && checkDigit(digits[:10]) == digits[10]
}

// checkDigit weights the prefix from len+1 down to 2.
func checkDigit(prefix []int) int {
	sum := 0
	weight := len(prefix) + 1
	for _, v := range prefix {
		sum += v * weight
		weight--
	}
	r := (sum * 10) % 11
	if r >= 10 {
		return 0
	}
	return r
}

// Format groups digits as ###.###.###-## for display. It does not validate;
// input without exactly 11 digits comes back as its bare digits.
func Format(raw string) string {
	d := Digits(raw)
	if len(d) != Length {
		return d
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}
