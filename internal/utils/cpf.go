package utils

import (
	"regexp"
)

var nonDigit = regexp.MustCompile(`\D`)

// CPFDigits strips every non-digit character from a CPF
func CPFDigits(cpf string) string {
	return nonDigit.ReplaceAllString(cpf, "")
}

// ValidateCPF validates a CPF number
// It checks if the CPF has 11 digits and validates the check digits.
// Mask characters are ignored.
func ValidateCPF(cpf string) bool {
	cpf = CPFDigits(cpf)

	if len(cpf) != 11 {
		return false
	}

	// Known invalid CPFs: all digits the same
	allSame := true
	for i := 1; i < len(cpf); i++ {
		if cpf[i] != cpf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	digits := make([]int, 11)
	for i := range cpf {
		digits[i] = int(cpf[i] - '0')
	}

	return digits[9] == cpfCheckDigit(digits[:9]) &&
		digits[10] == cpfCheckDigit(digits[:10])
}

// cpfCheckDigit computes the next check digit over the given prefix, with
// weights descending to 2.
func cpfCheckDigit(prefix []int) int {
	sum := 0
	weight := len(prefix) + 1
	for _, d := range prefix {
		sum += d * weight
		weight--
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}
