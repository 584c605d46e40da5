package domain

// Monetary values are integers in minor currency units (cents, paise).
// They never pass through floating point; commission rates are expressed
// in basis points (1 bp = 0.01%).

const bpsDenominator = 10000

// ValidCurrency reports whether code is a well-formed 3-letter currency code.
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// Commission computes the platform commission for a charge using
// round-half-up integer arithmetic. Both operands must be non-negative.
//
//	Commission(10000, 70) == 70    // 0.70% of 10000
//	Commission(333, 70)   == 2     // round(2.331)
func Commission(amountMinor int64, rateBps int32) int64 {
	return (amountMinor*int64(rateBps) + bpsDenominator/2) / bpsDenominator
}

// Net returns the settlement amount due to the merchant after commission.
func Net(amountMinor, commissionMinor int64) int64 {
	return amountMinor - commissionMinor
}
