package solana

import (
	"fmt"
	"math/big"
	"strings"
)

// ToBaseUnits converts a human-readable decimal amount string into base
// units at the given mint precision. The conversion is exact; amounts with
// more fractional digits than the mint supports are rejected rather than
// silently truncated.
func ToBaseUnits(amount string, decimals uint8) (uint64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(amount, "-") {
		return 0, fmt.Errorf("negative amount %q", amount)
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > int(decimals) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", amount, decimals)
	}
	// Right-pad the fractional part to the mint's precision.
	frac += strings.Repeat("0", int(decimals)-len(frac))

	combined := whole + frac
	v, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount %q overflows u64 at %d decimals", amount, decimals)
	}
	return v.Uint64(), nil
}

// FormatBaseUnits renders a base-unit amount as a decimal string at the
// given mint precision, trimming trailing fractional zeros.
func FormatBaseUnits(amount uint64, decimals uint8) string {
	if decimals == 0 {
		return fmt.Sprintf("%d", amount)
	}
	s := fmt.Sprintf("%0*d", int(decimals)+1, amount)
	whole := s[:len(s)-int(decimals)]
	frac := strings.TrimRight(s[len(s)-int(decimals):], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}
