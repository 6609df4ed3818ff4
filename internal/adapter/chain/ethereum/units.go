package ethereum

import (
	"fmt"
	"math/big"
	"regexp"

	"github.com/shopspring/decimal"
)

// WeiDecimals is the chain's native precision: 1 ether = 10^18 wei.
const WeiDecimals = 18

var weiFactor = decimal.New(1, WeiDecimals)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsAddress reports whether s is shaped like a 20-byte hex chain address.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ToWei converts a decimal ether amount to wei. The conversion must be
// exact: values with sub-wei precision or non-positive values are rejected
// rather than rounded.
func ToWei(amount decimal.Decimal) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}
	scaled := amount.Mul(weiFactor)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s is not representable in wei", amount)
	}
	return scaled.BigInt(), nil
}

// FromWei converts a wei amount to decimal ether.
func FromWei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -WeiDecimals)
}
