package accounts

import (
	"fmt"
	"math/rand/v2"
)

// GenerateCode produces a 4-digit zero-padded activation code. A plain
// PRNG is sufficient: the code is scoped per account and short-lived,
// collisions across accounts are acceptable.
func GenerateCode() string {
	return fmt.Sprintf("%04d", rand.IntN(10000))
}
