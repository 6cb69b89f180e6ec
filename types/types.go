package types

import (
	"fmt"
	"math/big"
	"strings"
)

// Token identifies one side of the Balloon/ETH pool
type Token string

const (
	ETH Token = "ETH"
	BAL Token = "BAL"
)

// ParseToken parses a token symbol case-insensitively
func ParseToken(s string) (Token, error) {
	switch Token(strings.ToUpper(strings.TrimSpace(s))) {
	case ETH:
		return ETH, nil
	case BAL:
		return BAL, nil
	default:
		return "", fmt.Errorf("unknown token %q", s)
	}
}

// Other returns the opposite side of the pool
func (t Token) Other() Token {
	if t == BAL {
		return ETH
	}
	return BAL
}

func (t Token) String() string {
	return string(t)
}

// Reserves holds the pool balances in wei
type Reserves struct {
	Eth   *big.Int
	Token *big.Int
}

// For orients the reserves for selling the given token: x is the side being
// sold into, y the side paid out.
func (r Reserves) For(sell Token) (x, y *big.Int) {
	if sell == BAL {
		return r.Token, r.Eth
	}
	return r.Eth, r.Token
}

// Empty reports whether either side of the pool is missing or zero
func (r Reserves) Empty() bool {
	return r.Eth == nil || r.Token == nil || r.Eth.Sign() == 0 || r.Token.Sign() == 0
}
