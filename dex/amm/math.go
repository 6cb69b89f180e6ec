// Package amm mirrors the DEX contract's constant-product pricing so quotes
// can be shown before anything is submitted on chain.
package amm

import (
	"errors"
	"math/big"
)

// The contract keeps 0.3% of every input: 997/1000 of it is priced.
var (
	feeNumerator   = big.NewInt(997)
	feeDenominator = big.NewInt(1000)
	one            = big.NewInt(1)
)

var (
	ErrZeroReserves         = errors.New("amm: zero reserves")
	ErrInsufficientReserves = errors.New("amm: output exceeds reserves")
	ErrInvalidAmount        = errors.New("amm: invalid amount")
)

// Price returns the amount of y paid out for selling xInput into a pool
// holding xReserves and yReserves. It matches the contract's pure price().
func Price(xInput, xReserves, yReserves *big.Int) (*big.Int, error) {
	if err := checkAmount(xInput); err != nil {
		return nil, err
	}
	if err := checkReserves(xReserves, yReserves); err != nil {
		return nil, err
	}

	xInputWithFee := new(big.Int).Mul(xInput, feeNumerator)
	numerator := new(big.Int).Mul(xInputWithFee, yReserves)
	denominator := new(big.Int).Mul(xReserves, feeDenominator)
	denominator.Add(denominator, xInputWithFee)

	return numerator.Div(numerator, denominator), nil
}

// InputFor returns the smallest x that must be sold to receive yOutput.
// The +1 rounds up so Price(InputFor(y)) is never below y.
func InputFor(yOutput, xReserves, yReserves *big.Int) (*big.Int, error) {
	if err := checkAmount(yOutput); err != nil {
		return nil, err
	}
	if err := checkReserves(xReserves, yReserves); err != nil {
		return nil, err
	}
	if yOutput.Sign() == 0 {
		return new(big.Int), nil
	}
	if yOutput.Cmp(yReserves) >= 0 {
		return nil, ErrInsufficientReserves
	}

	numerator := new(big.Int).Mul(xReserves, yOutput)
	numerator.Mul(numerator, feeDenominator)
	denominator := new(big.Int).Sub(yReserves, yOutput)
	denominator.Mul(denominator, feeNumerator)

	amountIn := numerator.Div(numerator, denominator)
	return amountIn.Add(amountIn, one), nil
}

// TokenRequired returns the token amount that must accompany an ETH deposit
// to keep the pool ratio. The +1 rounds up to avoid under-approving.
func TokenRequired(ethDeposit, ethReserve, tokenReserve *big.Int) (*big.Int, error) {
	if err := checkAmount(ethDeposit); err != nil {
		return nil, err
	}
	if err := checkReserves(ethReserve, tokenReserve); err != nil {
		return nil, err
	}

	tokens := new(big.Int).Mul(ethDeposit, tokenReserve)
	tokens.Div(tokens, ethReserve)
	return tokens.Add(tokens, one), nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func checkReserves(x, y *big.Int) error {
	if x == nil || y == nil || x.Sign() <= 0 || y.Sign() <= 0 {
		return ErrZeroReserves
	}
	return nil
}
