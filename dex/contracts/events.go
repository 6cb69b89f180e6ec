package contracts

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrUnknownEvent is returned for logs the DEX ABI does not describe
var ErrUnknownEvent = errors.New("unknown DEX event")

// Event is a decoded DEX log
type Event interface {
	EventName() string
	RawLog() types.Log
}

type EthToTokenSwap struct {
	Swapper     common.Address
	TokenOutput *big.Int
	EthInput    *big.Int
	Raw         types.Log
}

type TokenToEthSwap struct {
	Swapper     common.Address
	TokensInput *big.Int
	EthOutput   *big.Int
	Raw         types.Log
}

type LiquidityProvided struct {
	LiquidityProvider common.Address
	LiquidityMinted   *big.Int
	EthInput          *big.Int
	TokensInput       *big.Int
	Raw               types.Log
}

type LiquidityRemoved struct {
	LiquidityRemover   common.Address
	LiquidityWithdrawn *big.Int
	TokensOutput       *big.Int
	EthOutput          *big.Int
	Raw                types.Log
}

func (e *EthToTokenSwap) EventName() string    { return "EthToTokenSwap" }
func (e *TokenToEthSwap) EventName() string    { return "TokenToEthSwap" }
func (e *LiquidityProvided) EventName() string { return "LiquidityProvided" }
func (e *LiquidityRemoved) EventName() string  { return "LiquidityRemoved" }

func (e *EthToTokenSwap) RawLog() types.Log    { return e.Raw }
func (e *TokenToEthSwap) RawLog() types.Log    { return e.Raw }
func (e *LiquidityProvided) RawLog() types.Log { return e.Raw }
func (e *LiquidityRemoved) RawLog() types.Log  { return e.Raw }

// DecodeEvent decodes a log emitted by the DEX contract
func (d *DEX) DecodeEvent(log types.Log) (Event, error) {
	return decodeEvent(d.abi, log)
}

func decodeEvent(parsed abi.ABI, log types.Log) (Event, error) {
	if len(log.Topics) == 0 {
		return nil, ErrUnknownEvent
	}

	ev, err := parsed.EventByID(log.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, log.Topics[0].Hex())
	}

	var out Event
	switch ev.Name {
	case "EthToTokenSwap":
		e := &EthToTokenSwap{Raw: log}
		err = parsed.UnpackIntoInterface(e, ev.Name, log.Data)
		out = e
	case "TokenToEthSwap":
		e := &TokenToEthSwap{Raw: log}
		err = parsed.UnpackIntoInterface(e, ev.Name, log.Data)
		out = e
	case "LiquidityProvided":
		e := &LiquidityProvided{Raw: log}
		err = parsed.UnpackIntoInterface(e, ev.Name, log.Data)
		out = e
	case "LiquidityRemoved":
		e := &LiquidityRemoved{Raw: log}
		err = parsed.UnpackIntoInterface(e, ev.Name, log.Data)
		out = e
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", ev.Name, err)
	}

	return out, nil
}

// EventTopics returns the topic0 hashes of every DEX event
func (d *DEX) EventTopics() []common.Hash {
	topics := make([]common.Hash, 0, len(d.abi.Events))
	for _, name := range []string{"EthToTokenSwap", "TokenToEthSwap", "LiquidityProvided", "LiquidityRemoved"} {
		topics = append(topics, d.abi.Events[name].ID)
	}
	return topics
}
