package chain

import (
	"context"
	"math/big"
	"time"
)

// NativeDecimals is the decimal count of the native currency on the EVM
// chains we query (wei → ETH).
const NativeDecimals = 18

// Transfer is one asset movement from a wallet's history. Value is in the
// asset's smallest unit; Decimals says how to scale it back to whole tokens.
type Transfer struct {
	Hash      string    `json:"hash"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Asset     string    `json:"asset"`
	Category  string    `json:"category"`
	Value     *big.Int  `json:"value"`
	Decimals  int       `json:"decimals"`
	Timestamp time.Time `json:"timestamp"`
}

// TransferFilter narrows a history query. Zero values mean "no bound".
type TransferFilter struct {
	Direction  string // "sent", "received", or "" for both
	Categories []string
	Since      time.Time
	MaxCount   int
}

// EventLog is one decoded-enough contract log: raw topics and data, with the
// caller deciding what the words mean.
type EventLog struct {
	Address     string   `json:"address"`
	TxHash      string   `json:"tx_hash"`
	Topics      []string `json:"topics"`
	Data        []byte   `json:"data"`
	BlockNumber uint64   `json:"block_number"`
}

// EventFilter narrows a log query.
type EventFilter struct {
	Participant    string // wallet that must appear in an indexed topic
	LookbackBlocks int64  // 0 = provider default range
}

// QueryAdapter is the read-only capability the verification engine needs
// from a blockchain data provider. Addresses and chain ids are strings so a
// non-EVM implementation can slot in without touching callers.
// Implementations must honor ctx cancellation; all amounts are base units.
type QueryAdapter interface {
	// GetBalance returns the wallet's balance of currency on a chain.
	// currency "ETH"/"" means the native coin; a 0x address means ERC-20.
	GetBalance(ctx context.Context, chainID, address, currency string) (*big.Int, error)

	// GetTransfers returns the wallet's transfer history, newest first.
	GetTransfers(ctx context.Context, chainID, address string, filter TransferFilter) ([]Transfer, error)

	// GetEventLogs returns logs emitted by a contract for one event signature.
	GetEventLogs(ctx context.Context, chainID, contractAddress, eventSignature string, filter EventFilter) ([]EventLog, error)
}

// BaseUnits converts a whole-token amount to the asset's smallest unit.
// Comparison against on-chain integers must happen in base units — comparing
// floats against wei loses precision long before it loses correctness.
func BaseUnits(amount float64, decimals int) *big.Int {
	if decimals <= 0 {
		decimals = NativeDecimals
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	f := new(big.Float).SetFloat64(amount)
	f.Mul(f, new(big.Float).SetInt(scale))
	i, _ := f.Int(nil)
	return i
}
