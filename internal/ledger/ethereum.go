package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ticketchain/ticket-service/internal/models"
)

const (
	mintedEvent = "TicketMinted"

	// gasPriceTTL bounds how stale the cached gas price may get. A stale
	// price only affects cost, never correctness.
	gasPriceTTL = 30 * time.Second
)

// EthereumConfig holds everything needed to talk to the deployed Ticket
// contract through a JSON-RPC node.
type EthereumConfig struct {
	RPCURL          string
	PrivateKey      string
	ContractAddress string
	ContractABIPath string
	ChainID         int64
}

// Ethereum submits ticket lifecycle operations as signed transactions against
// the Ticket contract and blocks until each one is mined.
type Ethereum struct {
	client   *ethclient.Client
	contract *bind.BoundContract
	abi      abi.ABI
	address  common.Address
	auth     *bind.TransactOpts

	gasMu      sync.Mutex
	gasPrice   *big.Int
	gasPriceAt time.Time
}

func NewEthereum(ctx context.Context, cfg EthereumConfig) (*Ethereum, error) {
	if cfg.RPCURL == "" {
		return nil, errors.New("rpc url is required")
	}
	if cfg.PrivateKey == "" {
		return nil, errors.New("deployer private key is required")
	}
	if cfg.ContractAddress == "" {
		return nil, errors.New("contract address is required")
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCURL, err)
	}

	// Verify the node is actually reachable and on the expected chain.
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("query chain id: %w", err)
	}
	if cfg.ChainID != 0 && chainID.Int64() != cfg.ChainID {
		client.Close()
		return nil, fmt.Errorf("node reports chain id %d, expected %d", chainID.Int64(), cfg.ChainID)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("build transactor: %w", err)
	}

	contractABI, err := loadContractABI(cfg.ContractABIPath)
	if err != nil {
		client.Close()
		return nil, err
	}

	address := common.HexToAddress(cfg.ContractAddress)
	contract := bind.NewBoundContract(address, contractABI, client, client, client)

	return &Ethereum{
		client:   client,
		contract: contract,
		abi:      contractABI,
		address:  address,
		auth:     auth,
	}, nil
}

// loadContractABI reads the ABI out of a hardhat artifact JSON file.
func loadContractABI(path string) (abi.ABI, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("read contract artifact %s: %w", path, err)
	}

	var artifact struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return abi.ABI{}, fmt.Errorf("parse contract artifact %s: %w", path, err)
	}

	parsed, err := abi.JSON(bytes.NewReader(artifact.ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse contract abi: %w", err)
	}
	return parsed, nil
}

func (e *Ethereum) Mint(ctx context.Context, toAddress, tokenURI string) (*MintResult, error) {
	receipt, err := e.transact(ctx, "mintTicket", common.HexToAddress(toAddress), tokenURI)
	if err != nil {
		return nil, err
	}

	tokenID, err := e.tokenIDFromLogs(ctx, receipt)
	if err != nil {
		return nil, err
	}

	mapped, err := e.mapReceipt(ctx, receipt)
	if err != nil {
		return nil, err
	}
	return &MintResult{TokenID: tokenID, Receipt: *mapped}, nil
}

func (e *Ethereum) Transfer(ctx context.Context, tokenID int64, fromAddress, toAddress string) (*Receipt, error) {
	receipt, err := e.transact(ctx, "ownerTransfer",
		common.HexToAddress(fromAddress),
		common.HexToAddress(toAddress),
		big.NewInt(tokenID),
	)
	if err != nil {
		return nil, err
	}
	return e.mapReceipt(ctx, receipt)
}

func (e *Ethereum) CheckIn(ctx context.Context, tokenID int64) (*Receipt, error) {
	receipt, err := e.transact(ctx, "checkIn", big.NewInt(tokenID))
	if err != nil {
		return nil, err
	}
	return e.mapReceipt(ctx, receipt)
}

func (e *Ethereum) Invalidate(ctx context.Context, tokenID int64) (*Receipt, error) {
	receipt, err := e.transact(ctx, "invalidate", big.NewInt(tokenID))
	if err != nil {
		return nil, err
	}
	return e.mapReceipt(ctx, receipt)
}

func (e *Ethereum) Status(ctx context.Context, tokenID int64) (models.TicketStatus, error) {
	var out []any
	if err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "ticketStatuses", big.NewInt(tokenID)); err != nil {
		return "", classify(err)
	}
	code, ok := out[0].(uint8)
	if !ok {
		return "", fmt.Errorf("unexpected ticketStatuses result %T", out[0])
	}

	switch code {
	case 0:
		return models.StatusValid, nil
	case 1:
		return models.StatusCheckedIn, nil
	case 2:
		return models.StatusInvalidated, nil
	default:
		return "", fmt.Errorf("unknown ticket status code %d", code)
	}
}

func (e *Ethereum) Owner(ctx context.Context, tokenID int64) (string, error) {
	var out []any
	if err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "ownerOf", big.NewInt(tokenID)); err != nil {
		return "", classify(err)
	}
	owner, ok := out[0].(common.Address)
	if !ok {
		return "", fmt.Errorf("unexpected ownerOf result %T", out[0])
	}
	return owner.Hex(), nil
}

// transact packs, prices, estimates, signs, and submits one contract call,
// then blocks until it is mined. Submitted-but-unconfirmed transactions are
// never resubmitted; resubmission would risk a nonce double-spend.
func (e *Ethereum) transact(ctx context.Context, method string, args ...any) (*types.Receipt, error) {
	gasPrice, err := e.suggestGasPrice(ctx)
	if err != nil {
		return nil, classify(err)
	}

	data, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	estimate, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
		From:     e.auth.From,
		To:       &e.address,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return nil, classify(err)
	}

	opts := &bind.TransactOpts{
		From:     e.auth.From,
		Signer:   e.auth.Signer,
		GasPrice: gasPrice,
		GasLimit: estimate + estimate/5, // 20% headroom over the estimate
		Context:  ctx,
	}

	tx, err := e.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, classify(err)
	}

	receipt, err := bind.WaitMined(ctx, e.client, tx)
	if err != nil {
		return nil, classify(err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &RejectedError{Reason: fmt.Sprintf("transaction %s reverted", tx.Hash().Hex())}
	}
	return receipt, nil
}

// suggestGasPrice returns the node's suggested price, cached for a short TTL
// to avoid repricing on every call.
func (e *Ethereum) suggestGasPrice(ctx context.Context) (*big.Int, error) {
	e.gasMu.Lock()
	defer e.gasMu.Unlock()

	if e.gasPrice != nil && time.Since(e.gasPriceAt) < gasPriceTTL {
		return e.gasPrice, nil
	}

	price, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	e.gasPrice = price
	e.gasPriceAt = time.Now()
	return price, nil
}

// tokenIDFromLogs extracts the minted token id from the TicketMinted event.
// If the event is missing from the receipt it falls back to totalSupply()-1,
// which is best-effort only: concurrent mints from other senders can race it.
func (e *Ethereum) tokenIDFromLogs(ctx context.Context, receipt *types.Receipt) (int64, error) {
	event, ok := e.abi.Events[mintedEvent]
	if ok {
		for _, lg := range receipt.Logs {
			if len(lg.Topics) == 0 || lg.Topics[0] != event.ID {
				continue
			}
			if len(lg.Topics) > 1 {
				return new(big.Int).SetBytes(lg.Topics[1].Bytes()).Int64(), nil
			}
			vals, err := event.Inputs.Unpack(lg.Data)
			if err != nil || len(vals) == 0 {
				continue
			}
			if id, ok := vals[0].(*big.Int); ok {
				return id.Int64(), nil
			}
		}
	}

	log.Printf("[Ledger] no %s event in tx %s, falling back to totalSupply", mintedEvent, receipt.TxHash.Hex())

	var out []any
	if err := e.contract.Call(&bind.CallOpts{Context: ctx}, &out, "totalSupply"); err != nil {
		return 0, classify(err)
	}
	supply, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected totalSupply result %T", out[0])
	}
	return supply.Int64() - 1, nil
}

// mapReceipt converts a mined receipt into the gateway's receipt shape,
// resolving the block timestamp from the chain.
func (e *Ethereum) mapReceipt(ctx context.Context, receipt *types.Receipt) (*Receipt, error) {
	header, err := e.client.HeaderByNumber(ctx, receipt.BlockNumber)
	if err != nil {
		return nil, classify(err)
	}

	return &Receipt{
		TxHash:      receipt.TxHash.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		Timestamp:   time.Unix(int64(header.Time), 0).UTC(),
	}, nil
}

// classify separates contract-level rejections from node/transport failures.
// Gas estimation surfaces reverts as "execution reverted" errors before a
// transaction is ever submitted.
func classify(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "execution reverted") || strings.Contains(msg, "always failing transaction") {
		reason := msg
		if i := strings.Index(msg, "execution reverted"); i >= 0 {
			reason = strings.TrimSpace(strings.TrimPrefix(msg[i:], "execution reverted"))
			reason = strings.TrimPrefix(reason, ":")
			reason = strings.TrimSpace(reason)
			if reason == "" {
				reason = "execution reverted"
			}
		}
		return &RejectedError{Reason: reason}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (e *Ethereum) Close() {
	e.client.Close()
}
