package settlement

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/sha3"
)

type EVMGatewayConfig struct {
	RPCURL         string
	PrivateKey     string
	FactoryAddress string
}

type evmGateway struct {
	rpcURL         string
	privateKey     string
	factoryAddress string
	nonce          atomic.Uint64
}

// NewEVMGateway создаёт шлюз расчётов поверх EVM-совместимой сети.
// Транзакции симулируются: реальный клиент собрал бы вызов фабрики и ждал
// подтверждения, здесь же хеши выводятся детерминированно через keccak256.
func NewEVMGateway(cfg EVMGatewayConfig) (Gateway, error) {
	if cfg.RPCURL == "" || cfg.PrivateKey == "" || cfg.FactoryAddress == "" {
		return nil, errors.New("invalid EVM gateway configuration: all fields are required")
	}
	return &evmGateway{
		rpcURL:         cfg.RPCURL,
		privateKey:     cfg.PrivateKey,
		factoryAddress: cfg.FactoryAddress,
	}, nil
}

func (g *evmGateway) DeployContract(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nonce := g.nonce.Add(1)
	digest := g.keccak("createMarket|%s|%s|%s|%s|%d|%s|%d",
		req.Name, req.Sport, req.EntryFee, req.PrizePool, req.MaxParticipants, req.CreatorAddress, nonce)

	// A contract address is the low 20 bytes of the deployment digest.
	return &DeployResult{
		ContractAddress: "0x" + hex.EncodeToString(digest[12:]),
		TransactionHash: "0x" + hex.EncodeToString(digest),
	}, nil
}

func (g *evmGateway) IssueReceipt(ctx context.Context, contractAddress, userAddress, amount string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if contractAddress == "" || userAddress == "" {
		return "", errors.New("contract and user addresses are required to settle a join")
	}

	nonce := g.nonce.Add(1)
	digest := g.keccak("join|%s|%s|%s|%d|%d", contractAddress, userAddress, amount, nonce, time.Now().UnixNano())
	return "0x" + hex.EncodeToString(digest), nil
}

func (g *evmGateway) keccak(format string, args ...interface{}) []byte {
	h := sha3.NewLegacyKeccak256()
	fmt.Fprintf(h, "%s|%s|", g.factoryAddress, g.privateKey)
	fmt.Fprintf(h, format, args...)
	return h.Sum(nil)
}
