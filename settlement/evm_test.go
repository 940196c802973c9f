package settlement

import (
	"context"
	"strings"
	"testing"
)

func newTestGateway(t *testing.T) Gateway {
	t.Helper()
	gateway, err := NewEVMGateway(EVMGatewayConfig{
		RPCURL:         "http://localhost:8545",
		PrivateKey:     "0x0000000000000000000000000000000000000000000000000000000000000001",
		FactoryAddress: "0x0000000000000000000000000000000000000000",
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return gateway
}

func TestNewEVMGatewayRequiresConfig(t *testing.T) {
	_, err := NewEVMGateway(EVMGatewayConfig{RPCURL: "http://localhost:8545"})
	if err == nil {
		t.Fatal("expected error for incomplete configuration")
	}
}

func TestDeployContractShapes(t *testing.T) {
	gateway := newTestGateway(t)

	result, err := gateway.DeployContract(context.Background(), DeployRequest{
		Name:            "World Cup Bracket",
		Sport:           "soccer",
		EntryFee:        "0.01",
		PrizePool:       "1.0",
		MaxParticipants: 100,
		CreatorAddress:  "0xcreator",
	})
	if err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if !strings.HasPrefix(result.ContractAddress, "0x") || len(result.ContractAddress) != 42 {
		t.Fatalf("contract address is not a 20-byte hex address: %q", result.ContractAddress)
	}
	if !strings.HasPrefix(result.TransactionHash, "0x") || len(result.TransactionHash) != 66 {
		t.Fatalf("transaction hash is not a 32-byte hex digest: %q", result.TransactionHash)
	}
}

func TestIssueReceiptUnique(t *testing.T) {
	gateway := newTestGateway(t)

	first, err := gateway.IssueReceipt(context.Background(), "0xcontract", "0xuser", "0.01")
	if err != nil {
		t.Fatalf("first receipt: %v", err)
	}
	second, err := gateway.IssueReceipt(context.Background(), "0xcontract", "0xuser", "0.01")
	if err != nil {
		t.Fatalf("second receipt: %v", err)
	}
	if first == second {
		t.Fatalf("receipts must be unique, both were %q", first)
	}
	if !strings.HasPrefix(first, "0x") || len(first) != 66 {
		t.Fatalf("receipt is not a 32-byte hex digest: %q", first)
	}
}

func TestIssueReceiptRequiresAddresses(t *testing.T) {
	gateway := newTestGateway(t)

	if _, err := gateway.IssueReceipt(context.Background(), "", "0xuser", "0.01"); err == nil {
		t.Fatal("expected error for missing contract address")
	}
	if _, err := gateway.IssueReceipt(context.Background(), "0xcontract", "", "0.01"); err == nil {
		t.Fatal("expected error for missing user address")
	}
}

func TestIssueReceiptHonorsCancelledContext(t *testing.T) {
	gateway := newTestGateway(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gateway.IssueReceipt(ctx, "0xcontract", "0xuser", "0.01"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
