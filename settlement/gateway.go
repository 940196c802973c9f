package settlement

import "context"

// DeployResult описывает результат размещения контракта турнира в сети.
type DeployResult struct {
	ContractAddress string
	TransactionHash string
}

// DeployRequest carries the tournament parameters the contract is
// initialized with.
type DeployRequest struct {
	Name            string
	Sport           string
	EntryFee        string
	PrizePool       string
	MaxParticipants int
	CreatorAddress  string
}

// Gateway settles admitted joins against the ledger. The core only
// observes success or failure plus the returned receipt; internally a call
// may be multi-step (encode, submit, await confirmation).
type Gateway interface {
	DeployContract(ctx context.Context, req DeployRequest) (*DeployResult, error)

	// IssueReceipt records an entry payment on the tournament contract and
	// returns the transaction hash.
	IssueReceipt(ctx context.Context, contractAddress, userAddress, amount string) (string, error)
}
