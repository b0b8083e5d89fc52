package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// Custody contract view ABI. lockedBalanceOf reports the total amount the
// custodian holds in escrow for an account, in cents.
var custodyABI abi.ABI

func init() {
	var err error
	custodyABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "lockedBalanceOf",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "accountId", "type": "uint256"}],
			"outputs": [{"name": "", "type": "uint256"}]
		}
	]`))
	if err != nil {
		panic("custody abi parse: " + err.Error())
	}
}

// EscrowSource reads custodial escrow balances from the custody contract.
type EscrowSource struct {
	client   *ethclient.Client
	contract common.Address
}

// NewEscrowSource dials the RPC endpoint and binds the custody contract
func NewEscrowSource(rpcURL, contractAddr string) (*EscrowSource, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid custody contract address: %s", contractAddr)
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial escrow RPC: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"contract": contractAddr,
	}).Info("Connected to custody contract")

	return &EscrowSource{
		client:   client,
		contract: common.HexToAddress(contractAddr),
	}, nil
}

// EscrowBalance returns the custodian's escrow balance for a user in cents
func (s *EscrowSource) EscrowBalance(ctx context.Context, userID int64) (int64, error) {
	input, err := custodyABI.Pack("lockedBalanceOf", new(big.Int).SetInt64(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to pack lockedBalanceOf call: %w", err)
	}

	msg := ethereum.CallMsg{
		To:   &s.contract,
		Data: input,
	}
	output, err := s.client.CallContract(ctx, msg, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to call custody contract: %w", err)
	}

	results, err := custodyABI.Unpack("lockedBalanceOf", output)
	if err != nil {
		return 0, fmt.Errorf("failed to unpack lockedBalanceOf result: %w", err)
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("unexpected lockedBalanceOf result arity: %d", len(results))
	}

	balance, ok := results[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected lockedBalanceOf result type: %T", results[0])
	}
	if !balance.IsInt64() {
		return 0, fmt.Errorf("escrow balance for user %d overflows int64", userID)
	}

	return balance.Int64(), nil
}

// Close releases the underlying RPC connection
func (s *EscrowSource) Close() {
	s.client.Close()
}
