package provider

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignerGenerator creates the *bind.TransactOpts of the sender account for a chain.
type SignerGenerator interface {
	Generate(chainID *big.Int) (*bind.TransactOpts, error)
}

var (
	_ SignerGenerator = (*transactorFromRaw)(nil)
	_ SignerGenerator = (*transactorRandom)(nil)
)

// TransactorFromRaw returns a generator which creates a transactor from a hex encoded private key.
// A leading 0x is accepted.
func TransactorFromRaw(privKey string) SignerGenerator {
	return &transactorFromRaw{privKey: strings.TrimPrefix(strings.TrimSpace(privKey), "0x")}
}

type transactorFromRaw struct {
	privKey string
}

// Generate parses the private key and returns the bind transactor options.
func (g *transactorFromRaw) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	if g.privKey == "" {
		return nil, errors.New("sender private key is empty")
	}

	privKey, err := crypto.HexToECDSA(g.privKey)
	if err != nil {
		return nil, fmt.Errorf("failed to convert private key to ECDSA: %w", err)
	}

	return newTransactor(privKey, chainID)
}

// TransactorRandom returns a generator with a random private key. The key is created on the first
// call to Generate and reused afterwards.
func TransactorRandom() SignerGenerator {
	return &transactorRandom{}
}

type transactorRandom struct {
	privKey *ecdsa.PrivateKey
}

func (g *transactorRandom) Generate(chainID *big.Int) (*bind.TransactOpts, error) {
	if g.privKey == nil {
		privKey, err := crypto.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate random private key: %w", err)
		}
		g.privKey = privKey
	}

	return newTransactor(g.privKey, chainID)
}

func newTransactor(key *ecdsa.PrivateKey, chainID *big.Int) (*bind.TransactOpts, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id %v", chainID)
	}

	transactor, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	return transactor, nil
}
