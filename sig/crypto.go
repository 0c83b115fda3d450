// Package sig provides the Ethereum-signed-message signing and recovery
// scheme used to authorize withdraw and transfer transitions, plus the
// canonical message builders for each signed transition variant.
package sig

import (
	"crypto/ecdsa"
	"fmt"
	"io/ioutil"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// WithdrawMessage builds the canonical withdraw signed-message preimage:
// (contractAddr, "withdraw", tokenIndex, amount, nonce). contractAddr
// domain-separates withdraws signed for one rollup deployment from any
// other that might share a validator's key.
func WithdrawMessage(contractAddr common.Address, tokenIndex, amount, nonce *big.Int) []byte {
	msg := append([]byte{}, contractAddr.Bytes()...)
	msg = append(msg, []byte("withdraw")...)
	msg = append(msg, tokenIndex.Bytes()...)
	msg = append(msg, amount.Bytes()...)
	msg = append(msg, nonce.Bytes()...)
	return msg
}

// TransferMessage builds the canonical transfer signed-message preimage:
// (contractAddr, recipientAccount, tokenIndex, amount, nonce). Binding
// recipientAccount means a sender's signature authorizes paying one
// specific account, not whichever AccountInfo an operator points the
// transition's recipient slot index at.
func TransferMessage(contractAddr, recipientAccount common.Address, tokenIndex, amount, nonce *big.Int) []byte {
	msg := append([]byte{}, contractAddr.Bytes()...)
	msg = append(msg, recipientAccount.Bytes()...)
	msg = append(msg, tokenIndex.Bytes()...)
	msg = append(msg, amount.Bytes()...)
	msg = append(msg, nonce.Bytes()...)
	return msg
}

// IsValid reports whether sig is signer's signature over data.
func IsValid(signer common.Address, data []byte, sig []byte) bool {
	recoveredAddr, err := RecoverSigner(data, sig)
	if err != nil {
		return false
	}
	return recoveredAddr == signer
}

// RecoverSigner recovers the address that produced sig over data.
func RecoverSigner(data []byte, sig []byte) (common.Address, error) {
	pubKey, err := crypto.SigToPub(prefixedHash(data), sig)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// SignData signs the concatenation of data under the Ethereum signed
// message scheme: keccak256("\x19Ethereum Signed Message:\n32" ||
// keccak256(data...)).
func SignData(privateKey *ecdsa.PrivateKey, data ...[]byte) ([]byte, error) {
	var concatenated []byte
	for _, d := range data {
		concatenated = append(concatenated, d...)
	}
	return crypto.Sign(prefixedHash(concatenated), privateKey)
}

// prefixedHash expects data already concatenated (not yet hashed) and
// returns the Ethereum signed message digest over it.
func prefixedHash(data []byte) []byte {
	digest := crypto.Keccak256(data)
	return crypto.Keccak256(
		[]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(digest))),
		digest,
	)
}

func PrivateKeyFromKeystore(path string, password string) (*ecdsa.PrivateKey, error) {
	ksBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := keystore.DecryptKey(ksBytes, password)
	if err != nil {
		return nil, err
	}
	return key.PrivateKey, nil
}

func AuthFromKeystore(path string, password string) (*bind.TransactOpts, error) {
	privateKey, err := PrivateKeyFromKeystore(path, password)
	if err != nil {
		return nil, err
	}
	return bind.NewKeyedTransactor(privateKey), nil
}
