package channel

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the length of an [R || S || V] secp256k1 signature.
const SignatureLength = crypto.SignatureLength

var (
	ErrInvalidSignature = errors.New("channel: invalid signature")
	ErrNotSignedByMover = errors.New("channel: commitment not signed by mover")
)

// Signature is a 65 byte recoverable signature. V is stored as 27/28.
type Signature hexutil.Bytes

func (s Signature) MarshalText() ([]byte, error) {
	return hexutil.Bytes(s).MarshalText()
}

func (s *Signature) UnmarshalText(input []byte) error {
	return (*hexutil.Bytes)(s).UnmarshalText(input)
}

func (s Signature) String() string {
	return hexutil.Encode(s)
}

// Sign signs messageHash with the Ethereum signed-message prefix.
func Sign(messageHash common.Hash, key *ecdsa.PrivateKey) (Signature, error) {
	if key == nil {
		return nil, errors.New("channel: nil private key")
	}
	sig, err := crypto.Sign(accounts.TextHash(messageHash.Bytes()), key)
	if err != nil {
		return nil, fmt.Errorf("channel: sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverAddress returns the address that signed messageHash.
func RecoverAddress(messageHash common.Hash, sig Signature) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	normalized := bytes.Clone(sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(messageHash.Bytes()), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Signer produces signatures for a single participant.
type Signer interface {
	Address() common.Address
	SignCommitment(c Commitment) (SignedCommitment, error)
	SignHash(hash common.Hash) (Signature, error)
}

// KeySigner signs with an in-memory secp256k1 key.
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Signer = (*KeySigner)(nil)

// NewKeySigner wraps key.
func NewKeySigner(key *ecdsa.PrivateKey) *KeySigner {
	return &KeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}
}

// NewKeySignerFromHex parses a hex private key, with or without 0x prefix.
func NewKeySignerFromHex(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("channel: parse private key: %w", err)
	}
	return NewKeySigner(key), nil
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

func (s *KeySigner) SignCommitment(c Commitment) (SignedCommitment, error) {
	hash, err := Hash(c)
	if err != nil {
		return SignedCommitment{}, err
	}
	sig, err := Sign(hash, s.key)
	if err != nil {
		return SignedCommitment{}, err
	}
	return SignedCommitment{Commitment: c, Signature: sig}, nil
}

func (s *KeySigner) SignHash(hash common.Hash) (Signature, error) {
	return Sign(hash, s.key)
}
