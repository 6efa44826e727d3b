package daoportal

import (
	"encoding/hex"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// GenericPrefix is the generic Substrate SS58 network prefix.
const GenericPrefix = 42

var ss58Preamble = []byte("SS58PRE")

// SS58Encode renders a 32-byte public key as an SS58 address.
func SS58Encode(pubkey []byte, prefix uint16) string {
	var payload []byte
	if prefix < 64 {
		payload = append([]byte{byte(prefix)}, pubkey...)
	} else {
		// two-byte prefix encoding for registries above 63
		first := byte(((prefix & 0xfc) >> 2) | 0x40)
		second := byte((prefix >> 8) | ((prefix & 0x03) << 6))
		payload = append([]byte{first, second}, pubkey...)
	}

	checksumInput := append(append([]byte{}, ss58Preamble...), payload...)
	checksum := blake2b.Sum512(checksumInput)
	return base58.Encode(append(payload, checksum[:2]...))
}

// Key returns the canonical identifier string of the account: 0x-hex for
// EVM accounts, SS58 (generic prefix) for Substrate accounts. This is the
// stored CrossChainAccount primary key.
func (a CrossChainAccount) Key() string {
	if a.IsSolidity {
		return "0x" + hex.EncodeToString(a.SolidityAcc[:])
	}
	return SS58Encode(a.SubstrateAcc[:], GenericPrefix)
}
