package daoportal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Alice's well-known development key.
const alicePubkey = "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

func TestSS58Encode(t *testing.T) {
	pubkey, err := DecodeHex(alicePubkey)
	require.NoError(t, err)
	require.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", SS58Encode(pubkey, GenericPrefix))
}

func TestAccountKey(t *testing.T) {
	evm := CrossChainAccount{IsSolidity: true}
	copy(evm.SolidityAcc[:], []byte{0xde, 0xad, 0xbe, 0xef})
	require.Equal(t, "0xdeadbeef00000000000000000000000000000000", evm.Key())

	sub := CrossChainAccount{IsSubstrate: true}
	pubkey, err := DecodeHex(alicePubkey)
	require.NoError(t, err)
	copy(sub.SubstrateAcc[:], pubkey)
	require.Equal(t, "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY", sub.Key())
}

func TestAccountKeyDistinct(t *testing.T) {
	// The same 20 leading bytes must not collide across protocols.
	evm := CrossChainAccount{IsSolidity: true}
	sub := CrossChainAccount{IsSubstrate: true}
	copy(sub.SubstrateAcc[:], evm.SolidityAcc[:])
	require.NotEqual(t, evm.Key(), sub.Key())
}
