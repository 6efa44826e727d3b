package daoportal

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// SCALE codec for the daoPortal tagged unions and options. Plain structs
// (Workspace, UserGroup, Project, DAOProposal, ...) decode field by field
// through the scale codec's struct support; only the discriminated types
// need explicit variant handling. Unknown variant indexes are hard errors:
// a mismatch means the schema and the chain runtime disagree and nothing
// downstream can be trusted.

func (p *Protocol) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch Protocol(b) {
	case ProtocolSolidity, ProtocolSubstrate:
		*p = Protocol(b)
		return nil
	}
	return fmt.Errorf("daoportal: unknown Protocol variant %d", b)
}

func (p Protocol) Encode(encoder scale.Encoder) error {
	return encoder.PushByte(byte(p))
}

func (p Protocol) String() string {
	if p == ProtocolSolidity {
		return "Solidity"
	}
	return "Substrate"
}

func (f *VotingFormat) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch VotingFormat(b) {
	case VotingFormatSingleChoice, VotingFormatSplitVote:
		*f = VotingFormat(b)
		return nil
	}
	return fmt.Errorf("daoportal: unknown VotingFormat variant %d", b)
}

func (f VotingFormat) Encode(encoder scale.Encoder) error {
	return encoder.PushByte(byte(f))
}

func (f VotingFormat) String() string {
	if f == VotingFormatSingleChoice {
		return "SingleChoice"
	}
	return "SplitVote"
}

func (a *CrossChainAccount) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		a.IsSolidity = true
		return decoder.Decode(&a.SolidityAcc)
	case 1:
		a.IsSubstrate = true
		return decoder.Decode(&a.SubstrateAcc)
	}
	return fmt.Errorf("daoportal: unknown CrossChainAccount variant %d", b)
}

func (a CrossChainAccount) Encode(encoder scale.Encoder) error {
	switch {
	case a.IsSolidity:
		if err := encoder.PushByte(0); err != nil {
			return err
		}
		return encoder.Encode(a.SolidityAcc)
	case a.IsSubstrate:
		if err := encoder.PushByte(1); err != nil {
			return err
		}
		return encoder.Encode(a.SubstrateAcc)
	}
	return fmt.Errorf("daoportal: CrossChainAccount has no variant set")
}

// Protocol reports which chain family the account belongs to.
func (a CrossChainAccount) Protocol() Protocol {
	if a.IsSolidity {
		return ProtocolSolidity
	}
	return ProtocolSubstrate
}

func (s *SolidityStrategy) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		s.IsERC20Balance = true
		return decoder.Decode(&s.ERC20Token)
	case 1:
		s.IsCustom = true
		if err := decoder.Decode(&s.CustomCode); err != nil {
			return err
		}
		return decoder.Decode(&s.CustomParams)
	}
	return fmt.Errorf("daoportal: unknown SolidityStrategy variant %d", b)
}

func (s SolidityStrategy) Encode(encoder scale.Encoder) error {
	switch {
	case s.IsERC20Balance:
		if err := encoder.PushByte(0); err != nil {
			return err
		}
		return encoder.Encode(s.ERC20Token)
	case s.IsCustom:
		if err := encoder.PushByte(1); err != nil {
			return err
		}
		if err := encoder.Encode(s.CustomCode); err != nil {
			return err
		}
		return encoder.Encode(s.CustomParams)
	}
	return fmt.Errorf("daoportal: SolidityStrategy has no variant set")
}

func (s *SubstrateStrategy) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		s.IsNativeBalance = true
		return nil
	case 1:
		s.IsCustom = true
		if err := decoder.Decode(&s.CustomCode); err != nil {
			return err
		}
		return decoder.Decode(&s.CustomParams)
	}
	return fmt.Errorf("daoportal: unknown SubstrateStrategy variant %d", b)
}

func (s SubstrateStrategy) Encode(encoder scale.Encoder) error {
	switch {
	case s.IsNativeBalance:
		return encoder.PushByte(0)
	case s.IsCustom:
		if err := encoder.PushByte(1); err != nil {
			return err
		}
		if err := encoder.Encode(s.CustomCode); err != nil {
			return err
		}
		return encoder.Encode(s.CustomParams)
	}
	return fmt.Errorf("daoportal: SubstrateStrategy has no variant set")
}

func (s *Strategy) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		s.IsSolidity = true
		return decoder.Decode(&s.Solidity)
	case 1:
		s.IsSubstrate = true
		return decoder.Decode(&s.Substrate)
	}
	return fmt.Errorf("daoportal: unknown Strategy variant %d", b)
}

func (s Strategy) Encode(encoder scale.Encoder) error {
	switch {
	case s.IsSolidity:
		if err := encoder.PushByte(0); err != nil {
			return err
		}
		return encoder.Encode(s.Solidity)
	case s.IsSubstrate:
		if err := encoder.PushByte(1); err != nil {
			return err
		}
		return encoder.Encode(s.Substrate)
	}
	return fmt.Errorf("daoportal: Strategy has no variant set")
}

// Protocol reports which union arm is active.
func (s Strategy) Protocol() Protocol {
	if s.IsSolidity {
		return ProtocolSolidity
	}
	return ProtocolSubstrate
}

// Kind returns the sub-kind tag of whichever arm is active.
func (s Strategy) Kind() string {
	switch {
	case s.IsSolidity && s.Solidity.IsERC20Balance:
		return "ERC20Balance"
	case s.IsSolidity && s.Solidity.IsCustom:
		return "Custom"
	case s.IsSubstrate && s.Substrate.IsNativeBalance:
		return "NativeBalance"
	case s.IsSubstrate && s.Substrate.IsCustom:
		return "Custom"
	}
	return ""
}

func (p *PrivacyLevel) Decode(decoder scale.Decoder) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		p.IsOpaque = true
		return decoder.Decode(&p.OpaqueArg)
	case 1:
		p.IsRank = true
	case 2:
		p.IsPrivate = true
	case 3:
		p.IsPublic = true
	case 4:
		p.IsMixed = true
	default:
		return fmt.Errorf("daoportal: unknown PrivacyLevel variant %d", b)
	}
	return nil
}

func (p PrivacyLevel) Encode(encoder scale.Encoder) error {
	switch {
	case p.IsOpaque:
		if err := encoder.PushByte(0); err != nil {
			return err
		}
		return encoder.Encode(p.OpaqueArg)
	case p.IsRank:
		return encoder.PushByte(1)
	case p.IsPrivate:
		return encoder.PushByte(2)
	case p.IsPublic:
		return encoder.PushByte(3)
	case p.IsMixed:
		return encoder.PushByte(4)
	}
	return fmt.Errorf("daoportal: PrivacyLevel has no variant set")
}

// Tag returns the privacy variant name.
func (p PrivacyLevel) Tag() string {
	switch {
	case p.IsOpaque:
		return "Opaque"
	case p.IsRank:
		return "Rank"
	case p.IsPrivate:
		return "Private"
	case p.IsPublic:
		return "Public"
	case p.IsMixed:
		return "Mixed"
	}
	return ""
}

func (o *OptionCrossChainAccounts) Decode(decoder scale.Decoder) error {
	return decodeOption(decoder, &o.HasValue, &o.Value)
}

func (o OptionCrossChainAccounts) Encode(encoder scale.Encoder) error {
	return encodeOption(encoder, o.HasValue, o.Value)
}

func (o *OptionIpfsHash) Decode(decoder scale.Decoder) error {
	return decodeOption(decoder, &o.HasValue, &o.Value)
}

func (o OptionIpfsHash) Encode(encoder scale.Encoder) error {
	return encodeOption(encoder, o.HasValue, o.Value)
}

func (o *OptionU64) Decode(decoder scale.Decoder) error {
	return decodeOption(decoder, &o.HasValue, &o.Value)
}

func (o OptionU64) Encode(encoder scale.Encoder) error {
	return encodeOption(encoder, o.HasValue, o.Value)
}

func (o *OptionVotingPower) Decode(decoder scale.Decoder) error {
	return decodeOption(decoder, &o.HasValue, &o.Value)
}

func (o OptionVotingPower) Encode(encoder scale.Encoder) error {
	return encodeOption(encoder, o.HasValue, o.Value)
}

func decodeOption(decoder scale.Decoder, hasValue *bool, value interface{}) error {
	b, err := decoder.ReadOneByte()
	if err != nil {
		return err
	}
	switch b {
	case 0:
		*hasValue = false
		return nil
	case 1:
		*hasValue = true
		return decoder.Decode(value)
	}
	return fmt.Errorf("daoportal: invalid Option byte %d", b)
}

func encodeOption(encoder scale.Encoder, hasValue bool, value interface{}) error {
	if !hasValue {
		return encoder.PushByte(0)
	}
	if err := encoder.PushByte(1); err != nil {
		return err
	}
	return encoder.Encode(value)
}
