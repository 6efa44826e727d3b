package daoportal

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
)

// Conversion of scale.go decoder output (loosely typed maps and strings)
// into the closed schema types. Every mismatch is an error: a value that
// does not fit the declared shape means the registry and the chain
// disagree, and the surrounding projection must abort rather than guess.

// ParseProject converts a decoded Project value.
func ParseProject(v interface{}) (*Project, error) {
	m, err := asMap(v, "Project")
	if err != nil {
		return nil, err
	}

	var out Project
	group, err := asMap(m["usergroup"], "UserGroup")
	if err != nil {
		return nil, err
	}
	if out.Usergroup.Owner, err = ParseAccount(group["owner"]); err != nil {
		return nil, fmt.Errorf("usergroup.owner: %w", err)
	}
	if out.Usergroup.Admins, err = parseAccounts(group["admins"]); err != nil {
		return nil, fmt.Errorf("usergroup.admins: %w", err)
	}
	if out.Usergroup.Maintainers, err = parseAccounts(group["maintainers"]); err != nil {
		return nil, fmt.Errorf("usergroup.maintainers: %w", err)
	}
	if group["proposers"] != nil {
		out.Usergroup.Proposers.HasValue = true
		if out.Usergroup.Proposers.Value, err = parseAccounts(group["proposers"]); err != nil {
			return nil, fmt.Errorf("usergroup.proposers: %w", err)
		}
	}

	data, err := asText(m["data"])
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	out.Data = data

	workspaces, err := asSlice(m["workspaces"], "Vec<Workspace>")
	if err != nil {
		return nil, err
	}
	for i, w := range workspaces {
		ws, err := parseWorkspace(w)
		if err != nil {
			return nil, fmt.Errorf("workspaces[%d]: %w", i, err)
		}
		out.Workspaces = append(out.Workspaces, ws)
	}
	return &out, nil
}

// ParseProposal converts a decoded DAOProposal value.
func ParseProposal(v interface{}) (*DAOProposal, error) {
	m, err := asMap(v, "DAOProposal")
	if err != nil {
		return nil, err
	}

	var out DAOProposal
	if out.Author, err = ParseAccount(m["_author"]); err != nil {
		return nil, fmt.Errorf("_author: %w", err)
	}

	format, err := asString(m["_voting_format"], "VotingFormat")
	if err != nil {
		return nil, err
	}
	switch format {
	case "SingleChoice":
		out.VotingFormat = VotingFormatSingleChoice
	case "SplitVote":
		out.VotingFormat = VotingFormatSplitVote
	default:
		return nil, fmt.Errorf("daoportal: unknown VotingFormat %q", format)
	}

	count, err := asUint(m["_option_count"], "OptionIndex")
	if err != nil {
		return nil, err
	}
	out.OptionCount = OptionIndex(count)

	data, err := asText(m["_data"])
	if err != nil {
		return nil, fmt.Errorf("_data: %w", err)
	}
	out.Data = data

	if out.Privacy, err = parsePrivacy(m["_privacy"]); err != nil {
		return nil, err
	}

	start, err := asUint(m["_start"], "_start")
	if err != nil {
		return nil, err
	}
	out.Start = types.U64(start)

	end, err := asUint(m["_end"], "_end")
	if err != nil {
		return nil, err
	}
	out.End = types.U64(end)

	if m["_frequency"] != nil {
		freq, err := asUint(m["_frequency"], "_frequency")
		if err != nil {
			return nil, err
		}
		out.Frequency = OptionU64{HasValue: true, Value: types.U64(freq)}
	}

	if m["state"] != nil {
		state, err := asMap(m["state"], "DAOProposalState")
		if err != nil {
			return nil, err
		}
		if out.State, err = parseProposalState(state); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// ParseVoteUpdate converts a decoded VoteUpdate value.
func ParseVoteUpdate(v interface{}) (*VoteUpdate, error) {
	m, err := asMap(v, "VoteUpdate")
	if err != nil {
		return nil, err
	}

	var out VoteUpdate
	project, err := asUint(m["project"], "project")
	if err != nil {
		return nil, err
	}
	out.Project = ProjectID(project)

	proposal, err := asUint(m["proposal"], "proposal")
	if err != nil {
		return nil, err
	}
	out.Proposal = ProposalID(proposal)

	if out.Votes, err = ParsePowerList(m["votes"]); err != nil {
		return nil, fmt.Errorf("votes: %w", err)
	}

	if m["pub_voters"] != nil {
		hash, err := asText(m["pub_voters"])
		if err != nil {
			return nil, fmt.Errorf("pub_voters: %w", err)
		}
		out.PubVoters = OptionIpfsHash{HasValue: true, Value: hash}
	}
	return &out, nil
}

// ParseSnapshots converts a decoded Vec<Option<VotingPower>> value.
func ParseSnapshots(v interface{}) ([]OptionVotingPower, error) {
	items, err := asSlice(v, "Vec<Option<VotingPower>>")
	if err != nil {
		return nil, err
	}
	out := make([]OptionVotingPower, 0, len(items))
	for i, item := range items {
		if item == nil {
			out = append(out, OptionVotingPower{})
			continue
		}
		p, err := asPower(item)
		if err != nil {
			return nil, fmt.Errorf("snapshots[%d]: %w", i, err)
		}
		out = append(out, OptionVotingPower{HasValue: true, Value: p})
	}
	return out, nil
}

// ParsePowerList converts a decoded Vec<VotingPower> value.
func ParsePowerList(v interface{}) ([]VotingPower, error) {
	items, err := asSlice(v, "Vec<VotingPower>")
	if err != nil {
		return nil, err
	}
	out := make([]VotingPower, 0, len(items))
	for i, item := range items {
		p, err := asPower(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseAccount converts a decoded CrossChainAccount value.
func ParseAccount(v interface{}) (CrossChainAccount, error) {
	var out CrossChainAccount
	tag, inner, err := asVariant(v, "CrossChainAccount")
	if err != nil {
		return out, err
	}
	raw, err := asString(inner, "account bytes")
	if err != nil {
		return out, err
	}
	bytes, err := DecodeHex(raw)
	if err != nil {
		return out, fmt.Errorf("daoportal: account hex: %w", err)
	}

	switch tag {
	case "Solidity":
		if len(bytes) != 20 {
			return out, fmt.Errorf("daoportal: H160 length %d", len(bytes))
		}
		out.IsSolidity = true
		copy(out.SolidityAcc[:], bytes)
	case "Substrate":
		if len(bytes) != 32 {
			return out, fmt.Errorf("daoportal: AccountId length %d", len(bytes))
		}
		out.IsSubstrate = true
		copy(out.SubstrateAcc[:], bytes)
	default:
		return out, fmt.Errorf("daoportal: unknown CrossChainAccount variant %q", tag)
	}
	return out, nil
}

func parseAccounts(v interface{}) ([]CrossChainAccount, error) {
	if v == nil {
		return nil, nil
	}
	items, err := asSlice(v, "Vec<CrossChainAccount>")
	if err != nil {
		return nil, err
	}
	out := make([]CrossChainAccount, 0, len(items))
	for i, item := range items {
		acc, err := ParseAccount(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, acc)
	}
	return out, nil
}

func parseWorkspace(v interface{}) (Workspace, error) {
	var out Workspace
	m, err := asMap(v, "Workspace")
	if err != nil {
		return out, err
	}

	chain, err := asUint(m["_chain"], "_chain")
	if err != nil {
		return out, err
	}
	out.Chain = ChainIndex(chain)

	strategies, err := asSlice(m["strategies"], "Vec<Strategy>")
	if err != nil {
		return out, err
	}
	for i, s := range strategies {
		strategy, err := parseStrategy(s)
		if err != nil {
			return out, fmt.Errorf("strategies[%d]: %w", i, err)
		}
		out.Strategies = append(out.Strategies, strategy)
	}
	return out, nil
}

func parseStrategy(v interface{}) (Strategy, error) {
	var out Strategy
	tag, inner, err := asVariant(v, "Strategy")
	if err != nil {
		return out, err
	}

	switch tag {
	case "Solidity":
		out.IsSolidity = true
		kind, arg, err := asVariant(inner, "SolidityStrategy")
		if err != nil {
			return out, err
		}
		switch kind {
		case "ERC20Balance":
			raw, err := asString(arg, "H160")
			if err != nil {
				return out, err
			}
			bytes, err := DecodeHex(raw)
			if err != nil || len(bytes) != 20 {
				return out, fmt.Errorf("daoportal: ERC20Balance token: bad H160")
			}
			out.Solidity.IsERC20Balance = true
			copy(out.Solidity.ERC20Token[:], bytes)
		case "Custom":
			out.Solidity.IsCustom = true
			code, params, err := parseCustomArm(arg)
			if err != nil {
				return out, err
			}
			out.Solidity.CustomCode = code
			out.Solidity.CustomParams = params
		default:
			return out, fmt.Errorf("daoportal: unknown SolidityStrategy variant %q", kind)
		}
	case "Substrate":
		out.IsSubstrate = true
		kind, arg, err := variantOf(inner, "SubstrateStrategy")
		if err != nil {
			return out, err
		}
		switch kind {
		case "NativeBalance":
			out.Substrate.IsNativeBalance = true
		case "Custom":
			out.Substrate.IsCustom = true
			code, params, err := parseCustomArm(arg)
			if err != nil {
				return out, err
			}
			out.Substrate.CustomCode = code
			out.Substrate.CustomParams = params
		default:
			return out, fmt.Errorf("daoportal: unknown SubstrateStrategy variant %q", kind)
		}
	default:
		return out, fmt.Errorf("daoportal: unknown Strategy variant %q", tag)
	}
	return out, nil
}

// parseCustomArm handles the (IpfsHash, Vec<u8>) tuple of Custom strategies.
func parseCustomArm(v interface{}) (IpfsHash, types.Bytes, error) {
	switch tuple := v.(type) {
	case []interface{}:
		if len(tuple) != 2 {
			return "", nil, fmt.Errorf("daoportal: custom strategy tuple arity %d", len(tuple))
		}
		code, err := asText(tuple[0])
		if err != nil {
			return "", nil, err
		}
		params, err := asString(tuple[1], "Vec<u8>")
		if err != nil {
			return "", nil, err
		}
		raw, err := DecodeHex(params)
		if err != nil {
			return "", nil, fmt.Errorf("daoportal: custom strategy params: %w", err)
		}
		return code, raw, nil
	case map[string]interface{}:
		code, err := asText(tuple["col1"])
		if err != nil {
			return "", nil, err
		}
		params, err := asString(tuple["col2"], "Vec<u8>")
		if err != nil {
			return "", nil, err
		}
		raw, err := DecodeHex(params)
		if err != nil {
			return "", nil, fmt.Errorf("daoportal: custom strategy params: %w", err)
		}
		return code, raw, nil
	}
	return "", nil, fmt.Errorf("daoportal: custom strategy arm has shape %T", v)
}

func parsePrivacy(v interface{}) (PrivacyLevel, error) {
	var out PrivacyLevel
	// Parameterless variants decode as a bare tag string.
	if tag, ok := v.(string); ok {
		switch tag {
		case "Rank":
			out.IsRank = true
		case "Private":
			out.IsPrivate = true
		case "Public":
			out.IsPublic = true
		case "Mixed":
			out.IsMixed = true
		default:
			return out, fmt.Errorf("daoportal: unknown PrivacyLevel variant %q", tag)
		}
		return out, nil
	}

	tag, inner, err := asVariant(v, "PrivacyLevel")
	if err != nil {
		return out, err
	}
	switch tag {
	case "Opaque":
		arg, err := asUint(inner, "Opaque")
		if err != nil {
			return out, err
		}
		out.IsOpaque = true
		out.OpaqueArg = types.U8(arg)
	case "Rank":
		out.IsRank = true
	case "Private":
		out.IsPrivate = true
	case "Public":
		out.IsPublic = true
	case "Mixed":
		out.IsMixed = true
	default:
		return out, fmt.Errorf("daoportal: unknown PrivacyLevel variant %q", tag)
	}
	return out, nil
}

func parseProposalState(m map[string]interface{}) (DAOProposalState, error) {
	var out DAOProposalState
	var err error

	if finalized, ok := m["finalized"].(bool); ok {
		out.Finalized = finalized
	}
	if blacklisted, ok := m["blacklisted"].(bool); ok {
		out.Blacklisted = blacklisted
	}
	if m["votes"] != nil {
		if out.Votes, err = ParsePowerList(m["votes"]); err != nil {
			return out, fmt.Errorf("state.votes: %w", err)
		}
	}
	if m["snapshots"] != nil {
		if out.Snapshots, err = ParsePowerList(m["snapshots"]); err != nil {
			return out, fmt.Errorf("state.snapshots: %w", err)
		}
	}
	if m["pub_voters"] != nil {
		hash, err := asText(m["pub_voters"])
		if err != nil {
			return out, fmt.Errorf("state.pub_voters: %w", err)
		}
		out.PubVoters = OptionIpfsHash{HasValue: true, Value: hash}
	}
	if m["updates"] != nil {
		updates, err := asUint(m["updates"], "state.updates")
		if err != nil {
			return out, err
		}
		out.Updates = types.U32(updates)
	}
	return out, nil
}

func asMap(v interface{}, what string) (map[string]interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("daoportal: %s has shape %T, want map", what, v)
	}
	return m, nil
}

func asSlice(v interface{}, what string) ([]interface{}, error) {
	s, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("daoportal: %s has shape %T, want slice", what, v)
	}
	return s, nil
}

func asString(v interface{}, what string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("daoportal: %s has shape %T, want string", what, v)
	}
	return s, nil
}

func asText(v interface{}) (IpfsHash, error) {
	s, err := asString(v, "Text")
	if err != nil {
		return "", err
	}
	return IpfsHash(s), nil
}

// variantOf unwraps an enum that may decode as a bare tag string when
// the active variant carries no data.
func variantOf(v interface{}, what string) (string, interface{}, error) {
	if tag, ok := v.(string); ok {
		return tag, nil, nil
	}
	return asVariant(v, what)
}

// asVariant unwraps a data-carrying enum decoded as {"Tag": value}.
func asVariant(v interface{}, what string) (string, interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) != 1 {
		return "", nil, fmt.Errorf("daoportal: %s has shape %T, want single-key map", what, v)
	}
	for tag, inner := range m {
		return tag, inner, nil
	}
	return "", nil, fmt.Errorf("daoportal: %s is empty", what)
}

func asUint(v interface{}, what string) (uint64, error) {
	switch n := v.(type) {
	case float64:
		return uint64(n), nil
	case int:
		return uint64(n), nil
	case int64:
		return uint64(n), nil
	case uint64:
		return n, nil
	case uint32:
		return uint64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("daoportal: %s: %w", what, err)
		}
		return uint64(i), nil
	case string:
		base := 10
		if strings.HasPrefix(n, "0x") {
			base = 16
			n = strings.TrimPrefix(n, "0x")
		}
		i, ok := new(big.Int).SetString(n, base)
		if !ok {
			return 0, fmt.Errorf("daoportal: %s: not a number: %q", what, n)
		}
		return i.Uint64(), nil
	}
	return 0, fmt.Errorf("daoportal: %s has shape %T, want number", what, v)
}

// asPower parses a VotingPower (U256), which the decoder renders as a
// decimal or 0x-hex string depending on magnitude.
func asPower(v interface{}) (VotingPower, error) {
	switch n := v.(type) {
	case string:
		i := new(big.Int)
		var ok bool
		if strings.HasPrefix(n, "0x") {
			_, ok = i.SetString(strings.TrimPrefix(n, "0x"), 16)
		} else {
			_, ok = i.SetString(n, 10)
		}
		if !ok {
			return VotingPower{}, fmt.Errorf("daoportal: bad U256 %q", n)
		}
		return types.NewU256(*i), nil
	case float64:
		return types.NewU256(*new(big.Int).SetUint64(uint64(n))), nil
	}
	return VotingPower{}, fmt.Errorf("daoportal: U256 has shape %T", v)
}

// ParseU32 converts a decoded u32 value (project and proposal ids).
func ParseU32(v interface{}, what string) (uint32, error) {
	n, err := asUint(v, what)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// HexPower renders a VotingPower as a lowercase hex string without
// leading zeros; zero renders as "0".
func HexPower(v VotingPower) string {
	if v.Int == nil {
		return "0"
	}
	return v.Int.Text(16)
}

// NewPower builds a VotingPower from a small integer, mostly for tests.
func NewPower(n uint64) VotingPower {
	return types.NewU256(*new(big.Int).SetUint64(n))
}
