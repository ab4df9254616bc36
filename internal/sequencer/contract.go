package sequencer

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Kind is how the service parses a variable's value.
type Kind string

// Supported value kinds.
const (
	KindString    Kind = "string"
	KindURL       Kind = "url"
	KindUint      Kind = "uint"
	KindBool      Kind = "bool"
	KindDuration  Kind = "duration"
	KindTimestamp Kind = "timestamp"
)

// Source is where a variable's value must come from.
type Source string

const (
	// SourceEnv variables are non-sensitive and set inline in [env].
	SourceEnv Source = "env"
	// SourceSecret variables carry credentials and must only be set as secrets.
	SourceSecret Source = "secret"
)

// Variable describes one environment variable the service reads.
type Variable struct {
	Name        string
	Kind        Kind
	Source      Source
	Default     string
	Required    bool
	Description string
}

// Variable names read by the service.
const (
	Verbose                   = "VERBOSE"
	GHRedirectURL             = "GH_REDIRECT_URL"
	GHClientID                = "GH_CLIENT_ID"
	GHClientSecret            = "GH_CLIENT_SECRET"
	GHAuthURL                 = "GH_AUTH_URL"
	GHTokenURL                = "GH_TOKEN_URL"
	GHUserinfoURL             = "GH_USERINFO_URL"
	GHMaxAccountCreationTime  = "GH_MAX_ACCOUNT_CREATION_TIME"
	ETHRedirectURL            = "ETH_REDIRECT_URL"
	ETHClientID               = "ETH_CLIENT_ID"
	ETHClientSecret           = "ETH_CLIENT_SECRET"
	ETHRPCURL                 = "ETH_RPC_URL"
	ETHAuthURL                = "ETH_AUTH_URL"
	ETHTokenURL               = "ETH_TOKEN_URL"
	ETHUserinfoURL            = "ETH_USERINFO_URL"
	ETHMinNonce               = "ETH_MIN_NONCE"
	ETHNonceVerificationBlock = "ETH_NONCE_VERIFICATION_BLOCK"
	MultiContribution         = "MULTI_CONTRIBUTION"
	ComputeDeadline           = "COMPUTE_DEADLINE"
	LobbyCheckinFrequency     = "LOBBY_CHECKIN_FREQUENCY"
	LobbyCheckinTolerance     = "LOBBY_CHECKIN_TOLERANCE"
)

// contract is ordered the way the variables are shown to users.
var contract = []Variable{
	{Name: Verbose, Kind: KindUint, Source: SourceEnv, Default: "0", Required: true,
		Description: "log verbosity level"},
	{Name: MultiContribution, Kind: KindBool, Source: SourceEnv, Default: "false", Required: true,
		Description: "allow a participant to contribute more than once"},
	{Name: ComputeDeadline, Kind: KindDuration, Source: SourceEnv, Default: "180", Required: true,
		Description: "time a contributor has to return their contribution"},
	{Name: LobbyCheckinFrequency, Kind: KindDuration, Source: SourceEnv, Default: "30", Required: true,
		Description: "expected interval between lobby check-ins"},
	{Name: LobbyCheckinTolerance, Kind: KindDuration, Source: SourceEnv, Default: "15", Required: true,
		Description: "how early a lobby check-in is still accepted"},

	{Name: GHRedirectURL, Kind: KindURL, Source: SourceEnv, Default: "http://127.0.0.1:3000/auth/callback/github", Required: true,
		Description: "GitHub OAuth2 callback redirect url"},
	{Name: GHClientID, Kind: KindString, Source: SourceSecret, Required: true,
		Description: "GitHub OAuth2 client id"},
	{Name: GHClientSecret, Kind: KindString, Source: SourceSecret, Required: true,
		Description: "GitHub OAuth2 client secret"},
	{Name: GHAuthURL, Kind: KindURL, Source: SourceEnv, Default: "https://github.com/login/oauth/authorize",
		Description: "GitHub OAuth2 authorization url"},
	{Name: GHTokenURL, Kind: KindURL, Source: SourceEnv, Default: "https://github.com/login/oauth/access_token",
		Description: "GitHub OAuth2 token url"},
	{Name: GHUserinfoURL, Kind: KindURL, Source: SourceEnv, Default: "https://api.github.com/user",
		Description: "GitHub user info url"},
	{Name: GHMaxAccountCreationTime, Kind: KindTimestamp, Source: SourceEnv, Default: "2025-01-14T00:00:00Z",
		Description: "latest creation time of a GitHub account allowed to participate"},

	{Name: ETHRedirectURL, Kind: KindURL, Source: SourceEnv, Default: "http://127.0.0.1:3000/auth/callback/eth", Required: true,
		Description: "Sign-in-with-Ethereum callback redirect url"},
	{Name: ETHClientID, Kind: KindString, Source: SourceSecret, Required: true,
		Description: "Sign-in-with-Ethereum client id"},
	{Name: ETHClientSecret, Kind: KindString, Source: SourceSecret, Required: true,
		Description: "Sign-in-with-Ethereum client secret"},
	{Name: ETHRPCURL, Kind: KindURL, Source: SourceSecret, Default: "https://ethereum-mainnet-rpc.allthatnode.com", Required: true,
		Description: "Ethereum JSON-RPC endpoint used for nonce checks"},
	{Name: ETHMinNonce, Kind: KindUint, Source: SourceEnv, Default: "4", Required: true,
		Description: "minimum account nonce required to participate"},
	{Name: ETHNonceVerificationBlock, Kind: KindUint, Source: SourceEnv, Default: "15565180",
		Description: "block height the nonce is read at"},
	{Name: ETHAuthURL, Kind: KindURL, Source: SourceEnv, Default: "https://oidc.signinwithethereum.org/authorize",
		Description: "Sign-in-with-Ethereum authorization url"},
	{Name: ETHTokenURL, Kind: KindURL, Source: SourceEnv, Default: "https://oidc.signinwithethereum.org/token",
		Description: "Sign-in-with-Ethereum token url"},
	{Name: ETHUserinfoURL, Kind: KindURL, Source: SourceEnv, Default: "https://oidc.signinwithethereum.org/userinfo",
		Description: "Sign-in-with-Ethereum user info url"},
}

// Contract returns every variable the service reads, in display order.
func Contract() []Variable {
	return slices.Clone(contract)
}

// Lookup returns the contract entry for name.
func Lookup(name string) (Variable, bool) {
	i := slices.IndexFunc(contract, func(v Variable) bool { return v.Name == name })
	if i < 0 {
		return Variable{}, false
	}
	return contract[i], true
}

// Parse checks that value is acceptable for the variable's kind.
func (v Variable) Parse(value string) error {
	switch v.Kind {
	case KindString:
		if value == "" {
			return fmt.Errorf("%s must not be empty", v.Name)
		}
	case KindURL:
		u, err := url.Parse(value)
		if err != nil {
			return fmt.Errorf("%s: %w", v.Name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an absolute http(s) url, got %q", v.Name, value)
		}
	case KindUint:
		if _, err := strconv.ParseUint(value, 10, 64); err != nil {
			return fmt.Errorf("%s must be a non-negative integer, got %q", v.Name, value)
		}
	case KindBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("%s must be true or false, got %q", v.Name, value)
		}
	case KindDuration:
		d, err := ParseSeconds(value)
		if err != nil {
			return fmt.Errorf("%s: %w", v.Name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %q", v.Name, value)
		}
	case KindTimestamp:
		if _, err := time.Parse(time.RFC3339, value); err != nil {
			return fmt.Errorf("%s must be an RFC 3339 timestamp, got %q", v.Name, value)
		}
	default:
		return fmt.Errorf("%s has unknown kind %q", v.Name, v.Kind)
	}
	return nil
}

// ParseSeconds parses a bare integer as seconds, or a Go duration string.
func ParseSeconds(value string) (time.Duration, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return manifest.FromSeconds(n)
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: must be seconds or a duration string", value)
	}
	return d, nil
}

// NonceBlockHex converts a decimal block height to the 0x-prefixed hex form
// the service sends to the JSON-RPC endpoint.
func NonceBlockHex(dec string) (string, error) {
	n, err := strconv.ParseUint(dec, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid block height %q: %w", dec, err)
	}
	return "0x" + strconv.FormatUint(n, 16), nil
}
