// Package config provides the configuration-provider abstraction the
// shipper consumes. The core never chooses a retrieval strategy itself:
// the caller supplies a Provider and the shipper only asks it for
// settings by name.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Setting names understood by Load
const (
	SettingToken          = "token"
	SettingAccountKey     = "account_key"
	SettingLocation       = "location"
	SettingUseHTTPPut     = "use_http_put"
	SettingUseTLS         = "use_tls"
	SettingImmediateFlush = "immediate_flush"
	SettingDebug          = "debug"
)

// Provider is the single capability the shipper needs from its
// configuration source: get a setting by name.
type Provider interface {
	// GetSetting returns the raw value for a setting name and whether
	// it was present
	GetSetting(name string) (string, bool)
}

// StaticProvider serves settings from a fixed map
type StaticProvider map[string]string

// GetSetting returns the value from the map
func (p StaticProvider) GetSetting(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// EnvProvider reads settings from environment variables. A setting name
// is upper-cased and prefixed, so "account_key" with the default prefix
// becomes LOGSHIP_ACCOUNT_KEY.
type EnvProvider struct {
	prefix string
}

// DefaultEnvPrefix is the environment variable prefix used when none is
// given
const DefaultEnvPrefix = "LOGSHIP_"

// NewEnvProvider creates an environment-backed provider
func NewEnvProvider(prefix string) *EnvProvider {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return &EnvProvider{prefix: prefix}
}

// GetSetting looks the setting up in the environment
func (p *EnvProvider) GetSetting(name string) (string, bool) {
	return os.LookupEnv(p.prefix + strings.ToUpper(name))
}

// Settings is the shipper configuration resolved from a Provider
type Settings struct {
	Token          string
	AccountKey     string
	Location       string
	UseHTTPPut     bool
	UseTLS         bool
	ImmediateFlush bool
	Debug          bool
}

// Load resolves all shipper settings from the provider. Missing
// settings keep their zero values; malformed booleans are treated as
// false.
func Load(p Provider) Settings {
	s := Settings{}
	if p == nil {
		return s
	}

	if v, ok := p.GetSetting(SettingToken); ok {
		s.Token = v
	}
	if v, ok := p.GetSetting(SettingAccountKey); ok {
		s.AccountKey = v
	}
	if v, ok := p.GetSetting(SettingLocation); ok {
		s.Location = v
	}
	s.UseHTTPPut = boolSetting(p, SettingUseHTTPPut)
	s.UseTLS = boolSetting(p, SettingUseTLS)
	s.ImmediateFlush = boolSetting(p, SettingImmediateFlush)
	s.Debug = boolSetting(p, SettingDebug)

	return s
}

func boolSetting(p Provider, name string) bool {
	v, ok := p.GetSetting(name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
