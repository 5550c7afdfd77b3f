package relay

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"encoding/json"
)

// ServerConfig holds the gateway-facing settings loaded from a JSON, TOML or
// YAML file, adapted from air.go's Config/Serve pattern: the file is parsed
// into a raw map keyed by its extension, then decoded into the struct with
// mapstructure so unknown keys are ignored and tagged fields are matched by
// their snake_case name.
type ServerConfig struct {
	AppName string `mapstructure:"app_name"`

	DebugMode bool `mapstructure:"debug_mode"`

	Address string `mapstructure:"address"`

	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`

	TLSCertFile string `mapstructure:"tls_cert_file"`
	TLSKeyFile  string `mapstructure:"tls_key_file"`

	ACMEEnabled      bool     `mapstructure:"acme_enabled"`
	ACMEDirectoryURL string   `mapstructure:"acme_directory_url"`
	ACMECertRoot     string   `mapstructure:"acme_cert_root"`
	ACMEHostWhitelist []string `mapstructure:"acme_host_whitelist"`

	WebSocketHandshakeTimeout time.Duration `mapstructure:"websocket_handshake_timeout"`
	WebSocketSubprotocols     []string      `mapstructure:"websocket_subprotocols"`

	StaticAssetRoot string `mapstructure:"static_asset_root"`

	DefaultBodyFormat string `mapstructure:"default_body_format"`
}

// NewServerConfig returns a ServerConfig populated with the same defaults
// air.go's New seeds onto its Config fields.
func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		AppName:          "relay",
		Address:          "localhost:8080",
		ACMEDirectoryURL: "https://acme-v02.api.letsencrypt.org/directory",
		ACMECertRoot:     "acme-certs",
		DefaultBodyFormat: "application/json",
	}
}

// LoadServerConfigFile reads path and decodes it into c, selecting a parser
// by the file's extension (.json, .toml, .yaml/.yml), the same dispatch
// air.go's Serve performs before calling mapstructure.Decode.
func LoadServerConfigFile(path string, c *ServerConfig) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	raw := map[string]interface{}{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(b, &raw)
	case ".toml":
		err = toml.Unmarshal(b, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &raw)
	default:
		err = fmt.Errorf("relay: unsupported configuration file extension: %s", ext)
	}
	if err != nil {
		return err
	}

	return mapstructure.Decode(raw, c)
}
