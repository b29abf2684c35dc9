// Package ground configures the link of a ground station.
package ground

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/link/comm/mqtt"
	"github.com/robotalks/beacon.go/pkg/link/comm/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref link.NodeRef

	// RegistryURL specifies where nodes register.
	// e.g. mqtt://host:port/topic-prefix or ws://host:port
	RegistryURL string
}

var defaultConfig = Config{
	Ref:         link.NodeRef{Type: "beacon"},
	RegistryURL: "mqtt://localhost:1883/fsat/",
}

func init() {
	if val := os.Getenv("BEACON_TYPE"); val != "" {
		defaultConfig.Ref.Type = val
	}
	if val := os.Getenv("BEACON_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("BEACON_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "node-type", defaultConfig.Ref.Type, "Node type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "node-id", defaultConfig.Ref.ID, "Node ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "reg", defaultConfig.RegistryURL, "Registry URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (link.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "mqtts":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return websocket.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() link.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to the node.
func (c *Config) Connect(ctx context.Context) (link.NodeConn, error) {
	if !c.Ref.IsValid() {
		return nil, fmt.Errorf("node type and id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, c.Ref)
}
