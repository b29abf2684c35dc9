package node

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/link/comm/mqtt"
	"github.com/robotalks/beacon.go/pkg/link/comm/websocket"
)

func testConfig() *Config {
	conf := NewConfig()
	conf.Info = link.NodeInfo{Ref: link.NodeRef{Type: "beacon", ID: "fsat1"}}
	return conf
}

func TestNewEnv(t *testing.T) {
	conf := testConfig()
	conf.ListenAddr = "127.0.0.1:0"
	e, err := conf.NewEnv()
	require.NoError(t, err)
	require.Len(t, e.Registrar.Registrars, 2)
	require.IsType(t, &mqtt.Registrar{}, e.Registrar.Registrars[0])
	require.IsType(t, &websocket.Server{}, e.Registrar.Registrars[1])
	require.Equal(t, []string{conf.MQTTBrokerURL, "ws://127.0.0.1:0"}, e.RegistryURLs)
}

func TestNewEnvErrors(t *testing.T) {
	conf := testConfig()
	conf.MQTTBrokerURL = ""
	_, err := conf.NewEnv()
	require.Error(t, err)

	conf = testConfig()
	conf.Info.Ref.ID = ""
	_, err = conf.NewEnv()
	require.Error(t, err)
}
