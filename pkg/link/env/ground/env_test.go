package ground

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/beacon.go/pkg/link/comm/mqtt"
	"github.com/robotalks/beacon.go/pkg/link/comm/websocket"
)

func TestNewConnector(t *testing.T) {
	testCases := []struct {
		url    string
		expect interface{}
	}{
		{"mqtt://localhost:1883/fsat/", &mqtt.Connector{}},
		{"ws://localhost:8480", &websocket.Connector{}},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			conf := NewConfig()
			conf.RegistryURL = tc.url
			connector, err := conf.NewConnector()
			require.NoError(t, err)
			require.IsType(t, tc.expect, connector)
		})
	}

	conf := NewConfig()
	conf.RegistryURL = "tcp://localhost"
	_, err := conf.NewConnector()
	require.Error(t, err)
}
