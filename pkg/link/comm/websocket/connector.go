package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/websocket"

	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/link/comm"
)

// Connector implements link.Connector to a single node server.
type Connector struct {
	base *url.URL
}

// NewConnector creates a Connector from ws://host:port.
func NewConnector(serverURL string) (*Connector, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return &Connector{base: u}, nil
}

func (c *Connector) endpoint(scheme, path string) string {
	u := *c.base
	if scheme != "" {
		u.Scheme = scheme
	}
	u.Path = path
	u.RawQuery = ""
	return u.String()
}

// Discover implements Connector by fetching the node meta.
func (c *Connector) Discover(ctx context.Context) ([]link.NodeInfo, error) {
	scheme := "http"
	if c.base.Scheme == "wss" {
		scheme = "https"
	}
	req, err := http.NewRequest(http.MethodGet, c.endpoint(scheme, PathMeta), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("meta: %s", resp.Status)
	}
	var info link.NodeInfo
	if err = json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return []link.NodeInfo{info}, nil
}

// Connect implements Connector. The server hosts a single node so ref
// only needs to be valid.
func (c *Connector) Connect(ctx context.Context, ref link.NodeRef) (link.NodeConn, error) {
	origin := c.endpoint("http", "/")
	ws, err := websocket.Dial(c.endpoint("", PathLink), "", origin)
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	conn := &NodeConn{}
	conn.Init(New(ws))
	return conn, nil
}

// NodeConn implements link.NodeConn over a WebSocket.
type NodeConn struct {
	comm.Conn
}
