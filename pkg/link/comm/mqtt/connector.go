package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/link/comm"
)

// Connector implements link.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	newQueue func() *Queue
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	if _, _, err := ClientOptionsFromURL(brokerURL); err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		newQueue: func() *Queue {
			opts, topicPrefix, _ := ClientOptionsFromURL(brokerURL)
			return NewQueue(opts, topicPrefix)
		},
	}, nil
}

// ParseMeta parses a retained meta message. An empty payload means the
// node is gone.
func ParseMeta(topic string, payload []byte) (info link.NodeInfo, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta || len(payload) == 0 {
		return
	}
	if err := json.Unmarshal(payload, &info); err != nil {
		glog.Warningf("bad meta on %q: %v", topic, err)
	}
	info.Ref = link.NodeRef{Type: items[0], ID: items[1]}
	return info, true
}

// Discover implements Connector.
func (c *Connector) Discover(ctx context.Context) (res []link.NodeInfo, err error) {
	q := c.newQueue()
	token := q.Connect()
	if token.Wait(); token.Error() != nil {
		return nil, token.Error()
	}
	defer q.Close()
	resCh := make(chan link.NodeInfo, 1)
	sub := q.Sub("+/+/"+TopicMeta, Handler(func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-time.After(time.Second):
			}
		}
	}))
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// Connect implements Connector.
func (c *Connector) Connect(ctx context.Context, ref link.NodeRef) (link.NodeConn, error) {
	conn := &NodeConn{Queue: c.newQueue()}
	conn.Init(NewPacketReadWriter(conn.Queue).ForConnector(ref))
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// NodeConn implements link.NodeConn using MQTT.
type NodeConn struct {
	comm.Conn
	Queue *Queue
}
