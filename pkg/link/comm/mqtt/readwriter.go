package mqtt

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/beacon.go/pkg/link"
)

// Topic suffixes under <type>/<id>/.
const (
	TopicMeta = "meta"
	TopicCmd  = "cmd"
	TopicMsg  = "msg"
)

// NodeTopic returns the topic of a node.
func NodeTopic(ref link.NodeRef, suffix string) string {
	return ref.Name() + "/" + suffix
}

// ReadWriter implements PacketReadWriter over a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	done     chan struct{}
	once     sync.Once
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, 16),
		done:     make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForConnector sets topics for the ground side: receives msg, sends cmd.
func (p *ReadWriter) ForConnector(ref link.NodeRef) *ReadWriter {
	return p.WithTopics(NodeTopic(ref, TopicMsg), NodeTopic(ref, TopicCmd))
}

// ForNode sets topics for the node side: receives cmd, sends msg.
func (p *ReadWriter) ForNode(ref link.NodeRef) *ReadWriter {
	return p.WithTopics(NodeTopic(ref, TopicCmd), NodeTopic(ref, TopicMsg))
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
	defer sub.Close()
	defer p.Close()
	<-ctx.Done()
	return ctx.Err()
}

// Close stops reading.
func (p *ReadWriter) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}

func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
		glog.V(2).Infof("drop packet from %q after close", topic)
	}
}
