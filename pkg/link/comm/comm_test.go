package comm

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/beacon.go/pkg/framework"
	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/link/msgs"
)

type pingCmd struct {
	Payload string `protobuf:"bytes,1,opt,name=payload,proto3" json:"payload,omitempty"`
}

func (m *pingCmd) NewMessage() fx.Message      { return &pingCmd{} }
func (m *pingCmd) TypeID() uint32              { return msgs.GroupCustom | 0x0100 }
func (m *pingCmd) Serializable() proto.Message { return m }
func (m *pingCmd) ProtoMessage()               {}
func (m *pingCmd) Reset()                      { *m = pingCmd{} }
func (m *pingCmd) String() string              { return proto.CompactTextString(m) }

type otherCmd struct{}

func (m *otherCmd) NewMessage() fx.Message      { return &otherCmd{} }
func (m *otherCmd) TypeID() uint32              { return msgs.GroupCustom | 0x0101 }
func (m *otherCmd) Serializable() proto.Message { return m }
func (m *otherCmd) ProtoMessage()               {}
func (m *otherCmd) Reset()                      { *m = otherCmd{} }
func (m *otherCmd) String() string              { return proto.CompactTextString(m) }

type noticeEvent struct {
	Payload string `protobuf:"bytes,1,opt,name=payload,proto3" json:"payload,omitempty"`
}

func (m *noticeEvent) NewMessage() fx.Message { return &noticeEvent{} }
func (m *noticeEvent) TypeID() uint32 {
	return msgs.GroupCustom | msgs.TypeIDKindEvent | 0x0100
}
func (m *noticeEvent) Serializable() proto.Message { return m }
func (m *noticeEvent) ProtoMessage()               {}
func (m *noticeEvent) Reset()                      { *m = noticeEvent{} }
func (m *noticeEvent) String() string              { return proto.CompactTextString(m) }

func init() {
	msgs.Register(&pingCmd{}, &otherCmd{}, &noticeEvent{})
}

// chanRW is one end of an in-memory packet link.
type chanRW struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once sync.Once
}

func newLinkPair() (*chanRW, *chanRW) {
	a, b := make(chan []byte, 16), make(chan []byte, 16)
	return &chanRW{in: a, out: b, done: make(chan struct{})},
		&chanRW{in: b, out: a, done: make(chan struct{})}
}

func (c *chanRW) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.in:
		return pkt, nil
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *chanRW) WritePacket(pkt []byte) error {
	select {
	case <-c.done:
		return io.ErrClosedPipe
	default:
	}
	select {
	case c.out <- pkt:
		return nil
	case <-c.done:
		return io.ErrClosedPipe
	}
}

func (c *chanRW) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *chanRW) Run(ctx context.Context) error {
	<-ctx.Done()
	c.Close()
	return ctx.Err()
}

func waitResult(t *testing.T, f link.CommandFuture) link.Result {
	select {
	case res := <-f.ResultChan():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("command timeout")
	}
	return link.Result{}
}

func TestCommandRoundTrip(t *testing.T) {
	nodeRW, groundRW := newLinkPair()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reg Registrar
	reg.Init(nodeRW)
	nodeLoop := fx.NewLoop()
	nodeLoop.Interval = 10 * time.Millisecond
	nodeLoop.Add(&reg)
	nodeLoop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
			cmdMsg, ok := mc.CurrentMessage().(*link.CommandMsg)
			if !ok {
				return
			}
			if ping, ok := cmdMsg.Command.Msg().(*pingCmd); ok {
				mc.MessageTaken()
				if ping.Payload == "fail" {
					cmdMsg.Command.Done(msgs.NewCommandErrFromMsg("refused"))
					return
				}
				cmdMsg.Command.Done(msgs.NewCommandOK())
			}
		}))
		return nil
	}))
	nodeLoop.Add(&UnsupportedCommands{})
	go nodeLoop.Run(ctx)

	var conn Conn
	conn.Init(groundRW)
	events := make(chan fx.Message, 1)
	groundLoop := fx.NewLoop()
	groundLoop.Interval = 10 * time.Millisecond
	groundLoop.Add(&conn)
	groundLoop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
			mc.MessageTaken()
			events <- mc.CurrentMessage()
		}))
		return nil
	}))
	go groundLoop.Run(ctx)

	t.Run("ok", func(t *testing.T) {
		res := waitResult(t, conn.DoCommand(&pingCmd{Payload: "hello"}))
		require.NoError(t, res.Err)
		require.IsType(t, &msgs.CommandOK{}, res.Msg)
	})
	t.Run("error", func(t *testing.T) {
		res := waitResult(t, conn.DoCommand(&pingCmd{Payload: "fail"}))
		require.EqualError(t, res.Err, "refused")
	})
	t.Run("unsupported", func(t *testing.T) {
		res := waitResult(t, conn.DoCommand(&otherCmd{}))
		require.EqualError(t, res.Err, msgs.ErrUnsupportedCommand.Error())
	})
	t.Run("event", func(t *testing.T) {
		require.NoError(t, reg.SendEvent(ctx, &noticeEvent{Payload: "up"}))
		select {
		case msg := <-events:
			require.Equal(t, "up", msg.(*noticeEvent).Payload)
		case <-time.After(5 * time.Second):
			t.Fatal("event timeout")
		}
	})
	require.Zero(t, conn.Pending())
}

func TestUnknownCommandAnswered(t *testing.T) {
	nodeRW, groundRW := newLinkPair()
	pipe := NewPipe(nodeRW)
	done := make(chan error, 1)
	go func() { done <- pipe.Run(context.Background()) }()

	pkt, err := (&msgs.Typed{TypeId: msgs.GroupCustom | 0x7ff1, Sequence: 9}).Encode()
	require.NoError(t, err)
	require.NoError(t, groundRW.WritePacket(pkt))
	reply, err := groundRW.ReadPacket()
	require.NoError(t, err)
	typed, err := msgs.DecodeTyped(reply)
	require.NoError(t, err)
	require.Equal(t, uint32(9), typed.Sequence)
	msg, err := typed.Decode()
	require.NoError(t, err)
	require.IsType(t, &msgs.CommandErr{}, msg)

	nodeRW.Close()
	require.Equal(t, io.EOF, <-done)
}

func TestCommandExpiration(t *testing.T) {
	_, groundRW := newLinkPair()
	clock := fx.NewManualClock(time.Unix(1000, 0))
	var conn Conn
	conn.Init(groundRW)
	conn.Clock = clock
	loop := fx.NewLoop()
	loop.Add(&conn)

	f := conn.DoCommand(&pingCmd{})
	loop.RunOnce(context.Background())
	require.Equal(t, 1, conn.Pending())

	clock.Advance(DefaultCommandExpiration)
	loop.RunOnce(context.Background())
	res := waitResult(t, f)
	require.Equal(t, context.DeadlineExceeded, res.Err)
	require.Zero(t, conn.Pending())
}

func TestRegistrarMux(t *testing.T) {
	a, peerA := newLinkPair()
	b, _ := newLinkPair()
	var regA, regB Registrar
	regA.Init(a)
	regB.Init(b)
	b.Close()

	mux := &RegistrarMux{}
	mux.Add(&regA, &regB)
	err := mux.SendEvent(context.Background(), &noticeEvent{Payload: "x"})
	require.Error(t, err)
	require.Len(t, err.(*fx.AggregatedError).Errors, 1)

	pkt, err := peerA.ReadPacket()
	require.NoError(t, err)
	typed, err := msgs.DecodeTyped(pkt)
	require.NoError(t, err)
	require.True(t, typed.IsEvent())
}

func TestPipeRejectsWrongKind(t *testing.T) {
	a, _ := newLinkPair()
	p := NewPipe(a)
	err := p.SendEventMsg(&pingCmd{})
	require.Equal(t, ErrWrongKind, errors.Cause(err))
	err = p.SendCommandMsg(&noticeEvent{}, 1)
	require.Equal(t, ErrWrongKind, errors.Cause(err))
}
