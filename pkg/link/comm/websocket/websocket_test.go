package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/beacon.go/pkg/framework"
	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/link/msgs"
)

type echoCmd struct {
	Text string `protobuf:"bytes,1,opt,name=text,proto3" json:"text,omitempty"`
}

func (m *echoCmd) NewMessage() fx.Message      { return &echoCmd{} }
func (m *echoCmd) TypeID() uint32              { return msgs.GroupCustom | 0x0200 }
func (m *echoCmd) Serializable() proto.Message { return m }
func (m *echoCmd) ProtoMessage()               {}
func (m *echoCmd) Reset()                      { *m = echoCmd{} }
func (m *echoCmd) String() string              { return proto.CompactTextString(m) }

type echoEvent struct {
	Text string `protobuf:"bytes,1,opt,name=text,proto3" json:"text,omitempty"`
}

func (m *echoEvent) NewMessage() fx.Message { return &echoEvent{} }
func (m *echoEvent) TypeID() uint32 {
	return msgs.GroupCustom | msgs.TypeIDKindEvent | 0x0200
}
func (m *echoEvent) Serializable() proto.Message { return m }
func (m *echoEvent) ProtoMessage()               {}
func (m *echoEvent) Reset()                      { *m = echoEvent{} }
func (m *echoEvent) String() string              { return proto.CompactTextString(m) }

func init() {
	msgs.Register(&echoCmd{}, &echoEvent{})
}

func TestServerRoundTrip(t *testing.T) {
	info := link.NodeInfo{
		Ref:  link.NodeRef{Type: "beacon", ID: "em1"},
		Meta: link.NodeMeta{Description: "engineering model"},
	}
	srv := NewServer("127.0.0.1:0", info)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	node := fx.NewLoop()
	node.Interval = 10 * time.Millisecond
	node.Add(srv)
	node.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
			if cmdMsg, ok := mc.CurrentMessage().(*link.CommandMsg); ok {
				mc.MessageTaken()
				echo := cmdMsg.Command.Msg().(*echoCmd)
				srv.SendEvent(cc.Context(), &echoEvent{Text: echo.Text})
				cmdMsg.Command.Done(msgs.NewCommandOK())
			}
		}))
		return nil
	}))
	go node.Run(ctx)

	connector, err := NewConnector("ws://" + srv.ListenAddr().String())
	require.NoError(t, err)

	var infos []link.NodeInfo
	require.Eventually(t, func() bool {
		infos, err = connector.Discover(ctx)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, []link.NodeInfo{info}, infos)

	conn, err := connector.Connect(ctx, info.Ref)
	require.NoError(t, err)
	events := make(chan string, 1)
	ground := fx.NewLoop()
	ground.Interval = 10 * time.Millisecond
	ground.Add(conn.(fx.LoopAdder))
	ground.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
			if ev, ok := mc.CurrentMessage().(*echoEvent); ok {
				mc.MessageTaken()
				events <- ev.Text
			}
		}))
		return nil
	}))
	go ground.Run(ctx)
	require.Eventually(t, func() bool { return srv.Connections() == 1 }, 5*time.Second, 10*time.Millisecond)

	select {
	case res := <-conn.DoCommand(&echoCmd{Text: "ping"}).ResultChan():
		require.NoError(t, res.Err)
		require.IsType(t, &msgs.CommandOK{}, res.Msg)
	case <-time.After(5 * time.Second):
		t.Fatal("command timeout")
	}
	select {
	case text := <-events:
		require.Equal(t, "ping", text)
	case <-time.After(5 * time.Second):
		t.Fatal("event timeout")
	}
}

func TestNewConnectorScheme(t *testing.T) {
	_, err := NewConnector("mqtt://localhost:1883")
	require.Error(t, err)
}
