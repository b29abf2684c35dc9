package mqtt

import (
	"context"
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	fx "github.com/robotalks/beacon.go/pkg/framework"
	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/link/comm"
)

// Registrar implements link.Registrar using MQTT.
type Registrar struct {
	Queue *Queue
	Info  link.NodeInfo

	metaJSON  []byte
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info link.NodeInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+NodeTopic(info.Ref, TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("beacon:" + info.Ref.Name())
	}
	return newRegistrar(NewQueue(opts, topicPrefix), info, meta), nil
}

func newRegistrar(q *Queue, info link.NodeInfo, meta []byte) *Registrar {
	r := &Registrar{Queue: q, Info: info, metaJSON: meta}
	r.Queue.OnConnect = func(*Queue) { r.publishMeta(r.metaJSON) }
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForNode(info.Ref))
	return r
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	token := r.Queue.Connect()
	go func() {
		if token.Wait(); token.Error() != nil {
			glog.Errorf("connect broker: %v", token.Error())
		}
	}()
	<-ctx.Done()
	r.publishMeta(nil).Wait()
	r.Queue.Close()
	return nil
}

func (r *Registrar) publishMeta(meta []byte) paho.Token {
	return r.Queue.PubWith(NodeTopic(r.Info.Ref, TopicMeta), meta, 1, true)
}
