package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/beacon.go/pkg/framework"
	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/link/comm"
)

// Endpoint paths.
const (
	PathMeta = "/meta"
	PathLink = "/link"
)

// Server implements link.Registrar by accepting ground connections.
// Every connection gets its own pipe, events go to all of them.
type Server struct {
	Addr string
	Info link.NodeInfo

	listener net.Listener
	ctx      context.Context
	conns    map[*comm.Registrar]struct{}
	lock     sync.Mutex
}

// NewServer creates a Server listening on addr when it runs.
func NewServer(addr string, info link.NodeInfo) *Server {
	return &Server{Addr: addr, Info: info, conns: make(map[*comm.Registrar]struct{})}
}

// Listen binds the listening address. Run calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// ListenAddr returns the bound address.
func (s *Server) ListenAddr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(PathMeta, s.serveMeta)
	mux.Handle(PathLink, websocket.Server{Handler: s.serveLink})
	return mux
}

// SendEvent implements Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	s.lock.Lock()
	regs := make([]*comm.Registrar, 0, len(s.conns))
	for reg := range s.conns {
		regs = append(regs, reg)
	}
	s.lock.Unlock()
	var errs fx.AggregatedError
	for _, reg := range regs {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// Connections returns the number of connected ground stations.
func (s *Server) Connections() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.conns)
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.lock.Lock()
	s.ctx = ctx
	s.lock.Unlock()
	glog.Infof("link server listening on %s", s.listener.Addr())
	srv := &http.Server{Handler: s.Handler()}
	return fx.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
		return srv.Serve(s.listener)
	})
}

func (s *Server) serveMeta(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&s.Info)
}

func (s *Server) serveLink(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	s.lock.Lock()
	ctx := s.ctx
	s.lock.Unlock()
	if ctx == nil {
		conn.Close()
		return
	}
	reg := &comm.Registrar{}
	reg.Init(New(conn))
	s.lock.Lock()
	s.conns[reg] = struct{}{}
	s.lock.Unlock()
	glog.Infof("ground connected from %s", conn.Request().RemoteAddr)
	err := fx.RunWithContextCloser(ctx, reg.Pipe(), func() error {
		return reg.Pipe().Run(ctx)
	})
	s.lock.Lock()
	delete(s.conns, reg)
	s.lock.Unlock()
	glog.Infof("ground disconnected from %s: %v", conn.Request().RemoteAddr, err)
}
