package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/beacon.go/pkg/beacon"
	fx "github.com/robotalks/beacon.go/pkg/framework"
	env "github.com/robotalks/beacon.go/pkg/link/env/node"
)

func init() {
	env.SetNodeType(beacon.NodeType, beacon.NodeMeta)
	env.SetupFlags()
	beacon.SetupFlags()
}

func closeIfCloser(v interface{}) {
	if closer, ok := v.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			glog.Warningf("close: %v", err)
		}
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := beacon.NewConfig()
	if err != nil {
		glog.Exit(err)
	}
	if err = conf.Validate(); err != nil {
		glog.Exit(err)
	}
	medium, err := conf.OpenMedium()
	if err != nil {
		glog.Exitf("open %s medium: %v", conf.Medium.Kind, err)
	}
	defer closeIfCloser(medium)
	actuator, err := conf.NewActuator()
	if err != nil {
		glog.Exitf("create %s antenna: %v", conf.Antenna.Kind, err)
	}
	defer closeIfCloser(actuator)

	linkEnv := env.NewConfig().MustNewEnv()
	ctl, err := conf.NewController(medium, actuator, linkEnv.Registrar)
	if err != nil {
		glog.Exit(err)
	}
	if err = ctl.Boot(); err != nil {
		glog.Exitf("boot: %v", err)
	}
	glog.Infof("%s registered at %v", linkEnv.Config.Info.Ref.Name(), linkEnv.RegistryURLs)

	loop := fx.NewLoop().Add(linkEnv, ctl)
	if err = fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Error(err)
	}
	if err = ctl.Shutdown(); err != nil {
		glog.Errorf("shutdown: %v", err)
	}
}
