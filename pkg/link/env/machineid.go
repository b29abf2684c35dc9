// Package env holds the configuration shared by node and ground sides.
package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the hashed machine id to this application.
const AppID = "beacon.go"

// MachineID retrieves the unique ID identifying the machine. The raw
// machine id is never exposed.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id unavailable: %v", err)
		return ""
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
