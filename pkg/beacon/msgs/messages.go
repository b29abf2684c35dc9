package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/beacon.go/pkg/framework"
	"github.com/robotalks/beacon.go/pkg/link/msgs"
)

// BeaconStatus is the periodic telemetry event.
type BeaconStatus struct {
	TimeCount                 uint32           `protobuf:"varint,1,opt,name=time_count,proto3" json:"time_count,omitempty"`
	FirstBoot                 bool             `protobuf:"varint,2,opt,name=first_boot,proto3" json:"first_boot,omitempty"`
	Hibernating               bool             `protobuf:"varint,3,opt,name=hibernating,proto3" json:"hibernating,omitempty"`
	HibernationRemainingSec   uint32           `protobuf:"varint,4,opt,name=hibernation_remaining_sec,proto3" json:"hibernation_remaining_sec,omitempty"`
	EnergyLevel               uint32           `protobuf:"varint,5,opt,name=energy_level,proto3" json:"energy_level,omitempty"`
	TxPeriodSec               uint32           `protobuf:"varint,6,opt,name=tx_period_sec,proto3" json:"tx_period_sec,omitempty"`
	DeployState               string           `protobuf:"bytes,7,opt,name=deploy_state,proto3" json:"deploy_state,omitempty"`
	DeployAttempts            uint32           `protobuf:"varint,8,opt,name=deploy_attempts,proto3" json:"deploy_attempts,omitempty"`
	DeployHibernationExecuted bool             `protobuf:"varint,9,opt,name=deploy_hibernation_executed,proto3" json:"deploy_hibernation_executed,omitempty"`
	Eps                       *SubsystemStatus `protobuf:"bytes,10,opt,name=eps,proto3" json:"eps,omitempty"`
	Obdh                      *SubsystemStatus `protobuf:"bytes,11,opt,name=obdh,proto3" json:"obdh,omitempty"`
	IntegrityFaults           []string         `protobuf:"bytes,12,rep,name=integrity_faults,proto3" json:"integrity_faults,omitempty"`
	DeployError               string           `protobuf:"bytes,13,opt,name=deploy_error,proto3" json:"deploy_error,omitempty"`
	AntennaStatus             string           `protobuf:"bytes,14,opt,name=antenna_status,proto3" json:"antenna_status,omitempty"`
}

// NewMessage implements Message.
func (m *BeaconStatus) NewMessage() fx.Message { return &BeaconStatus{} }

// TypeID implements SerializableMessage.
func (m *BeaconStatus) TypeID() uint32 { return BeaconStatusEventTypeID }

// Serializable implements SerializableMessage.
func (m *BeaconStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *BeaconStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *BeaconStatus) Reset() { *m = BeaconStatus{} }

// String implements proto.Message.
func (m *BeaconStatus) String() string { return proto.CompactTextString(m) }

// SubsystemStatus is the health of a monitored subsystem.
type SubsystemStatus struct {
	LastTimeValidPacket uint32 `protobuf:"varint,1,opt,name=last_time_valid_packet,proto3" json:"last_time_valid_packet,omitempty"`
	ErrorCount          uint32 `protobuf:"varint,2,opt,name=error_count,proto3" json:"error_count,omitempty"`
	IsDead              bool   `protobuf:"varint,3,opt,name=is_dead,proto3" json:"is_dead,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *SubsystemStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SubsystemStatus) Reset() { *m = SubsystemStatus{} }

// String implements proto.Message.
func (m *SubsystemStatus) String() string { return proto.CompactTextString(m) }

// StatusQuery requests a BeaconStatus.
type StatusQuery struct {
}

// NewMessage implements Message.
func (m *StatusQuery) NewMessage() fx.Message { return &StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *StatusQuery) TypeID() uint32 { return StatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *StatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusQuery) Reset() { *m = StatusQuery{} }

// String implements proto.Message.
func (m *StatusQuery) String() string { return proto.CompactTextString(m) }

// StatusReply replies StatusQuery.
type StatusReply struct {
	Status *BeaconStatus `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

// NewMessage implements Message.
func (m *StatusReply) NewMessage() fx.Message { return &StatusReply{} }

// TypeID implements SerializableMessage.
func (m *StatusReply) TypeID() uint32 { return StatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *StatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReply) Reset() { *m = StatusReply{} }

// String implements proto.Message.
func (m *StatusReply) String() string { return proto.CompactTextString(m) }

// ParamGet reads a parameter from non-volatile memory.
type ParamGet struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
}

// NewMessage implements Message.
func (m *ParamGet) NewMessage() fx.Message { return &ParamGet{} }

// TypeID implements SerializableMessage.
func (m *ParamGet) TypeID() uint32 { return ParamGetTypeID }

// Serializable implements SerializableMessage.
func (m *ParamGet) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ParamGet) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ParamGet) Reset() { *m = ParamGet{} }

// String implements proto.Message.
func (m *ParamGet) String() string { return proto.CompactTextString(m) }

// ParamValue is a parameter read. Valid is false when no copy
// passed the integrity check.
type ParamValue struct {
	Name  string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Value uint32 `protobuf:"varint,2,opt,name=value,proto3" json:"value,omitempty"`
	Valid bool   `protobuf:"varint,3,opt,name=valid,proto3" json:"valid,omitempty"`
}

// NewMessage implements Message.
func (m *ParamValue) NewMessage() fx.Message { return &ParamValue{} }

// TypeID implements SerializableMessage.
func (m *ParamValue) TypeID() uint32 { return ParamValueTypeID }

// Serializable implements SerializableMessage.
func (m *ParamValue) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ParamValue) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ParamValue) Reset() { *m = ParamValue{} }

// String implements proto.Message.
func (m *ParamValue) String() string { return proto.CompactTextString(m) }

// ParamList reads all parameters.
type ParamList struct {
}

// NewMessage implements Message.
func (m *ParamList) NewMessage() fx.Message { return &ParamList{} }

// TypeID implements SerializableMessage.
func (m *ParamList) TypeID() uint32 { return ParamListTypeID }

// Serializable implements SerializableMessage.
func (m *ParamList) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ParamList) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ParamList) Reset() { *m = ParamList{} }

// String implements proto.Message.
func (m *ParamList) String() string { return proto.CompactTextString(m) }

// ParamValues replies ParamList in layout order.
type ParamValues struct {
	Values []*ParamValue `protobuf:"bytes,1,rep,name=values,proto3" json:"values,omitempty"`
}

// NewMessage implements Message.
func (m *ParamValues) NewMessage() fx.Message { return &ParamValues{} }

// TypeID implements SerializableMessage.
func (m *ParamValues) TypeID() uint32 { return ParamValuesTypeID }

// Serializable implements SerializableMessage.
func (m *ParamValues) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ParamValues) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ParamValues) Reset() { *m = ParamValues{} }

// String implements proto.Message.
func (m *ParamValues) String() string { return proto.CompactTextString(m) }

// ParamSet writes a parameter.
type ParamSet struct {
	Name  string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Value uint32 `protobuf:"varint,2,opt,name=value,proto3" json:"value,omitempty"`
}

// NewMessage implements Message.
func (m *ParamSet) NewMessage() fx.Message { return &ParamSet{} }

// TypeID implements SerializableMessage.
func (m *ParamSet) TypeID() uint32 { return ParamSetTypeID }

// Serializable implements SerializableMessage.
func (m *ParamSet) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ParamSet) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ParamSet) Reset() { *m = ParamSet{} }

// String implements proto.Message.
func (m *ParamSet) String() string { return proto.CompactTextString(m) }

// ParamsReset writes the defaults of all parameters.
type ParamsReset struct {
}

// NewMessage implements Message.
func (m *ParamsReset) NewMessage() fx.Message { return &ParamsReset{} }

// TypeID implements SerializableMessage.
func (m *ParamsReset) TypeID() uint32 { return ParamsResetTypeID }

// Serializable implements SerializableMessage.
func (m *ParamsReset) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ParamsReset) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ParamsReset) Reset() { *m = ParamsReset{} }

// String implements proto.Message.
func (m *ParamsReset) String() string { return proto.CompactTextString(m) }

// ParamsSave flushes the volatile parameters.
type ParamsSave struct {
}

// NewMessage implements Message.
func (m *ParamsSave) NewMessage() fx.Message { return &ParamsSave{} }

// TypeID implements SerializableMessage.
func (m *ParamsSave) TypeID() uint32 { return ParamsSaveTypeID }

// Serializable implements SerializableMessage.
func (m *ParamsSave) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *ParamsSave) ProtoMessage() {}

// Reset implements proto.Message.
func (m *ParamsSave) Reset() { *m = ParamsSave{} }

// String implements proto.Message.
func (m *ParamsSave) String() string { return proto.CompactTextString(m) }

// HibernationEnter starts a hibernation. Zero DurationSec uses the
// configured period.
type HibernationEnter struct {
	DurationSec uint32 `protobuf:"varint,1,opt,name=duration_sec,proto3" json:"duration_sec,omitempty"`
}

// NewMessage implements Message.
func (m *HibernationEnter) NewMessage() fx.Message { return &HibernationEnter{} }

// TypeID implements SerializableMessage.
func (m *HibernationEnter) TypeID() uint32 { return HibernationEnterTypeID }

// Serializable implements SerializableMessage.
func (m *HibernationEnter) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *HibernationEnter) ProtoMessage() {}

// Reset implements proto.Message.
func (m *HibernationEnter) Reset() { *m = HibernationEnter{} }

// String implements proto.Message.
func (m *HibernationEnter) String() string { return proto.CompactTextString(m) }

// HibernationLeave ends the hibernation immediately.
type HibernationLeave struct {
}

// NewMessage implements Message.
func (m *HibernationLeave) NewMessage() fx.Message { return &HibernationLeave{} }

// TypeID implements SerializableMessage.
func (m *HibernationLeave) TypeID() uint32 { return HibernationLeaveTypeID }

// Serializable implements SerializableMessage.
func (m *HibernationLeave) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *HibernationLeave) ProtoMessage() {}

// Reset implements proto.Message.
func (m *HibernationLeave) Reset() { *m = HibernationLeave{} }

// String implements proto.Message.
func (m *HibernationLeave) String() string { return proto.CompactTextString(m) }

// DeployTick runs one deployment duty cycle now.
type DeployTick struct {
}

// NewMessage implements Message.
func (m *DeployTick) NewMessage() fx.Message { return &DeployTick{} }

// TypeID implements SerializableMessage.
func (m *DeployTick) TypeID() uint32 { return DeployTickTypeID }

// Serializable implements SerializableMessage.
func (m *DeployTick) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeployTick) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeployTick) Reset() { *m = DeployTick{} }

// String implements proto.Message.
func (m *DeployTick) String() string { return proto.CompactTextString(m) }

// DeployResult replies DeployTick.
type DeployResult struct {
	State    string `protobuf:"bytes,1,opt,name=state,proto3" json:"state,omitempty"`
	Attempts uint32 `protobuf:"varint,2,opt,name=attempts,proto3" json:"attempts,omitempty"`
	Error    string `protobuf:"bytes,3,opt,name=error,proto3" json:"error,omitempty"`
}

// NewMessage implements Message.
func (m *DeployResult) NewMessage() fx.Message { return &DeployResult{} }

// TypeID implements SerializableMessage.
func (m *DeployResult) TypeID() uint32 { return DeployResultTypeID }

// Serializable implements SerializableMessage.
func (m *DeployResult) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeployResult) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeployResult) Reset() { *m = DeployResult{} }

// String implements proto.Message.
func (m *DeployResult) String() string { return proto.CompactTextString(m) }

// DeployReset starts a new deployment cycle, leaving the error state.
type DeployReset struct {
}

// NewMessage implements Message.
func (m *DeployReset) NewMessage() fx.Message { return &DeployReset{} }

// TypeID implements SerializableMessage.
func (m *DeployReset) TypeID() uint32 { return DeployResetTypeID }

// Serializable implements SerializableMessage.
func (m *DeployReset) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DeployReset) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DeployReset) Reset() { *m = DeployReset{} }

// String implements proto.Message.
func (m *DeployReset) String() string { return proto.CompactTextString(m) }

// SubsystemReport delivers a packet outcome of a subsystem.
type SubsystemReport struct {
	Subsystem   string `protobuf:"bytes,1,opt,name=subsystem,proto3" json:"subsystem,omitempty"`
	Valid       bool   `protobuf:"varint,2,opt,name=valid,proto3" json:"valid,omitempty"`
	EnergyLevel uint32 `protobuf:"varint,3,opt,name=energy_level,proto3" json:"energy_level,omitempty"`
}

// NewMessage implements Message.
func (m *SubsystemReport) NewMessage() fx.Message { return &SubsystemReport{} }

// TypeID implements SerializableMessage.
func (m *SubsystemReport) TypeID() uint32 { return SubsystemReportTypeID }

// Serializable implements SerializableMessage.
func (m *SubsystemReport) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SubsystemReport) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SubsystemReport) Reset() { *m = SubsystemReport{} }

// String implements proto.Message.
func (m *SubsystemReport) String() string { return proto.CompactTextString(m) }

// FaultInject flips bits of the non-volatile memory.
type FaultInject struct {
	Region uint32 `protobuf:"varint,1,opt,name=region,proto3" json:"region,omitempty"`
	Offset uint32 `protobuf:"varint,2,opt,name=offset,proto3" json:"offset,omitempty"`
	Mask   uint32 `protobuf:"varint,3,opt,name=mask,proto3" json:"mask,omitempty"`
}

// NewMessage implements Message.
func (m *FaultInject) NewMessage() fx.Message { return &FaultInject{} }

// TypeID implements SerializableMessage.
func (m *FaultInject) TypeID() uint32 { return FaultInjectTypeID }

// Serializable implements SerializableMessage.
func (m *FaultInject) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FaultInject) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FaultInject) Reset() { *m = FaultInject{} }

// String implements proto.Message.
func (m *FaultInject) String() string { return proto.CompactTextString(m) }

// GroupBeacon is the group of beacon messages.
const GroupBeacon uint32 = 0x00030000

// TypeIDs
const (
	BeaconStatusEventTypeID uint32 = GroupBeacon | msgs.TypeIDKindEvent | 0x0000
	StatusQueryTypeID       uint32 = GroupBeacon | 0x0000
	StatusReplyTypeID       uint32 = StatusQueryTypeID | msgs.TypeIDMaskReply
	ParamGetTypeID          uint32 = GroupBeacon | 0x0001
	ParamValueTypeID        uint32 = ParamGetTypeID | msgs.TypeIDMaskReply
	ParamListTypeID         uint32 = GroupBeacon | 0x0002
	ParamValuesTypeID       uint32 = ParamListTypeID | msgs.TypeIDMaskReply
	ParamSetTypeID          uint32 = GroupBeacon | 0x0003
	ParamsResetTypeID       uint32 = GroupBeacon | 0x0004
	ParamsSaveTypeID        uint32 = GroupBeacon | 0x0005
	HibernationEnterTypeID  uint32 = GroupBeacon | 0x0006
	HibernationLeaveTypeID  uint32 = GroupBeacon | 0x0007
	DeployTickTypeID        uint32 = GroupBeacon | 0x0008
	DeployResultTypeID      uint32 = DeployTickTypeID | msgs.TypeIDMaskReply
	DeployResetTypeID       uint32 = GroupBeacon | 0x0009
	SubsystemReportTypeID   uint32 = GroupBeacon | 0x000a
	FaultInjectTypeID       uint32 = GroupBeacon | 0x000b
)

func init() {
	msgs.Register(
		&BeaconStatus{},
		&StatusQuery{},
		&StatusReply{},
		&ParamGet{},
		&ParamValue{},
		&ParamList{},
		&ParamValues{},
		&ParamSet{},
		&ParamsReset{},
		&ParamsSave{},
		&HibernationEnter{},
		&HibernationLeave{},
		&DeployTick{},
		&DeployResult{},
		&DeployReset{},
		&SubsystemReport{},
		&FaultInject{},
	)
}
