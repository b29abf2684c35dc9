// Package msgs provides the link protocol envelope and the generic
// command replies.
//
// Every packet on a link is a protobuf encoded Typed which carries the
// type id of the payload, a sequence number pairing replies with
// commands, and the protobuf encoded payload.
//
// A type id is composed of
//
//	bit 31     kind: 0 command (or reply), 1 event
//	bits 16-30 group
//	bit 15     reply
//	bits 0-14  id within the group
package msgs
