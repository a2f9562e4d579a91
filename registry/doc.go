// Package registry maps small integer handles to live host objects.
//
// The guest only ever holds integers; every host-resident object a bridge
// call returns crosses the boundary as a handle allocated here. Two tables
// exist: Table for opaque host objects (GPU resources, sounds, sockets) and
// ObjectTable for tagged variant values (string / byte buffer / record)
// accessed field by field.
//
// Handle ids are dense and monotonically allocated. Freed slots are cleared
// but never reused, so a stale handle held by the guest can never alias a
// newer object.
package registry
