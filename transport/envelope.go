// Package transport is the pluggable boundary between the fleet manager
// core and the message middleware: a unified MQTT/Kafka client that drains
// inbound RobotState reports and publishes outbound command envelopes.
// Spec.md treats this as an external collaborator specified only as a
// contract (manager.Transport); this package is one concrete adapter.
package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chianfern/free-fleet/geometry"
	"github.com/chianfern/free-fleet/messages"
)

const protocolVersion = 1

// envelopeType discriminates the wire payloads carried in an Envelope.
type envelopeType string

const (
	typeRobotState            envelopeType = "robot_state"
	typeModeRequest           envelopeType = "mode_request"
	typeNavigationRequest     envelopeType = "navigation_request"
	typeRelocalizationRequest envelopeType = "relocalization_request"
)

// Envelope is the wire-level frame every message is wrapped in: a protocol
// version, a type tag used for two-stage decoding, the named robot, a
// unique message id, a timestamp, and the type-specific payload.
type Envelope struct {
	Version   int             `json:"version"`
	Type      envelopeType    `json:"type"`
	RobotName string          `json:"robot_name"`
	MsgID     string          `json:"msg_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func newEnvelope(typ envelopeType, robotName string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("transport: encode %s payload: %w", typ, err)
	}
	return Envelope{
		Version:   protocolVersion,
		Type:      typ,
		RobotName: robotName,
		MsgID:     uuid.New().String(),
		Timestamp: time.Now(),
		Payload:   raw,
	}, nil
}

// Encode marshals an envelope to JSON.
func (e Envelope) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// decodeEnvelope unmarshals a raw wire message into env.
func decodeEnvelope(data []byte, env *Envelope) error {
	if err := json.Unmarshal(data, env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	return nil
}

// wireLocation and wireNavigationPoint mirror messages.Location and
// messages.NavigationPoint for JSON framing, keeping the wire schema
// decoupled from the in-process struct layout.
type wireLocation struct {
	MapName string  `json:"map_name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Yaw     float64 `json:"yaw"`
}

func toWireLocation(l messages.Location) wireLocation {
	return wireLocation{MapName: l.MapName, X: l.Position.X, Y: l.Position.Y, Yaw: l.Yaw}
}

func (w wireLocation) toLocation() messages.Location {
	return messages.Location{MapName: w.MapName, Position: geometry.Point{X: w.X, Y: w.Y}, Yaw: w.Yaw}
}

type wireNavigationPoint struct {
	WaypointIndex int        `json:"waypoint_index"`
	Yaw           *float64   `json:"yaw,omitempty"`
	WaitUntil     *time.Time `json:"wait_until,omitempty"`
}

// wireRobotState is the JSON shape of an inbound RobotState report.
type wireRobotState struct {
	Timestamp        time.Time    `json:"timestamp"`
	Name             string       `json:"name"`
	Model            string       `json:"model"`
	CommandID        uint32       `json:"command_id"`
	CommandCompleted bool         `json:"command_completed"`
	Mode             int          `json:"mode"`
	Battery          float64      `json:"battery"`
	Location         wireLocation `json:"location"`
	TargetPathIndex  *int         `json:"target_path_index,omitempty"`
}

func decodeRobotState(payload json.RawMessage) (messages.RobotState, error) {
	var w wireRobotState
	if err := json.Unmarshal(payload, &w); err != nil {
		return messages.RobotState{}, fmt.Errorf("transport: decode robot_state payload: %w", err)
	}
	return messages.NewRobotState(
		w.Timestamp, w.Name, w.Model,
		messages.CommandId(w.CommandID), w.CommandCompleted,
		messages.RobotMode(w.Mode), w.Battery,
		w.Location.toLocation(), w.TargetPathIndex,
	)
}

// wireModeRequest, wireNavigationRequest, wireRelocalizationRequest are the
// outbound command payloads, one per request kind per spec.md §6.
type wireModeRequest struct {
	CommandID uint32 `json:"command_id"`
	ModeKind  int    `json:"mode_kind"`
	DockName  string `json:"dock_name,omitempty"`
}

type wireNavigationRequest struct {
	CommandID uint32                `json:"command_id"`
	Path      []wireNavigationPoint `json:"path"`
}

type wireRelocalizationRequest struct {
	CommandID                uint32       `json:"command_id"`
	Location                 wireLocation `json:"location"`
	LastVisitedWaypointIndex int          `json:"last_visited_waypoint_index"`
}
