// Package protocol defines the status document served by the relay's HTTP
// side endpoint. Relay payloads themselves are raw bytes and have no schema.
package protocol

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Content types of the two encodings.
const (
	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"
)

// Status is a point-in-time view of a running relay.
type Status struct {
	Addr   string
	Peers  []string
	Uptime time.Duration
}

// Encode encodes the status as JSON using protojson
func (s *Status) Encode() ([]byte, error) {
	pbStatus, err := s.toProto()
	if err != nil {
		return nil, err
	}
	data, err := protojson.Marshal(pbStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return data, nil
}

// Decode decodes JSON produced by Encode
func (s *Status) Decode(data []byte) error {
	pbStatus := &structpb.Struct{}
	if err := protojson.Unmarshal(data, pbStatus); err != nil {
		return fmt.Errorf("failed to decode status: %w", err)
	}
	return s.fromProto(pbStatus)
}

// EncodeBinary encodes the status in protobuf wire format
func (s *Status) EncodeBinary() ([]byte, error) {
	pbStatus, err := s.toProto()
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(pbStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return data, nil
}

// DecodeBinary decodes protobuf wire format produced by EncodeBinary
func (s *Status) DecodeBinary(data []byte) error {
	pbStatus := &structpb.Struct{}
	if err := proto.Unmarshal(data, pbStatus); err != nil {
		return fmt.Errorf("failed to decode status: %w", err)
	}
	return s.fromProto(pbStatus)
}

// toProto converts the Status to a protobuf Struct.
func (s *Status) toProto() (*structpb.Struct, error) {
	peers := make([]any, 0, len(s.Peers))
	for _, p := range s.Peers {
		peers = append(peers, p)
	}
	pbStatus, err := structpb.NewStruct(map[string]any{
		"addr":           s.Addr,
		"peers":          peers,
		"peer_count":     len(s.Peers),
		"uptime_seconds": s.Uptime.Seconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return pbStatus, nil
}

// fromProto populates the Status from a protobuf Struct. Missing fields are
// left at their zero value.
func (s *Status) fromProto(pbStatus *structpb.Struct) error {
	fields := pbStatus.GetFields()

	s.Addr = fields["addr"].GetStringValue()
	s.Uptime = time.Duration(fields["uptime_seconds"].GetNumberValue() * float64(time.Second))

	s.Peers = nil
	for _, v := range fields["peers"].GetListValue().GetValues() {
		peer, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return fmt.Errorf("failed to decode status: peer entry is %T, want string", v.GetKind())
		}
		s.Peers = append(s.Peers, peer.StringValue)
	}
	return nil
}
