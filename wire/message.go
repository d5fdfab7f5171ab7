// Package wire defines the cross-context messages the broker speaks: the
// request a frame sends to ask for a channel, and the offer the broker sends
// back alongside a transferred endpoint. Messages are JSON with a "type"
// discriminator; anything that does not decode cleanly is treated as
// background noise by callers, never as a protocol error surfaced to the
// sender.
package wire

import (
	"fmt"

	"github.com/gabrielgrant/framelink/policy"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	requestJSON = []byte(`{"type":"request"}`)
	offerJSON   = []byte(`{"type":"offer"}`)
)

// Message is implemented by all wire message types.
type Message interface {
	wireMessage()
}

// Request asks the broker for a channel between two context kinds. The sender
// must be an instance of the requester kind; the broker checks that claim
// against the policy table and the sender's origin.
type Request struct {
	Requester policy.ContextKind `json:"requester_kind"`
	Responder policy.ContextKind `json:"responder_kind"`
}

func (Request) wireMessage() {}

// MarshalJSON implements custom JSON marshaling for Request.
func (r Request) MarshalJSON() ([]byte, error) {
	result := requestJSON

	var err error
	result, err = sjson.SetBytes(result, "requester_kind", string(r.Requester))
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "responder_kind", string(r.Responder))
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Request.
func (r *Request) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "request" {
		return fmt.Errorf("missing or invalid type, expected 'request'")
	}

	requester := gjson.GetBytes(data, "requester_kind")
	if !requester.Exists() || requester.String() == "" {
		return fmt.Errorf("missing required field 'requester_kind'")
	}
	r.Requester = policy.ContextKind(requester.String())

	responder := gjson.GetBytes(data, "responder_kind")
	if !responder.Exists() || responder.String() == "" {
		return fmt.Errorf("missing required field 'responder_kind'")
	}
	r.Responder = policy.ContextKind(responder.String())

	return nil
}

// Offer is the broker's reply to a granted request. It always travels together
// with exactly one transferred channel endpoint, either directly to the
// requester or relayed to the responder.
type Offer struct {
	Requester policy.ContextKind `json:"requester_kind"`
	Responder policy.ContextKind `json:"responder_kind"`
}

func (Offer) wireMessage() {}

// Channel returns the kind of the channel this offer grants.
func (o Offer) Channel() policy.ChannelKind {
	return policy.KindFor(o.Requester, o.Responder)
}

// MarshalJSON implements custom JSON marshaling for Offer.
func (o Offer) MarshalJSON() ([]byte, error) {
	result := offerJSON

	var err error
	result, err = sjson.SetBytes(result, "requester_kind", string(o.Requester))
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "responder_kind", string(o.Responder))
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Offer.
func (o *Offer) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "offer" {
		return fmt.Errorf("missing or invalid type, expected 'offer'")
	}

	requester := gjson.GetBytes(data, "requester_kind")
	if !requester.Exists() || requester.String() == "" {
		return fmt.Errorf("missing required field 'requester_kind'")
	}
	o.Requester = policy.ContextKind(requester.String())

	responder := gjson.GetBytes(data, "responder_kind")
	if !responder.Exists() || responder.String() == "" {
		return fmt.Errorf("missing required field 'responder_kind'")
	}
	o.Responder = policy.ContextKind(responder.String())

	return nil
}

// Decode parses a raw inbound payload into a typed wire message, dispatching
// on the "type" discriminator.
func Decode(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	switch msgType := gjson.GetBytes(data, "type").String(); msgType {
	case "request":
		var req Request
		if err := req.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return req, nil
	case "offer":
		var off Offer
		if err := off.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return off, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", msgType)
	}
}
