package wire

import (
	"testing"

	"github.com/gabrielgrant/framelink/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestRequestMarshalJSON(t *testing.T) {
	req := Request{Requester: policy.Guest, Responder: policy.Sidebar}
	data, err := req.MarshalJSON()
	require.NoError(t, err)

	assert.Equal(t, "request", gjson.GetBytes(data, "type").String())
	assert.Equal(t, "guest", gjson.GetBytes(data, "requester_kind").String())
	assert.Equal(t, "sidebar", gjson.GetBytes(data, "responder_kind").String())
}

func TestRequestUnmarshalJSON(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		var req Request
		err := req.UnmarshalJSON([]byte(`{"type":"request","requester_kind":"notebook","responder_kind":"sidebar"}`))
		require.NoError(t, err)
		assert.Equal(t, policy.Notebook, req.Requester)
		assert.Equal(t, policy.Sidebar, req.Responder)
	})

	t.Run("rejects wrong type", func(t *testing.T) {
		var req Request
		err := req.UnmarshalJSON([]byte(`{"type":"offer","requester_kind":"guest","responder_kind":"host"}`))
		require.Error(t, err)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		var req Request
		require.Error(t, req.UnmarshalJSON([]byte(`{"type":"request","responder_kind":"host"}`)))
		require.Error(t, req.UnmarshalJSON([]byte(`{"type":"request","requester_kind":"guest"}`)))
		require.Error(t, req.UnmarshalJSON([]byte(`{"type":"request","requester_kind":"","responder_kind":"host"}`)))
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		var req Request
		require.Error(t, req.UnmarshalJSON([]byte(`{not json`)))
	})
}

func TestOfferRoundTrip(t *testing.T) {
	offer := Offer{Requester: policy.Sidebar, Responder: policy.Host}
	data, err := offer.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "offer", gjson.GetBytes(data, "type").String())

	var decoded Offer
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, offer, decoded)
	assert.Equal(t, policy.SidebarHost, decoded.Channel())
}

func TestDecode(t *testing.T) {
	t.Run("dispatches requests", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"request","requester_kind":"guest","responder_kind":"host"}`))
		require.NoError(t, err)
		req, ok := msg.(Request)
		require.True(t, ok)
		assert.Equal(t, policy.Guest, req.Requester)
	})

	t.Run("dispatches offers", func(t *testing.T) {
		msg, err := Decode([]byte(`{"type":"offer","requester_kind":"guest","responder_kind":"sidebar"}`))
		require.NoError(t, err)
		_, ok := msg.(Offer)
		require.True(t, ok)
	})

	t.Run("rejects unknown types", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":"ping"}`))
		require.Error(t, err)
		_, err = Decode([]byte(`{"requester_kind":"guest"}`))
		require.Error(t, err)
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := Decode([]byte(`not json at all`))
		require.Error(t, err)
	})
}
