package ivr

import (
	"context"
	"net/url"
	"testing"

	"bookstore-ivr/internal/calls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhisper_AnnouncesCaller(t *testing.T) {
	f := newFixture(t, storeConf)

	w := f.post(t, f.h.Links.Whisper(CallContext{CustomerName: "Ann"}), nil)

	d := parseDoc(t, w.Body.String())
	require.Len(t, d.Gathers, 1)
	assert.Equal(t, []string{"Call from Ann. Press 1 to accept."}, d.Gathers[0].Says)
	assert.Contains(t, d.Gathers[0].Action, PathWhisper)
	assert.Equal(t, []string{promptNoResponse}, d.Says)
	assert.NotNil(t, d.Hangup)
}

func TestWhisper_UnknownCallerName(t *testing.T) {
	f := newFixture(t, storeConf)

	w := f.post(t, f.h.Links.Whisper(CallContext{}), nil)

	d := parseDoc(t, w.Body.String())
	require.Len(t, d.Gathers, 1)
	assert.Equal(t, []string{"Call from a customer. Press 1 to accept."}, d.Gathers[0].Says)
}

func TestWhisper_AcceptBridges(t *testing.T) {
	f := newFixture(t, storeConf)

	w := f.post(t, f.h.Links.Whisper(CallContext{}), url.Values{"Digits": {"1"}})

	d := parseDoc(t, w.Body.String())
	assert.Equal(t, []string{promptConnecting}, d.Says)
	assert.Nil(t, d.Hangup)
	assert.Empty(t, f.calls.All())
}

func TestWhisper_OtherDigitHangsUp(t *testing.T) {
	f := newFixture(t, storeConf)

	w := f.post(t, f.h.Links.Whisper(CallContext{}), url.Values{"Digits": {"5"}})

	d := parseDoc(t, w.Body.String())
	assert.Equal(t, []string{promptNoResponse}, d.Says)
	assert.NotNil(t, d.Hangup)
}

func newOutboundLog(t *testing.T, f *fixture) calls.CallLog {
	t.Helper()
	row, err := f.h.Calls.CreateCall(context.Background(), calls.CreateCallRequest{
		Direction:   calls.DirectionOutbound,
		PhoneNumber: "+15551234567",
	})
	require.NoError(t, err)
	return row
}

func TestConfirm_PressOneDialsCustomer(t *testing.T) {
	f := newFixture(t, storeConf)
	row := newOutboundLog(t, f)

	cc := CallContext{CallLogID: row.ID, CustomerName: "Ann", CustomerPhone: "+15551234567"}
	w := f.post(t, f.h.Links.Confirm(cc), url.Values{"Digits": {"1"}})

	d := parseDoc(t, w.Body.String())
	assert.Equal(t, []string{"Connecting you to Ann."}, d.Says)
	require.Len(t, d.Dials, 1)
	assert.Equal(t, "+15551234567", d.Dials[0].Number.Value)
	assert.Equal(t, testFrom, d.Dials[0].CallerID)
	assert.Empty(t, d.Dials[0].Number.URL)
	assert.Equal(t, calls.StatusInitiated, f.onlyCall(t).Status)
}

func TestConfirm_CancelMarksFailed(t *testing.T) {
	for _, digits := range []string{"", "2"} {
		t.Run("digits="+digits, func(t *testing.T) {
			f := newFixture(t, storeConf)
			row := newOutboundLog(t, f)

			cc := CallContext{CallLogID: row.ID, CustomerPhone: "+15551234567"}
			w := f.post(t, f.h.Links.Confirm(cc), url.Values{"Digits": {digits}})

			d := parseDoc(t, w.Body.String())
			assert.Equal(t, []string{promptCallCancelled}, d.Says)
			assert.NotNil(t, d.Hangup)

			got := f.onlyCall(t)
			assert.Equal(t, calls.StatusFailed, got.Status)
			assert.Equal(t, noteDidNotConfirm, got.Notes)
		})
	}
}
