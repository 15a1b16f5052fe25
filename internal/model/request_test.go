package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	all := []RequestStatus{RequestPending, RequestApproved, RequestRejected}
	for _, from := range all {
		for _, to := range all {
			want := from == RequestPending && to != RequestPending
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition(RequestPending, RequestStatus("Cancelled")))
}

func TestRequestStatusValid(t *testing.T) {
	assert.True(t, RequestPending.Valid())
	assert.True(t, RequestApproved.Terminal())
	assert.False(t, RequestPending.Terminal())
	assert.False(t, RequestStatus("approved").Valid())
}

func TestRequesterResolution(t *testing.T) {
	r := Request{}
	assert.Equal(t, "unknown", r.Requester())

	r.RequestedByUser = &User{Username: "staff"}
	assert.Equal(t, "staff", r.Requester())

	r.RequestedByUser.FullName = "Store Staff"
	assert.Equal(t, "Store Staff", r.Requester())

	r.RequestedByName = "Legacy Clerk"
	assert.Equal(t, "Legacy Clerk", r.ToResponse().RequestedBy)
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, "60.00", LineTotal(3, decimal.RequireFromString("20.00")).StringFixed(2))
	assert.Equal(t, "0.30", LineTotal(3, decimal.RequireFromString("0.1")).StringFixed(2))
	assert.Equal(t, "10.01", LineTotal(7, decimal.RequireFromString("1.43")).StringFixed(2))
}
