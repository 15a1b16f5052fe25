package model

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestRejected RequestStatus = "Rejected"
)

// Valid reports whether s is one of the three known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// Terminal reports whether no strict transition leaves s.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// CanTransition is the one-way table: Pending -> Approved | Rejected.
func CanTransition(from, to RequestStatus) bool {
	return from == RequestPending && to.Terminal()
}

// Request asks for a product to be restocked. Approving it never changes
// stock; a restock is a separate administrative action.
type Request struct {
	BaseModel
	ProductID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"product_id"`
	Product           *Product      `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ProductName       string        `gorm:"type:varchar(255);not null" json:"product_name"`
	RequestedQuantity int           `gorm:"not null" json:"requested_quantity"`
	RequestedByUserID *uuid.UUID    `gorm:"type:uuid;index" json:"requested_by_user_id,omitempty"`
	RequestedByUser   *User         `gorm:"foreignKey:RequestedByUserID;constraint:OnDelete:SET NULL" json:"-"`
	RequestedByName   string        `gorm:"type:varchar(100)" json:"requested_by_name,omitempty"` // legacy display override
	Status            RequestStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	RequestDate       time.Time     `gorm:"not null;index" json:"request_date"`

	DecidedByUserID *uuid.UUID `gorm:"type:uuid" json:"decided_by_user_id,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	Note            string     `gorm:"type:text" json:"note,omitempty"`
}

// Requester resolves who asked for the restock: the display override if one
// was stored, otherwise the referenced user's name.
func (r *Request) Requester() string {
	if r.RequestedByName != "" {
		return r.RequestedByName
	}
	if r.RequestedByUser != nil {
		if r.RequestedByUser.FullName != "" {
			return r.RequestedByUser.FullName
		}
		return r.RequestedByUser.Username
	}
	return "unknown"
}

// RequestResponse carries the resolved requester name.
type RequestResponse struct {
	Request
	RequestedBy string `json:"requested_by"`
}

func (r *Request) ToResponse() RequestResponse {
	return RequestResponse{Request: *r, RequestedBy: r.Requester()}
}
