package domain

import (
	"github.com/google/uuid"

	dErrors "lifeline/pkg/domain-errors"
)

// Typed entity identifiers. They are uuid-backed so stores can persist them as
// native UUID columns; construct via the Parse functions at trust boundaries.
type (
	DonorID    uuid.UUID
	RequestID  uuid.UUID
	DonationID uuid.UUID
)

// NewDonorID generates a fresh donor identifier.
func NewDonorID() DonorID { return DonorID(uuid.New()) }

// NewRequestID generates a fresh request identifier.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewDonationID generates a fresh donation identifier.
func NewDonationID() DonationID { return DonationID(uuid.New()) }

// ParseDonorID validates external input as a donor identifier.
func ParseDonorID(s string) (DonorID, error) {
	u, err := parseID(s, "invalid donor id")
	if err != nil {
		return DonorID{}, err
	}
	return DonorID(u), nil
}

// ParseRequestID validates external input as a request identifier.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseID(s, "invalid request id")
	if err != nil {
		return RequestID{}, err
	}
	return RequestID(u), nil
}

// ParseDonationID validates external input as a donation identifier.
func ParseDonationID(s string) (DonationID, error) {
	u, err := parseID(s, "invalid donation id")
	if err != nil {
		return DonationID{}, err
	}
	return DonationID(u), nil
}

func parseID(s, msg string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, msg)
	}
	return u, nil
}

func (id DonorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id DonorID) String() string    { return uuid.UUID(id).String() }
func (id RequestID) String() string  { return uuid.UUID(id).String() }
func (id DonationID) String() string { return uuid.UUID(id).String() }
