package domain

import dErrors "lifeline/pkg/domain-errors"

// BloodType is a domain value for one of the eight ABO/Rh combinations.
// Invariant: the value must be one of the supported blood types.
//
// Usage: construct via ParseBloodType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type BloodType string

// Supported blood types.
const (
	BloodAPos  BloodType = "A+"
	BloodANeg  BloodType = "A-"
	BloodBPos  BloodType = "B+"
	BloodBNeg  BloodType = "B-"
	BloodABPos BloodType = "AB+"
	BloodABNeg BloodType = "AB-"
	BloodOPos  BloodType = "O+"
	BloodONeg  BloodType = "O-"
)

// AllBloodTypes lists every supported type in a stable order. Inventory rows
// and statistics buckets iterate this instead of re-declaring the set.
func AllBloodTypes() []BloodType {
	return []BloodType{
		BloodAPos, BloodANeg,
		BloodBPos, BloodBNeg,
		BloodABPos, BloodABNeg,
		BloodOPos, BloodONeg,
	}
}

// donorCompatibility is the canonical ABO/Rh donor-to-recipient table, keyed by
// donor type. O- is the universal donor; AB+ the universal recipient.
var donorCompatibility = map[BloodType]map[BloodType]bool{
	BloodONeg:  {BloodONeg: true, BloodOPos: true, BloodANeg: true, BloodAPos: true, BloodBNeg: true, BloodBPos: true, BloodABNeg: true, BloodABPos: true},
	BloodOPos:  {BloodOPos: true, BloodAPos: true, BloodBPos: true, BloodABPos: true},
	BloodANeg:  {BloodANeg: true, BloodAPos: true, BloodABNeg: true, BloodABPos: true},
	BloodAPos:  {BloodAPos: true, BloodABPos: true},
	BloodBNeg:  {BloodBNeg: true, BloodBPos: true, BloodABNeg: true, BloodABPos: true},
	BloodBPos:  {BloodBPos: true, BloodABPos: true},
	BloodABNeg: {BloodABNeg: true, BloodABPos: true},
	BloodABPos: {BloodABPos: true},
}

// ParseBloodType constructs a BloodType from external input.
//
// Errors: returns CodeBadRequest when the value is empty or unsupported.
func ParseBloodType(s string) (BloodType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "blood type cannot be empty")
	}
	bt := BloodType(s)
	if !bt.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid blood type")
	}
	return bt, nil
}

// IsValid checks if the blood type is one of the eight supported values.
func (bt BloodType) IsValid() bool {
	_, ok := donorCompatibility[bt]
	return ok
}

// CanDonateTo reports whether blood of this type may be given to a recipient
// of the required type.
func (bt BloodType) CanDonateTo(recipient BloodType) bool {
	return donorCompatibility[bt][recipient]
}

// String returns the string representation of the blood type.
func (bt BloodType) String() string {
	return string(bt)
}
