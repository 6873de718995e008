package resource

import (
	"math"
	"net/http"
	"time"

	"github.com/nekogravitycat/evently-backend/internal/pkg/apperror"
)

var (
	ErrNotFound              = apperror.New(http.StatusNotFound, "resource not found")
	ErrEmptyName             = apperror.New(http.StatusBadRequest, "name cannot be empty")
	ErrInvalidType           = apperror.New(http.StatusBadRequest, "type must be one of room, audiovisual, material")
	ErrInvalidQuantity       = apperror.New(http.StatusBadRequest, "quantity must be between 0 and 2147483647")
	ErrInvalidAvailable      = apperror.New(http.StatusBadRequest, "available must be between 0 and quantity")
	ErrQuantityBelowReserved = apperror.New(http.StatusConflict, "quantity cannot be lower than the amount currently booked")
	ErrInUse                 = apperror.New(http.StatusConflict, "resource is referenced by active bookings")
)

// MaxQuantity is the largest quantity a resource can hold.
const MaxQuantity = math.MaxInt32

// Type is the kind of bookable asset.
type Type string

const (
	TypeRoom        Type = "room"
	TypeAudiovisual Type = "audiovisual"
	TypeMaterial    Type = "material"
)

var ValidTypes = []Type{TypeRoom, TypeAudiovisual, TypeMaterial}

func (t Type) Valid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Resource is a bookable asset with a finite quantity.
// Available is the unreserved part of Quantity; 0 <= Available <= Quantity always holds.
type Resource struct {
	ID          string
	Name        string
	Type        Type
	Description *string
	Quantity    int
	Available   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Reserved is the amount currently held by bookings.
func (r *Resource) Reserved() int {
	return r.Quantity - r.Available
}

// Filter defines parameters for listing resources.
type Filter struct {
	Type  Type
	Query string // case-insensitive name search
}

// Patch lists the editable fields; nil means unchanged.
// Quantity edits move Available by the same delta so reservations are kept.
type Patch struct {
	Name        *string
	Type        *Type
	Description *string
	Quantity    *int
}
