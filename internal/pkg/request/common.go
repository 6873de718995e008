package request

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListParams are the pagination query parameters shared by paged list endpoints.
type ListParams struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Normalize fills in defaults for unset pagination values.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
}

// Offset returns the row offset for the current page.
func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// QuantityError reports a quantity that is neither an integer nor a decimal integer string.
type QuantityError struct {
	Raw string
}

func (e *QuantityError) Error() string {
	return "quantity must be an integer within range, got " + e.Raw
}

// MaxQuantity is the largest count the stores can hold (a Postgres integer).
const MaxQuantity = math.MaxInt32

// Quantity accepts both 3 and "3" in JSON bodies. Values outside the
// int32 range are rejected here; the sign check is left to the domain layer.
type Quantity int

func (q *Quantity) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if bytes.Equal(raw, []byte("null")) {
		return &QuantityError{Raw: "null"}
	}

	s := string(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return &QuantityError{Raw: s}
		}
		s = strings.TrimSpace(unquoted)
	}

	n, err := strconv.Atoi(s)
	if err != nil || n > MaxQuantity || n < -MaxQuantity {
		return &QuantityError{Raw: string(raw)}
	}
	*q = Quantity(n)
	return nil
}

func (q Quantity) Int() int {
	return int(q)
}
