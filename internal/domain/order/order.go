package order

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// MaxQuantity is the upper bound for a line item quantity after any merge.
const MaxQuantity = 10

// Sentinel errors for order lookups.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidID is returned for a malformed or missing order ID on a read.
	// It is distinct from ErrNotFound: no lookup is attempted.
	ErrInvalidID = errors.New("order ID must be a 32-character uppercase hexadecimal string")
)

// idPattern matches session-derived order identifiers.
var idPattern = regexp.MustCompile(`^[0-9A-F]{32}$`)

// ProductsNotAvailableError indicates one or more referenced products failed
// validation against the catalog. It carries the offending product IDs.
type ProductsNotAvailableError struct {
	IDs []int64
}

func (e *ProductsNotAvailableError) Error() string {
	return fmt.Sprintf("products with IDs %v are not available or do not exist", e.IDs)
}

// Status is the fulfillment state of an order.
type Status string

// Order statuses, serialized in lowercase. The empty string means unset.
const (
	StatusPlaced    Status = "placed"
	StatusApproved  Status = "approved"
	StatusDelivered Status = "delivered"
)

// ParseStatus maps text to a Status, ignoring case and surrounding space.
// Unknown or empty text yields the unset status, never an error: callers
// treat an unrecognized inbound status as "leave unchanged".
func ParseStatus(text string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(text))) {
	case StatusPlaced:
		return StatusPlaced
	case StatusApproved:
		return StatusApproved
	case StatusDelivered:
		return StatusDelivered
	default:
		return ""
	}
}

// LineItem is one product-quantity pair within an order's cart. Name and
// PhotoURL are denormalized display fields; they may be stale and are
// refreshed by Enrich, never trusted as authoritative.
type LineItem struct {
	ProductID int64  `json:"id"`
	Quantity  int    `json:"quantity"`
	Name      string `json:"name,omitempty"`
	PhotoURL  string `json:"photoURL,omitempty"`
}

// Order is the aggregate root: a customer's cart keyed by a session-derived
// identifier. Items preserve insertion order for display; if Complete is
// true the cart is empty.
type Order struct {
	ID       string     `json:"id"`
	Email    string     `json:"email,omitempty"`
	Items    []LineItem `json:"products"`
	Status   Status     `json:"status,omitempty"`
	Complete bool       `json:"complete"`
}

// New returns a fresh empty order with the given ID: no items, unset status,
// not complete.
func New(id string) *Order {
	return &Order{
		ID:    id,
		Items: []LineItem{},
	}
}

// NewID generates a session-derived order identifier: 32 uppercase
// hexadecimal characters.
func NewID() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:]))
}

// ValidID reports whether id matches the order identifier pattern.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Clone returns a deep copy of the order. The cache and the memory
// repository hand out clones so callers can never alias stored state.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = append([]LineItem{}, o.Items...)
	return &c
}
