// Package crm defines the customer-lookup collaborator. The actual CRM
// (Quickbase) lives behind this interface; the router only depends on
// FindCustomerByPhone and treats every failure as a neutral lookup.
package crm

import (
	"context"
	"errors"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// ErrNotFound is returned when no customer record matches the phone number
var ErrNotFound = errors.New("crm: customer not found")

// Client looks up customer records by phone number
type Client interface {
	FindCustomerByPhone(ctx context.Context, phoneNumber string) (*types.Customer, error)
}

// Disabled is the stand-in when no CRM is configured; every lookup
// reports not-found so routing degrades to neutral results
type Disabled struct{}

func NewDisabled() *Disabled { return &Disabled{} }

func (*Disabled) FindCustomerByPhone(_ context.Context, _ string) (*types.Customer, error) {
	return nil, ErrNotFound
}
