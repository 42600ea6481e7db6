package routing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/crm"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/metrics"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

// CustomerResult is the enrichment outcome for a phone number. The zero
// value (with Priority set to normal) is the neutral result returned
// when the CRM is unavailable or the caller is unknown.
type CustomerResult struct {
	Found              bool
	CustomerID         string
	Name               string
	Department         string
	ProjectCoordinator string
	Priority           types.Priority
	Attributes         map[string]any
}

// CustomerAdapter wraps a CRM client with a hard lookup deadline so a
// slow or down CRM can never stall routing.
type CustomerAdapter struct {
	client  crm.Client
	timeout time.Duration
	logger  zerolog.Logger
}

func NewCustomerAdapter(client crm.Client, timeout time.Duration, logger zerolog.Logger) *CustomerAdapter {
	return &CustomerAdapter{
		client:  client,
		timeout: timeout,
		logger:  logger.With().Str("component", "customer_adapter").Logger(),
	}
}

// Lookup resolves a phone number to customer context. Failures of any
// kind (timeout, CRM error, unknown caller) degrade to the neutral
// result so the caller routes on defaults.
func (a *CustomerAdapter) Lookup(ctx context.Context, phone string) CustomerResult {
	neutral := CustomerResult{Priority: types.PriorityNormal}
	if phone == "" || a.client == nil {
		return neutral
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type lookupResult struct {
		customer *types.Customer
		err      error
	}
	done := make(chan lookupResult, 1)
	go func() {
		customer, err := a.client.FindCustomerByPhone(ctx, phone)
		done <- lookupResult{customer, err}
	}()

	select {
	case <-ctx.Done():
		// Clients that honor the context will still land on the done
		// channel, but we do not wait for them.
		metrics.Get().RecordCRMTimeout()
		a.logger.Warn().Str("phone", phone).Msg("customer lookup timed out")
		return neutral
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, crm.ErrNotFound) {
				a.logger.Debug().Str("phone", phone).Msg("unknown caller")
			} else if errors.Is(res.err, context.DeadlineExceeded) {
				metrics.Get().RecordCRMTimeout()
				a.logger.Warn().Str("phone", phone).Msg("customer lookup timed out")
			} else {
				a.logger.Error().Err(res.err).Str("phone", phone).Msg("customer lookup failed")
			}
			return neutral
		}
		return a.assess(res.customer)
	}
}

// assess maps a CRM customer record onto routing hints, escalating the
// priority floor for flagged accounts.
func (a *CustomerAdapter) assess(customer *types.Customer) CustomerResult {
	if customer == nil {
		return CustomerResult{Priority: types.PriorityNormal}
	}

	result := CustomerResult{
		Found:              true,
		CustomerID:         customer.ID,
		Name:               customer.Name,
		Department:         customer.Department,
		ProjectCoordinator: customer.ProjectCoordinator,
		Priority:           types.PriorityNormal,
		Attributes:         customer.Attributes,
	}

	notes := strings.ToLower(customer.Notes)
	for _, flag := range []string{"complaint", "issue", "problem"} {
		if strings.Contains(notes, flag) {
			result.Priority = types.MaxPriority(result.Priority, types.PriorityHigh)
			break
		}
	}

	switch strings.ToLower(customer.Type) {
	case "vip", "premium":
		result.Priority = types.MaxPriority(result.Priority, types.PriorityHigh)
	case "emergency":
		result.Priority = types.MaxPriority(result.Priority, types.PriorityUrgent)
	}

	return result
}
