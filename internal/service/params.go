package service

import (
	"github.com/flexprice/billrun/internal/config"
	"github.com/flexprice/billrun/internal/domain/billing"
	"github.com/flexprice/billrun/internal/domain/invoice"
	"github.com/flexprice/billrun/internal/domain/usage"
	"github.com/flexprice/billrun/internal/locking"
	"github.com/flexprice/billrun/internal/logger"
)

// ServiceParams holds common dependencies for services. All repositories are
// external collaborators; the core never owns persistence.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	BillingEventRepo billing.Repository
	UsageRepo        usage.Repository
	InvoiceRepo      invoice.Repository

	// Locker serializes invoice generation per account
	Locker locking.AccountLocker
}
