// Package app wires the domain services to their stores and manages their
// shared lifecycle.
package app

import (
	"github.com/ledgerworks/erp/internal/app/services/accounts"
	ledgersvc "github.com/ledgerworks/erp/internal/app/services/ledger"
	manufacturingsvc "github.com/ledgerworks/erp/internal/app/services/manufacturing"
	mappingssvc "github.com/ledgerworks/erp/internal/app/services/mappings"
	periodssvc "github.com/ledgerworks/erp/internal/app/services/periods"
	reportssvc "github.com/ledgerworks/erp/internal/app/services/reports"
	"github.com/ledgerworks/erp/internal/app/storage"
	"github.com/ledgerworks/erp/internal/app/storage/memory"
	"github.com/ledgerworks/erp/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Chart         storage.ChartStore
	Transactions  storage.TransactionStore
	Periods       storage.PeriodStore
	Mappings      storage.MappingStore
	Manufacturing storage.ManufacturingStore
}

// Application ties the domain services together.
type Application struct {
	log *logging.Logger

	Accounts      *accounts.Service
	Ledger        *ledgersvc.Service
	Reports       *reportssvc.Service
	Periods       *periodssvc.Service
	Mappings      *mappingssvc.Service
	Manufacturing *manufacturingsvc.Service
}

// New builds a fully initialised application with the provided stores. The
// publisher may be nil, which disables posted-transaction events.
func New(stores Stores, publisher ledgersvc.Publisher, log *logging.Logger) *Application {
	if log == nil {
		log = logging.NewDefault("app")
	}

	mem := memory.New()
	if stores.Chart == nil {
		stores.Chart = mem
	}
	if stores.Transactions == nil {
		stores.Transactions = mem
	}
	if stores.Periods == nil {
		stores.Periods = mem
	}
	if stores.Mappings == nil {
		stores.Mappings = mem
	}
	if stores.Manufacturing == nil {
		stores.Manufacturing = mem
	}

	ledgerService := ledgersvc.New(stores.Transactions, stores.Periods, publisher, log)

	return &Application{
		log:           log,
		Accounts:      accounts.New(stores.Chart, log),
		Ledger:        ledgerService,
		Reports:       reportssvc.New(stores.Chart, stores.Transactions, stores.Periods, log),
		Periods:       periodssvc.New(stores.Periods, ledgerService, log),
		Mappings:      mappingssvc.New(stores.Mappings, stores.Chart, log),
		Manufacturing: manufacturingsvc.New(stores.Manufacturing, log),
	}
}
