package services

import (
	portsrepo "github.com/corefin/ledgercore/internal/core/ports/repositories"
	portssvc "github.com/corefin/ledgercore/internal/core/ports/services"
	"github.com/corefin/ledgercore/internal/events"
)

// NewServiceContainer creates the service container with properly wired
// dependencies. The period service is built first because the ledger needs
// it as its posting-time checker; the ledger is then handed back to the
// period service for year-end closing entries.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, sink events.Sink) *portssvc.ServiceContainer {
	if sink == nil {
		sink = events.NoopSink{}
	}

	accountSvc := NewAccountService(repos.AccountRepo, repos.CurrencyRepo)
	taxSvc := NewTaxService(repos.TaxRepo)

	periodSvc := NewFiscalPeriodService(
		repos.PeriodRepo,
		repos.JournalRepo,
		repos.AccountRepo,
		repos.CurrencyRepo,
		sink,
	)

	ledgerSvc := NewLedgerService(
		repos.JournalRepo,
		repos.AccountRepo,
		repos.CurrencyRepo,
		periodSvc,
		sink,
	)
	periodSvc.SetLedger(ledgerSvc)

	currencySvc := NewCurrencyService(
		repos.CurrencyRepo,
		repos.ExchangeRateRepo,
		repos.AccountRepo,
		ledgerSvc,
	)

	arapSvc := NewARAPService(
		repos.InvoiceRepo,
		repos.PaymentRepo,
		repos.CurrencyRepo,
		taxSvc,
		sink,
	)

	return &portssvc.ServiceContainer{
		Account:  accountSvc,
		Ledger:   ledgerSvc,
		Period:   periodSvc,
		Tax:      taxSvc,
		Currency: currencySvc,
		ARAP:     arapSvc,
	}
}
