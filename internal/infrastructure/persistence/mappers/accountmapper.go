// Package mappers converts between domain aggregates and persistence models.
package mappers

import (
	"encoding/json"
	"fmt"

	"vtm/internal/domain/account"
	"vtm/internal/domain/billing"
	"vtm/internal/infrastructure/persistence/models"
)

// analyticsDoc is the JSON column layout for the profile sub-record.
type analyticsDoc struct {
	Country       string `json:"country"`
	InputLanguage string `json:"inputLanguage"`
	Survey        struct {
		Profession string `json:"profession"`
		UseCase    string `json:"useCase"`
		Source     string `json:"source"`
	} `json:"survey"`
}

// AccountToModel converts a domain account to a persistence model.
func AccountToModel(acct *account.Account) (*models.AccountModel, error) {
	var doc analyticsDoc
	a := acct.Analytics()
	doc.Country = a.Country
	doc.InputLanguage = a.InputLanguage
	doc.Survey.Profession = a.Survey.Profession
	doc.Survey.UseCase = a.Survey.UseCase
	doc.Survey.Source = a.Survey.Source

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analytics: %w", err)
	}

	var customerID *string
	if !acct.CustomerID().IsZero() {
		s := acct.CustomerID().String()
		customerID = &s
	}

	return &models.AccountModel{
		ID:                acct.ID(),
		SubjectID:         acct.SubjectID(),
		CustomerID:        customerID,
		Email:             acct.Email(),
		Name:              acct.Name(),
		PlanID:            acct.PlanID(),
		IsPro:             acct.IsPro(),
		PlanExpiry:        acct.PlanExpiry(),
		DailyLimitSeconds: acct.DailyLimitSeconds(),
		WalletBalance:     acct.WalletBalance(),
		Analytics:         raw,
		CreatedAt:         acct.CreatedAt(),
		LastSeenAt:        acct.LastSeenAt(),
	}, nil
}

// AccountToDomain converts a persistence model to a domain account.
func AccountToDomain(model *models.AccountModel) (*account.Account, error) {
	if model == nil {
		return nil, nil
	}

	var doc analyticsDoc
	if len(model.Analytics) > 0 {
		if err := json.Unmarshal(model.Analytics, &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analytics for account %d: %w", model.ID, err)
		}
	}

	var customerID account.CustomerID
	if model.CustomerID != nil {
		customerID = account.CustomerID(*model.CustomerID)
	}

	analytics := account.Analytics{
		Country:       doc.Country,
		InputLanguage: doc.InputLanguage,
		Survey: account.Survey{
			Profession: doc.Survey.Profession,
			UseCase:    doc.Survey.UseCase,
			Source:     doc.Survey.Source,
		},
	}

	return account.ReconstructAccount(account.ReconstructParams{
		ID:                model.ID,
		SubjectID:         model.SubjectID,
		CustomerID:        customerID,
		Email:             model.Email,
		Name:              model.Name,
		PlanID:            model.PlanID,
		IsPro:             model.IsPro,
		PlanExpiry:        model.PlanExpiry,
		DailyLimitSeconds: model.DailyLimitSeconds,
		WalletBalance:     model.WalletBalance,
		Analytics:         analytics,
		CreatedAt:         model.CreatedAt,
		LastSeenAt:        model.LastSeenAt,
	})
}

// LedgerToModel converts a ledger entry to its persistence model.
func LedgerToModel(entry *billing.LedgerEntry) *models.PaymentLedgerModel {
	return &models.PaymentLedgerModel{
		ID:         entry.ID(),
		OrderID:    entry.OrderID(),
		SubjectID:  entry.SubjectID(),
		CustomerID: entry.CustomerID(),
		PlanID:     entry.PlanID(),
		Amount:     entry.Amount(),
		Gateway:    entry.Gateway(),
		Status:     entry.Status(),
		CapturedAt: entry.CapturedAt(),
	}
}

// LedgerToDomain converts a persistence model to a ledger entry.
func LedgerToDomain(model *models.PaymentLedgerModel) (*billing.LedgerEntry, error) {
	if model == nil {
		return nil, nil
	}
	return billing.ReconstructLedgerEntry(
		model.ID,
		model.OrderID,
		model.SubjectID,
		model.CustomerID,
		model.PlanID,
		model.Amount,
		model.Gateway,
		model.Status,
		model.CapturedAt,
	)
}
