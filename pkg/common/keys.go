package common

import "strings"

const DefaultPrefix = "spending-dashboard"

type Keys struct {
	Prefix string
}

func NewKeys(prefix string) Keys {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return Keys{Prefix: prefix}
}

func (k Keys) ImportManager() string {
	return k.Prefix + "-import-manager"
}

func (k Keys) FiltersPrefix() string {
	return k.Prefix + "-filters-"
}

func (k Keys) Filters(sessionID string) string {
	return k.FiltersPrefix() + sessionID
}

func (k Keys) People() string {
	return k.Prefix + "-people"
}

func (k Keys) ReimbursementTransactions() string {
	return k.Prefix + "-reimbursement-transactions"
}

func (k Keys) TrackingSession() string {
	return k.Prefix + "-session-id"
}

// All is the prefix shared by every key of the application.
func (k Keys) All() string {
	return k.Prefix + "-"
}
