package engine

import id "crest/pkg/domain"

// Reason is the closed taxonomy of policy denial codes. Denials are terminal,
// user-visible outcomes; they are surfaced verbatim and never collapsed into
// a generic rejection.
type Reason string

const (
	ReasonTransferPaused         Reason = "TransferPaused"
	ReasonOfferingRulesViolated  Reason = "OfferingRulesViolated"
	ReasonWindowClosed           Reason = "WindowClosed"
	ReasonKYCFailed              Reason = "KYCFailed"
	ReasonInvestorLimitExceeded  Reason = "InvestorLimitExceeded"
	ReasonDailyCapExceeded       Reason = "DailyCapExceeded"
	ReasonMonthlyCapExceeded     Reason = "MonthlyCapExceeded"
	ReasonMaxTxExceeded          Reason = "MaxTxExceeded"
	ReasonLockupActive           Reason = "LockupActive"
	ReasonAccountNotAllowlisted  Reason = "AccountNotAllowlisted"
	ReasonProgramNotAllowlisted  Reason = "ProgramNotAllowlisted"
	ReasonSanctioned             Reason = "Sanctioned"
	ReasonJurisdictionDenied     Reason = "JurisdictionDenied"
)

// TransferRequest describes one proposed token movement. To may be zero: an
// absent recipient record is itself meaningful and is evaluated against the
// asset's required topics and default-frozen flag rather than null-checked
// inside individual rules.
type TransferRequest struct {
	Asset     id.AssetID
	From      id.Identity
	To        id.Identity
	Amount    uint64
	Timestamp int64
}

// Decision is the outcome of one evaluation. Reason is set only on deny.
type Decision struct {
	Authorized bool   `json:"authorized"`
	Reason     Reason `json:"reason,omitempty"`
}

func authorized() *Decision { return &Decision{Authorized: true} }

func denied(reason Reason) *Decision { return &Decision{Reason: reason} }
