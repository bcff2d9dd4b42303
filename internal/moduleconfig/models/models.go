// Package models defines the typed per-module configuration records the
// engine consults. Records are scoped by asset (lockup schedules and investor
// profiles additionally by user), created lazily on first configuration, and
// never physically deleted: disabling a module only removes it from the
// asset's enabled set.
package models

import (
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
)

// JurisdictionPolicy is the flag byte selecting how the allow and deny lists
// combine.
type JurisdictionPolicy uint8

const (
	// JurisdictionAllowOnly admits only listed jurisdictions.
	JurisdictionAllowOnly JurisdictionPolicy = 1 << iota
	// JurisdictionDenyOnly rejects listed jurisdictions, admits the rest.
	JurisdictionDenyOnly
)

// JurisdictionConfig is the allow/deny jurisdiction policy for an asset.
// Jurisdiction codes are ISO 3166-1 numeric.
type JurisdictionConfig struct {
	Allow  []uint16           `json:"allow"`
	Deny   []uint16           `json:"deny"`
	Policy JurisdictionPolicy `json:"policy"`
}

// Permits evaluates the configured policy against a jurisdiction code.
// When both mode bits are set, the deny list wins over the allow list.
func (c JurisdictionConfig) Permits(code uint16) bool {
	inAllow := contains(c.Allow, code)
	inDeny := contains(c.Deny, code)

	switch {
	case c.Policy&JurisdictionDenyOnly != 0 && inDeny:
		return false
	case c.Policy&JurisdictionAllowOnly != 0:
		return inAllow
	case c.Policy&JurisdictionDenyOnly != 0:
		return true
	}
	// No mode bits set: nothing is restricted.
	return true
}

func contains(codes []uint16, code uint16) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// SanctionsList is the set of sanctioned identities for an asset.
type SanctionsList struct {
	Addresses []id.Identity `json:"addresses"`
}

// Contains reports whether identity is sanctioned.
func (l SanctionsList) Contains(identity id.Identity) bool {
	for _, a := range l.Addresses {
		if a == identity {
			return true
		}
	}
	return false
}

// AccreditedConfig flags whether accreditation is required for transfers.
type AccreditedConfig struct {
	Required bool `json:"required"`
}

// LockupSchedule is a per-(asset, user) vesting schedule, unix seconds.
// When LinearVesting is false the whole position is locked until End; when
// true the transferable fraction grows linearly from Cliff to End.
type LockupSchedule struct {
	Start         int64 `json:"start"`
	Cliff         int64 `json:"cliff"`
	End           int64 `json:"end"`
	LinearVesting bool  `json:"linear_vesting"`
}

// Validate checks schedule ordering.
func (s LockupSchedule) Validate() error {
	if s.End < s.Cliff || s.Cliff < s.Start {
		return dErrors.New(dErrors.CodeInvalidInput, "lockup schedule must satisfy start <= cliff <= end")
	}
	return nil
}

// VestedNumerator returns the vested fraction at ts as numerator/denominator,
// clamped to [0, 1]. Integer pair avoids float drift in cap math.
func (s LockupSchedule) VestedNumerator(ts int64) (num, den int64) {
	den = s.End - s.Cliff
	if den <= 0 {
		// Degenerate schedule: fully vested at End.
		if ts >= s.End {
			return 1, 1
		}
		return 0, 1
	}
	num = ts - s.Cliff
	if num < 0 {
		return 0, den
	}
	if num > den {
		return den, den
	}
	return num, den
}

// VolumeCapsConfig bounds per-sender transfer volume.
type VolumeCapsConfig struct {
	DailyCap    uint64 `json:"daily_cap"`
	MonthlyCap  uint64 `json:"monthly_cap"`
	MaxSingleTx uint64 `json:"max_single_tx"`
}

// TransferWindowConfig restricts transfers to wall-clock hours and weekdays,
// both evaluated in UTC. Empty AllowedHours means every hour is allowed.
type TransferWindowConfig struct {
	AllowedHours []uint8 `json:"allowed_hours"`
	BlockedDays  []uint8 `json:"blocked_days"`
}

// HourAllowed reports whether the UTC hour (0-23) is admitted.
func (c TransferWindowConfig) HourAllowed(hour int) bool {
	if len(c.AllowedHours) == 0 {
		return true
	}
	for _, h := range c.AllowedHours {
		if int(h) == hour {
			return true
		}
	}
	return false
}

// DayBlocked reports whether the UTC weekday (0=Sunday) is blocked.
func (c TransferWindowConfig) DayBlocked(day int) bool {
	for _, d := range c.BlockedDays {
		if int(d) == day {
			return true
		}
	}
	return false
}

// Allowlist is a set of authorized counter-party identities, used by both
// the account and program allowlist modules.
type Allowlist struct {
	Members []id.Identity `json:"members"`
}

// Contains reports membership.
func (l Allowlist) Contains(identity id.Identity) bool {
	for _, m := range l.Members {
		if m == identity {
			return true
		}
	}
	return false
}

// InvestorClass buckets investors for per-class limits.
type InvestorClass string

const (
	ClassRetail        InvestorClass = "retail"
	ClassAccredited    InvestorClass = "accredited"
	ClassInstitutional InvestorClass = "institutional"
)

// InvestorProfile carries per-(asset, user) investor attributes, including
// the jurisdiction code the jurisdiction module evaluates.
type InvestorProfile struct {
	Class            InvestorClass `json:"class"`
	Jurisdiction     uint16        `json:"jurisdiction"`
	DailyVolume      uint64        `json:"daily_volume"`
	PositionCap      uint64        `json:"position_cap"`
	ConcentrationBps uint16        `json:"concentration_bps"`
	KYCMatch         bool          `json:"kyc_match"`
}
