package handler

import (
	"encoding/json"

	"crest/internal/asset/models"
	"crest/internal/asset/service"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
)

// CreateAssetRequest is the wire form of asset creation.
type CreateAssetRequest struct {
	Asset          string   `json:"asset"`
	IssuerAdmin    string   `json:"issuer_admin"`
	ComplianceOff  string   `json:"compliance_officer,omitempty"`
	TransferAgent  string   `json:"transfer_agent,omitempty"`
	RequiredTopics []uint32 `json:"required_topics,omitempty"`
	TrustedIssuers []struct {
		Topic  uint32 `json:"topic"`
		Issuer string `json:"issuer"`
	} `json:"trusted_issuers,omitempty"`
	DefaultFrozen     bool   `json:"default_frozen,omitempty"`
	PermanentDelegate string `json:"permanent_delegate,omitempty"`
	MetadataURI       string `json:"metadata_uri,omitempty"`
}

// Params validates and converts the request into service parameters.
func (r CreateAssetRequest) Params() (service.CreateParams, error) {
	asset, err := id.ParseAssetID(r.Asset)
	if err != nil {
		return service.CreateParams{}, dErrors.New(dErrors.CodeInvalidInput, "invalid asset id")
	}
	admin, err := id.ParseIdentity(r.IssuerAdmin)
	if err != nil {
		return service.CreateParams{}, dErrors.New(dErrors.CodeInvalidInput, "invalid issuer admin identity")
	}

	p := service.CreateParams{
		Asset: asset,
		Roles: models.Roles{
			IssuerAdmin:       admin,
			ComplianceOfficer: id.Identity(r.ComplianceOff),
			TransferAgent:     id.Identity(r.TransferAgent),
		},
		RequiredTopics: r.RequiredTopics,
		TokenControls: models.TokenControls{
			DefaultFrozen:     r.DefaultFrozen,
			PermanentDelegate: id.Identity(r.PermanentDelegate),
		},
		MetadataURI: r.MetadataURI,
	}
	for _, ti := range r.TrustedIssuers {
		p.TrustedIssuers = append(p.TrustedIssuers, models.TrustedIssuer{
			Topic:  ti.Topic,
			Issuer: id.Identity(ti.Issuer),
		})
	}
	return p, nil
}

// EnableModuleRequest carries optional opaque module parameters.
type EnableModuleRequest struct {
	Params json.RawMessage `json:"params,omitempty"`
}

// SetPausedRequest flips the global pause flag.
type SetPausedRequest struct {
	Paused bool `json:"paused"`
}

// RotateRoleRequest reassigns one administrative role.
type RotateRoleRequest struct {
	Role     string `json:"role"`
	Identity string `json:"identity"`
}

// TrustedIssuerRequest adds or removes a trusted issuer for a topic.
type TrustedIssuerRequest struct {
	Topic  uint32 `json:"topic"`
	Issuer string `json:"issuer"`
	Add    bool   `json:"add"`
}

// OracleConfigRequest replaces the oracle configuration.
type OracleConfigRequest struct {
	Feeds        []string `json:"feeds,omitempty"`
	HeartbeatSec uint32   `json:"heartbeat_sec"`
	MaxDevBps    uint32   `json:"max_dev_bps"`
	NavFeeder    string   `json:"nav_feeder,omitempty"`
	BaseCurrency string   `json:"base_currency"`
}

// RequiredTopicsRequest replaces the required claim topics.
type RequiredTopicsRequest struct {
	Topics []uint32 `json:"topics"`
}
