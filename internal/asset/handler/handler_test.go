package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"crest/internal/asset/models"
	"crest/internal/asset/service"
	"crest/internal/asset/store"
	id "crest/pkg/domain"
	"crest/pkg/requestcontext"
)

// =============================================================================
// Asset Handler Test Suite
// =============================================================================
// Handler tests validate HTTP concerns: authentication presence, request
// parsing, URL parameter handling, and error-to-status mapping. Role
// enforcement itself is covered by the service tests.

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	svc, err := service.New(store.NewInMemory())
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	s.router = r
}

// do issues a request as the given caller; an empty caller leaves the request
// unauthenticated.
func (s *HandlerSuite) do(method, path string, caller id.Identity, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if !caller.IsZero() {
		req = req.WithContext(requestcontext.WithCaller(req.Context(), caller))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) createAsset() {
	rec := s.do(http.MethodPost, "/v1/assets", "admin-1", CreateAssetRequest{
		Asset:       "asset-1",
		IssuerAdmin: "admin-1",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
}

func (s *HandlerSuite) TestCreate() {
	s.Run("unauthenticated rejected", func() {
		rec := s.do(http.MethodPost, "/v1/assets", "", CreateAssetRequest{
			Asset:       "asset-1",
			IssuerAdmin: "admin-1",
		})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("created with config body", func() {
		rec := s.do(http.MethodPost, "/v1/assets", "admin-1", CreateAssetRequest{
			Asset:       "asset-1",
			IssuerAdmin: "admin-1",
		})
		s.Require().Equal(http.StatusCreated, rec.Code)

		var cfg models.AssetConfig
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&cfg))
		s.Equal(id.AssetID("asset-1"), cfg.Asset)
		s.Equal(id.Identity("admin-1"), cfg.Roles.IssuerAdmin)
	})

	s.Run("duplicate conflicts", func() {
		rec := s.do(http.MethodPost, "/v1/assets", "admin-1", CreateAssetRequest{
			Asset:       "asset-1",
			IssuerAdmin: "admin-1",
		})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("invalid json", func() {
		req := httptest.NewRequest(http.MethodPost, "/v1/assets",
			bytes.NewReader([]byte("not valid json")))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(requestcontext.WithCaller(req.Context(), "admin-1"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestGet() {
	s.createAsset()

	s.Run("found", func() {
		rec := s.do(http.MethodGet, "/v1/assets/asset-1", "", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("missing", func() {
		rec := s.do(http.MethodGet, "/v1/assets/ghost", "", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestModuleLifecycle() {
	s.createAsset()

	s.Run("enable by name", func() {
		rec := s.do(http.MethodPost, "/v1/assets/asset-1/modules/sanctions/enable", "admin-1",
			EnableModuleRequest{})
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("unknown module name rejected", func() {
		rec := s.do(http.MethodPost, "/v1/assets/asset-1/modules/telepathy/enable", "admin-1",
			EnableModuleRequest{})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non-admin rejected", func() {
		rec := s.do(http.MethodPost, "/v1/assets/asset-1/modules/lockup/enable", "stranger",
			EnableModuleRequest{})
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("disable", func() {
		rec := s.do(http.MethodPost, "/v1/assets/asset-1/modules/sanctions/disable", "admin-1", nil)
		s.Equal(http.StatusNoContent, rec.Code)
	})
}

func (s *HandlerSuite) TestPause() {
	s.createAsset()

	rec := s.do(http.MethodPost, "/v1/assets/asset-1/pause", "admin-1", SetPausedRequest{Paused: true})
	s.Require().Equal(http.StatusNoContent, rec.Code)

	get := s.do(http.MethodGet, "/v1/assets/asset-1", "", nil)
	s.Require().Equal(http.StatusOK, get.Code)

	var cfg models.AssetConfig
	s.Require().NoError(json.NewDecoder(get.Body).Decode(&cfg))
	s.True(cfg.Paused)
}

func (s *HandlerSuite) TestRotateRole() {
	s.createAsset()

	s.Run("rotates", func() {
		rec := s.do(http.MethodPost, "/v1/assets/asset-1/roles/rotate", "admin-1",
			RotateRoleRequest{Role: "transfer_agent", Identity: "agent-2"})
		s.Equal(http.StatusNoContent, rec.Code)
	})

	s.Run("invalid identity rejected", func() {
		rec := s.do(http.MethodPost, "/v1/assets/asset-1/roles/rotate", "admin-1",
			RotateRoleRequest{Role: "transfer_agent", Identity: "has space"})
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestTrustedIssuers() {
	s.createAsset()

	rec := s.do(http.MethodPost, "/v1/assets/asset-1/trusted-issuers", "admin-1",
		TrustedIssuerRequest{Topic: 1, Issuer: "issuer-kyc", Add: true})
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *HandlerSuite) TestRequiredTopics() {
	s.createAsset()

	rec := s.do(http.MethodPut, "/v1/assets/asset-1/required-topics", "admin-1",
		RequiredTopicsRequest{Topics: []uint32{1, 2}})
	s.Require().Equal(http.StatusNoContent, rec.Code)

	get := s.do(http.MethodGet, "/v1/assets/asset-1", "", nil)
	var cfg models.AssetConfig
	s.Require().NoError(json.NewDecoder(get.Body).Decode(&cfg))
	s.Equal([]uint32{1, 2}, cfg.RequiredTopics)
}
