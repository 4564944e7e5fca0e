package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	attshandler "vouch/internal/attestation/handler"
	attservice "vouch/internal/attestation/service"
	attstore "vouch/internal/attestation/store"
	"vouch/internal/clock"
	expiryhandler "vouch/internal/expiry/handler"
	expiryservice "vouch/internal/expiry/service"
	expirystore "vouch/internal/expiry/store"
	granthandler "vouch/internal/grant/handler"
	grantservice "vouch/internal/grant/service"
	grantstore "vouch/internal/grant/store"
	jwttoken "vouch/internal/jwt_token"
	"vouch/internal/platform/health"
	"vouch/internal/registry"
	"vouch/pkg/domain"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/audit/publisher"
	"vouch/pkg/platform/tx"
)

// RouterSuite exercises the assembled router end to end with in-memory
// stores and real tokens, the way a standalone deployment runs.
type RouterSuite struct {
	suite.Suite

	router     http.Handler
	jwtService *jwttoken.JWTService
	clock      *clock.Logical
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	log := slog.New(slog.DiscardHandler)
	s.clock = clock.New(100)
	serial := tx.NewSerializer()
	auditor := publisher.New(audit.NewInMemoryStore())

	volunteers := registry.NewInMemoryVolunteers()
	providers := registry.NewInMemoryProviders()

	attSvc := attservice.New(attstore.New(), volunteers, providers, s.clock, serial, auditor, log)
	grantSvc := grantservice.New(grantstore.New(), attSvc, volunteers, s.clock, serial, auditor, log)
	expSvc := expiryservice.New(expirystore.New(), s.clock, serial, auditor, log)

	s.jwtService = jwttoken.NewJWTService("router-test-key", "vouch", "vouch-api")

	s.router = NewRouter(Deps{
		Attestations: attshandler.New(attSvc, s.clock, log),
		Grants:       granthandler.New(grantSvc, s.clock, log),
		Expiry:       expiryhandler.New(expSvc, log),
		Health:       health.New(s.clock),
		Admin:        registry.NewAdminHandler(volunteers, providers),
		Validator:    jwttoken.NewJWTServiceAdapter(s.jwtService),
		Logger:       log,
	})
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.T().Helper()
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) token(identity domain.Identity) string {
	s.T().Helper()
	token, err := s.jwtService.GenerateAccessToken(identity, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder, out any) {
	s.T().Helper()
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), out))
}

func (s *RouterSuite) TestHealthOpenWithoutToken() {
	rec := s.do(http.MethodGet, "/health/live", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestMetricsOpenWithoutToken() {
	rec := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterSuite) TestLedgerRoutesRequireToken() {
	rec := s.do(http.MethodGet, "/attestations/1", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/attestations/1", "garbage", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestGrantAgainstNonexistentAttestation() {
	rec := s.do(http.MethodPost, "/registry/volunteers", "", map[string]string{"identity": "did:key:vol-9"})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/grants", s.token("did:key:vol-9"), map[string]any{
		"grantee":        "did:key:some-org",
		"attestation_id": 9999,
		"expiry":         s.clock.Now() + 500,
	})
	s.Require().Equal(http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	var errResp struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	s.decode(rec, &errResp)
	s.Equal("invalid_reference", errResp.Error)
	s.Equal(301, errResp.Code)
}

// TestAttestationGrantLifecycle drives the full flow: seed registries, issue
// an attestation as the provider, grant access as the volunteer, check and
// fetch as the organization, then revoke and observe access close.
func (s *RouterSuite) TestAttestationGrantLifecycle() {
	const (
		providerIdentity = "did:key:checks-r-us"
		granterIdentity  = "did:key:vol-1"
		granteeIdentity  = "did:key:helping-hands"
	)

	// Seed: one volunteer, one verified provider.
	rec := s.do(http.MethodPost, "/registry/volunteers", "", map[string]string{"identity": granterIdentity})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var volResp map[string]uint64
	s.decode(rec, &volResp)
	subjectID := volResp["subject_id"]

	rec = s.do(http.MethodPost, "/registry/providers", "", map[string]string{"identity": providerIdentity})
	s.Require().Equal(http.StatusCreated, rec.Code)
	var provResp map[string]uint64
	s.decode(rec, &provResp)
	rec = s.do(http.MethodPost, fmt.Sprintf("/registry/providers/%d/verify", provResp["provider_id"]), "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	// Issue.
	rec = s.do(http.MethodPost, "/attestations", s.token(providerIdentity), map[string]any{
		"subject_id":  subjectID,
		"check_type":  "criminal",
		"status":      "passed",
		"valid_until": s.clock.Now() + 1000,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var att struct {
		ID uint64 `json:"id"`
	}
	s.decode(rec, &att)
	s.Require().NotZero(att.ID)

	// Grant access to the organization.
	rec = s.do(http.MethodPost, "/grants", s.token(granterIdentity), map[string]any{
		"grantee":        granteeIdentity,
		"attestation_id": att.ID,
		"expiry":         s.clock.Now() + 500,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var grantResp struct {
		ID    uint64 `json:"id"`
		State string `json:"state"`
	}
	s.decode(rec, &grantResp)
	s.Equal("active", grantResp.State)

	// The organization can check and fetch.
	rec = s.do(http.MethodGet, fmt.Sprintf("/access/%d", att.ID), s.token(granteeIdentity), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var check struct {
		Allowed bool `json:"allowed"`
	}
	s.decode(rec, &check)
	s.True(check.Allowed)

	rec = s.do(http.MethodGet, fmt.Sprintf("/access/%d/record", att.ID), s.token(granteeIdentity), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var fetched struct {
		CheckType string `json:"check_type"`
		Status    string `json:"status"`
	}
	s.decode(rec, &fetched)
	s.Equal("criminal", fetched.CheckType)
	s.Equal("passed", fetched.Status)

	// A stranger is denied opaquely.
	rec = s.do(http.MethodGet, fmt.Sprintf("/access/%d/record", att.ID), s.token("did:key:nosy-org"), nil)
	s.Equal(http.StatusForbidden, rec.Code)

	// Revoke the grant; access closes.
	rec = s.do(http.MethodPost, fmt.Sprintf("/grants/%d/revoke", grantResp.ID), s.token(granterIdentity), nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, fmt.Sprintf("/access/%d", att.ID), s.token(granteeIdentity), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &check)
	s.False(check.Allowed)

	rec = s.do(http.MethodGet, fmt.Sprintf("/access/%d/record", att.ID), s.token(granteeIdentity), nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *RouterSuite) TestExpiryTrackerFlow() {
	caller := s.token("did:key:vol-9")

	rec := s.do(http.MethodPost, "/expiry/items", caller, map[string]any{
		"item_type": "credential",
		"item_id":   7,
		"expiry":    s.clock.Now() + 50,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/expiry/items/credential/7/expired", caller, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var expired struct {
		Expired bool `json:"expired"`
	}
	s.decode(rec, &expired)
	s.False(expired.Expired)

	s.clock.AdvanceTo(s.clock.Now() + 100)

	rec = s.do(http.MethodPost, "/expiry/items/credential/7/mark", caller, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/expiry/items/credential/7/expired", caller, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &expired)
	s.True(expired.Expired)
}

func TestAdminRoutesUnmountedOutsideStandalone(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	clk := clock.New(0)
	serial := tx.NewSerializer()
	auditor := publisher.New(audit.NewInMemoryStore())
	volunteers := registry.NewInMemoryVolunteers()
	providers := registry.NewInMemoryProviders()

	attSvc := attservice.New(attstore.New(), volunteers, providers, clk, serial, auditor, log)
	grantSvc := grantservice.New(grantstore.New(), attSvc, volunteers, clk, serial, auditor, log)
	expSvc := expiryservice.New(expirystore.New(), clk, serial, auditor, log)
	jwtService := jwttoken.NewJWTService("router-test-key", "vouch", "vouch-api")

	router := NewRouter(Deps{
		Attestations: attshandler.New(attSvc, clk, log),
		Grants:       granthandler.New(grantSvc, clk, log),
		Expiry:       expiryhandler.New(expSvc, log),
		Health:       health.New(clk),
		Validator:    jwttoken.NewJWTServiceAdapter(jwtService),
		Logger:       log,
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/registry/volunteers", bytes.NewBufferString(`{"identity":"x"}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
