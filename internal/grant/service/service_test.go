package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vouch/internal/attestation"
	attstore "vouch/internal/attestation/store"
	"vouch/internal/clock"
	"vouch/internal/grant"
	grantstore "vouch/internal/grant/store"
	"vouch/internal/registry/mocks"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/audit/publisher"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/platform/tx"
)

const (
	granterIdentity = domain.Identity("did:key:vol-7")
	otherIdentity   = domain.Identity("did:key:vol-8")
	granteeIdentity = domain.Identity("did:key:org-1")
	subject         = domain.SubjectID(7)
)

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	volunteers *mocks.MockVolunteers
	clock      *clock.Logical
	attStore   *attstore.InMemoryStore
	grantStore *grantstore.InMemoryStore
	auditStore *audit.InMemoryStore
	service    *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.volunteers = mocks.NewMockVolunteers(s.ctrl)
	s.clock = clock.New(100)
	s.attStore = attstore.New()
	s.grantStore = grantstore.New()
	s.auditStore = audit.NewInMemoryStore()
	s.service = New(
		s.grantStore,
		s.attStore,
		s.volunteers,
		s.clock,
		tx.NewSerializer(),
		publisher.New(s.auditStore),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithMaxGrantWindow(1000),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) expectGranterRegistered() {
	s.volunteers.EXPECT().LookupByIdentity(gomock.Any(), granterIdentity).Return(subject, nil).AnyTimes()
}

// seedAttestation stores an attestation owned by the default subject,
// valid until the given instant.
func (s *ServiceSuite) seedAttestation(validUntil domain.Time) *attestation.Record {
	s.T().Helper()
	record := &attestation.Record{
		SubjectID:      subject,
		IssuerID:       1,
		CheckType:      attestation.CheckCriminal,
		Status:         attestation.StatusPassed,
		IssuedAt:       s.clock.Now(),
		ValidUntil:     validUntil,
		IssuerIdentity: "did:key:prov-1",
	}
	s.Require().NoError(s.attStore.Save(context.Background(), record))
	return record
}

func (s *ServiceSuite) TestGrantHappyPath() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)

	rec, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)
	s.Equal(domain.GrantID(1), rec.ID)
	s.Equal(subject, rec.SubjectID)
	s.Equal(granteeIdentity, rec.Grantee)
	s.Equal(granterIdentity, rec.GranterIdentity)
	s.Equal(domain.Time(101), rec.GrantedAt, "grant consumes one tick")
	s.True(rec.Active)

	events := s.auditStore.All()
	s.Require().Len(events, 1)
	s.Equal(audit.EventGrantCreated, events[0].Name)
	s.Equal(rec.ID, events[0].GrantID)
	s.Equal(granteeIdentity, events[0].Grantee)
	s.Equal(domain.Time(101), events[0].LogicalTime)
}

func (s *ServiceSuite) TestGrantMissingCaller() {
	att := s.seedAttestation(1000)
	_, err := s.service.Grant(context.Background(), "", granteeIdentity, att.ID, 600)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestGrantCallerNotRegistered() {
	s.volunteers.EXPECT().LookupByIdentity(gomock.Any(), granterIdentity).
		Return(domain.SubjectID(0), sentinel.ErrNotFound)
	att := s.seedAttestation(1000)

	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSubjectNotRegistered))
}

func (s *ServiceSuite) TestGrantNonexistentAttestationWritesNothing() {
	s.expectGranterRegistered()

	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, 42, 600)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))

	_, err = s.grantStore.ActiveGrant(context.Background(), granteeIdentity, 42)
	s.ErrorIs(err, sentinel.ErrNotFound, "failed grant leaves no state behind")
	s.Empty(s.auditStore.All())
}

// domainErrAttestations reports a missing record the way the attestation
// service does, as a not_found domain error instead of the store sentinel.
type domainErrAttestations struct {
	inner *attstore.InMemoryStore
}

func (a domainErrAttestations) Get(ctx context.Context, id domain.AttestationID) (*attestation.Record, error) {
	rec, err := a.inner.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "attestation not found")
		}
		return nil, err
	}
	return rec, nil
}

func (s *ServiceSuite) TestGrantNonexistentAttestationDomainErrConvention() {
	s.expectGranterRegistered()
	s.service = New(
		s.grantStore,
		domainErrAttestations{inner: s.attStore},
		s.volunteers,
		s.clock,
		tx.NewSerializer(),
		publisher.New(s.auditStore),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithMaxGrantWindow(1000),
	)

	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, 42, 600)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference),
		"not_found from the attestation side must surface as invalid_reference, got %v", err)
	s.Empty(s.auditStore.All())

	// A live grant over a vanished attestation denies access without erroring.
	s.Require().NoError(s.grantStore.Save(context.Background(), &grant.Record{
		SubjectID:       subject,
		Grantee:         granteeIdentity,
		GranterIdentity: granterIdentity,
		AttestationID:   42,
		GrantedAt:       s.clock.Now(),
		Expiry:          s.clock.Now() + 500,
		Active:          true,
	}))
	allowed, err := s.service.CheckAccess(context.Background(), granteeIdentity, 42)
	s.Require().NoError(err)
	s.False(allowed)
}

func (s *ServiceSuite) TestGrantNotOwner() {
	s.volunteers.EXPECT().LookupByIdentity(gomock.Any(), otherIdentity).
		Return(domain.SubjectID(8), nil)
	att := s.seedAttestation(1000)

	_, err := s.service.Grant(context.Background(), otherIdentity, granteeIdentity, att.ID, 600)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotRecordOwner))
}

func (s *ServiceSuite) TestGrantExpiredAttestationRejected() {
	s.expectGranterRegistered()
	att := s.seedAttestation(101)
	s.clock.AdvanceTo(200)

	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidReference))
}

func (s *ServiceSuite) TestGrantInvalidExpiryWindow() {
	s.expectGranterRegistered()
	att := s.seedAttestation(5000)

	// Expiry not in the future of the grant instant.
	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 100)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidExpiryWindow))

	// Expiry beyond the configured window.
	_, err = s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 5000)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidExpiryWindow))
}

func (s *ServiceSuite) TestGrantDuplicateActivePair() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)

	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)

	_, err = s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 700)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateGrant))

	// A different grantee is a different pair.
	_, err = s.service.Grant(context.Background(), granterIdentity, "did:key:org-2", att.ID, 600)
	s.NoError(err)
}

func (s *ServiceSuite) TestGrantRetiresExpiredPredecessor() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)

	first, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 200)
	s.Require().NoError(err)

	s.clock.AdvanceTo(300)

	second, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)
	s.NotEqual(first.ID, second.ID)

	old, err := s.grantStore.Get(context.Background(), first.ID)
	s.Require().NoError(err)
	s.False(old.Active, "expired predecessor retired on re-grant")
}

func (s *ServiceSuite) TestRevokeOnlyGranter() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)
	rec, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)

	err = s.service.Revoke(context.Background(), otherIdentity, rec.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotRecordOwner))

	s.Require().NoError(s.service.Revoke(context.Background(), granterIdentity, rec.ID))

	got, err := s.grantStore.Get(context.Background(), rec.ID)
	s.Require().NoError(err)
	s.False(got.Active, "revocation is a soft delete")
}

func (s *ServiceSuite) TestRevokeTwiceRejected() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)
	rec, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)

	s.Require().NoError(s.service.Revoke(context.Background(), granterIdentity, rec.ID))

	err = s.service.Revoke(context.Background(), granterIdentity, rec.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeGrantNotActive))
}

func (s *ServiceSuite) TestRevokeNotFound() {
	err := s.service.Revoke(context.Background(), granterIdentity, 99)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCheckAccessLifecycle() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)
	rec, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)

	allowed, err := s.service.CheckAccess(context.Background(), granteeIdentity, att.ID)
	s.Require().NoError(err)
	s.True(allowed)

	// No grant for a different grantee.
	allowed, err = s.service.CheckAccess(context.Background(), "did:key:org-2", att.ID)
	s.Require().NoError(err)
	s.False(allowed)

	// Grant expiry closes access without any write.
	s.clock.AdvanceTo(700)
	allowed, err = s.service.CheckAccess(context.Background(), granteeIdentity, att.ID)
	s.Require().NoError(err)
	s.False(allowed)

	got, err := s.grantStore.Get(context.Background(), rec.ID)
	s.Require().NoError(err)
	s.True(got.Active, "expiry is computed, not stored")
}

func (s *ServiceSuite) TestCheckAccessClosedByAttestationRevocation() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)
	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)

	// Issuer revokes the underlying attestation.
	s.Require().NoError(s.attStore.SetValidUntil(context.Background(), att.ID, s.clock.Tick()))

	allowed, err := s.service.CheckAccess(context.Background(), granteeIdentity, att.ID)
	s.Require().NoError(err)
	s.False(allowed, "live grant does not outlive the attestation")
}

func (s *ServiceSuite) TestFetch() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)
	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)

	got, err := s.service.Fetch(context.Background(), granteeIdentity, att.ID)
	s.Require().NoError(err)
	s.Equal(att.ID, got.ID)
	s.Equal(att.CheckType, got.CheckType)

	_, err = s.service.Fetch(context.Background(), "did:key:org-2", att.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))

	// Denied fetch does not reveal whether the attestation exists.
	_, err = s.service.Fetch(context.Background(), granteeIdentity, 42)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
}

func (s *ServiceSuite) TestListAccessible() {
	s.expectGranterRegistered()
	attA := s.seedAttestation(1000)
	attB := s.seedAttestation(1000)
	attC := s.seedAttestation(1000)

	_, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, attA.ID, 600)
	s.Require().NoError(err)
	_, err = s.service.Grant(context.Background(), granterIdentity, granteeIdentity, attB.ID, 200)
	s.Require().NoError(err)
	revoked, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, attC.ID, 600)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Revoke(context.Background(), granterIdentity, revoked.ID))

	s.clock.AdvanceTo(300)

	records, err := s.service.ListAccessible(context.Background(), granteeIdentity)
	s.Require().NoError(err)
	s.Require().Len(records, 1, "expired and revoked grants excluded")
	s.Equal(attA.ID, records[0].ID)
}

func (s *ServiceSuite) TestListBySubject() {
	s.expectGranterRegistered()
	att := s.seedAttestation(1000)
	rec, err := s.service.Grant(context.Background(), granterIdentity, granteeIdentity, att.ID, 600)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Revoke(context.Background(), granterIdentity, rec.ID))

	grants, err := s.service.ListBySubject(context.Background(), subject)
	s.Require().NoError(err)
	s.Require().Len(grants, 1, "revoked grants stay listed")
	s.Equal(grant.StateRevoked, grants[0].StateAt(s.clock.Now()))
}
