package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"vouch/internal/clock"
	"vouch/internal/expiry"
	expstore "vouch/internal/expiry/store"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/audit/publisher"
	"vouch/pkg/platform/tx"
)

const trackerIdentity = domain.Identity("did:key:prov-1")

type ServiceSuite struct {
	suite.Suite
	clock      *clock.Logical
	store      *expstore.InMemoryStore
	auditStore *audit.InMemoryStore
	service    *Service
}

func (s *ServiceSuite) SetupTest() {
	s.clock = clock.New(100)
	s.store = expstore.New()
	s.auditStore = audit.NewInMemoryStore()
	s.service = New(
		s.store,
		s.clock,
		tx.NewSerializer(),
		publisher.New(s.auditStore),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) register(key expiry.Key, at domain.Time) *expiry.Record {
	s.T().Helper()
	rec, err := s.service.Register(context.Background(), trackerIdentity, key, at)
	s.Require().NoError(err)
	return rec
}

func (s *ServiceSuite) TestRegister() {
	rec := s.register(expiry.Key{Type: expiry.ItemAttestation, ID: 3}, 500)
	s.Equal(domain.Time(101), rec.RegisteredAt, "registration consumes one tick")
	s.False(rec.Expired)

	events := s.auditStore.All()
	s.Require().Len(events, 1)
	s.Equal(audit.EventExpiryRegistered, events[0].Name)
	s.Equal("attestation", events[0].ItemType)
	s.EqualValues(3, events[0].ItemID)
}

func (s *ServiceSuite) TestRegisterRejections() {
	_, err := s.service.Register(context.Background(), "", expiry.Key{Type: expiry.ItemGrant, ID: 3}, 500)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.service.Register(context.Background(), trackerIdentity, expiry.Key{Type: "session", ID: 3}, 500)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidItemType))

	_, err = s.service.Register(context.Background(), trackerIdentity, expiry.Key{Type: expiry.ItemGrant, ID: 3}, 50)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidExpiryWindow))
}

func (s *ServiceSuite) TestRegisterDuplicate() {
	key := expiry.Key{Type: expiry.ItemGrant, ID: 3}
	s.register(key, 500)

	_, err := s.service.Register(context.Background(), trackerIdentity, key, 600)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateItem))

	// Same id under another type is fine.
	s.register(expiry.Key{Type: expiry.ItemAttestation, ID: 3}, 600)
}

func (s *ServiceSuite) TestMarkExpired() {
	key := expiry.Key{Type: expiry.ItemCredential, ID: 9}
	s.register(key, 200)

	err := s.service.MarkExpired(context.Background(), trackerIdentity, key)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotYetExpired), "cannot mark before the clock reaches expiry")

	s.clock.AdvanceTo(200)
	s.Require().NoError(s.service.MarkExpired(context.Background(), trackerIdentity, key))

	err = s.service.MarkExpired(context.Background(), trackerIdentity, key)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExpired))
}

func (s *ServiceSuite) TestMarkExpiredNotTracked() {
	err := s.service.MarkExpired(context.Background(), trackerIdentity, expiry.Key{Type: expiry.ItemGrant, ID: 42})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUpdateExpiry() {
	key := expiry.Key{Type: expiry.ItemAttestation, ID: 3}
	s.register(key, 200)
	s.clock.AdvanceTo(200)
	s.Require().NoError(s.service.MarkExpired(context.Background(), trackerIdentity, key))

	err := s.service.UpdateExpiry(context.Background(), "did:key:prov-2", key, 900)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotRecordOwner))

	err = s.service.UpdateExpiry(context.Background(), trackerIdentity, key, 150)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidExpiryWindow), "new expiry must be in the future")

	s.Require().NoError(s.service.UpdateExpiry(context.Background(), trackerIdentity, key, 900))

	expired, err := s.service.IsExpired(context.Background(), key)
	s.Require().NoError(err)
	s.False(expired, "update clears the sticky flag")
}

func (s *ServiceSuite) TestIsExpiredTracksClock() {
	key := expiry.Key{Type: expiry.ItemGrant, ID: 5}
	s.register(key, 300)

	expired, err := s.service.IsExpired(context.Background(), key)
	s.Require().NoError(err)
	s.False(expired)

	s.clock.AdvanceTo(300)
	expired, err = s.service.IsExpired(context.Background(), key)
	s.Require().NoError(err)
	s.True(expired, "expiry instant is inclusive")
}

func (s *ServiceSuite) TestTimeUntilExpiryAndWindow() {
	key := expiry.Key{Type: expiry.ItemGrant, ID: 5}
	s.register(key, 300)
	// Registration ticked the clock to 101.

	remaining, err := s.service.TimeUntilExpiry(context.Background(), key)
	s.Require().NoError(err)
	s.Equal(domain.Time(199), remaining)

	within, err := s.service.WillExpireWithin(context.Background(), key, 100)
	s.Require().NoError(err)
	s.False(within)

	within, err = s.service.WillExpireWithin(context.Background(), key, 199)
	s.Require().NoError(err)
	s.True(within)

	s.clock.AdvanceTo(400)
	remaining, err = s.service.TimeUntilExpiry(context.Background(), key)
	s.Require().NoError(err)
	s.Equal(domain.Time(0), remaining)
}

func (s *ServiceSuite) TestItemsExpiringAt() {
	s.register(expiry.Key{Type: expiry.ItemAttestation, ID: 1}, 300)
	s.register(expiry.Key{Type: expiry.ItemGrant, ID: 2}, 300)
	s.register(expiry.Key{Type: expiry.ItemGrant, ID: 3}, 400)

	records, err := s.service.ItemsExpiringAt(context.Background(), 300)
	s.Require().NoError(err)
	s.Len(records, 2)

	records, err = s.service.ItemsExpiringAt(context.Background(), 999)
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *ServiceSuite) TestCheckBatch() {
	s.register(expiry.Key{Type: expiry.ItemAttestation, ID: 1}, 150)
	s.register(expiry.Key{Type: expiry.ItemGrant, ID: 2}, 900)
	s.clock.AdvanceTo(200)

	results, err := s.service.CheckBatch(context.Background(), []expiry.Key{
		{Type: expiry.ItemAttestation, ID: 1},
		{Type: expiry.ItemGrant, ID: 2},
		{Type: expiry.ItemCredential, ID: 3},
	})
	s.Require().NoError(err)
	s.Require().Len(results, 3)

	s.True(results[0].Expired)
	s.NoError(results[0].Err)

	s.False(results[1].Expired)
	s.NoError(results[1].Err)

	s.Require().Error(results[2].Err, "untracked item reported per-result")
	s.True(dErrors.HasCode(results[2].Err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestCheckBatchLimits() {
	results, err := s.service.CheckBatch(context.Background(), nil)
	s.Require().NoError(err)
	s.Empty(results)

	keys := make([]expiry.Key, 251)
	for i := range keys {
		keys[i] = expiry.Key{Type: expiry.ItemGrant, ID: uint64(i + 1)}
	}
	_, err = s.service.CheckBatch(context.Background(), keys)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
