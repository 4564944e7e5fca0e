package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vouch/internal/attestation"
	"vouch/internal/clock"
	"vouch/internal/grant"
	"vouch/internal/grant/metrics"
	"vouch/internal/grant/store"
	"vouch/internal/grant/tracer"
	"vouch/internal/registry"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/audit/publisher"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

const defaultMaxGrantWindow = 10_000

// Access check outcomes used as metric labels.
const (
	outcomeAllowed       = "allowed"
	outcomeNoGrant       = "no_grant"
	outcomeGrantExpired  = "grant_expired"
	outcomeRecordInvalid = "attestation_invalid"
)

// Attestations is the read surface the grant ledger needs from the
// attestation ledger. Grants reference attestations by id; access decisions
// re-check the referenced record on every call so a revoked or expired
// attestation closes access through every grant immediately.
//
// Implementations report a missing record either as sentinel.ErrNotFound
// (stores) or as a not_found domain error (the attestation service); the
// grant ledger accepts both.
type Attestations interface {
	Get(ctx context.Context, id domain.AttestationID) (*attestation.Record, error)
}

func missingAttestation(err error) bool {
	return errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeNotFound)
}

// Serial is the serialized mutation boundary shared across ledger services.
type Serial interface {
	RunSerial(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements the consent ledger. Mutations run inside the shared
// serializer with all preconditions checked before any write; access checks
// are pure reads over the pair index plus the referenced attestation.
type Service struct {
	store        store.Store
	attestations Attestations
	volunteers   registry.Volunteers
	clock        clock.Clock
	serial       Serial
	auditor      *publisher.Publisher
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	logger       *slog.Logger
	maxWindow    uint64
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used for grant and access-check spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithMaxGrantWindow bounds how far in the future a grant expiry may lie,
// in logical ticks.
func WithMaxGrantWindow(window uint64) Option {
	return func(s *Service) {
		if window > 0 {
			s.maxWindow = window
		}
	}
}

func New(st store.Store, attestations Attestations, volunteers registry.Volunteers,
	clk clock.Clock, serial Serial, auditor *publisher.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:        st,
		attestations: attestations,
		volunteers:   volunteers,
		clock:        clk,
		serial:       serial,
		auditor:      auditor,
		tracer:       tracer.NewNoop(),
		logger:       logger,
		maxWindow:    defaultMaxGrantWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Grant lets a volunteer authorize one organization to view one of their
// attestations. The caller identity must resolve to a registered volunteer
// who owns the referenced attestation, and at most one active grant may
// exist per (grantee, attestation) pair.
func (s *Service) Grant(ctx context.Context, caller domain.Identity, grantee domain.Identity,
	attestationID domain.AttestationID, expiry domain.Time) (rec *grant.Record, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanGrant,
		tracer.String(tracer.AttrGrantee, string(grantee)),
		tracer.Int64(tracer.AttrAttestationID, int64(attestationID)),
	)
	defer func() { span.End(err) }()

	if caller.IsNil() {
		return nil, s.rejectGrant(dErrors.New(dErrors.CodeUnauthorized, "missing caller identity"))
	}

	err = s.serial.RunSerial(ctx, func(ctx context.Context) error {
		// All checks precede the single write.
		subjectID, err := s.volunteers.LookupByIdentity(ctx, caller)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeSubjectNotRegistered, "caller is not a registered volunteer")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "volunteer lookup failed")
		}

		att, err := s.attestations.Get(ctx, attestationID)
		if err != nil {
			if missingAttestation(err) {
				return dErrors.New(dErrors.CodeInvalidReference, "referenced attestation does not exist")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "attestation lookup failed")
		}
		if err := grant.CheckOwnership(att, subjectID); err != nil {
			return err
		}

		now := s.clock.Tick()
		if !att.IsValid(now) {
			return dErrors.New(dErrors.CodeInvalidReference, "referenced attestation is no longer valid")
		}

		existing, err := s.store.ActiveGrant(ctx, grantee, attestationID)
		switch {
		case err == nil && existing.IsLive(now):
			return dErrors.New(dErrors.CodeDuplicateGrant, "an active grant already exists for this pair")
		case err == nil:
			// The previous grant expired without being revoked. Retire it
			// here so the pair index is free for the new grant.
			if err := s.store.Deactivate(ctx, existing.ID); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to retire expired grant")
			}
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "active grant lookup failed")
		}

		rec, err = grant.NewRecord(subjectID, grantee, caller, attestationID, now, expiry, s.maxWindow)
		if err != nil {
			return err
		}
		if err := s.store.Save(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store grant")
		}

		s.emit(ctx, audit.Event{
			Name:          audit.EventGrantCreated,
			Actor:         caller,
			SubjectID:     subjectID,
			AttestationID: attestationID,
			GrantID:       rec.ID,
			Grantee:       grantee,
			LogicalTime:   now,
		})
		return nil
	})
	if err != nil {
		return nil, s.rejectGrant(err)
	}

	span.SetAttributes(tracer.Int64(tracer.AttrGrantID, int64(rec.ID)))
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	s.logger.InfoContext(ctx, "grant created",
		"grant_id", rec.ID,
		"subject_id", rec.SubjectID,
		"grantee", rec.Grantee,
		"attestation_id", rec.AttestationID,
		"expiry", rec.Expiry,
	)
	return rec, nil
}

// Revoke deactivates a grant. Only the granting identity may revoke, and a
// grant can only be revoked once.
func (s *Service) Revoke(ctx context.Context, caller domain.Identity, id domain.GrantID) (err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanRevoke,
		tracer.Int64(tracer.AttrGrantID, int64(id)),
	)
	defer func() { span.End(err) }()

	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing caller identity")
	}

	err = s.serial.RunSerial(ctx, func(ctx context.Context) error {
		rec, err := s.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "grant not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "grant lookup failed")
		}
		if !rec.CanRevoke(caller) {
			return dErrors.New(dErrors.CodeNotRecordOwner, "only the granting identity may revoke")
		}
		if !rec.Active {
			return dErrors.New(dErrors.CodeGrantNotActive, "grant is already revoked")
		}

		now := s.clock.Tick()
		if err := s.store.Deactivate(ctx, id); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke grant")
		}

		s.emit(ctx, audit.Event{
			Name:          audit.EventGrantRevoked,
			Actor:         caller,
			SubjectID:     rec.SubjectID,
			AttestationID: rec.AttestationID,
			GrantID:       id,
			Grantee:       rec.Grantee,
			LogicalTime:   now,
		})
		return nil
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.IncrementRevoked()
	}
	s.logger.InfoContext(ctx, "grant revoked", "grant_id", id, "granter", caller)
	return nil
}

// CheckAccess reports whether grantee may currently view the attestation.
// Access requires an active unexpired grant for the pair AND a still-valid
// attestation; either side lapsing closes access without any write.
func (s *Service) CheckAccess(ctx context.Context, grantee domain.Identity, attestationID domain.AttestationID) (bool, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveAccessLatency(time.Since(start).Seconds())
		}
	}()

	ctx, span := s.tracer.Start(ctx, tracer.SpanCheckAccess,
		tracer.String(tracer.AttrGrantee, string(grantee)),
		tracer.Int64(tracer.AttrAttestationID, int64(attestationID)),
	)
	allowed, outcome, err := s.checkAccess(ctx, grantee, attestationID)
	span.SetAttributes(
		tracer.Bool(tracer.AttrAllowed, allowed),
		tracer.String(tracer.AttrDenyReason, outcome),
	)
	span.End(err)

	if err == nil && s.metrics != nil {
		s.metrics.IncrementAccessChecks(outcome)
	}
	return allowed, err
}

func (s *Service) checkAccess(ctx context.Context, grantee domain.Identity, attestationID domain.AttestationID) (bool, string, error) {
	rec, err := s.store.ActiveGrant(ctx, grantee, attestationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, outcomeNoGrant, nil
		}
		return false, "", dErrors.Wrap(err, dErrors.CodeInternal, "active grant lookup failed")
	}

	now := s.clock.Now()
	if !rec.IsLive(now) {
		return false, outcomeGrantExpired, nil
	}

	att, err := s.attestations.Get(ctx, attestationID)
	if err != nil {
		if missingAttestation(err) {
			return false, outcomeRecordInvalid, nil
		}
		return false, "", dErrors.Wrap(err, dErrors.CodeInternal, "attestation lookup failed")
	}
	if !att.IsValid(now) {
		return false, outcomeRecordInvalid, nil
	}
	return true, outcomeAllowed, nil
}

// Fetch returns the attestation record if and only if the grantee currently
// has access to it. Denied fetches report access_denied without revealing
// whether the attestation exists.
func (s *Service) Fetch(ctx context.Context, grantee domain.Identity, attestationID domain.AttestationID) (rec *attestation.Record, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanFetch,
		tracer.String(tracer.AttrGrantee, string(grantee)),
		tracer.Int64(tracer.AttrAttestationID, int64(attestationID)),
	)
	defer func() { span.End(err) }()

	allowed, _, err := s.checkAccess(ctx, grantee, attestationID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		if s.metrics != nil {
			s.metrics.IncrementFetches("denied")
		}
		return nil, dErrors.New(dErrors.CodeAccessDenied, "access denied")
	}

	rec, err = s.attestations.Get(ctx, attestationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "attestation fetch failed")
	}
	if s.metrics != nil {
		s.metrics.IncrementFetches("allowed")
	}
	return rec, nil
}

// Get returns one grant by id.
func (s *Service) Get(ctx context.Context, id domain.GrantID) (*grant.Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "grant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "grant lookup failed")
	}
	return rec, nil
}

// ListAccessible returns every attestation the grantee can view right now,
// in grant order.
func (s *Service) ListAccessible(ctx context.Context, grantee domain.Identity) ([]*attestation.Record, error) {
	grants, err := s.store.ListByGrantee(ctx, grantee)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "grant list failed")
	}

	now := s.clock.Now()
	records := []*attestation.Record{}
	for _, g := range grants {
		if !g.IsLive(now) {
			continue
		}
		att, err := s.attestations.Get(ctx, g.AttestationID)
		if err != nil {
			if missingAttestation(err) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "attestation lookup failed")
		}
		if att.IsValid(now) {
			records = append(records, att)
		}
	}
	return records, nil
}

// ListBySubject returns every grant, active or not, over one volunteer's
// attestations.
func (s *Service) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*grant.Record, error) {
	grants, err := s.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "grant list failed")
	}
	return grants, nil
}

func (s *Service) rejectGrant(err error) error {
	if s.metrics != nil {
		s.metrics.IncrementGrantRejected(dErrors.CodeOf(err).Name())
	}
	return err
}

// emit records the audit event; audit failure never fails the mutation.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", event.Name, "error", err)
	}
}
