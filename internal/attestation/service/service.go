package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vouch/internal/attestation"
	"vouch/internal/attestation/metrics"
	"vouch/internal/attestation/store"
	"vouch/internal/clock"
	"vouch/internal/registry"
	"vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/audit/publisher"
	"vouch/pkg/platform/sentinel"
	"vouch/pkg/requestcontext"
)

const defaultMaxValidityWindow = 10_000

// Service implements the attestation ledger. Every mutation runs inside the
// shared serializer and evaluates all preconditions before writing anything,
// so a failed call never commits partial state.
type Service struct {
	store      store.Store
	volunteers registry.Volunteers
	providers  registry.Providers
	clock      clock.Clock
	serial     Serial
	auditor    *publisher.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	maxWindow  uint64
}

// Serial is the serialized mutation boundary shared across ledger services.
type Serial interface {
	RunSerial(ctx context.Context, fn func(ctx context.Context) error) error
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics instance for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMaxValidityWindow bounds how far in the future valid_until may lie,
// in logical ticks.
func WithMaxValidityWindow(window uint64) Option {
	return func(s *Service) {
		if window > 0 {
			s.maxWindow = window
		}
	}
}

func New(st store.Store, volunteers registry.Volunteers, providers registry.Providers,
	clk clock.Clock, serial Serial, auditor *publisher.Publisher, logger *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:      st,
		volunteers: volunteers,
		providers:  providers,
		clock:      clk,
		serial:     serial,
		auditor:    auditor,
		logger:     logger,
		maxWindow:  defaultMaxValidityWindow,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// MaxValidityWindow exposes the configured window for handlers and docs.
func (s *Service) MaxValidityWindow() uint64 {
	return s.maxWindow
}

// Issue publishes a background check result. The caller identity must resolve
// to a verified provider and the subject must be a registered volunteer.
func (s *Service) Issue(ctx context.Context, caller domain.Identity, subjectID domain.SubjectID,
	checkType attestation.CheckType, status attestation.Status, validUntil domain.Time) (*attestation.Record, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveIssueLatency(time.Since(start).Seconds())
		}
	}()

	if caller.IsNil() {
		return nil, s.rejectIssue(dErrors.New(dErrors.CodeUnauthorized, "missing caller identity"))
	}
	if subjectID.IsNil() {
		return nil, s.rejectIssue(dErrors.New(dErrors.CodeInvalidInput, "subject ID is required"))
	}

	var record *attestation.Record
	err := s.serial.RunSerial(ctx, func(ctx context.Context) error {
		// All checks precede the single write.
		issuerID, err := s.providers.LookupByIdentity(ctx, caller)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotVerifiedProvider, "caller is not a known provider")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "provider lookup failed")
		}
		verified, err := s.providers.IsVerifiedProvider(ctx, issuerID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "provider verification check failed")
		}
		if !verified {
			return dErrors.New(dErrors.CodeNotVerifiedProvider, "caller is not a verified provider")
		}

		registered, err := s.volunteers.IsRegistered(ctx, subjectID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "subject lookup failed")
		}
		if !registered {
			return dErrors.New(dErrors.CodeSubjectNotRegistered, "subject is not a registered volunteer")
		}

		now := s.clock.Tick()
		record, err = attestation.NewRecord(subjectID, issuerID, caller, checkType, status, now, validUntil, s.maxWindow)
		if err != nil {
			return err
		}
		if err := s.store.Save(ctx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store attestation")
		}

		s.emit(ctx, audit.Event{
			Name:          audit.EventAttestationIssued,
			Actor:         caller,
			SubjectID:     subjectID,
			IssuerID:      issuerID,
			AttestationID: record.ID,
			LogicalTime:   now,
		})
		return nil
	})
	if err != nil {
		return nil, s.rejectIssue(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementIssued(string(record.CheckType))
	}
	s.logger.InfoContext(ctx, "attestation issued",
		"attestation_id", record.ID,
		"subject_id", record.SubjectID,
		"issuer_id", record.IssuerID,
		"check_type", record.CheckType,
		"valid_until", record.ValidUntil,
	)
	return record, nil
}

// Revoke soft-deletes a record by moving valid_until to the current instant.
// Only the original issuing identity may revoke.
func (s *Service) Revoke(ctx context.Context, caller domain.Identity, id domain.AttestationID) error {
	if caller.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing caller identity")
	}

	err := s.serial.RunSerial(ctx, func(ctx context.Context) error {
		record, err := s.store.Get(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "attestation not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "attestation lookup failed")
		}
		if !record.CanRevoke(caller) {
			return dErrors.New(dErrors.CodeNotRecordOwner, "only the issuing identity may revoke")
		}

		now := s.clock.Tick()
		if err := s.store.SetValidUntil(ctx, id, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke attestation")
		}

		s.emit(ctx, audit.Event{
			Name:          audit.EventAttestationRevoked,
			Actor:         caller,
			SubjectID:     record.SubjectID,
			IssuerID:      record.IssuerID,
			AttestationID: id,
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
	s.logger.InfoContext(ctx, "attestation revoked", "attestation_id", id, "issuer", caller)
	return nil
}

// IsValid reports whether the record exists and is live at the current
// logical instant. Unknown ids report not found rather than false, so callers
// can distinguish "expired" from "never existed".
func (s *Service) IsValid(ctx context.Context, id domain.AttestationID) (bool, error) {
	if s.metrics != nil {
		s.metrics.IncrementValidityChecks()
	}
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, dErrors.New(dErrors.CodeNotFound, "attestation not found")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "attestation lookup failed")
	}
	return record.IsValid(s.clock.Now()), nil
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, id domain.AttestationID) (*attestation.Record, error) {
	record, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "attestation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "attestation lookup failed")
	}
	return record, nil
}

// ListBySubject returns every record about one volunteer in issue order.
func (s *Service) ListBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*attestation.Record, error) {
	records, err := s.store.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "attestation list failed")
	}
	return records, nil
}

// ListByIssuer returns every record issued by one provider in issue order.
func (s *Service) ListByIssuer(ctx context.Context, issuerID domain.ProviderID) ([]*attestation.Record, error) {
	records, err := s.store.ListByIssuer(ctx, issuerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "attestation list failed")
	}
	return records, nil
}

// ListValidBySubject filters the subject's records down to those live now.
func (s *Service) ListValidBySubject(ctx context.Context, subjectID domain.SubjectID) ([]*attestation.Record, error) {
	records, err := s.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	valid := records[:0]
	for _, r := range records {
		if r.IsValid(now) {
			valid = append(valid, r)
		}
	}
	return valid, nil
}

func (s *Service) rejectIssue(err error) error {
	if s.metrics != nil {
		s.metrics.IncrementIssueRejected(dErrors.CodeOf(err).Name())
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
