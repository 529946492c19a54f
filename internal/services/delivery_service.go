// Package services – DeliveryService
//
// This file implements DeliveryService, the orchestrator behind the
// download button. One RequestDelivery call runs the whole gate pipeline
// for a session:
//
//	admission → lock → expiry → verification → file lookup (retried)
//	→ premium → moderation → idempotency → send → mark delivered
//
// The per-session store lock is the idempotency guard: at most one attempt
// holds it at a time, and it is released on every exit path, including
// panics. Every attempt ends in exactly one Outcome, which is also the
// label on the Prometheus outcome counter.
//
// Observability: RequestDelivery is OpenTelemetry-instrumented; spans carry
// the session and user identifiers plus the terminal outcome.
package services

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/filmrelay/go-movie-backend/internal/domain"
	"github.com/filmrelay/go-movie-backend/internal/limiter"
	"github.com/filmrelay/go-movie-backend/internal/moderation"
	"github.com/filmrelay/go-movie-backend/internal/retry"
)

var (
	// deliveryOutcomes counts finished delivery attempts by terminal outcome.
	deliveryOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_attempts_total",
			Help: "Total delivery attempts by terminal outcome.",
		},
		[]string{"outcome"},
	)

	// deliveryInflight gauges attempts currently inside the pipeline.
	deliveryInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "delivery_attempts_inflight",
			Help: "Delivery attempts currently being processed.",
		},
	)
)

func init() {
	prometheus.MustRegister(deliveryOutcomes, deliveryInflight)
}

// Entitlements answers the verification and premium gates. Both predicates
// are fail-closed at the call site: an error counts as "not entitled".
type Entitlements interface {
	IsVerified(ctx context.Context, userID int64) (bool, error)
	IsPremium(ctx context.Context, userID int64) (bool, error)
}

// FileLookup resolves a selection to its file record. A missing record is
// (nil, nil); errors are transient and worth retrying.
type FileLookup interface {
	Lookup(ctx context.Context, sel domain.Selection) (*domain.FileRecord, error)
}

// Transport hands a resolved file to the messaging platform.
type Transport interface {
	SendDocument(ctx context.Context, chatID int64, fileID, caption string) error
}

// AuditLog records delivery attempts for after-the-fact review.
type AuditLog interface {
	Append(ctx context.Context, entry *domain.DeliveryLogEntry) error
}

// Notifier pushes operator alerts. Implementations must be best-effort:
// a failed notification never fails the delivery.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// DeliveryService runs the gate pipeline for a session.
type DeliveryService struct {
	Sessions *SessionService
	Limiter  *limiter.Limiter
	Retry    retry.Policy

	Users    Entitlements
	Files    FileLookup
	Sender   Transport
	Audit    AuditLog
	Notifier Notifier // optional
}

var captionCaser = cases.Title(language.English)

// RequestDelivery executes one delivery attempt for the session on behalf
// of userID, replying into chatID. It never returns an error: every
// failure mode maps to a terminal DeliveryResult with a user-facing
// message.
func (d *DeliveryService) RequestDelivery(ctx context.Context, userID, chatID int64, sessionID string) (res DeliveryResult) {
	tr := otel.Tracer("services/DeliveryService")
	ctx, span := tr.Start(ctx, "RequestDelivery",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.Int64("user.id", userID),
		),
	)
	defer span.End()

	deliveryInflight.Inc()
	defer deliveryInflight.Dec()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("session_id", sessionID).
				Msg("delivery attempt panicked")
			res = resultFor(OutcomeInternalError)
		}
		span.SetAttributes(attribute.String("delivery.outcome", res.Outcome.String()))
		deliveryOutcomes.WithLabelValues(res.Outcome.String()).Inc()
	}()

	// Per-user concurrency cap, checked before any state is touched.
	if !d.Limiter.CanStartDelivery(userID) {
		return resultFor(OutcomeBusy)
	}
	d.Limiter.MarkDeliveryStart(userID)
	defer d.Limiter.MarkDeliveryEnd(userID)

	store := d.Sessions.Store
	ok, err := store.TryLock(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("lock acquisition failed")
		return resultFor(OutcomeInternalError)
	}
	if !ok {
		// Either another attempt holds the lock or the session is gone;
		// distinguish for the user.
		if _, gerr := d.Sessions.Get(ctx, sessionID); gerr != nil {
			return resultFor(OutcomeExpired)
		}
		return resultFor(OutcomeLocked)
	}
	// The lock must be released even when the request context is already
	// cancelled, so the unlock runs on a detached context.
	defer func() {
		if uerr := store.Unlock(context.WithoutCancel(ctx), sessionID); uerr != nil {
			log.Error().Err(uerr).Str("session_id", sessionID).Msg("lock release failed")
		}
	}()

	sess, err := d.Sessions.Get(ctx, sessionID)
	if err != nil {
		return resultFor(OutcomeExpired)
	}
	// A session belongs to the user who started it; anyone else sees it
	// as non-existent.
	if sess.UserID != userID {
		return resultFor(OutcomeExpired)
	}

	if verified, verr := d.Users.IsVerified(ctx, userID); verr != nil || !verified {
		if verr != nil {
			log.Warn().Err(verr).Int64("user_id", userID).Msg("verification check failed; treating as unverified")
		}
		return resultFor(OutcomeNotVerified)
	}

	var rec *domain.FileRecord
	lerr := d.Retry.Do(ctx, func(ctx context.Context) error {
		r, err := d.Files.Lookup(ctx, sess.Selection())
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	if lerr != nil {
		log.Error().Err(lerr).Str("session_id", sessionID).Msg("file lookup failed after retries")
		return resultFor(OutcomeUnavailable)
	}
	if rec == nil {
		return resultFor(OutcomeUnavailable)
	}

	if rec.PremiumOnly {
		if premium, perr := d.Users.IsPremium(ctx, userID); perr != nil || !premium {
			return resultFor(OutcomePremiumRequired)
		}
	}

	verdict := moderation.Moderate(moderation.FileMeta{
		Name:    rec.FileName,
		Caption: rec.Caption,
		Size:    rec.FileSize,
		Mime:    rec.MimeType,
	})
	if !verdict.Allowed {
		d.audit(ctx, sess, rec.ID, false, true, verdict.Reason)
		d.notify(ctx, fmt.Sprintf("Moderation blocked delivery: session=%s user=%d file=%s reason=%s",
			sess.ID, sess.UserID, rec.FileName, verdict.Reason))
		r := resultFor(OutcomeModerationBlocked)
		r.Message = fmt.Sprintf("%s: %s", r.Message, verdict.Reason)
		return r
	}

	if sess.State == domain.StateDelivered {
		return resultFor(OutcomeAlreadyDelivered)
	}

	if err := store.SetState(ctx, sessionID, domain.StateProcessing); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("state transition failed")
		return resultFor(OutcomeInternalError)
	}

	if rec.TelegramFileID == "" {
		d.audit(ctx, sess, rec.ID, false, false, "missing file reference")
		return resultFor(OutcomeMissingFileRef)
	}

	caption := rec.Caption
	if caption == "" {
		caption = captionCaser.String(sess.Title)
	}
	if err := d.Sender.SendDocument(ctx, chatID, rec.TelegramFileID, caption); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("document send failed")
		d.audit(ctx, sess, rec.ID, false, false, "send failed")
		return resultFor(OutcomeInternalError)
	}

	// The send succeeded; from here the user has the file. A failure to
	// persist the terminal state is logged but the outcome stays delivered —
	// the lock prevents a concurrent duplicate, and the next attempt on
	// this session hits the delivered guard once the write lands.
	if err := store.SetDelivered(context.WithoutCancel(ctx), sessionID, rec.TelegramFileID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("delivered mark failed after send")
	}
	d.audit(ctx, sess, rec.ID, true, false, "delivered")

	log.Info().
		Str("session_id", sess.ID).
		Int64("user_id", sess.UserID).
		Str("movie_id", sess.MovieID).
		Str("file_id", rec.ID).
		Msg("delivery completed")
	return resultFor(OutcomeDelivered)
}

// audit appends one log entry; audit failures are logged, never surfaced.
func (d *DeliveryService) audit(ctx context.Context, sess *domain.Session, fileID string, delivered, blocked bool, reason string) {
	if d.Audit == nil {
		return
	}
	entry := &domain.DeliveryLogEntry{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Delivered: delivered,
		Blocked:   blocked,
		Reason:    reason,
		FileID:    fileID,
	}
	if err := d.Audit.Append(context.WithoutCancel(ctx), entry); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("audit append failed")
	}
}

func (d *DeliveryService) notify(ctx context.Context, text string) {
	if d.Notifier == nil {
		return
	}
	d.Notifier.Notify(context.WithoutCancel(ctx), text)
}
