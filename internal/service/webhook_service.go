package service

import (
	"context"
	"fmt"

	"bookhook/internal/domain"
	"bookhook/internal/events"
	"bookhook/internal/metrics"
	"bookhook/internal/models"
	"bookhook/internal/sheets"

	"github.com/rs/zerolog"
)

// Reply is the text sent back to the platform plus how the request ended.
type Reply struct {
	Text      string
	Outcome   string
	BookingID string
}

type WebhookService struct {
	classifier *Classifier
	sink       domain.Sink
	eventBus   domain.EventPublisher
	logger     zerolog.Logger
}

func NewWebhookService(classifier *Classifier, sink domain.Sink, eventBus domain.EventPublisher, logger *zerolog.Logger) *WebhookService {
	if classifier == nil {
		classifier = NewClassifier(nil, nil)
	}
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "webhook").Logger()
	}
	return &WebhookService{
		classifier: classifier,
		sink:       sink,
		eventBus:   eventBus,
		logger:     l,
	}
}

// Handle runs one webhook call end to end. It never returns an error: forwarding
// failures of any kind collapse into the apology reply.
func (s *WebhookService) Handle(ctx context.Context, req *models.WebhookRequest) Reply {
	if req == nil {
		req = &models.WebhookRequest{}
	}
	qr := req.QueryResult
	intent := qr.Intent.DisplayName

	decision := s.classifier.Classify(intent, qr.Parameters, qr.QueryText)

	switch decision.Kind {
	case DecisionBooking:
		booking := decision.Booking
		if !Complete(booking) {
			return Reply{Text: models.ReplyMissingPassenger, Outcome: models.OutcomeMissingPassenger}
		}
		if err := s.forward(ctx, intent, booking); err != nil {
			return s.apology(err, intent, booking)
		}
		return Reply{
			Text:      fmt.Sprintf(models.ReplyBookingConfirmed, booking.BookingID),
			Outcome:   models.OutcomeBooked,
			BookingID: booking.BookingID,
		}

	case DecisionCancellation:
		cancellation := decision.Cancellation
		if err := s.forward(ctx, intent, cancellation); err != nil {
			return s.apology(err, intent, cancellation)
		}
		return Reply{
			Text:      fmt.Sprintf(models.ReplyCancellationRequested, cancellation.BookingID),
			Outcome:   models.OutcomeCancelled,
			BookingID: cancellation.BookingID,
		}

	default:
		return Reply{Text: models.ReplyFallback, Outcome: models.OutcomeFallback}
	}
}

func (s *WebhookService) forward(ctx context.Context, intent string, record models.Record) error {
	if s.sink == nil {
		return &sheets.ConfigurationError{Setting: "sheet sink"}
	}

	reply, err := s.sink.Forward(ctx, record)
	metrics.IncForward(record.RecordKind(), sheets.Kind(err))
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("record_kind", record.RecordKind()).
		Str("booking_id", record.ID()).
		Int("reply_bytes", len(reply)).
		Msg("record forwarded")

	s.publishForwarded(intent, record)
	return nil
}

func (s *WebhookService) publishForwarded(intent string, record models.Record) {
	if s.eventBus == nil {
		return
	}

	payload := events.ForwardedPayload{
		Kind:      record.RecordKind(),
		BookingID: record.ID(),
		Intent:    intent,
	}
	eventType := events.EventCancellationForwarded
	switch r := record.(type) {
	case *models.BookingRecord:
		eventType = events.EventBookingForwarded
		payload.Domain = string(r.Domain)
		payload.CreatedAt = r.CreatedAt
	case *models.CancellationRecord:
		payload.CreatedAt = r.CreatedAt
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish event")
	}
}

func (s *WebhookService) apology(err error, intent string, record models.Record) Reply {
	s.logger.Error().
		Err(err).
		Str("error_kind", sheets.Kind(err)).
		Str("intent", intent).
		Str("booking_id", record.ID()).
		Msg("webhook error")
	return Reply{Text: models.ReplyApology, Outcome: models.OutcomeError, BookingID: record.ID()}
}
