package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookhook/internal/models"
)

const IntentCancelBooking = "Cancel_Booking"

// domainMapping says how one booking domain is read out of the intent parameters.
type domainMapping struct {
	Domain     models.Domain
	Fields     []string
	NameParam  string
	PhoneParam string
}

var (
	busMapping = domainMapping{
		Domain:     models.DomainBus,
		Fields:     []string{"source_city", "destination_city", "travel_date", "travel_time", "seat_type", "num_passengers"},
		NameParam:  "passenger_name",
		PhoneParam: "contact_phone",
	}
	movieMapping = domainMapping{
		Domain:     models.DomainMovie,
		Fields:     []string{"movie_title", "theatre_name", "show_date", "show_time", "num_tickets"},
		NameParam:  "passenger_name",
		PhoneParam: "contact_phone",
	}
	museumMapping = domainMapping{
		Domain:     models.DomainMuseum,
		Fields:     []string{"museum_name", "visit_date", "slot_time", "num_tickets"},
		NameParam:  "visitor_name",
		PhoneParam: "contact_phone",
	}
)

// bookingIntents maps step-by-step and quick intents onto their domain.
var bookingIntents = map[string]domainMapping{
	"Book_Bus_Step":        busMapping,
	"Quick_Bus_Booking":    busMapping,
	"Book_Movie_Step":      movieMapping,
	"Quick_Movie_Booking":  movieMapping,
	"Book_Museum_Step":     museumMapping,
	"Quick_Museum_Booking": museumMapping,
}

type DecisionKind int

const (
	DecisionFallback DecisionKind = iota
	DecisionBooking
	DecisionCancellation
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionBooking:
		return "booking"
	case DecisionCancellation:
		return "cancellation"
	default:
		return "fallback"
	}
}

// Decision is the routing result for one request. At most one record is set.
type Decision struct {
	Kind         DecisionKind
	Booking      *models.BookingRecord
	Cancellation *models.CancellationRecord
}

// Record returns the record to forward, or nil for a fallback.
func (d Decision) Record() models.Record {
	switch d.Kind {
	case DecisionBooking:
		return d.Booking
	case DecisionCancellation:
		return d.Cancellation
	default:
		return nil
	}
}

type Classifier struct {
	newID IDGenerator
	now   func() time.Time
}

// NewClassifier uses NewBookingID and time.Now when the arguments are nil.
func NewClassifier(newID IDGenerator, now func() time.Time) *Classifier {
	if newID == nil {
		newID = NewBookingID
	}
	if now == nil {
		now = time.Now
	}
	return &Classifier{newID: newID, now: now}
}

// Classify turns an intent and its parameters into a decision. It never fails:
// missing or empty parameters become nulls.
func (c *Classifier) Classify(intent string, params map[string]any, queryText string) Decision {
	if mapping, ok := bookingIntents[intent]; ok {
		return Decision{Kind: DecisionBooking, Booking: c.booking(mapping, params, queryText)}
	}

	if intent == IntentCancelBooking {
		bookingID := queryTail(queryText)
		if id := paramString(params, "booking_id"); id != nil {
			bookingID = *id
		}
		return Decision{
			Kind: DecisionCancellation,
			Cancellation: &models.CancellationRecord{
				Action:    models.ActionCancel,
				BookingID: bookingID,
				CreatedAt: models.FormatCreatedAt(c.now()),
				Raw:       queryText,
			},
		}
	}

	return Decision{Kind: DecisionFallback}
}

func (c *Classifier) booking(mapping domainMapping, params map[string]any, queryText string) *models.BookingRecord {
	details := make(map[string]any, len(mapping.Fields))
	for _, field := range mapping.Fields {
		details[field] = paramValue(params, field)
	}

	return &models.BookingRecord{
		BookingID: c.newID(),
		CreatedAt: models.FormatCreatedAt(c.now()),
		Domain:    mapping.Domain,
		Details:   details,
		Passenger: models.Passenger{
			Name:  paramString(params, mapping.NameParam),
			Phone: paramString(params, mapping.PhoneParam),
		},
		Raw: queryText,
	}
}

// Complete reports whether the booking carries both a passenger name and phone.
func Complete(b *models.BookingRecord) bool {
	if b == nil {
		return false
	}
	return nonEmpty(b.Passenger.Name) && nonEmpty(b.Passenger.Phone)
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// paramValue returns the raw parameter, or nil when it is absent or empty.
func paramValue(params map[string]any, name string) any {
	v, ok := params[name]
	if !ok || isEmpty(v) {
		return nil
	}
	return v
}

// isEmpty treats the platform's unfilled slot values ("", null, false, 0) as missing.
func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	case float64:
		return x == 0
	case int:
		return x == 0
	default:
		return false
	}
}

// paramString renders a parameter as text. Person entities arrive as {"name": "..."}.
func paramString(params map[string]any, name string) *string {
	v := paramValue(params, name)
	if v == nil {
		return nil
	}

	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case map[string]any:
		if n, ok := x["name"].(string); ok {
			s = n
			break
		}
		raw, err := json.Marshal(x)
		if err != nil {
			return nil
		}
		s = string(raw)
	default:
		s = fmt.Sprint(x)
	}
	if s == "" {
		return nil
	}
	return &s
}

// queryTail is the last whitespace-delimited token of the query text.
func queryTail(queryText string) string {
	fields := strings.Fields(queryText)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
