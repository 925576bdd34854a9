package notify

import (
	"context"
	"log/slog"

	"github.com/termiplan/termiplan/internal/model"
)

// Notifier delivers booking confirmations. Calls are fire-and-forget:
// the booking flow logs failures and never surfaces them.
type Notifier interface {
	Notify(ctx context.Context, appt model.Appointment) error
}

// LogNotifier is the stand-in confirmation sink: it records that a
// confirmation would have been sent and does nothing else.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, appt model.Appointment) error {
	n.logger.Info("appointment confirmation sent",
		"appointment_id", appt.ID,
		"patient_email", appt.PatientEmail,
		"date_time", appt.DateTime,
	)
	return nil
}
