package reports

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/eventhub/backend/internal/models"
)

var csvHeader = []string{"registration_id", "user_id", "username", "event", "status", "registered_at"}

// WriteRegistrations renders registrations as CSV with a header row and returns the data row count.
func WriteRegistrations(w io.Writer, regs []models.Registration) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for _, reg := range regs {
		record := []string{
			reg.ID.String(),
			reg.UserID.String(),
			reg.Username,
			reg.EventName,
			string(reg.Status),
			reg.RegisteredAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return len(regs), nil
}
