package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newTicketID returns an id like MM-AB12CD34-4832: eight hex characters of a
// random UUID and the last four digits of the clock in milliseconds.
func newTicketID(now time.Time) string {
	slug := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("MM-%s-%04d", slug, now.UnixMilli()%10000)
}
