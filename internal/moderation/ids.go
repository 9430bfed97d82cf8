package moderation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newID returns an identifier of the form prefix_millis_random.
func newID(prefix string, now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), random)
}
