package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GenerateOrderNumber builds an externally addressable order number:
// prefix, millisecond timestamp in base36, four random bytes. Uniqueness is
// ultimately enforced by the orders_order_number_key index; the caller
// regenerates once on collision.
func GenerateOrderNumber(prefix string) (string, error) {
	if strings.TrimSpace(prefix) == "" {
		prefix = "MD"
	}
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating order number suffix: %w", err)
	}
	ts := strconv.FormatInt(time.Now().UTC().UnixMilli(), 36)
	return fmt.Sprintf("%s-%s-%s",
		strings.ToUpper(prefix),
		strings.ToUpper(ts),
		strings.ToUpper(hex.EncodeToString(buf)),
	), nil
}
