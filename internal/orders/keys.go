package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AdminIndexKey holds every order key in creation order.
const AdminIndexKey = "admin:orders"

// Key returns the order key for an order created at t by userID.
func Key(t time.Time, userID string) string {
	return fmt.Sprintf("order:%d:%s", t.UnixMilli(), userID)
}

// ParseKey splits an order key into its creation time and owner.
func ParseKey(key string) (time.Time, string, bool) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] != "order" || parts[2] == "" {
		return time.Time{}, "", false
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, "", false
	}
	return time.UnixMilli(ms), parts[2], true
}

// UserIndexKey holds the order keys owned by userID.
func UserIndexKey(userID string) string { return "user:" + userID + ":orders" }

// AdminFlagKey marks userID as an administrator when present.
func AdminFlagKey(userID string) string { return "admin:" + userID }

// Number is the human-readable order number shown on receipts: ORD- plus the
// last eight digits of the creation time in milliseconds.
func Number(t time.Time) string {
	ms := fmt.Sprintf("%08d", t.UnixMilli())
	return "ORD-" + ms[len(ms)-8:]
}
