package domain

import (
	"strings"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type Customer struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"` // always normalized
	Phone       string    `json:"phone,omitempty"`
	DisplayName string    `json:"displayName"`
	Hash        string    `json:"-"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Handle is the resolved identity a request operates under. When the
// backing customer record is gone (ephemeral store after a restart) the
// handle is synthesized from token claims and marked Degraded; ids are
// only stable within one store lifetime, emails are stable across them.
type Handle struct {
	CustomerID  string
	Email       string // normalized
	DisplayName string
	Role        string
	Degraded    bool
}

func (h Handle) IsAdmin() bool { return h.Role == RoleAdmin }

// NormalizeEmail lower-cases and trims an email for use as the stable
// cross-restart matching key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayNameFromEmail derives a readable name from the local part of an
// email address, for degraded handles with no customer record behind them.
func DisplayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	if local == "" {
		return "Customer"
	}
	return strings.ToUpper(local[:1]) + local[1:]
}
