package identity

import (
	"loomline/internal/domain"
)

// Resolve turns a bearer token into a customer handle.
//
// Lookup order: customer by normalized email, then by id (covers records
// created before the email index existed), then a synthesized degraded
// handle from the token claims alone. The degraded path is deliberate:
// after an ephemeral-store restart the customer row is gone but the
// token is still valid, and forcing a logout there would strand every
// signed-in customer. Orders and reviews key on normalized email, so a
// degraded handle can still reach its history.
func (s *Service) Resolve(token string) (domain.Handle, error) {
	if token == "" {
		return domain.Handle{}, domain.ErrUnauthenticated
	}
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return domain.Handle{}, err
	}

	if c, err := s.Customers.ByEmail(claims.Email); err == nil {
		return handleFrom(c), nil
	}
	if claims.CustomerID != "" {
		if c, err := s.Customers.ByID(claims.CustomerID); err == nil {
			return handleFrom(c), nil
		}
	}

	name := claims.Name
	if name == "" {
		name = domain.DisplayNameFromEmail(claims.Email)
	}
	return domain.Handle{
		CustomerID:  claims.CustomerID,
		Email:       claims.Email,
		DisplayName: name,
		Role:        claims.Role,
		Degraded:    true,
	}, nil
}

// Authorize gates admin-only operations. Degraded handles are refused
// admin access outright: with no customer record to confirm the role,
// the token claim alone is not enough for privileged operations.
func (s *Service) Authorize(h domain.Handle, role string) error {
	if role == domain.RoleAdmin && (h.Degraded || !h.IsAdmin()) {
		return domain.ErrForbidden
	}
	return nil
}

func handleFrom(c *domain.Customer) domain.Handle {
	return domain.Handle{
		CustomerID:  c.ID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Role:        c.Role,
	}
}
