// Package identity resolves bearer tokens to customer handles and owns
// registration and login. It does not own customer storage; it is a
// read-through facade over the selected CustomerStore.
package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"loomline/internal/domain"
	"loomline/internal/store"
)

var ErrBadCreds = errors.New("invalid email or password")

type Service struct {
	Customers store.CustomerStore
	Tokens    *TokenService
}

func NewService(customers store.CustomerStore, tokens *TokenService) *Service {
	return &Service{Customers: customers, Tokens: tokens}
}

type RegisterInput struct {
	Email    string
	Name     string
	Phone    string
	Password string
}

func (s *Service) Register(in RegisterInput) (*domain.Customer, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &domain.Customer{
		ID:          uuid.NewString(),
		Email:       domain.NormalizeEmail(in.Email),
		Phone:       in.Phone,
		DisplayName: in.Name,
		Hash:        string(hash),
		Role:        domain.RoleCustomer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Customers.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Login verifies credentials and issues a bearer token. Unknown email
// and wrong password collapse into one error.
func (s *Service) Login(email, password string) (*domain.Customer, string, error) {
	c, err := s.Customers.ByEmail(domain.NormalizeEmail(email))
	if err != nil {
		return nil, "", ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(c.Hash), []byte(password)) != nil {
		return nil, "", ErrBadCreds
	}
	tok, err := s.Tokens.Issue(c)
	if err != nil {
		return nil, "", err
	}
	return c, tok, nil
}
