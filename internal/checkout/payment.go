package checkout

import (
	"github.com/google/uuid"

	"loomline/internal/domain"
)

// PaymentGateway initiates an online payment and later reports the
// outcome through the payments callback endpoint. The core only consumes
// this contract; SDK invocation lives outside it.
type PaymentGateway interface {
	Initiate(o *domain.Order) (paymentRef string, err error)
}

// StubGateway accepts every initiation and mints a reference. It stands
// in for the real gateway in development and tests; the callback route
// drives payment status either way.
type StubGateway struct{}

func (StubGateway) Initiate(o *domain.Order) (string, error) {
	return "PAY-" + uuid.NewString(), nil
}
