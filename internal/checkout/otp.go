package checkout

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

// OTPSender delivers a one-time code over an out-of-band channel.
type OTPSender interface {
	Send(phone, code string) error
}

// LogSender is the development sender: it writes the code to the
// process log instead of an SMS gateway.
type LogSender struct{}

func (LogSender) Send(phone, code string) error {
	log.Printf("[otp] phone=%s code=%s", phone, code)
	return nil
}

func newCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		// crypto/rand failing means the process is in a bad state
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}
