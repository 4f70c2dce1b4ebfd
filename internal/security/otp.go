package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

type OTPConfig struct {
	Secret string
	Step   time.Duration
	Skew   uint
	Digits int
}

// OTPService derives time-step codes. The key for a subject is
// HMAC-SHA256(secret, subject), so a code is only valid for the subject it
// was generated for.
type OTPService struct {
	secret []byte
	opts   totp.ValidateOpts
	clock  Clock
}

func NewOTPService(cfg OTPConfig, clock Clock) (*OTPService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("otp secret is required")
	}

	step := cfg.Step
	if step < time.Second {
		step = 60 * time.Second
	}
	digits := otp.DigitsSix
	if cfg.Digits == 8 {
		digits = otp.DigitsEight
	}

	return &OTPService{
		secret: []byte(cfg.Secret),
		opts: totp.ValidateOpts{
			Period:    uint(step / time.Second),
			Skew:      cfg.Skew,
			Digits:    digits,
			Algorithm: otp.AlgorithmSHA1,
		},
		clock: clock,
	}, nil
}

// Generate returns the code for subject in the current time step. Calls
// within the same step return the same code.
func (s *OTPService) Generate(subject string) (string, error) {
	return totp.GenerateCodeCustom(s.key(subject), s.clock.Now(), s.opts)
}

// Verify reports whether code is valid for subject now, allowing the
// configured number of adjacent steps. It never returns an error.
func (s *OTPService) Verify(subject, code string) bool {
	if subject == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, s.key(subject), s.clock.Now(), s.opts)
	return err == nil && ok
}

// Step is the validity window of one code.
func (s *OTPService) Step() time.Duration {
	return time.Duration(s.opts.Period) * time.Second
}

func (s *OTPService) key(subject string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(subject))
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(mac.Sum(nil))
}
