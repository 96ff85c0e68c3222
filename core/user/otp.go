package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/vidyasetu/vidyasetu/core"
)

var (
	salt = []byte("vidyasetu.core.user.otp")

	// errors
	errInvalidOTP = errors.New("invalid or expired otp")
)

// otpGenerator makes 6 digit password reset codes.
// A code is bound to the User's id, password hash and last login, so it dies with the first use.
// It is valid for the step it was issued in and the next one.
type otpGenerator struct {
	secret []byte
	step   time.Duration
}

func newOTPGenerator(secret string, step time.Duration) otpGenerator {
	if step < time.Minute {
		step = time.Minute
	}
	return otpGenerator{secret: []byte(secret), step: step}
}

func (g otpGenerator) counter(t time.Time) int64 {
	return t.Unix() / int64(g.step/time.Second)
}

// makeOTP generates a password reset code for a given User.
func (g otpGenerator) makeOTP(usr User) string {
	return g.otpAt(usr, g.counter(core.NowFunc()))
}

// verifyOTP checks that a password reset code for a given User is valid.
func (g otpGenerator) verifyOTP(usr User, otp string) error {
	if len(otp) != 6 {
		return errInvalidOTP
	}
	if _, err := strconv.Atoi(otp); err != nil {
		return errInvalidOTP
	}

	ctr := g.counter(core.NowFunc())
	for _, c := range []int64{ctr, ctr - 1} {
		if subtle.ConstantTimeCompare([]byte(g.otpAt(usr, c)), []byte(otp)) == 1 {
			return nil
		}
	}
	return errInvalidOTP
}

// otpAt truncates the HMAC of the user state at counter ctr (RFC 4226 dynamic truncation).
func (g otpGenerator) otpAt(usr User, ctr int64) string {
	key := sha256.Sum256(append(append([]byte{}, salt...), g.secret...))
	h := hmac.New(sha256.New, key[:])
	_, _ = h.Write(g.hashValue(usr, ctr))
	sum := h.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
	return fmt.Sprintf("%06d", code%1000000)
}

func (g otpGenerator) hashValue(usr User, ctr int64) []byte {
	var val bytes.Buffer
	val.WriteString(usr.ID)
	val.Write(usr.PasswordHash)
	if !usr.LastLogin.IsZero() {
		val.WriteString(usr.LastLogin.UTC().Format(time.RFC3339Nano))
	}
	val.WriteString(strconv.FormatInt(ctr, 10))
	return val.Bytes()
}
