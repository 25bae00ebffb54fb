package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidReference = errors.New("invalid reference")

const linkTokenMACLen = 32

// AccountState is the mutable account snapshot a link token is bound to.
// Changing any field invalidates every previously issued token for the user.
type AccountState struct {
	UserID       uint
	PasswordHash string
	IsActive     bool
	LastLoginAt  *time.Time
}

// LinkTokenIssuer mints and checks stateless one-time-use tokens for
// email verification and password reset links. Tokens are never stored:
// validity is recomputed from the account state on each check, so a
// password change, activation or login consumes all outstanding tokens.
type LinkTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewLinkTokenIssuer(secret string, ttl time.Duration) *LinkTokenIssuer {
	return &LinkTokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token of the form "<base36-timestamp>-<mac>".
func (i *LinkTokenIssuer) Issue(state AccountState) string {
	ts := i.now().Unix()
	return strconv.FormatInt(ts, 36) + "-" + i.mac(state, ts)
}

// Check reports whether token was issued for the given state within the
// configured TTL. It never reveals which part of the check failed.
func (i *LinkTokenIssuer) Check(state AccountState, token string) bool {
	tsPart, macPart, ok := strings.Cut(token, "-")
	if !ok || tsPart == "" || macPart == "" {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts <= 0 {
		return false
	}
	now := i.now().Unix()
	if ts > now || now-ts > int64(i.ttl.Seconds()) {
		return false
	}
	return hmac.Equal([]byte(i.mac(state, ts)), []byte(macPart))
}

func (i *LinkTokenIssuer) mac(state AccountState, ts int64) string {
	var lastLogin int64
	if state.LastLoginAt != nil {
		lastLogin = state.LastLoginAt.Unix()
	}
	payload := fmt.Sprintf("%d\x00%s\x00%t\x00%d\x00%d",
		state.UserID, state.PasswordHash, state.IsActive, lastLogin, ts)
	h := hmac.New(sha256.New, i.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))[:linkTokenMACLen]
}

// EncodeUID turns a user ID into the opaque identifier embedded in
// verification and reset links.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID. Malformed input of any kind yields
// ErrInvalidReference.
func DecodeUID(uid string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return 0, ErrInvalidReference
	}
	id, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidReference
	}
	return uint(id), nil
}
