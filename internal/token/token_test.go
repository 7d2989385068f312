package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
}

func codecs(t *testing.T) map[string]Codec {
	t.Helper()

	j, err := NewJWTCodec(testSecret)
	require.NoError(t, err)
	p, err := NewPasetoCodec(testSecret)
	require.NoError(t, err)

	return map[string]Codec{"jwt": j, "paseto": p}
}

func TestService_IssueThenValidate(t *testing.T) {
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			svc := NewService(codec, WithClock(clock.Now))

			raw, err := svc.Issue("ana@x.com")
			require.NoError(t, err)

			assert.True(t, svc.Validate(raw, "ana@x.com"))
			assert.False(t, svc.Validate(raw, "bia@x.com"))

			subject, err := svc.ExtractSubject(raw)
			require.NoError(t, err)
			assert.Equal(t, "ana@x.com", subject)

			c, err := svc.Parse(raw)
			require.NoError(t, err)
			assert.True(t, clock.now.Equal(c.IssuedAt), c.IssuedAt)
			assert.True(t, clock.now.Add(time.Hour).Equal(c.ExpiresAt), c.ExpiresAt)
			assert.NotEmpty(t, c.ID)
		})
	}
}

func TestService_ExpiryWindow(t *testing.T) {
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			clock := newClock()
			svc := NewService(codec, WithClock(clock.Now))

			raw, err := svc.Issue("ana@x.com")
			require.NoError(t, err)

			clock.Advance(59 * time.Minute)
			expired, err := svc.IsExpired(raw)
			require.NoError(t, err)
			assert.False(t, expired)
			assert.True(t, svc.Validate(raw, "ana@x.com"))

			// expiry is inclusive: exactly one hour after issue is expired
			clock.Advance(time.Minute)
			expired, err = svc.IsExpired(raw)
			require.NoError(t, err)
			assert.True(t, expired)
			assert.False(t, svc.Validate(raw, "ana@x.com"))

			// the subject is still readable from an expired token
			subject, err := svc.ExtractSubject(raw)
			require.NoError(t, err)
			assert.Equal(t, "ana@x.com", subject)

			_, err = svc.Authenticate(raw)
			var tokenErr *InvalidTokenError
			require.ErrorAs(t, err, &tokenErr)
			assert.True(t, tokenErr.Expired)
		})
	}
}

func TestService_WithValidity(t *testing.T) {
	clock := newClock()
	j, err := NewJWTCodec(testSecret)
	require.NoError(t, err)
	svc := NewService(j, WithClock(clock.Now), WithValidity(5*time.Minute))

	raw, err := svc.Issue("ana@x.com")
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	assert.False(t, svc.Validate(raw, "ana@x.com"))
	assert.Equal(t, 5*time.Minute, svc.Validity())
}

func TestService_RejectsForeignKey(t *testing.T) {
	other := []byte(strings.Repeat("z", 32))

	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			var foreign Codec
			var err error
			if name == "jwt" {
				foreign, err = NewJWTCodec(other)
			} else {
				foreign, err = NewPasetoCodec(other)
			}
			require.NoError(t, err)

			raw, err := NewService(foreign).Issue("ana@x.com")
			require.NoError(t, err)

			svc := NewService(codec)
			_, err = svc.ExtractSubject(raw)
			var tokenErr *InvalidTokenError
			require.ErrorAs(t, err, &tokenErr)
			assert.False(t, tokenErr.Expired)
			assert.False(t, svc.Validate(raw, "ana@x.com"))

			_, err = svc.IsExpired(raw)
			assert.ErrorAs(t, err, &tokenErr)
		})
	}
}

func TestService_RejectsGarbage(t *testing.T) {
	for name, codec := range codecs(t) {
		t.Run(name, func(t *testing.T) {
			svc := NewService(codec)

			for _, raw := range []string{"", "abc", "a.b.c", "v4.local.AAAA"} {
				_, err := svc.ExtractSubject(raw)
				var tokenErr *InvalidTokenError
				assert.ErrorAs(t, err, &tokenErr, raw)
				assert.False(t, svc.Validate(raw, "ana@x.com"), raw)
			}
		})
	}
}

func TestJWTCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec, err := NewJWTCodec(testSecret)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "ana@x.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Decode(unsigned)
	var tokenErr *InvalidTokenError
	assert.ErrorAs(t, err, &tokenErr)
}

func TestService_RejectsMissingExpiry(t *testing.T) {
	codec, err := NewJWTCodec(testSecret)
	require.NoError(t, err)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "ana@x.com",
	}).SignedString(testSecret)
	require.NoError(t, err)

	_, err = NewService(codec).ExtractSubject(raw)
	var tokenErr *InvalidTokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "missing expiry", tokenErr.Reason)
}

func TestService_IssueRequiresSubject(t *testing.T) {
	codec, err := NewJWTCodec(testSecret)
	require.NoError(t, err)

	_, err = NewService(codec).Issue("  ")
	assert.Error(t, err)
}

func TestCodecConstructors_KeyMisconfigured(t *testing.T) {
	_, err := NewJWTCodec([]byte("short"))
	assert.True(t, errors.Is(err, ErrKeyMisconfigured))

	_, err = NewPasetoCodec(make([]byte, 31))
	assert.True(t, errors.Is(err, ErrKeyMisconfigured))
}

func TestNewJWTCodec_CopiesSecret(t *testing.T) {
	secret := append([]byte(nil), testSecret...)
	codec, err := NewJWTCodec(secret)
	require.NoError(t, err)
	svc := NewService(codec)

	raw, err := svc.Issue("ana@x.com")
	require.NoError(t, err)

	secret[0] = 'X'
	assert.True(t, svc.Validate(raw, "ana@x.com"))
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "empty", header: "", wantErr: true},
		{name: "prefix only", header: "Bearer ", wantErr: true},
		{name: "shorter than prefix", header: "Bear", wantErr: true},
		{name: "lowercase scheme", header: "bearer abc", wantErr: true},
		{name: "other scheme", header: "Basic dXNlcjpwYXNz", wantErr: true},
		{name: "no space", header: "Bearerabc", wantErr: true},
		{name: "double space", header: "Bearer  abc", wantErr: true},
		{name: "trailing data", header: "Bearer abc def", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if tt.wantErr {
				var headerErr *MalformedHeaderError
				assert.ErrorAs(t, err, &headerErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.header, FormatBearer(got))
		})
	}
}
