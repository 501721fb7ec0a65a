package otp

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	apperrors "bankcore/internal/errors"
	keys "bankcore/internal/utils/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSender struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func (s *captureSender) Send(_ context.Context, subject, code string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codes == nil {
		s.codes = make(map[string]string)
	}
	s.codes[subject] = code
	return nil
}

func newTestService(t *testing.T, sender Sender) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client, sender, 5*time.Minute, zap.NewNop()), mr
}

func TestService_IssueAndVerify(t *testing.T) {
	sender := &captureSender{}
	svc, mr := newTestService(t, sender)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "ACC-1"))

	code := sender.codes["ACC-1"]
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	stored, err := mr.Get(keys.TransferOTPKey("ACC-1"))
	require.NoError(t, err)
	assert.NotEqual(t, code, stored)
	assert.Equal(t, 5*time.Minute, mr.TTL(keys.TransferOTPKey("ACC-1")))

	require.NoError(t, svc.Verify(ctx, "ACC-1", code))

	// One use only.
	err = svc.Verify(ctx, "ACC-1", code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidRequest))
}

func TestService_VerifyMismatchConsumesCode(t *testing.T) {
	sender := &captureSender{}
	svc, _ := newTestService(t, sender)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "ACC-1"))
	code := sender.codes["ACC-1"]
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	err := svc.Verify(ctx, "ACC-1", wrong)
	assert.ErrorIs(t, err, ErrOTPMismatch)

	err = svc.Verify(ctx, "ACC-1", code)
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestService_ExpiredCode(t *testing.T) {
	sender := &captureSender{}
	svc, mr := newTestService(t, sender)
	ctx := context.Background()

	require.NoError(t, svc.Issue(ctx, "ACC-1"))
	mr.FastForward(6 * time.Minute)

	err := svc.Verify(ctx, "ACC-1", sender.codes["ACC-1"])
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestService_UndeliveredCodeIsRemoved(t *testing.T) {
	svc, mr := newTestService(t, &captureSender{err: errors.New("sms gateway down")})

	err := svc.Issue(context.Background(), "ACC-1")
	require.Error(t, err)
	assert.False(t, mr.Exists(keys.TransferOTPKey("ACC-1")))
}

func TestService_StoreDown(t *testing.T) {
	svc, mr := newTestService(t, &captureSender{})
	mr.SetError("LOADING server is loading")

	err := svc.Verify(context.Background(), "ACC-1", "123456")
	assert.True(t, apperrors.IsKind(err, apperrors.KindStoreUnavailable))

	err = svc.Issue(context.Background(), "ACC-1")
	assert.True(t, apperrors.IsKind(err, apperrors.KindStoreUnavailable))
}
