package otp

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchidcraft/orchid-backend/pkg/config"
	pkgerrors "github.com/orchidcraft/orchid-backend/pkg/errors"
	"github.com/orchidcraft/orchid-backend/pkg/mailer"
)

type memStore struct {
	mu     sync.Mutex
	keys   map[string]string
	hashes map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{keys: map[string]string{}, hashes: map[string]map[string]string{}}
}

func (m *memStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memStore) HSetWithTTL(_ context.Context, key string, fields map[string]any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = fmt.Sprint(v)
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.hashes[key][field], 10, 64)
	n += delta
	m.hashes[key][field] = strconv.FormatInt(n, 10)
	return n, nil
}

func (m *memStore) TTL(context.Context, string) (time.Duration, error) { return time.Minute, nil }

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.keys, k)
		delete(m.hashes, k)
	}
	return nil
}

func (m *memStore) OTPKey(email string) string         { return "orchid:otp:" + email }
func (m *memStore) OTPCooldownKey(email string) string { return "orchid:otp_cooldown:" + email }

type captureMailer struct {
	sent []mailer.Message
	err  error
}

func (c *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func testConfig() config.OTPConfig {
	return config.OTPConfig{Length: 6, TTL: 10 * time.Minute, MaxAttempts: 3, ResendCooldown: time.Minute}
}

func newTestService(t *testing.T) (Service, *memStore, *captureMailer) {
	t.Helper()
	store := newMemStore()
	m := &captureMailer{}
	svc, err := NewService(store, m, testConfig(), nil)
	require.NoError(t, err)
	return svc, store, m
}

func issuedCode(store *memStore, email string) string {
	return store.hashes[store.OTPKey(email)][fieldCode]
}

func TestSendAndVerify(t *testing.T) {
	svc, store, m := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, " Artisan@Example.com "))
	require.Len(t, m.sent, 1)
	assert.Equal(t, "artisan@example.com", m.sent[0].ToEmail)

	code := issuedCode(store, "artisan@example.com")
	require.Len(t, code, 6)
	assert.Contains(t, m.sent[0].PlainText, code)

	require.NoError(t, svc.Verify(ctx, "artisan@example.com", code))
	require.NoError(t, svc.RequireVerified(ctx, "artisan@example.com", ""))
	require.NoError(t, svc.RequireVerified(ctx, "artisan@example.com", ""), "checking does not burn the code")
	require.NoError(t, svc.Consume(ctx, "Artisan@example.com"))

	err := svc.RequireVerified(ctx, "artisan@example.com", "")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), "codes are single use")
}

func TestSendCooldown(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Send(ctx, "a@example.com"))
	err := svc.Send(ctx, "a@example.com")
	assert.Equal(t, pkgerrors.CodeRateLimit, pkgerrors.CodeOf(err))
}

func TestVerifyExhaustsAfterMaxAttempts(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Send(ctx, "b@example.com"))
	code := issuedCode(store, "b@example.com")

	for i := 0; i < 3; i++ {
		err := svc.Verify(ctx, "b@example.com", "000000x")
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	}
	err := svc.Verify(ctx, "b@example.com", code)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), "code is gone after the attempt limit")
}

func TestRequireVerifiedInlineCode(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Send(ctx, "c@example.com"))

	err := svc.RequireVerified(ctx, "c@example.com", "")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	require.NoError(t, svc.RequireVerified(ctx, "c@example.com", issuedCode(store, "c@example.com")))
}

func TestSendMailFailureClearsState(t *testing.T) {
	svc, store, m := newTestService(t)
	m.err = errors.New("sendgrid down")

	err := svc.Send(context.Background(), "d@example.com")
	assert.Equal(t, pkgerrors.CodeGateway, pkgerrors.CodeOf(err))
	assert.Empty(t, store.hashes)
	assert.Empty(t, store.keys)
}
