package waitlist

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/hypiq/pkg/config"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) SendWelcome(_ context.Context, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	return m.err
}

type failingStore struct{}

func (failingStore) Insert(context.Context, string) (Entry, error) {
	return Entry{}, errors.New("connection refused")
}
func (failingStore) Count(context.Context) (int64, error) { return 0, errors.New("connection refused") }
func (failingStore) Close() error                         { return nil }

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "waitlist.db"), "waitlist")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestValidateEmail(t *testing.T) {
	assert.ErrorIs(t, ValidateEmail(""), ErrEmailRequired)
	for _, bad := range []string{"not-an-email", "a@b", "a b@c.d", "@b.co", "a@.co", " a@b.co"} {
		assert.ErrorIs(t, ValidateEmail(bad), ErrInvalidEmail, bad)
	}
	for _, good := range []string{"a@b.co", "whale+1@hypiq.xyz", "First.Last@Example.COM"} {
		assert.NoError(t, ValidateEmail(good), good)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "whale@hypiq.xyz", NormalizeEmail("  Whale@HYPIQ.xyz "))
}

func TestSQLStore_InsertCountDuplicate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	entry, err := store.Insert(ctx, "a@b.co")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "a@b.co", entry.Email)
	assert.False(t, entry.CreatedAt.IsZero())

	_, err = store.Insert(ctx, "a@b.co")
	assert.ErrorIs(t, err, ErrDuplicate)

	n, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpenSQLite_RejectsBadTableName(t *testing.T) {
	_, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "w.db"), "waitlist; DROP TABLE x")
	assert.Error(t, err)
}

func TestService_RegisterTwiceIsDuplicateSuccess(t *testing.T) {
	ctx := context.Background()
	mailer := &recordingMailer{}
	svc := NewService(openTestStore(t), mailer)

	first, err := svc.Register(ctx, "a@b.co")
	require.NoError(t, err)
	require.NotNil(t, first.Entry)
	assert.False(t, first.Duplicate)

	// 大小写不同视为同一邮箱
	second, err := svc.Register(ctx, "A@B.co")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Nil(t, second.Entry)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 只有首次成功写入发送欢迎邮件
	assert.Equal(t, []string{"a@b.co"}, mailer.sent)
}

func TestService_MailFailureDoesNotFailRegistration(t *testing.T) {
	svc := NewService(openTestStore(t), &recordingMailer{err: errors.New("smtp down")})
	res, err := svc.Register(context.Background(), "whale@hypiq.xyz")
	require.NoError(t, err)
	assert.NotNil(t, res.Entry)
}

func TestService_ValidationAndStoreErrors(t *testing.T) {
	svc := NewService(failingStore{}, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "")
	assert.ErrorIs(t, err, ErrEmailRequired)

	_, err = svc.Register(ctx, "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, "a@b.co")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)

	_, err = svc.Count(ctx)
	assert.Error(t, err)
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, config.WaitlistConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "w.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, store)
	require.NoError(t, store.Close())

	store, err = Open(ctx, config.WaitlistConfig{Driver: "supabase", Table: "waitlist",
		Supabase: config.SupabaseConfig{URL: "https://example.supabase.co", APIKey: "anon"}})
	require.NoError(t, err)
	assert.IsType(t, &SupabaseStore{}, store)

	_, err = Open(ctx, config.WaitlistConfig{Driver: "mongo"})
	assert.Error(t, err)
}
