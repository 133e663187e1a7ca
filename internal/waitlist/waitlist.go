// Package waitlist 处理候补名单报名：校验邮箱、写入存储、发送欢迎邮件
package waitlist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/hypiq/internal/metrics"
)

// Entry 候补名单记录
type Entry struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

var (
	// ErrDuplicate 邮箱已存在（唯一约束冲突）
	ErrDuplicate = errors.New("waitlist: email already registered")
	// ErrEmailRequired 缺少邮箱
	ErrEmailRequired = errors.New("waitlist: email is required")
	// ErrInvalidEmail 邮箱格式错误
	ErrInvalidEmail = errors.New("waitlist: invalid email format")
)

// Store 候补名单存储
type Store interface {
	// Insert 写入一条记录，唯一冲突返回 ErrDuplicate
	Insert(ctx context.Context, email string) (Entry, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail 校验邮箱
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizeEmail 去空白并转小写，保证同一地址只有一条记录
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Result 报名结果
type Result struct {
	Entry     *Entry
	Duplicate bool
}

// Service 报名服务
type Service struct {
	store       Store
	mailer      Mailer
	mailTimeout time.Duration
	log         *logrus.Entry
}

// NewService 创建服务；mailer 为 nil 时不发送邮件
func NewService(store Store, mailer Mailer) *Service {
	if mailer == nil {
		mailer = NoopMailer{}
	}
	return &Service{
		store:       store,
		mailer:      mailer,
		mailTimeout: 15 * time.Second,
		log:         logrus.WithField("component", "waitlist"),
	}
}

// Register 校验并写入邮箱；重复报名视为成功，欢迎邮件失败只记录日志
func (s *Service) Register(ctx context.Context, email string) (Result, error) {
	if err := ValidateEmail(email); err != nil {
		return Result{}, err
	}
	email = NormalizeEmail(email)

	entry, err := s.store.Insert(ctx, email)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			metrics.WaitlistDupes.Add(1)
			s.log.Infof("重复报名: %s", email)
			return Result{Duplicate: true}, nil
		}
		metrics.WaitlistErrors.Add(1)
		return Result{}, fmt.Errorf("insert waitlist entry: %w", err)
	}
	metrics.WaitlistSignups.Add(1)

	mailCtx, cancel := context.WithTimeout(ctx, s.mailTimeout)
	defer cancel()
	if err := s.mailer.SendWelcome(mailCtx, email); err != nil {
		metrics.WelcomeMailErrors.Add(1)
		s.log.Warnf("欢迎邮件发送失败 %s: %v", email, err)
	} else {
		s.log.Infof("欢迎邮件已发送: %s", email)
	}

	return Result{Entry: &entry}, nil
}

// Count 当前报名人数
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count waitlist: %w", err)
	}
	metrics.WaitlistCount.Set(n)
	return n, nil
}
