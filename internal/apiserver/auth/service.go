package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodbank-admin/internal/apiserver/response"
	"bloodbank-admin/internal/shared/model"
	"bloodbank-admin/internal/shared/storage"
	"bloodbank-admin/pkg/logging"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 面向客户端的固定消息
const (
	MsgUserExists         = "User already exists in the database. Try with fresh credentials"
	MsgInvalidCredentials = "Invalid username or password"
	MsgWrongPassword      = "Wrong Password Entered"
	MsgUserNotFound       = "User not found"
)

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodbank_registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bloodbank_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// RegisterInput 注册参数
// Profile 为除 email/password/userType 外的其余提交字段
type RegisterInput struct {
	Email    string
	Password string
	UserType string
	Profile  map[string]any
}

// LoginInput 登录参数
type LoginInput struct {
	Email    string
	Password string
	UserType string
}

// LoginResult 登录结果，User 不含密码哈希
type LoginResult struct {
	User  *model.User
	Token string
}

// Service 认证业务逻辑
type Service struct {
	store  storage.UserStore
	hasher PasswordHasher
	tokens *TokenIssuer
	log    *logging.Logger
	now    func() time.Time
}

// NewService 创建认证服务
func NewService(store storage.UserStore, hasher PasswordHasher, tokens *TokenIssuer, log *logging.Logger) *Service {
	if log == nil {
		log = logging.Nop()
	}
	return &Service{store: store, hasher: hasher, tokens: tokens, log: log, now: time.Now}
}

// Register 注册新用户，不签发令牌
func (s *Service) Register(ctx context.Context, in RegisterInput) (err error) {
	defer func() { registrationsTotal.WithLabelValues(outcome(err)).Inc() }()

	// 先查重再校验字段：已注册邮箱总是返回 DuplicateUser
	if in.Email != "" {
		existing, err := s.store.GetUserByEmail(ctx, in.Email)
		if err != nil {
			return response.Store(err)
		}
		if existing != nil {
			s.log.WithContext(ctx).Info("registration rejected: email taken")
			return response.New(response.KindDuplicateUser, MsgUserExists)
		}
	}

	userType, err := validateRegister(in)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return response.Wrap(response.KindValidation, err.Error(), err)
	}

	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		UserType:     userType,
		Profile:      model.SanitizeProfile(in.Profile),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			return response.Wrap(response.KindDuplicateUser, MsgUserExists, err)
		case errors.Is(err, storage.ErrConstraint):
			return response.Wrap(response.KindValidation, err.Error(), err)
		default:
			return response.Store(err)
		}
	}

	s.log.WithContext(ctx).Info("user registered", "user_id", user.ID, "user_type", string(user.UserType))
	return nil
}

func validateRegister(in RegisterInput) (model.UserType, error) {
	if in.Email == "" {
		return "", response.Validation("email is required")
	}
	if in.Password == "" {
		return "", response.Validation("password is required")
	}
	userType, ok := model.ParseUserType(in.UserType)
	if !ok {
		return "", response.Validation("`%s` is not a valid userType", in.UserType)
	}
	for k := range in.Profile {
		if !validFieldName(k) {
			return "", response.Validation("invalid field name %q", k)
		}
	}
	return userType, nil
}

// validFieldName 字段名不能为空、不能以 $ 开头、不能包含 '.'（文档存储的字段名限制）
func validFieldName(k string) bool {
	return k != "" && !strings.HasPrefix(k, "$") && !strings.Contains(k, ".")
}

// Login 校验凭据并签发令牌
// 校验顺序固定：用户存在 → 用户类型 → 密码
func (s *Service) Login(ctx context.Context, in LoginInput) (res *LoginResult, err error) {
	defer func() { loginsTotal.WithLabelValues(outcome(err)).Inc() }()
	log := s.log.WithContext(ctx)

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, response.Store(err)
	}
	if user == nil {
		log.Warn("login rejected", "reason", string(response.KindInvalidCredentials))
		return nil, response.New(response.KindInvalidCredentials, MsgInvalidCredentials)
	}
	if string(user.UserType) != in.UserType {
		log.Warn("login rejected", "reason", string(response.KindUserTypeMismatch), "user_id", user.ID)
		return nil, response.New(response.KindUserTypeMismatch,
			fmt.Sprintf("User is not registered as %s", in.UserType))
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		log.Warn("login rejected", "reason", string(response.KindWrongPassword), "user_id", user.ID)
		return nil, response.New(response.KindWrongPassword, MsgWrongPassword)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, response.Wrap(response.KindStore, "failed to issue token", err)
	}

	user.PasswordHash = ""
	log.Info("user logged in", "user_id", user.ID)
	return &LoginResult{User: user, Token: token}, nil
}

// GetCurrentUser 查询令牌对应的用户
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, response.Store(err)
	}
	if user == nil {
		return nil, response.New(response.KindNotFound, MsgUserNotFound)
	}
	user.PasswordHash = ""
	return user, nil
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(response.KindOf(err))
}
