package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"clipshare/internal/common"
	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=user_service.go -destination=mock_user_service_test.go -package=user

type UserService interface {
	RegisterUser(ctx context.Context, username, email, password string) (*Profile, string, error)
	LoginUser(ctx context.Context, username, password string) (*Profile, string, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error)
	ListUsers(ctx context.Context, actor domain.Session, limit, offset int) ([]*Profile, error)
	SetRole(ctx context.Context, actor domain.Session, userID string, role domain.Role) error
}

// Profile is the public view of an account.
type Profile struct {
	ID         string      `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email,omitempty"`
	AvatarURL  string      `json:"avatar_url,omitempty"`
	Bio        string      `json:"bio,omitempty"`
	Website    string      `json:"website,omitempty"`
	Role       domain.Role `json:"role"`
	TotalLikes int64       `json:"total_likes"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (p *Profile) Session() domain.Session {
	return domain.Session{UserID: p.ID, Username: p.Username, Role: p.Role}
}

// ProfileUpdate changes only the fields that are set.
type ProfileUpdate struct {
	Email     *string `json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Website   *string `json:"website,omitempty"`
}

var errBadCredentials = errors.New("invalid username or password")

type userService struct {
	userRepo UserRepository
	likes    LikeTotals
	tokens   *common.TokenManager
	log      *zap.Logger
}

func NewUserService(userRepo UserRepository, likes LikeTotals, tokens *common.TokenManager, log *zap.Logger) UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &userService{userRepo: userRepo, likes: likes, tokens: tokens, log: log}
}

func (s *userService) RegisterUser(ctx context.Context, username, email, password string) (*Profile, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := common.ValidateUsername(username); err != nil {
		return nil, "", domain.E(domain.KindInvalid, "register", err)
	}
	if err := common.ValidateEmail(email); err != nil {
		return nil, "", domain.E(domain.KindInvalid, "register", err)
	}
	if err := common.ValidatePassword(password); err != nil {
		return nil, "", domain.E(domain.KindInvalid, "register", err)
	}

	exists, err := s.userRepo.Exists(ctx, username, email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", domain.E(domain.KindConflict, "register", errors.New("username or email already exists"))
	}

	hashed, err := common.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	row := &dbmysql.Profile{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         string(domain.RoleUser),
	}
	if err := s.userRepo.Create(ctx, row); err != nil {
		return nil, "", err
	}

	p := toProfile(row, 0)
	token, err := s.tokens.GenerateToken(p.Session())
	if err != nil {
		return nil, "", err
	}

	s.log.Info("user registered", zap.String("user_id", p.ID), zap.String("username", p.Username))
	return p, token, nil
}

func (s *userService) LoginUser(ctx context.Context, username, password string) (*Profile, string, error) {
	if username == "" || password == "" {
		return nil, "", domain.E(domain.KindInvalid, "login", errors.New("username and password required"))
	}

	row, err := s.userRepo.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.E(domain.KindUnauthenticated, "login", errBadCredentials)
		}
		return nil, "", err
	}

	if err := common.CheckPassword(password, row.PasswordHash); err != nil {
		return nil, "", domain.E(domain.KindUnauthenticated, "login", errBadCredentials)
	}

	p := toProfile(row, 0)
	token, err := s.tokens.GenerateToken(p.Session())
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}

// GetProfile includes the total likes received across the user's items.
func (s *userService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	row, err := s.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.likes.TotalLikes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfile(row, total), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error) {
	row, err := s.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*update.Email))
		if err := common.ValidateEmail(email); err != nil {
			return nil, domain.E(domain.KindInvalid, "update profile", err)
		}
		row.Email = email
	}
	if update.Bio != nil {
		if err := common.ValidateText("bio", *update.Bio, false, 500); err != nil {
			return nil, domain.E(domain.KindInvalid, "update profile", err)
		}
		row.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.Website != nil {
		if err := common.ValidateText("website", *update.Website, false, 255); err != nil {
			return nil, domain.E(domain.KindInvalid, "update profile", err)
		}
		row.Website = strings.TrimSpace(*update.Website)
	}
	if update.AvatarURL != nil {
		if err := common.ValidateText("avatar_url", *update.AvatarURL, false, 512); err != nil {
			return nil, domain.E(domain.KindInvalid, "update profile", err)
		}
		row.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}

	if err := s.userRepo.Update(ctx, row); err != nil {
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

func (s *userService) ListUsers(ctx context.Context, actor domain.Session, limit, offset int) ([]*Profile, error) {
	if !actor.IsAdmin() {
		return nil, domain.E(domain.KindForbidden, "list users", nil)
	}
	rows, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*Profile, len(rows))
	for i, row := range rows {
		out[i] = toProfile(row, 0)
	}
	return out, nil
}

func (s *userService) SetRole(ctx context.Context, actor domain.Session, userID string, role domain.Role) error {
	if !actor.IsAdmin() {
		return domain.E(domain.KindForbidden, "set role", nil)
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return domain.E(domain.KindInvalid, "set role", errors.New("unknown role "+string(role)))
	}
	if actor.UserID == userID && role != domain.RoleAdmin {
		return domain.E(domain.KindInvalid, "set role", errors.New("admins cannot demote themselves"))
	}
	if err := s.userRepo.SetRole(ctx, userID, role); err != nil {
		return err
	}
	s.log.Info("role changed", zap.String("user_id", userID), zap.String("role", string(role)), zap.String("by", actor.UserID))
	return nil
}

func toProfile(row *dbmysql.Profile, totalLikes int64) *Profile {
	role := domain.Role(row.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return &Profile{
		ID:         row.ID,
		Username:   row.Username,
		Email:      row.Email,
		AvatarURL:  row.AvatarURL,
		Bio:        row.Bio,
		Website:    row.Website,
		Role:       role,
		TotalLikes: totalLikes,
		CreatedAt:  row.CreatedAt,
	}
}
