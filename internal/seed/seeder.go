// Package seed fills a development database with fake profiles, items,
// memberships and comments.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"clipshare/internal/common"
	"clipshare/internal/dbmysql"
	"clipshare/internal/domain"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	games = []string{"Valorant", "Counter-Strike 2", "League of Legends", "Fortnite", "Apex Legends", "Rocket League", "Minecraft"}
	tags  = []string{"fps", "clutch", "ace", "funny", "fail", "ranked", "highlight", "speedrun", "meme", "tutorial"}
	kinds = []domain.ItemKind{domain.KindImage, domain.KindImage, domain.KindGIF, domain.KindClip}
)

type Options struct {
	Users    int
	Items    int
	Comments int
	// Seed makes runs reproducible; 0 picks a random one.
	Seed uint64
	// Password is set on every seeded account.
	Password     string
	MediaBaseURL string
}

func DefaultOptions() Options {
	return Options{Users: 20, Items: 100, Comments: 200, Password: "password123", MediaBaseURL: "http://localhost:8082/media"}
}

type Summary struct {
	Users       int `json:"users"`
	Items       int `json:"items"`
	Memberships int `json:"memberships"`
	Comments    int `json:"comments"`
}

type Seeder struct {
	profiles *dbmysql.ProfileRepository
	items    *dbmysql.ItemRepository
	members  *dbmysql.MembershipRepository
	comments *dbmysql.CommentRepository
	log      *zap.Logger
}

func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		profiles: dbmysql.NewProfileRepository(db),
		items:    dbmysql.NewItemRepository(db),
		members:  dbmysql.NewMembershipRepository(db),
		comments: dbmysql.NewCommentRepository(db),
		log:      log,
	}
}

// Seed writes the fake data. Like counters are moved through AdjustLikes so
// they always agree with the like rows.
func (s *Seeder) Seed(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	if opts.Users < 1 {
		return sum, errors.New("at least one user is required")
	}
	if opts.Password == "" {
		opts.Password = DefaultOptions().Password
	}
	fake := gofakeit.New(opts.Seed)

	s.log.Info("Creating users...", zap.Int("count", opts.Users))
	users, err := s.seedUsers(ctx, fake, opts)
	if err != nil {
		return sum, fmt.Errorf("failed to seed users: %w", err)
	}
	sum.Users = len(users)

	s.log.Info("Creating items...", zap.Int("count", opts.Items))
	items, err := s.seedItems(ctx, fake, users, opts)
	if err != nil {
		return sum, fmt.Errorf("failed to seed items: %w", err)
	}
	sum.Items = len(items)

	s.log.Info("Creating memberships...")
	if sum.Memberships, err = s.seedMemberships(ctx, fake, users, items); err != nil {
		return sum, fmt.Errorf("failed to seed memberships: %w", err)
	}

	if len(items) > 0 {
		s.log.Info("Creating comments...", zap.Int("count", opts.Comments))
		if sum.Comments, err = s.seedComments(ctx, fake, users, items, opts.Comments); err != nil {
			return sum, fmt.Errorf("failed to seed comments: %w", err)
		}
	}

	s.log.Info("Seeding complete",
		zap.Int("users", sum.Users),
		zap.Int("items", sum.Items),
		zap.Int("memberships", sum.Memberships),
		zap.Int("comments", sum.Comments),
	)
	return sum, nil
}

func (s *Seeder) seedUsers(ctx context.Context, fake *gofakeit.Faker, opts Options) ([]*dbmysql.Profile, error) {
	hashed, err := common.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	users := make([]*dbmysql.Profile, 0, opts.Users)
	for len(users) < opts.Users {
		username := strings.ReplaceAll(fake.Username(), ".", "_")
		email := strings.ToLower(fake.Email())

		exists, err := s.profiles.Exists(ctx, username, email)
		if err != nil {
			return nil, err
		}
		if exists || common.ValidateUsername(username) != nil {
			continue
		}

		p := &dbmysql.Profile{
			ID:           uuid.NewString(),
			Username:     username,
			Email:        email,
			PasswordHash: hashed,
			AvatarURL:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			Bio:          fake.HipsterSentence(),
			Role:         string(domain.RoleUser),
			CreatedAt:    fake.DateRange(time.Now().AddDate(0, 0, -90), time.Now()),
		}
		if err := s.profiles.Create(ctx, p); err != nil {
			return nil, err
		}
		users = append(users, p)
	}
	return users, nil
}

func (s *Seeder) seedItems(ctx context.Context, fake *gofakeit.Faker, users []*dbmysql.Profile, opts Options) ([]*dbmysql.Item, error) {
	items := make([]*dbmysql.Item, 0, opts.Items)
	for i := 0; i < opts.Items; i++ {
		kind := kinds[fake.IntN(len(kinds))]
		fileID := strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
		mediaURL := dbmysql.MediaURL(opts.MediaBaseURL, fileID)

		it := &dbmysql.Item{
			ID:          uuid.NewString(),
			Title:       strings.TrimSuffix(fake.HipsterSentence(), "."),
			Description: fake.HipsterSentence(),
			MediaURL:    mediaURL,
			Kind:        string(kind),
			OwnerID:     users[fake.IntN(len(users))].ID,
			Tags:        dbmysql.JoinTags(pick(fake, tags, 1+fake.IntN(3))),
			Game:        fake.RandomString(games),
			ViewCount:   int64(fake.IntRange(0, 250_000)),
			CreatedAt:   fake.DateRange(time.Now().AddDate(0, 0, -60), time.Now()),
		}
		if kind == domain.KindClip {
			it.Duration = fake.IntRange(5, 180)
		} else {
			it.ThumbnailURL = mediaURL
		}
		if err := s.items.Create(ctx, it); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *Seeder) seedMemberships(ctx context.Context, fake *gofakeit.Faker, users []*dbmysql.Profile, items []*dbmysql.Item) (int, error) {
	n := 0
	for _, u := range users {
		for _, it := range items {
			for _, rel := range domain.Relations {
				if fake.Float64() > chance(rel) {
					continue
				}
				err := s.members.Insert(ctx, u.ID, it.ID, rel)
				if errors.Is(err, domain.ErrDuplicateMembership) {
					continue
				}
				if err != nil {
					return n, err
				}
				if rel.AdjustsCounter() {
					if err := s.items.AdjustLikes(ctx, it.ID, 1); err != nil {
						return n, err
					}
				}
				n++
			}
		}
	}
	return n, nil
}

func chance(rel domain.Relation) float64 {
	switch rel {
	case domain.RelationLiked:
		return 0.3
	case domain.RelationSaved:
		return 0.1
	default:
		return 0.05
	}
}

func (s *Seeder) seedComments(ctx context.Context, fake *gofakeit.Faker, users []*dbmysql.Profile, items []*dbmysql.Item, count int) (int, error) {
	var top []*dbmysql.Comment
	for i := 0; i < count; i++ {
		c := &dbmysql.Comment{
			ID:      uuid.NewString(),
			UserID:  users[fake.IntN(len(users))].ID,
			Content: fake.HipsterSentence(),
		}
		// roughly a quarter are replies to an earlier top-level comment
		if len(top) > 0 && fake.IntN(4) == 0 {
			parent := top[fake.IntN(len(top))]
			c.ItemID = parent.ItemID
			c.ParentID = &parent.ID
			c.CreatedAt = fake.DateRange(parent.CreatedAt, time.Now())
		} else {
			it := items[fake.IntN(len(items))]
			c.ItemID = it.ID
			c.CreatedAt = fake.DateRange(it.CreatedAt, time.Now())
		}
		if err := s.comments.Create(ctx, c); err != nil {
			return i, err
		}
		if c.ParentID == nil {
			top = append(top, c)
		}
	}
	return count, nil
}

// pick returns n distinct values from from.
func pick(fake *gofakeit.Faker, from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	idx := make([]int, len(from))
	for i := range idx {
		idx[i] = i
	}
	fake.ShuffleInts(idx)
	out := make([]string, n)
	for i := range out {
		out[i] = from[idx[i]]
	}
	return out
}
