package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/corclo/backend/internal/affinity"
	"github.com/corclo/backend/internal/engagement"
	"github.com/corclo/backend/internal/logger"
	"github.com/corclo/backend/internal/models"
	"github.com/corclo/backend/internal/notifications"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db            *gorm.DB
	engagement    *engagement.Writer
	notifications *notifications.Service
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	// Note: Seed returns an error only for invalid sources, time.Now().UnixNano() is always valid
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:            db,
		engagement:    engagement.NewWriter(db),
		notifications: notifications.NewService(db),
	}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	log("Creating follows...")
	if err := s.seedFollows(users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	log("Creating posts...")
	posts, err := s.seedPosts(users, 300)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	log("Creating comments...")
	if err := s.seedComments(users, posts, 600); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	log("Creating likes...")
	if err := s.seedLikes(users, posts, 1500); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	log("Creating view history...")
	if err := s.seedViews(users, posts, 3000); err != nil {
		return fmt.Errorf("failed to seed views: %w", err)
	}

	log("Creating stories...")
	if err := s.seedStories(users); err != nil {
		return fmt.Errorf("failed to seed stories: %w", err)
	}

	log("Creating conversations...")
	if err := s.seedConversations(users, 40); err != nil {
		return fmt.Errorf("failed to seed conversations: %w", err)
	}

	log("Creating affinity pings...")
	if err := s.seedPings(users, 60); err != nil {
		return fmt.Errorf("failed to seed pings: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with minimal, predictable data
func (s *Seeder) SeedTest() error {
	testUserSpecs := []struct {
		username    string
		email       string
		displayName string
	}{
		{"alice", "alice@example.com", "Alice Smith"},
		{"bob", "bob@example.com", "Bob Johnson"},
		{"charlie", "charlie@example.com", "Charlie Brown"},
		{"diana", "diana@example.com", "Diana Prince"},
		{"eve", "eve@example.com", "Eve Wilson"},
	}

	var users []models.User
	for _, spec := range testUserSpecs {
		var user models.User
		err := s.db.Where("username = ? OR email = ?", spec.username, spec.email).First(&user).Error
		if err == nil {
			users = append(users, user)
			continue
		}

		// Default password for all test accounts: "password123"
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)
		avatarURL := fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", spec.username)

		user = models.User{
			Email:        spec.email,
			Username:     spec.username,
			DisplayName:  spec.displayName,
			PasswordHash: &hashedPasswordStr,
			AvatarURL:    avatarURL,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", spec.username, err)
		}
		users = append(users, user)
	}

	if _, err := s.seedPosts(users, 10); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	return nil
}

// Clean removes all seed data (use with caution!)
func (s *Seeder) Clean() error {
	// Delete in reverse order of dependencies
	tables := []string{
		"notifications",
		"affinity_pings",
		"engagement_logs",
		"story_views",
		"stories",
		"message_likes",
		"messages",
		"conversation_participants",
		"conversations",
		"bookmarks",
		"likes",
		"comments",
		"posts",
		"follows",
		"users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var users []models.User

	// Seed users carry @example.com emails; reuse them when enough exist
	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing users, skipping creation", zap.Int("total_users", len(users)))
		return users, nil
	}

	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := gofakeit.Email()

		var existingUser models.User
		for {
			if err := s.db.Where("username = ? OR email = ?", username, email).First(&existingUser).Error; err == gorm.ErrRecordNotFound {
				break
			}
			username = gofakeit.Username()
			email = gofakeit.Email()
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPasswordStr := string(hashedPassword)
		avatarURL := fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username)

		user := models.User{
			Email:        email,
			Username:     username,
			DisplayName:  gofakeit.Name(),
			Bio:          gofakeit.HipsterSentence(),
			PasswordHash: &hashedPasswordStr,
			AvatarURL:    avatarURL,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}

	logger.Log.Info("Created seed users", zap.Int("count", len(users)))
	return users, nil
}

func (s *Seeder) seedFollows(users []models.User) error {
	if len(users) < 2 {
		return nil
	}

	for _, follower := range users {
		// Each user follows roughly a fifth of the network
		followCount := rand.Intn(len(users)/5 + 1)
		for j := 0; j < followCount; j++ {
			followed := users[rand.Intn(len(users))]
			if followed.ID == follower.ID {
				continue
			}

			var existing models.Follow
			if err := s.db.Where("follower_id = ? AND following_id = ?", follower.ID, followed.ID).First(&existing).Error; err == nil {
				continue
			}

			follow := models.Follow{FollowerID: follower.ID, FollowingID: followed.ID}
			if err := s.db.Create(&follow).Error; err != nil {
				return err
			}
			s.db.Model(&models.User{}).Where("id = ?", followed.ID).
				UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))
			s.db.Model(&models.User{}).Where("id = ?", follower.ID).
				UpdateColumn("following_count", gorm.Expr("following_count + 1"))

			s.engagement.LogFollow(follower.ID, followed.ID)
			s.notifications.CreateBestEffort(followed.ID, follower.ID, models.NotificationFollow, nil, nil)
		}
	}
	return nil
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	var posts []models.Post
	if len(users) == 0 {
		return posts, nil
	}

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		post := models.Post{
			AuthorID: author.ID,
			Content:  gofakeit.HipsterParagraph(),
		}
		// Roughly a third of posts carry an image
		if rand.Float32() < 0.35 {
			mediaURL := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.Word())
			mediaType := models.MediaTypeImage
			post.MediaURL = &mediaURL
			post.MediaType = &mediaType
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, fmt.Errorf("failed to create post: %w", err)
		}

		createdAt := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		s.db.Model(&post).UpdateColumn("created_at", createdAt)

		s.db.Model(&models.User{}).Where("id = ?", author.ID).
			UpdateColumn("post_count", gorm.Expr("post_count + 1"))

		posts = append(posts, post)
	}
	return posts, nil
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		comment := models.Comment{
			PostID:  post.ID,
			UserID:  author.ID,
			Content: gofakeit.HipsterSentence(),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1"))

		s.engagement.LogComment(author.ID, post.ID)
		s.notifications.CreateBestEffort(post.AuthorID, author.ID, models.NotificationComment, &post.ID, &comment.ID)
	}
	return nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		var existing models.Like
		if err := s.db.Where("user_id = ? AND post_id = ?", user.ID, post.ID).First(&existing).Error; err == nil {
			continue
		}

		like := models.Like{UserID: user.ID, PostID: post.ID}
		if err := s.db.Create(&like).Error; err != nil {
			return err
		}
		s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))

		s.engagement.LogLike(user.ID, post.ID)
		s.notifications.CreateBestEffort(post.AuthorID, user.ID, models.NotificationLike, &post.ID, nil)
	}
	return nil
}

func (s *Seeder) seedViews(users []models.User, posts []models.Post, count int) error {
	if len(users) == 0 || len(posts) == 0 {
		return nil
	}

	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]
		s.engagement.LogView(user.ID, post.ID)
	}
	return nil
}

func (s *Seeder) seedStories(users []models.User) error {
	for _, user := range users {
		if rand.Float32() > 0.4 {
			continue
		}

		story := models.Story{
			AuthorID:  user.ID,
			MediaURL:  fmt.Sprintf("https://picsum.photos/seed/%s/1080/1920", gofakeit.Word()),
			MediaType: models.MediaTypeImage,
		}
		if err := s.db.Create(&story).Error; err != nil {
			return err
		}

		viewerCount := rand.Intn(len(users)/4 + 1)
		for j := 0; j < viewerCount; j++ {
			viewer := users[rand.Intn(len(users))]
			if viewer.ID == user.ID {
				continue
			}
			var existing models.StoryView
			if err := s.db.Where("story_id = ? AND viewer_id = ?", story.ID, viewer.ID).First(&existing).Error; err == nil {
				continue
			}
			view := models.StoryView{StoryID: story.ID, ViewerID: viewer.ID}
			if err := s.db.Create(&view).Error; err != nil {
				continue
			}
			s.db.Model(&models.Story{}).Where("id = ?", story.ID).
				UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		}
	}
	return nil
}

func (s *Seeder) seedConversations(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	for i := 0; i < count; i++ {
		a := users[rand.Intn(len(users))]
		b := users[rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}

		var existingID string
		s.db.Raw(`
			SELECT p1.conversation_id FROM conversation_participants p1
			JOIN conversation_participants p2 ON p1.conversation_id = p2.conversation_id
			WHERE p1.user_id = ? AND p2.user_id = ?
			LIMIT 1
		`, a.ID, b.ID).Scan(&existingID)
		if existingID != "" {
			continue
		}

		conversation := models.Conversation{}
		if err := s.db.Create(&conversation).Error; err != nil {
			return err
		}
		participants := []models.ConversationParticipant{
			{ConversationID: conversation.ID, UserID: a.ID},
			{ConversationID: conversation.ID, UserID: b.ID},
		}
		if err := s.db.Create(&participants).Error; err != nil {
			return err
		}

		messageCount := rand.Intn(10) + 1
		for j := 0; j < messageCount; j++ {
			sender, receiver := a, b
			if rand.Float32() < 0.5 {
				sender, receiver = b, a
			}
			content := gofakeit.HipsterSentence()
			message := models.Message{
				ConversationID: conversation.ID,
				SenderID:       sender.ID,
				Content:        &content,
			}
			if err := s.db.Create(&message).Error; err != nil {
				return err
			}
			s.engagement.LogDMSend(sender.ID, receiver.ID)
		}
	}
	return nil
}

// seedPings goes through the real ping service so seeded data respects the
// daily quota and pair dedup exactly like production traffic
func (s *Seeder) seedPings(users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}

	pingService := affinity.NewService(s.db, s.engagement)
	for i := 0; i < count; i++ {
		sender := users[rand.Intn(len(users))]
		receiver := users[rand.Intn(len(users))]

		result, err := pingService.SendPing(sender.ID, receiver.ID)
		if err != nil {
			return err
		}
		if result.Success && rand.Float32() < 0.5 {
			if _, err := pingService.AcceptPing(result.Ping.ID, receiver.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
