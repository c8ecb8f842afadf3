package main

import (
	"fmt"
	"log"
	"time"

	"qaforum/internal/config"
	"qaforum/internal/database"
	"qaforum/internal/domain"
	jwtsvc "qaforum/internal/pkg/jwt"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Notification{},
	); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM notifications")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	hash, _ := bcrypt.GenerateFromPassword([]byte("alice123"), bcrypt.DefaultCost)
	alice := domain.User{
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		DisplayName:  "Alice",
	}
	if err := db.Create(&alice).Error; err != nil {
		log.Fatal("creating user:", err)
	}

	log.Println("Creating notifications...")
	qid := int64(101)
	aid := int64(2001)
	cid := int64(3001)
	seedNotifications := []domain.Notification{
		{
			UserID:            alice.ID,
			Type:              domain.TypeAnswerPosted,
			Message:           "bob answered your question",
			QuestionTitle:     "How do goroutines get scheduled?",
			QuestionSlug:      "how-do-goroutines-get-scheduled",
			RelatedQuestionID: &qid,
			RelatedAnswerID:   &aid,
			DedupKey:          "seed-answer-1",
		},
		{
			UserID:            alice.ID,
			Type:              domain.TypeCommentPosted,
			Message:           "carol commented on your answer",
			QuestionTitle:     "How do goroutines get scheduled?",
			QuestionSlug:      "how-do-goroutines-get-scheduled",
			RelatedQuestionID: &qid,
			RelatedCommentID:  &cid,
			DedupKey:          "seed-comment-1",
		},
		{
			UserID:        alice.ID,
			Type:          domain.TypeModeration,
			Message:       "your question was featured",
			QuestionTitle: "How do goroutines get scheduled?",
			QuestionSlug:  "how-do-goroutines-get-scheduled",
			DedupKey:      "seed-moderation-1",
		},
	}
	for i := range seedNotifications {
		if err := db.Create(&seedNotifications[i]).Error; err != nil {
			log.Fatal("creating notification:", err)
		}
	}

	j := jwtsvc.New(cfg.JWTSecret, 24*time.Hour)
	token, err := j.GenerateToken(alice.ID, alice.Email)
	if err != nil {
		log.Fatal("generating dev token:", err)
	}

	fmt.Println("Seed complete.")
	fmt.Println("User: alice@example.com / alice123")
	fmt.Println("Dev token:", token)
	fmt.Printf("Stream: GET /api/v1/notifications/stream?token=%s\n", token)
}
