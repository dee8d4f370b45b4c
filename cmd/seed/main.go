package main

import (
	"log"
	"os"

	"github.com/artrate/artrate/internal/config"
	"github.com/artrate/artrate/internal/database"
	"github.com/artrate/artrate/internal/models"
	"github.com/google/uuid"
)

// Seeds the bootstrap admin account. There are no passwords in this
// system: after seeding, the admin calls POST /auth/signup with the same
// username and email, which mails a confirmation code for the existing
// account, and exchanges it at POST /auth/token.
func main() {
	cfg := config.Load()
	database.Connect(cfg)
	database.Migrate()

	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminEmail := os.Getenv("ADMIN_EMAIL")

	if adminUsername == "" || adminEmail == "" {
		log.Fatal("Missing environment variables: ADMIN_USERNAME, ADMIN_EMAIL")
	}

	var admin models.User
	result := database.DB.Where("email = ?", adminEmail).First(&admin)

	if result.Error == nil {
		if admin.Role != models.RoleAdmin {
			admin.Role = models.RoleAdmin
			if err := database.DB.Save(&admin).Error; err != nil {
				log.Fatal("Failed to promote existing user to admin:", err)
			}
			log.Println("Existing user promoted to admin:", admin.Username)
			return
		}
		log.Println("Admin user already exists:", admin.Username)
		return
	}

	admin = models.User{
		ID:       uuid.New(),
		Username: adminUsername,
		Email:    adminEmail,
		Role:     models.RoleAdmin,
	}

	if err := database.DB.Create(&admin).Error; err != nil {
		log.Fatal("Failed to create admin:", err)
	}

	log.Println("Admin user created:", admin.Username)
	log.Println("Email:", admin.Email)
	log.Println("Request a confirmation code via POST /auth/signup with this username and email to authenticate")
}
