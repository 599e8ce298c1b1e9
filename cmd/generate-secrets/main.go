package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/aureliahotels/booking-backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	var adminPassword string
	flag.StringVar(&adminPassword, "admin-password", "", "also print a bcrypt hash for seeding an admin user")
	flag.Parse()

	secret, err := utils.GenerateSecret(32) // 256-bit
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	fmt.Println("Add this to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secret)

	if adminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		fmt.Println()
		fmt.Println("Admin password hash (for the admin_users.password_hash column):")
		fmt.Println(string(hash))
	}

	fmt.Println()
	fmt.Println("Keep these values out of version control.")
}
