package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"greenschool/app/config"
	"greenschool/app/database"
	"greenschool/app/models"
	"greenschool/app/routes/auth"
)

func main() {
	schoolID := flag.String("school", "", "school id the user belongs to")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "initial password")
	firstName := flag.String("first-name", "", "first name")
	lastName := flag.String("last-name", "", "last name")
	roles := flag.String("roles", "bursar", "comma-separated roles (admin, bursar, cashier)")
	flag.Parse()

	if *schoolID == "" || *email == "" || *password == "" {
		log.Fatal("school, email and password are required")
	}

	config.Load()
	db := config.GetDB()
	defer db.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal("Failed to hash password: ", err)
	}

	user := &models.User{
		SchoolID:  *schoolID,
		Email:     *email,
		Password:  hash,
		FirstName: *firstName,
		LastName:  *lastName,
		Roles:     strings.Split(*roles, ","),
		IsActive:  true,
	}

	if err := database.CreateUser(db, user); err != nil {
		log.Fatal("Error creating user: ", err)
	}

	fmt.Printf("User created: %s (%s)\n", user.Email, strings.Join(user.Roles, ", "))
}
