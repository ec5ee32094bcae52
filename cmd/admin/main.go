package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"civicchat/backend/internal/api/handler"
	"civicchat/backend/internal/config"
	"civicchat/backend/internal/models"
	"civicchat/backend/internal/storage"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Ops CLI for staffing: create administrator accounts, flip their status
// and mint tokens for smoke testing. Shares the storage layer with the
// server; Redis is not needed here.

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	s := storage.NewService(db, nil)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "create-admin":
		createAdmin(s, os.Args[2:])
	case "activate":
		setStatus(s, os.Args[2:], models.StatusActive)
	case "deactivate":
		setStatus(s, os.Args[2:], models.StatusInactive)
	case "token":
		mintToken(s, cfg, os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Println(`Usage: admin <command> [args]

Commands:
  create-admin -phone P -first F -last L -role ROLE [-ward N] [-zone N] [-cc CODE]
  activate <user_id>
  deactivate <user_id>
  token <user_id>`)
	os.Exit(1)
}

func createAdmin(s *storage.Service, args []string) {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	phone := fs.String("phone", "", "phone number (unique)")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	role := fs.String("role", string(models.RoleAdmin), "ADMIN, SUPER_ADMIN or MASTER_ADMIN")
	wardID := fs.Uint("ward", 0, "ward id (ADMIN)")
	zoneID := fs.Uint("zone", 0, "zone id (SUPER_ADMIN)")
	cc := fs.String("cc", "", "city corporation code (MASTER_ADMIN)")
	fs.Parse(args)

	if *phone == "" || *first == "" {
		fmt.Println("-phone and -first are required")
		os.Exit(1)
	}

	user := &models.User{
		FirstName:           *first,
		LastName:            *last,
		Phone:               *phone,
		Role:                models.Role(*role),
		Status:              models.StatusActive,
		CityCorporationCode: *cc,
	}
	if !user.IsAdminRole() {
		fmt.Printf("invalid admin role %q\n", *role)
		os.Exit(1)
	}
	if *wardID != 0 {
		user.WardID = wardID
	}
	if *zoneID != 0 {
		user.ZoneID = zoneID
	}

	switch user.Role {
	case models.RoleAdmin:
		if user.WardID == nil {
			fmt.Println("ADMIN requires -ward")
			os.Exit(1)
		}
	case models.RoleSuperAdmin:
		if user.ZoneID == nil {
			fmt.Println("SUPER_ADMIN requires -zone")
			os.Exit(1)
		}
	case models.RoleMasterAdmin:
		if user.CityCorporationCode == "" {
			fmt.Println("MASTER_ADMIN requires -cc")
			os.Exit(1)
		}
	}

	if err := s.SaveUser(user); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}
	fmt.Printf("Created %s %s (id %d)\n", user.Role, user.FullName(), user.ID)
}

func setStatus(s *storage.Service, args []string, status models.Status) {
	user := mustLoadUser(s, args)
	user.Status = status
	if err := s.SaveUser(user); err != nil {
		log.Fatalf("failed to update user: %v", err)
	}
	fmt.Printf("User %d is now %s\n", user.ID, status)
}

func mintToken(s *storage.Service, cfg *config.Config, args []string) {
	user := mustLoadUser(s, args)
	token, err := handler.GenerateToken([]byte(cfg.JWTSecret), user)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(token)
}

func mustLoadUser(s *storage.Service, args []string) *models.User {
	if len(args) != 1 {
		usage()
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		fmt.Println("Invalid user id. Please provide an integer.")
		os.Exit(1)
	}
	user, err := s.GetUserByID(uint(id))
	if err != nil {
		log.Fatalf("failed to load user: %v", err)
	}
	if user == nil {
		log.Fatalf("user %d not found", id)
	}
	return user
}
