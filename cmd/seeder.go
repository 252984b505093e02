package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/agency-dashboard/internal/auth"
	agencyDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/agency"
	clientDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/client"
	userDatamodel "github.com/frahmantamala/agency-dashboard/internal/core/datamodel/user"
	"github.com/frahmantamala/agency-dashboard/internal/core/identity"
	"github.com/frahmantamala/agency-dashboard/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const seedPassword = "password"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed a demo agency with users of every role, two clients and a grant, for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := initGormDB(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		hash, err := auth.NewService(nil, cfg.Security.BCryptCost, logger.Discard()).HashPassword(seedPassword)
		if err != nil {
			log.Fatalf("failed to hash seed password: %v", err)
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			if clearData {
				if err := clearSeedData(tx); err != nil {
					return err
				}
			}
			return seedDemoAgency(tx, hash)
		}); err != nil {
			log.Fatalf("seed failed: %v", err)
		}

		fmt.Printf("Seeded agency %q; every demo user logs in with password %q\n", "acme", seedPassword)
	},
}

func clearSeedData(tx *gorm.DB) error {
	for _, table := range []string{"integrations", "client_user_access", "users", "clients", "agencies"} {
		if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	fmt.Println("Cleared existing data")
	return nil
}

func seedDemoAgency(tx *gorm.DB, passwordHash string) error {
	color := "#0d6efd"
	agency := agencyDatamodel.Agency{Slug: "acme", Name: "Acme Marketing", Status: identity.StatusActive, PrimaryColor: &color}
	if err := firstOrCreate(tx, &agency, "slug = ?", agency.Slug); err != nil {
		return fmt.Errorf("seed agency: %w", err)
	}

	clients := map[string]*clientDatamodel.Client{}
	for _, c := range []struct {
		Name   string
		Status string
	}{
		{"Globex", identity.StatusActive},
		{"Initech", identity.StatusActive},
		{"Umbrella", identity.StatusInactive},
	} {
		row := &clientDatamodel.Client{AgencyID: agency.ID, Name: c.Name, Status: c.Status}
		if err := firstOrCreate(tx, row, "agency_id = ? AND name = ?", agency.ID, c.Name); err != nil {
			return fmt.Errorf("seed client %s: %w", c.Name, err)
		}
		clients[c.Name] = row
		fmt.Printf("Seeded client: %s (%s)\n", c.Name, c.Status)
	}

	globexID := clients["Globex"].ID
	users := map[string]*userDatamodel.User{}
	for _, u := range []struct {
		Email    string
		Name     string
		Role     identity.Role
		UserType identity.UserType
		ClientID *int64
	}{
		{"owner@acme.test", "Olivia Owner", identity.RoleOwner, identity.UserTypeAgency, nil},
		{"admin@acme.test", "Adam Admin", identity.RoleAdmin, identity.UserTypeAgency, nil},
		{"manager@acme.test", "Mona Manager", identity.RoleManager, identity.UserTypeAgency, nil},
		{"member@acme.test", "Milo Member", identity.RoleMember, identity.UserTypeAgency, nil},
		{"viewer@globex.test", "Gail Globex", identity.RoleMember, identity.UserTypeClient, &globexID},
	} {
		row := &userDatamodel.User{
			AgencyID:     agency.ID,
			Email:        u.Email,
			Name:         u.Name,
			PasswordHash: passwordHash,
			Role:         u.Role.String(),
			UserType:     string(u.UserType),
			ClientID:     u.ClientID,
			IsActive:     true,
		}
		if err := firstOrCreate(tx, row, "agency_id = ? AND email = ?", agency.ID, u.Email); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		users[u.Email] = row
		fmt.Printf("Seeded user: %s (%s/%s)\n", u.Email, u.Role, u.UserType)
	}

	grant := clientDatamodel.ClientUserAccess{UserID: users["member@acme.test"].ID, ClientID: globexID}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant).Error; err != nil {
		return fmt.Errorf("seed grant: %w", err)
	}
	fmt.Println("Granted member@acme.test access to Globex")
	return nil
}

// firstOrCreate loads the row matching the query into dst, inserting dst
// when nothing matches.
func firstOrCreate(tx *gorm.DB, dst any, query string, args ...any) error {
	err := tx.Where(query, args...).First(dst).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(dst).Error
}
