package repositories

import (
	"log"

	"github.com/uncommondata/server/internal/config"
	"github.com/uncommondata/server/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDatabase() {
	dsn := config.Envs.DBURL

	var dialector gorm.Dialector
	switch config.Envs.DBDriver {
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		// sqlite keeps local development free of external services
		dialector = sqlite.Open(dsn)
	}

	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey so handlers can answer 400 instead of 500.
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	DB = db
	log.Println("Successfully connected to database")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Upload{},
	)
}
