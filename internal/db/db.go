package db

import (
	"log"

	"campusboard/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// defaultNicknames 初始昵称词干，仅在 nicknames 表为空时写入
var defaultNicknames = []string{
	"Fox", "Wolf", "Owl", "Otter", "Panda", "Falcon", "Heron", "Lynx",
	"Badger", "Raven", "Koala", "Marten", "Bison", "Crane", "Gecko", "Puffin",
}

func Init(dsn string) {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	if err := Migrate(DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	if err := SeedNicknames(DB); err != nil {
		log.Printf("Failed to seed nicknames: %v", err)
	}
}

// Migrate 建表及唯一索引，顺序按外键依赖排列
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Country{},
		&models.School{},
		&models.College{},
		&models.Department{},
		&models.User{},
		&models.NicknameTemplate{},
		&models.Post{},
		&models.Comment{},
		&models.View{},
		&models.Reaction{},
	)
}

func SeedNicknames(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.NicknameTemplate{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Nicknames already seeded, skipping")
		return nil
	}

	templates := make([]models.NicknameTemplate, len(defaultNicknames))
	for i, name := range defaultNicknames {
		templates[i] = models.NicknameTemplate{Nickname: name}
	}
	if err := db.Create(&templates).Error; err != nil {
		return err
	}
	log.Printf("Seeded %d nickname templates", len(templates))
	return nil
}
