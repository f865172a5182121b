package tester

import (
	"os"
	"path/filepath"

	"github.com/emrgen/manual/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	testPath string
	db       *gorm.DB
)

// Setup opens a fresh sqlite database in a temporary directory and migrates it.
func Setup() {
	RemoveDBFile()

	_ = os.Setenv("ENV", "test")

	var err error
	testPath, err = os.MkdirTemp("", "manual-test-")
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(filepath.Join(testPath, "manual.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

func RemoveDBFile() {
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		db = nil
	}

	if testPath == "" {
		return
	}

	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
	testPath = ""
}
