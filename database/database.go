package database

import (
	"fmt"
	"macrotrack-go-worker/models"
	"macrotrack-go-worker/utils"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
)

var Mysql *gorm.DB

// InitDatabasePool opens the shared MySQL pool if it is not already open.
func InitDatabasePool() error {
	if Mysql != nil {
		if err := Mysql.DB().Ping(); err == nil {
			return nil
		}
		Mysql.Close()
	}

	conf := utils.EnvConfig.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", conf.User, conf.Password, conf.Host, conf.Port, conf.Db, conf.Params)
	db, err := gorm.Open(conf.Client, dsn)
	if err != nil {
		return fmt.Errorf("open %s database %s@%s: %w", conf.Client, conf.Db, conf.Host, err)
	}

	db.DB().SetMaxIdleConns(int(conf.MaxIdle))
	db.DB().SetMaxOpenConns(int(conf.MaxOpenConn))
	db.DB().SetConnMaxLifetime(utils.ParseDuration(conf.MaxLifeTime, 5*time.Minute))
	db.LogMode(conf.LogEnable == 1)

	if conf.AutoMigrate == 1 {
		if err := Migrate(db); err != nil {
			db.Close()
			return err
		}
	}

	Mysql = db
	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Meal{},
		&models.FoodItem{},
		&models.DailyGoal{},
		&models.MonthlyGoal{},
		&models.FoodCorrection{},
		&models.GoalProgress{},
		&models.ActivityData{},
		&models.ActivityLog{},
	).Error
}
