package storage

import (
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"shop-assistant/pkg/config"
)

// DB is the warehouse connection. It stays nil when mysql is not configured.
var DB *gorm.DB

func initMysql() error {
	if DB != nil {
		return nil
	}
	db, err := gorm.Open(mysql.Open(config.GetMysqlConf().DSN()))
	if err != nil {
		log.Errorf("db connect fail:%s", err.Error())
		return err
	}
	sqlDb, err := db.DB()
	if err != nil {
		return err
	}
	sqlDb.SetConnMaxLifetime(time.Hour * 6)
	sqlDb.SetMaxIdleConns(5)
	sqlDb.SetMaxOpenConns(20)
	if strings.Contains(config.GetRunMode(), "dev") {
		db = db.Debug()
	}
	DB = db
	log.Info("mysql connection success")
	return nil
}
