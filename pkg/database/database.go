package database

import (
	"fmt"
	"log"
	"petopia_backend/internal/config"
	"petopia_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate 执行建表与默认数据写入，测试库也走同一入口
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Pet{},
		&model.GameAttempt{},
		&model.PointsRecord{},
		&model.Coupon{},
		&model.CouponType{},
		&model.Setting{},
		&model.Checkin{},
	)
	if err != nil {
		return err
	}

	seedDefaults(db)
	return nil
}

// seedDefaults 首次启动写入默认券种目录
func seedDefaults(db *gorm.DB) {
	var count int64
	db.Model(&model.CouponType{}).Count(&count)
	if count == 0 {
		defaultTypes := []model.CouponType{
			{Code: "adventure_lv3_win", Title: "冒险大师券", Description: "通关第 3 关冒险获得", Enabled: true},
			{Code: "grooming_discount", Title: "美容折扣券", Description: "宠物美容服务抵扣", Enabled: true},
			{Code: "snack_voucher", Title: "零食兑换券", Description: "兑换一份宠物零食", Enabled: true},
		}
		for _, t := range defaultTypes {
			db.Create(&t)
		}
	}
}
