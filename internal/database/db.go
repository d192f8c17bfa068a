package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hotel-booking-engine/internal/config"
)

// DSN builds the driver connection string for c.
func DSN(c config.DBConfig) string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Pass
	mc.Net = "tcp"
	mc.Addr = c.Host + ":" + c.Port
	mc.DBName = c.Name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	// the driver issues SET for unknown params on every new connection,
	// so every pooled session starts with the configured lock wait
	if c.LockWait > 0 {
		mc.Params["innodb_lock_wait_timeout"] = strconv.Itoa(lockWaitSeconds(c.LockWait))
	}
	return mc.FormatDSN()
}

// lockWaitSeconds rounds d up to whole seconds, the unit InnoDB accepts.
func lockWaitSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// Open connects to MySQL and verifies the connection.
func Open(c config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(c))
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql at %s: %w", c.Host, err)
	}
	return db, nil
}
