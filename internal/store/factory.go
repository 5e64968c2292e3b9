/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store

import (
	"fmt"

	"github.com/camposur/agroguardian/internal/config"
)

// NewStore creates a store based on configuration
func NewStore(cfg *config.StorageConfig) (Store, error) {
	if cfg == nil {
		return NewGormStore("sqlite", "/data/agroguardian.db")
	}

	switch cfg.Type {
	case "sqlite", "":
		path := cfg.SQLite.Path
		if path == "" {
			path = "/data/agroguardian.db"
		}
		return NewGormStore("sqlite", path)

	case "postgres":
		pg := cfg.PostgreSQL
		if pg.Host == "" || pg.Database == "" {
			return nil, fmt.Errorf("postgres host and database are required when type is postgres")
		}
		sslMode := pg.SSLMode
		if sslMode == "" {
			sslMode = "require"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			pg.Host, pg.Port, pg.Username, pg.Password, pg.Database, sslMode)
		return NewGormStore("postgres", dsn)

	case "mysql":
		my := cfg.MySQL
		if my.Host == "" || my.Database == "" {
			return nil, fmt.Errorf("mysql host and database are required when type is mysql")
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			my.Username, my.Password, my.Host, my.Port, my.Database)
		return NewGormStore("mysql", dsn)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
