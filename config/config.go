/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"github.com/tomoncle/hummer-querydsl/database"
)

const EnvPrefix = "HUMMER"

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// AppConfig is the application configuration file layout.
type AppConfig struct {
	Database database.Config `mapstructure:"database"`
	Log      LogConfig       `mapstructure:"log"`
}

// Load reads path, if any, over the defaults. Every key can be overridden by
// an environment variable, e.g. HUMMER_DATABASE_CONNECTION_TYPE.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent
// from the file.
func setDefaults(v *viper.Viper) {
	mem := database.MemoryConfig()
	conn := mem.ConnectionConfig
	defaults := map[string]interface{}{
		"database.connection.type":                   conn.Type,
		"database.connection.host":                   "",
		"database.connection.port":                   0,
		"database.connection.username":               "",
		"database.connection.password":               "",
		"database.connection.dbname":                 conn.DBName,
		"database.connection.sslmode":                "disable",
		"database.connection.max_idle_conns":         conn.MaxIdleConns,
		"database.connection.max_open_conns":         conn.MaxOpenConns,
		"database.connection.conn_max_lifetime":      conn.ConnMaxLifetime,
		"database.connection.conn_max_idle_time":     conn.ConnMaxIdleTime,
		"database.connection.connect_timeout":        conn.ConnectTimeout,
		"database.connection.read_timeout":           conn.ReadTimeout,
		"database.connection.write_timeout":          conn.WriteTimeout,
		"database.connection.enable_reconnect":       conn.EnableReconnect,
		"database.connection.reconnect_interval":     conn.ReconnectInterval,
		"database.connection.max_reconnect_tries":    conn.MaxReconnectTries,
		"database.connection.health_check_interval":  conn.HealthCheckInterval,
		"database.connection.enable_query_log":       conn.EnableQueryLog,
		"database.connection.slow_query_time":        conn.SlowQueryTime,
		"database.migrate.enable_migrate_on_startup": mem.DataMigrateConfig.EnableMigrateOnStartup,
		"database.migrate.enable_foreign_key":        mem.DataMigrateConfig.EnableForeignKey,
		"database.init.auto_init_on_startup":         false,
		"database.init.fixtures_file":                "",
		"log.level":                                  "info",
		"log.format":                                 "text",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}
