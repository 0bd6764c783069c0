// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
// 所有字段均可通过 FRISK_ 前缀的环境变量覆盖（层级用下划线分隔）。
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Entra    EntraConfig    `mapstructure:"entra"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 存储认证与授权相关的配置。
// SuperUserGroupID 为空时，超级用户旁路永远不生效。
type AuthConfig struct {
	Secret           string `mapstructure:"secret"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	SuperUserGroupID string `mapstructure:"super_user_group_id"`
}

// EntraConfig 存储访问 Microsoft Graph（团队目录）所需的凭据与行为参数。
type EntraConfig struct {
	TenantID        string `mapstructure:"tenant_id"`
	ClientID        string `mapstructure:"client_id"`
	ClientSecret    string `mapstructure:"client_secret"`
	BaseURL         string `mapstructure:"base_url"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	CacheTTLMinutes int    `mapstructure:"cache_ttl_minutes"`
}

// CORSConfig 存储允许跨域访问的主机列表。
type CORSConfig struct {
	AllowedHosts []string `mapstructure:"allowed_hosts"`
}

// CleanupConfig 存储 functions_history 定期清理任务的参数。
type CleanupConfig struct {
	IntervalWeeks       int `mapstructure:"interval_weeks"`
	DeleteOlderThanDays int `mapstructure:"delete_older_than_days"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
// 缺少必填项时直接 panic，保证进程快速失败而不是带着残缺配置运行。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("FRISK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}

	if err := Conf.validate(); err != nil {
		panic(err)
	}
}

// validate 检查运行所必需的配置项。
func (c Config) validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"database.mysql.dsn", c.Database.MySQL.DSN},
		{"auth.secret", c.Auth.Secret},
		{"auth.issuer", c.Auth.Issuer},
		{"auth.audience", c.Auth.Audience},
		{"entra.tenant_id", c.Entra.TenantID},
		{"entra.client_id", c.Entra.ClientID},
		{"entra.client_secret", c.Entra.ClientSecret},
	}
	var missing []string
	for _, item := range required {
		if item.value == "" {
			missing = append(missing, item.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("缺少必填配置项: %s", strings.Join(missing, ", "))
	}
	return nil
}
