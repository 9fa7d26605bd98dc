package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// testJWTSecret 测试环境未配置 JWT_SECRET 时使用的固定密钥
const testJWTSecret = "bloodbank-test-secret"

// Load 加载配置
//  1. 根据 APP_ENV 加载 .env.{env}
//  2. 加载 {env}.yaml
//  3. 环境变量覆盖
func Load() *Config {
	env := parseEnv(getEnv("APP_ENV", "dev"))
	loadEnvFiles(env)
	// .env 文件中可能重新指定 APP_ENV
	env = parseEnv(getEnv("APP_ENV", string(env)))

	yamlCfg, loadedFrom := loadYAMLConfig(env)

	db := yamlCfg.Database
	if d := os.Getenv("DATABASE_DRIVER"); d != "" {
		db.Driver = d
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		db.URI = uri
	}
	if name := firstEnv("DATABASE_NAME", "MONGO_DB_NAME"); name != "" {
		db.Name = name
	}
	if path := os.Getenv("SQLITE_PATH"); path != "" {
		db.Path = path
	}
	db.Password = firstEnv("DB_PASSWORD", "MONGO_ROOT_PASSWORD")

	databaseURL := os.Getenv("DATABASE_URL")
	driver := detectDatabaseDriver(db.Driver, databaseURL)
	db.Driver = driver
	if databaseURL == "" {
		databaseURL = buildDatabaseURL(db, db.Password)
	}

	auth := yamlCfg.Auth
	auth.JWTSecret = os.Getenv("JWT_SECRET")
	if auth.JWTSecret == "" && env == EnvTest {
		auth.JWTSecret = testJWTSecret
	}
	if cost, err := strconv.Atoi(os.Getenv("BCRYPT_COST")); err == nil {
		auth.BcryptCost = cost
	}

	logCfg := yamlCfg.Log
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		logCfg.Level = lvl
	}
	if f := os.Getenv("LOG_FORMAT"); f != "" {
		logCfg.Format = f
	}

	return &Config{
		Env:            env,
		DatabaseDriver: driver,
		DatabaseURL:    databaseURL,
		DatabaseDBName: db.Name,
		APIPort:        firstNonEmpty(firstEnv("API_PORT", "PORT"), yamlCfg.APIServer.Port),
		Auth:           auth,
		Log:            logCfg,
		ConfigFilePath: loadedFrom,
	}
}

// defaultYAMLConfig 代码默认值
func defaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		APIServer: APIServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Name:    "bloodbank",
			Host:    "localhost",
			SSLMode: "disable",
		},
		Auth: AuthConfig{BcryptCost: 10},
		Log:  LogConfig{Level: "info", Format: "json"},
	}
}

// loadYAMLConfig 加载 YAML 配置文件
// 加载顺序：默认值 → {env}.yaml；返回实际加载的文件路径
func loadYAMLConfig(env Environment) (*YAMLConfig, string) {
	cfg := defaultYAMLConfig()

	path := findConfigFile(env)
	if path == "" {
		return cfg, ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, ""
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: config: parse %s failed: %v\n", path, err)
		return defaultYAMLConfig(), ""
	}
	return cfg, path
}

// Validate 启动前校验
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.APIPort == "" {
		return errors.New("api_server.port is required")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("auth.bcrypt_cost out of range: %d", c.Auth.BcryptCost)
	}
	return nil
}

// IsTest 是否为测试环境
func (c *Config) IsTest() bool {
	return c.Env == EnvTest
}

// String 返回配置摘要（隐藏密码）
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Driver: %s, DB: %s, Port: %s}",
		c.Env, c.DatabaseDriver, maskPassword(c.DatabaseURL), c.APIPort)
}
