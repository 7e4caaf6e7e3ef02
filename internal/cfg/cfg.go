package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/product-catalog/pkg/e"
	"github.com/DRSN-tech/product-catalog/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Http      *HTTPConfig
	Grpc      *GRPCConfig
	Db        *PGDBCfg
	Redis     *RedisCfg
	Kafka     *KafkaCfg
	Users     *UsersCfg
	Inventory *InventoryCfg
	Telemetry *TelemetryCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
	OutboxBatchSize   int
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port                string
	NetworkMode         string
	HealthProbeInterval time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN возвращает строку подключения в формате key=value.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
}

// UsersCfg описывает подключение к сервису пользователей, который отвечает на вопрос о роли пользователя.
type UsersCfg struct {
	BaseURL        string
	RolePath       string        // шаблон пути, {userId} подставляется клиентом
	AuthTimeout    time.Duration // общий бюджет на принятие решения об авторизации
	RequestTimeout time.Duration // таймаут одной HTTP-попытки
	MaxRetries     int
	AdminRole      string
}

type InventoryCfg struct {
	LowStockThreshold int
}

type TelemetryCfg struct {
	Enabled     bool
	ServiceName string
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	grpc, err := loadGRPCConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	users, err := loadUsersCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	inventory, err := loadInventoryCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	telemetry, err := loadTelemetryCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:      http,
		Grpc:      grpc,
		Db:        db,
		Redis:     redis,
		Kafka:     kafka,
		Users:     users,
		Inventory: inventory,
		Telemetry: telemetry,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultOutboxBatchSize   = 10
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := strings.Split(brokerStr, ",")

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC environment variable is required")
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	batchSize, err := parseIntEnv("OUTBOX_BATCH_SIZE", defaultOutboxBatchSize)
	if err != nil {
		return nil, e.Wrap("OUTBOX_BATCH_SIZE", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		OutboxBatchSize:   batchSize,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig(log logger.Logger) (*GRPCConfig, error) {
	const (
		defaultPort          = "8091"
		defaultNetworkMode   = "tcp"
		defaultProbeInterval = 10 * time.Second
	)

	probeInterval, err := parseDurationEnv("GRPC_HEALTH_PROBE_INTERVAL", defaultProbeInterval)
	if err != nil {
		log.Errorf(err, "invalid GRPC_HEALTH_PROBE_INTERVAL")
		return nil, err
	}

	return &GRPCConfig{
		Port:                getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode:         getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
		HealthProbeInterval: probeInterval,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProductTTL   = 3 * time.Minute
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    password,
		User:        user,
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ProductTTL:  productTTL,
	}, nil
}

func loadUsersCfg(log logger.Logger) (*UsersCfg, error) {
	const (
		defaultBaseURL        = "http://localhost:8082"
		defaultRolePath       = "/api/users/{userId}"
		defaultAuthTimeout    = 2 * time.Second
		defaultRequestTimeout = 800 * time.Millisecond
		defaultMaxRetries     = 2
		defaultAdminRole      = "ADMIN"
	)

	authTimeout, err := parseDurationEnv("USERS_AUTH_TIMEOUT", defaultAuthTimeout)
	if err != nil {
		log.Errorf(err, "invalid USERS_AUTH_TIMEOUT")
		return nil, err
	}
	if authTimeout <= 0 {
		err := fmt.Errorf("%w: USERS_AUTH_TIMEOUT must be positive, got %s", e.ErrIncorrectEnvVariable, authTimeout)
		log.Errorf(err, "invalid USERS_AUTH_TIMEOUT")
		return nil, err
	}

	requestTimeout, err := parseDurationEnv("USERS_REQUEST_TIMEOUT", defaultRequestTimeout)
	if err != nil {
		log.Errorf(err, "invalid USERS_REQUEST_TIMEOUT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("USERS_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid USERS_MAX_RETRIES")
		return nil, err
	}

	// Пустая роль администратора означает запрет любых изменяющих операций.
	adminRole := getEnvOrDefault("ADMIN_ROLE", defaultAdminRole)

	return &UsersCfg{
		BaseURL:        strings.TrimRight(getEnvOrDefault("USERS_BASE_URL", defaultBaseURL), "/"),
		RolePath:       getEnvOrDefault("USERS_ROLE_PATH", defaultRolePath),
		AuthTimeout:    authTimeout,
		RequestTimeout: requestTimeout,
		MaxRetries:     maxRetries,
		AdminRole:      adminRole,
	}, nil
}

func loadInventoryCfg() (*InventoryCfg, error) {
	const defaultLowStockThreshold = 10

	threshold, err := parseIntEnv("LOW_STOCK_THRESHOLD", defaultLowStockThreshold)
	if err != nil {
		return nil, e.Wrap("LOW_STOCK_THRESHOLD", err)
	}
	if threshold < 0 {
		return nil, e.Wrap("LOW_STOCK_THRESHOLD", e.ErrIncorrectEnvVariable)
	}

	return &InventoryCfg{LowStockThreshold: threshold}, nil
}

func loadTelemetryCfg(log logger.Logger) (*TelemetryCfg, error) {
	const (
		defaultEnabled     = false
		defaultServiceName = "product-catalog"
	)

	enabled, err := strconv.ParseBool(getEnvOrDefault("OTEL_ENABLED", strconv.FormatBool(defaultEnabled)))
	if err != nil {
		log.Errorf(err, "invalid OTEL_ENABLED")
		return nil, err
	}

	return &TelemetryCfg{
		Enabled:     enabled,
		ServiceName: getEnvOrDefault("OTEL_SERVICE_NAME", defaultServiceName),
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
