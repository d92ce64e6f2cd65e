package config

// Config 配置主体
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	DB           DBConfig           `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Mongo        MongoConfig        `mapstructure:"mongo"`
	Logstash     LogstashConfig     `mapstructure:"logstash"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Notification NotificationConfig `mapstructure:"notification"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	ChangeFeed   ChangeFeedConsumer `mapstructure:"change_feed"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// BackendConfig 托管后端的 RPC 入口
type BackendConfig struct {
	RPCURL  string `mapstructure:"rpc_url"`
	APIKey  string `mapstructure:"api_key"`
	Timeout int    `mapstructure:"timeout"`
}

// CacheConfig 缓存驱动与分级策略
type CacheConfig struct {
	Driver string                `mapstructure:"driver"` // memory | redis
	Tiers  map[string]TierConfig `mapstructure:"tiers"`
}

// TierConfig 单个缓存层级，单位秒
type TierConfig struct {
	StaleTime int `mapstructure:"stale_time"`
	Retention int `mapstructure:"retention"`
}

type NotificationConfig struct {
	WindowDays    int    `mapstructure:"window_days"`
	ListLimit     int    `mapstructure:"list_limit"`
	RetentionDays int    `mapstructure:"retention_days"`
	PurgeSpec     string `mapstructure:"purge_spec"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// ChangeFeedConsumer Canal 变更流消费配置
type ChangeFeedConsumer struct {
	Enabled  bool     `mapstructure:"enabled"`
	Topics   []string `mapstructure:"topics"`
	GroupID  string   `mapstructure:"group_id"`
	Database string   `mapstructure:"database"`
}
