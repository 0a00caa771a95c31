package configs

import (
	"github.com/spf13/viper"
)

type Config struct {
	Port              string                  `json:"port" mapstructure:"port"`
	ENV               string                  `json:"env" mapstructure:"env"`
	MaxPoolSize       int                     `json:"max_pool_size" mapstructure:"max_pool_size"`
	MongoURI          string                  `json:"mongo_uri" mapstructure:"mongo_uri"`
	DatabaseName      string                  `json:"database_name" mapstructure:"database_name"`
	KafkaConfig       Kafka                   `json:"kafka_config" mapstructure:"kafka_config"`
	MQTTUri           MQTTUri                 `json:"mqtt_uri" mapstructure:"mqtt_uri"`
	FirebaseKey       string                  `json:"firebase_key" mapstructure:"firebase_key"`
	Telegram          Telegram                `json:"telegram" mapstructure:"telegram"`
	Tenants           map[string]TenantConfig `json:"tenants" mapstructure:"tenants"`
	SessionTTLSeconds int64                   `json:"session_ttl_seconds" mapstructure:"session_ttl_seconds"`
}

type Kafka struct {
	Zookeepers        string `json:"zookeepers" mapstructure:"zookeepers"`
	Brokers           string `json:"brokers" mapstructure:"brokers"`
	TransactionsTopic string `json:"transactions_topic" mapstructure:"transactions_topic"`
}

type MQTTUri struct {
	Uri      string `json:"uri" mapstructure:"uri"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Prefix   string `json:"prefix" mapstructure:"prefix"`
}

type Telegram struct {
	BotToken     string `json:"bot_token" mapstructure:"bot_token"`
	OpsChannelId int64  `json:"ops_channel_id" mapstructure:"ops_channel_id"`
}

// TenantConfig carries one tenant's rail credentials, endpoints and feature
// flags. Adapters hold a read-only reference to their slice of it for their
// lifetime; reloads go through the registry's Clear.
type TenantConfig struct {
	Enabled        bool                 `json:"enabled" mapstructure:"enabled"`
	Currency       string               `json:"currency" mapstructure:"currency"`
	Features       Features             `json:"features" mapstructure:"features"`
	InstantSwitch  InstantSwitchConfig  `json:"instant_switch" mapstructure:"instant_switch"`
	GovGateway     GovGatewayConfig     `json:"gov_gateway" mapstructure:"gov_gateway"`
	BillAggregator BillAggregatorConfig `json:"bill_aggregator" mapstructure:"bill_aggregator"`
	CardNetwork    CardNetworkConfig    `json:"card_network" mapstructure:"card_network"`
	VaultKeyHex    string               `json:"vault_key_hex" mapstructure:"vault_key_hex"`
	CoreBankingUri string               `json:"core_banking_uri" mapstructure:"core_banking_uri"`
}

type Features struct {
	QRPayments   bool `json:"qr_payments" mapstructure:"qr_payments"`
	BillPayments bool `json:"bill_payments" mapstructure:"bill_payments"`
	Airtime      bool `json:"airtime" mapstructure:"airtime"`
	Cards        bool `json:"cards" mapstructure:"cards"`
	TapToPay     bool `json:"tap_to_pay" mapstructure:"tap_to_pay"`
}

type InstantSwitchConfig struct {
	Uri        string `json:"uri" mapstructure:"uri"`
	ClientCode string `json:"client_code" mapstructure:"client_code"`
	Secret     string `json:"secret" mapstructure:"secret"`
}

type GovGatewayConfig struct {
	Uri                 string `json:"uri" mapstructure:"uri"`
	ServiceCode         string `json:"service_code" mapstructure:"service_code"`
	PrivateKeyPem       string `json:"private_key_pem" mapstructure:"private_key_pem"`
	GatewayPublicKeyPem string `json:"gateway_public_key_pem" mapstructure:"gateway_public_key_pem"`
	// Sandbox skips response signature verification. Production tenants must
	// never set this; the adapter logs loudly whenever it takes effect.
	Sandbox bool `json:"sandbox" mapstructure:"sandbox"`
}

type BillAggregatorConfig struct {
	Uri          string   `json:"uri" mapstructure:"uri"`
	ApiKey       string   `json:"api_key" mapstructure:"api_key"`
	Secret       string   `json:"secret" mapstructure:"secret"`
	SignedFields []string `json:"signed_fields" mapstructure:"signed_fields"`
}

type CardNetworkConfig struct {
	Uri                 string `json:"uri" mapstructure:"uri"`
	ClientId            string `json:"client_id" mapstructure:"client_id"`
	Secret              string `json:"secret" mapstructure:"secret"`
	NetworkPublicKeyPem string `json:"network_public_key_pem" mapstructure:"network_public_key_pem"`
}

func LoadConfig() (*Config, error) {
	viper.AddConfigPath("./")
	viper.SetConfigType("json")
	viper.SetConfigName("config.json")
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	result := &Config{}
	err = viper.Unmarshal(result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// LoadTestConfig load config for running tests
func LoadTestConfig(configPath string) (*Config, error) {
	viper.AddConfigPath(configPath)
	viper.SetConfigType("json")
	viper.SetConfigName("config_test.json")
	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}
	result := &Config{}
	err = viper.Unmarshal(result)
	if err != nil {
		return nil, err
	}
	return result, nil
}
