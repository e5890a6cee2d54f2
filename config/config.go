package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileEnvName = "RECYCLED_CONFIG_FILE"
	envPrefix         = "RECYCLED"
)

type topics struct {
	ProductLookups string `mapstructure:"product_lookups"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	TLS                brokerTLS `mapstructure:"tls"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	PublicURL      string     `mapstructure:"public_url"`
	StaticDir      string     `mapstructure:"static_dir"`
	MaterialsFile  string     `mapstructure:"materials_file"`
	Broker         broker     `mapstructure:"broker"`
}

// LookupEventsEnabled reports whether lookup events are published.
func (c Config) LookupEventsEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0
}

func (t brokerTLS) Enabled() bool {
	return t.CA != "" || t.Cert != "" || t.Key != ""
}

// Load reads the configuration from the optional config file, .env and
// RECYCLED_* environment variables. The process exits when the
// configuration is invalid.
func Load() Config {
	cfg, err := load(os.Args[0], os.Args[1:])
	if err != nil {
		die(err)
	}
	return cfg
}

func load(name string, args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := getConfigFilepath(name, args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("sql_db", "")
	v.SetDefault("public_url", "")
	v.SetDefault("static_dir", "public")
	v.SetDefault("materials_file", "")
	v.SetDefault("broker.seed_brokers", []string{})
	v.SetDefault("broker.schema_registry_urls", []string{})
	v.SetDefault("broker.topics.product_lookups", "product-lookups")
	v.SetDefault("broker.tls.ca", "")
	v.SetDefault("broker.tls.cert", "")
	v.SetDefault("broker.tls.key", "")
}

func getConfigFilepath(name string, args []string) string {
	cmdLine := pflag.NewFlagSet(name, pflag.ContinueOnError)
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	arg := cmdLine.String("config", "", "config file")
	_ = cmdLine.Parse(args)
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func (c Config) validate() error {
	var errs []error

	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db: required"))
	} else if _, err := pgx.ParseConfig(c.SQLDB); err != nil {
		errs = append(errs, fmt.Errorf("sql_db: invalid connection string: %w", err))
	}

	if c.PublicURL == "" {
		errs = append(errs, errors.New("public_url: required"))
	} else if u, err := url.Parse(c.PublicURL); err != nil ||
		(u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("public_url: invalid absolute URL %q", c.PublicURL))
	}

	if c.HTTPServerAddr == "" {
		errs = append(errs, errors.New("http_server_addr: required"))
	}

	if c.LookupEventsEnabled() {
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls: required with seed_brokers"))
		}
		if c.Broker.Topics.ProductLookups == "" {
			errs = append(errs, errors.New("broker.topics.product_lookups: required with seed_brokers"))
		}
	}

	t := c.Broker.TLS
	if t.Enabled() && (t.CA == "" || t.Cert == "" || t.Key == "") {
		errs = append(errs, errors.New("broker.tls: ca, cert and key are required together"))
	}

	return errors.Join(errs...)
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q
	PublicURL=%q
	StaticDir=%q
	MaterialsFile=%q

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		ProductLookups=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		redactDSN(c.SQLDB),
		c.PublicURL,
		c.StaticDir,
		c.MaterialsFile,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.ProductLookups,
	)
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		if strings.Contains(dsn, "password") {
			return "***"
		}
		return dsn
	}
	return u.Redacted()
}
