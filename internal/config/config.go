package config

import (
	"flag"
	"io/ioutil"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
	"moff.io/moff-wallet/internal/chains"
	"moff.io/moff-wallet/internal/walletconnect"
	"moff.io/moff-wallet/pkg/errors"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultPairingTimeout = 5 * time.Minute
	defaultLogLevel       = "info"
	defaultReportSilence  = time.Minute
)

// Configuration struct
type Configuration struct {
	LogLevel      string        `yaml:"log_level"`
	WalletConnect WalletConnect `yaml:"wallet_connect"`
	HTTP          HTTP          `yaml:"http"`
	Alarm         Alarm         `yaml:"alarm"`
}

type WalletConnect struct {
	// Infura project key substituted into the chain RPC urls.
	ProjectKey string `yaml:"project_key"`
	// Empty picks one of the public bridges per session.
	BridgeURL string `yaml:"bridge_url"`
	ChainID   int    `yaml:"chain_id"`
	// PairingTimeout bounds how long a connect waits for the wallet.
	PairingTimeout time.Duration            `yaml:"pairing_timeout"`
	ClientMeta     walletconnect.ClientMeta `yaml:"client_meta"`
	// QRCodePath receives the pairing QR as PNG when set.
	QRCodePath string `yaml:"qrcode_path"`
}

type HTTP struct {
	Address string `yaml:"address"`
}

type Alarm struct {
	SentryDSN   string `yaml:"sentry_dsn"`
	LarkWebhook string `yaml:"lark_webhook"`
	// ReportSilence is the minimum gap between two lark alarms of one stack.
	ReportSilence time.Duration `yaml:"report_silence"`
}

func (c *Configuration) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.WalletConnect.ChainID == 0 {
		c.WalletConnect.ChainID = chains.DefaultChainID
	}
	if c.WalletConnect.ProjectKey == "" {
		c.WalletConnect.ProjectKey = chains.DefaultProjectKey
	}
	if c.WalletConnect.PairingTimeout <= 0 {
		c.WalletConnect.PairingTimeout = defaultPairingTimeout
	}
	if c.WalletConnect.ClientMeta.Name == "" {
		c.WalletConnect.ClientMeta.Name = "moff-wallet"
	}
	if c.Alarm.ReportSilence <= 0 {
		c.Alarm.ReportSilence = defaultReportSilence
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = defaultHTTPAddress
	}
}

func (c *Configuration) validate() error {
	if _, ok := chains.Get(c.WalletConnect.ChainID); !ok {
		return errors.Errorf("unsupported chain id %d", c.WalletConnect.ChainID)
	}
	return nil
}

// Parse decodes a yaml document and fills the defaults.
func Parse(data []byte) (*Configuration, error) {
	c := &Configuration{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads the configuration file at path.
func Load(path string) (*Configuration, error) {
	dat, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(dat)
}

var Global *Configuration

// Read reads configuration information from yml.
func Read() {
	configFilePath := flag.String("config-path", "internal/config/config.yml", "The path to the configuration file")
	flag.Parse()
	logrus.Infof("Loading configuration file from %s", *configFilePath)
	globalConfig, err := Load(*configFilePath)
	if err != nil {
		logrus.Fatal(err)
	}
	Global = globalConfig
}
