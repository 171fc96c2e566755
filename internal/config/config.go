package config

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"automations/internal/security"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/viper"
)

const (
	DefaultAPIVersion    = "2025-01"
	DefaultHTTPTimeout   = 20 * time.Second
	MinHTTPTimeout       = time.Second
	DefaultPubSubProject = "shop-automations"
)

// Config holds settings shared by every Lambda in this module.
type Config struct {
	Shopify ShopifyConfig
	Tables  TablesConfig
	Token   TokenConfig
	PubSub  PubSubConfig
	Alerts  AlertsConfig
	Log     LogConfig
}

type ShopifyConfig struct {
	APIVersion  string
	HTTPTimeout time.Duration
	// Single-tenant deployments pin one shop and token instead of using the store.
	Shop        string
	AccessToken string
}

type TablesConfig struct {
	Shops string
}

// TokenConfig locates the AES key used to encrypt stored access tokens.
// KeyParam (an SSM SecureString name) wins over KeyB64 when both are set.
type TokenConfig struct {
	KeyB64   string
	KeyParam string
}

type PubSubConfig struct {
	Project string
}

type AlertsConfig struct {
	TopicArn string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SHOPIFY_API_VERSION", DefaultAPIVersion)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	project := strings.TrimSpace(v.GetString("PUBSUB_PROJECT"))
	if project == "" {
		project = strings.TrimSpace(v.GetString("GCLOUD_PROJECT"))
	}
	if project == "" {
		project = DefaultPubSubProject
	}

	timeout, err := parseTimeout(v.GetString("SHOPIFY_HTTP_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("SHOPIFY_HTTP_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Shopify: ShopifyConfig{
			APIVersion:  strings.TrimSpace(v.GetString("SHOPIFY_API_VERSION")),
			HTTPTimeout: timeout,
			Shop:        strings.ToLower(strings.TrimSpace(v.GetString("SHOPIFY_SHOP"))),
			AccessToken: strings.TrimSpace(v.GetString("SHOPIFY_ACCESS_TOKEN")),
		},
		Tables: TablesConfig{
			Shops: strings.TrimSpace(v.GetString("SHOPS_TABLE")),
		},
		Token: TokenConfig{
			KeyB64:   strings.TrimSpace(v.GetString("TOKEN_ENC_KEY_B64")),
			KeyParam: strings.TrimSpace(v.GetString("TOKEN_ENC_KEY_PARAM")),
		},
		PubSub: PubSubConfig{Project: project},
		Alerts: AlertsConfig{
			TopicArn: strings.TrimSpace(v.GetString("ALERTS_TOPIC_ARN")),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
	return cfg, nil
}

// parseTimeout accepts a Go duration ("20s", "1m") or a bare number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultHTTPTimeout, nil
	}
	var d time.Duration
	if secs, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(secs) * time.Second
	} else if d, err = time.ParseDuration(raw); err != nil {
		return 0, err
	}
	if d < MinHTTPTimeout {
		return 0, fmt.Errorf("%s is below the %s minimum", d, MinHTTPTimeout)
	}
	return d, nil
}

// SingleTenant reports whether a static shop credential is configured.
func (c *Config) SingleTenant() bool {
	return c.Shopify.Shop != "" && c.Shopify.AccessToken != ""
}

// Validate checks the settings needed by the credential store.
func (c *Config) Validate() error {
	var errs []error
	if c.Shopify.APIVersion == "" {
		errs = append(errs, errors.New("SHOPIFY_API_VERSION not set"))
	}
	if !c.SingleTenant() {
		if c.Tables.Shops == "" {
			errs = append(errs, errors.New("SHOPS_TABLE not set"))
		}
		if c.Token.KeyB64 == "" && c.Token.KeyParam == "" {
			errs = append(errs, errors.New("TOKEN_ENC_KEY_B64 or TOKEN_ENC_KEY_PARAM must be set"))
		}
	}
	return errors.Join(errs...)
}

// ParameterGetter is the part of the SSM client used to resolve secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// TokenKey returns the 32-byte token encryption key, reading it from SSM when
// TOKEN_ENC_KEY_PARAM is configured.
func (c *Config) TokenKey(ctx context.Context, params ParameterGetter) ([]byte, error) {
	b64 := c.Token.KeyB64
	if name := c.Token.KeyParam; name != "" {
		if params == nil {
			return nil, fmt.Errorf("ssm client required for %s", name)
		}
		out, err := params.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("ssm get parameter %s: %w", name, err)
		}
		if out.Parameter == nil {
			return nil, fmt.Errorf("ssm parameter %s has no value", name)
		}
		b64 = strings.TrimSpace(aws.ToString(out.Parameter.Value))
	}
	if b64 == "" {
		return nil, errors.New("token encryption key not configured")
	}
	key, err := security.LoadKeyFromBase64(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid token encryption key: %w", err)
	}
	return key, nil
}
