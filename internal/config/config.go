// Package config loads the settings of the parquet-catalog tool from a YAML
// file, a .env file and the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "PQCATALOG_"

// AWS holds the settings shared by the S3, Glue and Athena clients.
type AWS struct {
	Region          string `yaml:"region,omitempty"`
	Profile         string `yaml:"profile,omitempty"`
	AccessKeyID     string `yaml:"access-key-id,omitempty"`
	SecretAccessKey string `yaml:"secret-access-key,omitempty"`
	SessionToken    string `yaml:"session-token,omitempty"`
	// S3Endpoint points the S3 client to an S3 compatible store.
	S3Endpoint  string `yaml:"s3-endpoint,omitempty"`
	S3PathStyle bool   `yaml:"s3-path-style,omitempty"`
}

// GCS holds the Google Cloud Storage settings.
type GCS struct {
	CredentialsFile string `yaml:"credentials-file,omitempty"`
}

// Azure holds the Azure Blob Storage settings.
type Azure struct {
	AccountName      string `yaml:"account-name,omitempty"`
	AccountKey       string `yaml:"account-key,omitempty"`
	ConnectionString string `yaml:"connection-string,omitempty"`
}

// Athena holds the settings of the partition repair query.
type Athena struct {
	ResultsBucket string `yaml:"results-bucket,omitempty"`
	Workgroup     string `yaml:"workgroup,omitempty"`
}

// Config is the tool configuration. Command line flags override it.
type Config struct {
	LogLevel       string `yaml:"log-level,omitempty"`
	Prefetch       string `yaml:"prefetch,omitempty"`
	DataFilePrefix string `yaml:"data-file-prefix,omitempty"`
	Database       string `yaml:"database,omitempty"`

	AWS    AWS    `yaml:"aws,omitempty"`
	GCS    GCS    `yaml:"gcs,omitempty"`
	Azure  Azure  `yaml:"azure,omitempty"`
	Athena Athena `yaml:"athena,omitempty"`
}

// DefaultPath returns ~/.parquet-catalog.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".parquet-catalog.yaml")
}

// Load reads the configuration. A .env file in the working directory is
// loaded into the environment first; then the YAML file at path is read,
// where a missing file is only an error if required is set; finally
// PQCATALOG_* variables and the standard AWS_REGION/AWS_PROFILE variables
// override the file.
func Load(path string, required bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, names ...string) {
		for _, name := range names {
			if v, ok := lookup(name); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.LogLevel, EnvPrefix+"LOG_LEVEL")
	set(&c.Prefetch, EnvPrefix+"PREFETCH")
	set(&c.DataFilePrefix, EnvPrefix+"DATA_FILE_PREFIX")
	set(&c.Database, EnvPrefix+"DATABASE")

	set(&c.AWS.Region, EnvPrefix+"AWS_REGION", "AWS_REGION", "AWS_DEFAULT_REGION")
	set(&c.AWS.Profile, EnvPrefix+"AWS_PROFILE", "AWS_PROFILE")
	set(&c.AWS.AccessKeyID, EnvPrefix+"AWS_ACCESS_KEY_ID")
	set(&c.AWS.SecretAccessKey, EnvPrefix+"AWS_SECRET_ACCESS_KEY")
	set(&c.AWS.SessionToken, EnvPrefix+"AWS_SESSION_TOKEN")
	set(&c.AWS.S3Endpoint, EnvPrefix+"S3_ENDPOINT")
	if v, ok := lookup(EnvPrefix + "S3_PATH_STYLE"); ok {
		c.AWS.S3PathStyle = strings.EqualFold(v, "true") || v == "1"
	}

	set(&c.GCS.CredentialsFile, EnvPrefix+"GCS_CREDENTIALS_FILE", "GOOGLE_APPLICATION_CREDENTIALS")

	set(&c.Azure.AccountName, EnvPrefix+"AZURE_ACCOUNT_NAME", "AZURE_STORAGE_ACCOUNT")
	set(&c.Azure.AccountKey, EnvPrefix+"AZURE_ACCOUNT_KEY", "AZURE_STORAGE_KEY")
	set(&c.Azure.ConnectionString, EnvPrefix+"AZURE_CONNECTION_STRING", "AZURE_STORAGE_CONNECTION_STRING")

	set(&c.Athena.ResultsBucket, EnvPrefix+"RESULTS_BUCKET")
	set(&c.Athena.Workgroup, EnvPrefix+"WORKGROUP")
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// HasStaticAWSCredentials reports whether an access key pair is configured.
func (c *Config) HasStaticAWSCredentials() bool {
	return c.AWS.AccessKeyID != "" && c.AWS.SecretAccessKey != ""
}

// AWSConfig loads the SDK configuration. Static credentials take precedence
// over the default credential chain.
func (c *Config) AWSConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if c.AWS.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.AWS.Region))
	}
	if c.AWS.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(c.AWS.Profile))
	}
	if c.HasStaticAWSCredentials() {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AWS.AccessKeyID, c.AWS.SecretAccessKey, c.AWS.SessionToken),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}
