package cmds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/spf13/cobra"

	"github.com/fraugster/parquet-catalog/internal/config"
	"github.com/fraugster/parquet-catalog/publish"
	"github.com/fraugster/parquet-catalog/storage"
)

// Execute runs the command line tool and returns the process exit code.
func Execute(ctx context.Context) int {
	env := &environment{stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(env).ExecuteContext(ctx); err != nil {
		env.logger().Error("Failed to execute command", "error", err)
		return 1
	}
	return 0
}

type rootFlags struct {
	configPath string
	logLevel   string
	region     string
	profile    string
	endpoint   string
	pathStyle  bool
	prefetch   string
}

func newRootCmd(env *environment) *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "parquet-catalog",
		Short:         "parquet-catalog derives external table definitions from parquet datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			required := cmd.Flags().Changed("config")
			cfg, err := config.Load(flags.configPath, required)
			if err != nil {
				return err
			}
			flags.applyTo(cmd, cfg)
			return env.init(cfg)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultPath(), "path of the YAML configuration file")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.region, "region", "", "AWS region")
	pf.StringVar(&flags.profile, "profile", "", "AWS shared config profile")
	pf.StringVar(&flags.endpoint, "endpoint", "", "endpoint of an S3 compatible object store")
	pf.BoolVar(&flags.pathStyle, "path-style", false, "use path-style addressing for S3")
	pf.StringVar(&flags.prefetch, "prefetch", "64KiB", "bytes read from the end of remote files in one request, e.g. 256KiB")

	rootCmd.SetOut(env.stdout)
	rootCmd.SetErr(env.stderr)

	rootCmd.AddCommand(
		newGenerateCmd(env),
		newSchemaCmd(env),
		newPartitionsCmd(env),
	)

	return rootCmd
}

// applyTo copies the flags given on the command line over the configuration.
func (f *rootFlags) applyTo(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = f.logLevel
	}
	if changed("region") {
		cfg.AWS.Region = f.region
	}
	if changed("profile") {
		cfg.AWS.Profile = f.profile
	}
	if changed("endpoint") {
		cfg.AWS.S3Endpoint = f.endpoint
	}
	if changed("path-style") {
		cfg.AWS.S3PathStyle = f.pathStyle
	}
	if changed("prefetch") || cfg.Prefetch == "" {
		cfg.Prefetch = f.prefetch
	}
}

// environment carries what the commands share once the configuration is
// loaded.
type environment struct {
	stdout io.Writer
	stderr io.Writer

	cfg      *config.Config
	log      *slog.Logger
	prefetch int64

	// The constructors below are replaced in tests.
	newBucket func(ctx context.Context, loc storage.Location, cfg storage.Config) (storage.Bucket, error)
	newGlue   func(*glue.Client) publish.GlueAPI
	newAthena func(*athena.Client) publish.AthenaAPI
}

func (e *environment) init(cfg *config.Config) error {
	prefetch, err := storage.ParseSize(cfg.Prefetch)
	if err != nil {
		return fmt.Errorf("invalid prefetch size: %w", err)
	}

	e.cfg = cfg
	e.prefetch = prefetch
	e.log = slog.New(slog.NewTextHandler(e.stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if e.newBucket == nil {
		e.newBucket = storage.NewBucket
	}
	return nil
}

func (e *environment) glueClient(c *glue.Client) publish.GlueAPI {
	if e.newGlue != nil {
		return e.newGlue(c)
	}
	return c
}

func (e *environment) athenaClient(c *athena.Client) publish.AthenaAPI {
	if e.newAthena != nil {
		return e.newAthena(c)
	}
	return c
}

func (e *environment) logger() *slog.Logger {
	if e.log == nil {
		return slog.New(slog.NewTextHandler(e.stderr, nil))
	}
	return e.log
}

func (e *environment) bucket(ctx context.Context, loc storage.Location) (storage.Bucket, error) {
	sc := storage.Config{
		Prefetch:              e.prefetch,
		S3Endpoint:            e.cfg.AWS.S3Endpoint,
		S3PathStyle:           e.cfg.AWS.S3PathStyle,
		GCSCredentialsFile:    e.cfg.GCS.CredentialsFile,
		AzureAccountName:      e.cfg.Azure.AccountName,
		AzureAccountKey:       e.cfg.Azure.AccountKey,
		AzureConnectionString: e.cfg.Azure.ConnectionString,
	}

	if loc.Scheme == storage.SchemeS3 {
		awsCfg, err := e.cfg.AWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		sc.AWS = awsCfg
	}

	e.log.Debug("Opening bucket", "scheme", loc.Scheme, "bucket", loc.Bucket)
	return e.newBucket(ctx, loc, sc)
}
