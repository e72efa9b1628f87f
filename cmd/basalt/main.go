package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/basaltdb/basalt/pkg/config"
	"github.com/basaltdb/basalt/pkg/logger"
)

var version = "0.1.0"

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

func main() {
	root := &cobra.Command{
		Use:   "basalt",
		Short: "Basalt - embedded storage engine toolkit",
		Long: `Basalt is an embedded storage engine core: typed schema-bound rows with
binary and text codecs, arbitrary-precision decimals, and an LSM key
index. The CLI converts row data between formats, inspects schemas, and
manages index files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML configuration file (optional)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Basalt v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newIndexCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup layers configuration: defaults, then the config file, then
// BASALT_* environment variables, then flags.
func setup() error {
	cfg = config.DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("BASALT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	if n := v.GetInt64("lsm.memtable_bytes"); n > 0 {
		cfg.LSM.MemtableBytes = n
	}
	if n := v.GetInt("lsm.compaction_threshold"); n > 0 {
		cfg.LSM.CompactionThreshold = n
	}
	if s := v.GetString("text.delimiter"); s != "" {
		cfg.Text.Delimiter = s
	}
	if v.IsSet("text.quote") {
		cfg.Text.Quote = v.GetString("text.quote")
	}
	if v.IsSet("text.nil_token") {
		cfg.Text.NilToken = v.GetString("text.nil_token")
	}
	if s := v.GetString("log.level"); s != "" {
		cfg.Log.Level = s
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Encoding:    cfg.Log.Encoding,
		OutputPaths: cfg.Log.OutputPaths,
	})
}
