// Package config layers an optional config file and KEYSWEEP_* environment
// variables under the command line flags. Precedence, highest first: explicit
// flags, environment, config file, flag defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment variables, so the flag --chunk-size
// is settable as KEYSWEEP_CHUNK_SIZE.
const EnvPrefix = "KEYSWEEP"

// Load reads cfgFile (or the default search path when empty) plus the
// environment, and applies values to every flag the user did not set
// explicitly. An explicit cfgFile must exist; the default locations are
// optional.
func Load(cmd *cobra.Command, cfgFile string) error {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("keysweep")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
			bindErr = fmt.Errorf("failed to apply %s from config: %w", f.Name, err)
		}
	})
	return bindErr
}
