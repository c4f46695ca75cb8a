package server

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// bindOverrides binds flags to configuration keys, but only when the flag was
// set explicitly so that config files keep precedence over flag defaults.
func bindOverrides(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag '%s': %w", flag, err)
		}
	}
	return nil
}
