package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags binds configuration keys to flags of fs. Bindings are made when
// a command runs, so commands sharing a key (render and watch both set
// render.output) each bind their own flag.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("no flag %q to bind to %s", name, key)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
	}
	return nil
}

// validateFormat checks an output format against the supported set.
func validateFormat(format string, supported ...string) error {
	for _, s := range supported {
		if strings.EqualFold(format, s) {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(supported, ", "))
}
