package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func TestSetAllConfig(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	var output string
	var path string
	var excludes []string
	flags.StringVar(&output, "output", "dashboard_data", "")
	flags.StringVar(&path, "path", "data", "")
	flags.StringSliceVar(&excludes, "exclude-artists", nil, "")

	t.Setenv("SPINDASH_OUTPUT", "from_env")
	t.Setenv("SPINDASH_EXCLUDE_ARTISTS", "a,b")
	// An explicit flag outranks the environment.
	if err := flags.Set("path", "from_flag"); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPINDASH_PATH", "ignored")

	if err := setAllConfig(viper.New(), flags, "SPINDASH"); err != nil {
		t.Fatalf("setting config: %v", err)
	}

	if output != "from_env" {
		t.Errorf("expected env to fill output, got %q", output)
	}
	if path != "from_flag" {
		t.Errorf("expected flag to outrank env, got %q", path)
	}
	if len(excludes) != 2 || excludes[0] != "a" || excludes[1] != "b" {
		t.Errorf("expected env slice [a b], got %v", excludes)
	}
}
