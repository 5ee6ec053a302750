package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	brerrors "github.com/cadre-oss/brains/internal/errors"
)

var (
	cfgFile string
	verbose bool
	plain   bool
)

var rootCmd = &cobra.Command{
	Use:   "brains",
	Short: "Multi-agent project assistant",
	Long: `brains - a project brain and its specialists, with long-term memory.

A coordinating agent summarises each request, consults the relevant
specialists (product, algorithm, architecture by default) and
synthesises their feedback into one answer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Errors are printed with their suggestion.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./brains.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&plain, "plain", false, "print answers without markdown rendering")
	pf.String("provider", "", "model provider override (openai, anthropic, gemini)")
	pf.String("model", "", "model name override")
	pf.String("memory-driver", "", "memory backend override (sqlite, redis, mem0, memory)")
	pf.String("user", "", "user id (default from config)")
	pf.String("session", "", "session id (default from config)")
	pf.String("timeout", "", "per-request timeout, e.g. 2m (default from config)")

	for _, name := range []string{"provider", "model", "memory-driver", "user", "session", "timeout"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig wires BRAINS_* environment variables into viper, so that
// BRAINS_PROVIDER=gemini behaves like --provider gemini.
func initConfig() {
	viper.SetEnvPrefix("BRAINS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = os.Getenv("BRAINS_CONFIG")
	}
}

func printError(err error) {
	failStyle.Fprintf(os.Stderr, "Error: %v\n", err)
	if s := brerrors.Suggestion(err); s != "" {
		fmt.Fprintf(os.Stderr, "  → %s\n", s)
	}
}
