package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cadre-oss/brains/internal/config"
)

var (
	initProfiles string
	initForce    bool
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter brains.yaml",
	Long: `Write a commented starter brains.yaml into dir (default: the current
directory). Use --profiles-file to also write the default agent table to a
separate file that you can edit.

The provider and memory backend follow --provider and --memory-driver.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initProfiles, "profiles-file", "", "also write the agent table to this file (e.g. agents.yaml)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	opts := config.StarterOptions{
		Provider:     viper.GetString("provider"),
		MemoryDriver: viper.GetString("memory-driver"),
		ProfilesFile: initProfiles,
	}
	written, err := config.WriteStarter(dir, opts, initForce)
	for _, path := range written {
		success("wrote %s", path)
	}
	if err != nil {
		return err
	}

	if err := ensureGitignore(dir); err != nil {
		warning("could not update .gitignore: %v", err)
	}

	provider := opts.Provider
	if provider == "" {
		provider = "openai"
	}
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintf(w, "  1. export %s=...\n", config.APIKeyEnv(provider))
	fmt.Fprintln(w, "  2. brains doctor")
	fmt.Fprintln(w, "  3. brains chat")
	return nil
}

// ensureGitignore keeps the local memory database out of version control.
func ensureGitignore(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	const entry = ".brains/"

	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == entry {
			return nil
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return err
		}
	}
	_, err = f.WriteString(entry + "\n")
	return err
}
