package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/brains/internal/config"
	"github.com/cadre-oss/brains/internal/service"
)

var doctorOffline bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and configuration",
	Long:  "Validate the configuration, the API key, the model provider and the memory backend.",
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "skip the provider reachability check")
}

type checker struct {
	failed int
}

func (c *checker) ok(label, format string, a ...any) {
	fmt.Printf("  %-10s %s ", label+":", fmt.Sprintf(format, a...))
	okStyle.Println("✓")
}

func (c *checker) fail(label, detail, hint string) {
	c.failed++
	fmt.Printf("  %-10s %s ", label+":", detail)
	failStyle.Println("✗")
	if hint != "" {
		stepStyle.Printf("    → %s\n", hint)
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("brains doctor - checking your environment")
	fmt.Println()
	c := &checker{}

	c.ok("Go", "%s", runtime.Version())
	c.ok("Platform", "%s/%s", runtime.GOOS, runtime.GOARCH)

	cfg, err := loadConfig()
	if err != nil {
		c.fail("Config", err.Error(), "Run 'brains init' to write a starter brains.yaml")
		return summary(c)
	}
	if _, statErr := os.Stat(configPath()); statErr == nil {
		c.ok("Config", "%s", configPath())
	} else {
		c.ok("Config", "built-in defaults (no %s)", configPath())
	}

	if err := config.Validate(cfg); err != nil {
		c.fail("Validate", err.Error(), "Run 'brains config validate' for details")
	} else if reg, err := cfg.Registry(); err == nil {
		c.ok("Agents", "%d, coordinator %s", len(reg.All()), reg.Coordinator())
	}

	keyEnv := config.APIKeyEnv(cfg.Provider.Name)
	if key := cfg.Provider.APIKey; key != "" {
		c.ok("API key", "%s set (%s)", keyEnv, mask(key))
	} else {
		c.fail("API key", keyEnv+" not set", "export "+keyEnv+"=...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !doctorOffline && cfg.Provider.APIKey != "" {
		p, err := service.NewProvider(ctx, cfg.Provider)
		if err == nil {
			err = service.VerifyProvider(ctx, p)
		}
		if err != nil {
			c.fail("Provider", err.Error(), "Check provider.base_url and the API key")
		} else {
			c.ok("Provider", "%s reachable", cfg.Provider.Name)
		}
	}

	store, err := service.OpenStore(cfg.Memory, cfg.Dir())
	if err == nil {
		err = store.Ping(ctx)
		_ = store.Close()
	}
	if err != nil {
		c.fail("Memory", err.Error(), "Check the memory section of brains.yaml")
	} else {
		c.ok("Memory", "%s", cfg.Memory.Driver)
	}

	return summary(c)
}

func summary(c *checker) error {
	fmt.Println()
	if c.failed == 0 {
		okStyle.Println("All checks passed!")
		return nil
	}
	return fmt.Errorf("%d check(s) failed", c.failed)
}
