// Command ruleconf resolves the effective configuration of a rule engine run.
//
// Usage:
//
//	ruleconf resolve [flags]              - Print every effective property
//	ruleconf get <qualified-key> [flags]  - Print one effective property
//	ruleconf generate-config [path]       - Write the bundled default configuration
//	ruleconf status                       - Show ruleconfd status
//
// Examples:
//
//	ruleconf resolve -c base.yml,team.yml --build-upon-default-config
//	ruleconf get style>MagicNumber>active -r detekt.yml --classpath rules.jar
//	ruleconf resolve -c detekt.yml --fail-fast -o yaml
//
// Later --config files take precedence over earlier ones. --config-resource
// names are looked up on --classpath and ignored when --config is given.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lc/ruleconf/internal/baseline"
	"github.com/lc/ruleconf/internal/buildinfo"
	"github.com/lc/ruleconf/internal/config"
	"github.com/lc/ruleconf/internal/filesys"
	"github.com/lc/ruleconf/internal/log"
	"github.com/lc/ruleconf/internal/resolve"
	"github.com/lc/ruleconf/internal/resource"
	"github.com/lc/ruleconf/internal/socket"
	"github.com/lc/ruleconf/pkg/api"
	"github.com/lc/ruleconf/pkg/client"
)

type flags struct {
	paths       []string
	resources   []string
	classpath   string
	buildUpon   bool
	failFast    bool
	autoCorrect bool
	remote      bool
	socketPath  string
	output      string
	debug       bool
}

func (f *flags) request() api.ResolveRequest {
	return api.ResolveRequest{
		ConfigPaths:            f.paths,
		ConfigResources:        f.resources,
		Classpath:              resource.SplitClasspath(f.classpath),
		BuildUponDefaultConfig: f.buildUpon,
		FailFast:               f.failFast,
		AutoCorrect:            f.autoCorrect,
	}
}

// values resolves locally, or through the daemon with --remote.
func (f *flags) values(keys []string) (map[string]any, string, error) {
	if f.remote {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		req := f.request()
		req.Keys = keys
		// The daemon resolves relative paths against its own working directory.
		req.ConfigPaths = absPaths(req.ConfigPaths)
		req.Classpath = absPaths(req.Classpath)
		resp, err := client.New(f.socketPath).Resolve(ctx, req)
		if err != nil {
			return nil, "", err
		}
		return resp.Values, resp.Fingerprint, nil
	}

	cfg, err := resolve.New().Resolve(f.request().Options())
	if err != nil {
		return nil, "", err
	}
	if len(keys) == 0 {
		return config.Flatten(cfg), config.Fingerprint(cfg), nil
	}
	out := map[string]any{}
	for _, k := range keys {
		if v, ok := config.LookupPath(cfg, k); ok {
			out[k] = v
		}
	}
	return out, config.Fingerprint(cfg), nil
}

func main() {
	f := &flags{}

	root := &cobra.Command{
		Use:   "ruleconf",
		Short: "Resolve layered rule engine configuration",
		Long: `ruleconf merges declared configuration documents, optionally on top of the
bundled default configuration, and applies fail-fast and autocorrect policies.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.SetDebug(f.debug)
		},
	}
	pf := root.PersistentFlags()
	pf.StringSliceVarP(&f.paths, "config", "c", nil, "configuration files, later files take precedence")
	pf.StringSliceVarP(&f.resources, "config-resource", "r", nil, "configuration resource names looked up on the classpath")
	pf.StringVar(&f.classpath, "classpath", os.Getenv(resource.ClasspathEnv), "directories and archives searched for resources")
	pf.BoolVar(&f.buildUpon, "build-upon-default-config", false, "fall back to the default configuration for undeclared properties")
	pf.BoolVar(&f.failFast, "fail-fast", false, "activate every rule not explicitly disabled and validate declared properties")
	pf.BoolVar(&f.autoCorrect, "auto-correct", false, "allow rules to auto correct")
	pf.BoolVar(&f.remote, "remote", false, "resolve through a running ruleconfd")
	pf.StringVar(&f.socketPath, "socket", socket.DefaultPath(), "ruleconfd socket path")
	pf.BoolVar(&f.debug, "debug", false, "enable debug logging")

	// ---- resolve command ----
	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if f.output == "yaml" && !f.remote {
				cfg, err := resolve.New().Resolve(f.request().Options())
				if err != nil {
					return err
				}
				out, err := yaml.Marshal(config.Tree(cfg))
				if err != nil {
					return fmt.Errorf("encoding configuration: %w", err)
				}
				fmt.Print(string(out))
				return nil
			}

			values, fingerprint, err := f.values(nil)
			if err != nil {
				return err
			}
			if f.output == "yaml" {
				out, err := yaml.Marshal(values)
				if err != nil {
					return fmt.Errorf("encoding configuration: %w", err)
				}
				fmt.Print(string(out))
				return nil
			}
			renderTable(values)
			color.New(color.Faint).Printf("fingerprint: %s\n", fingerprint)
			return nil
		},
	}
	resolveCmd.Flags().StringVarP(&f.output, "output", "o", "table", "output format: table or yaml")

	// ---- get command ----
	getCmd := &cobra.Command{
		Use:     "get <qualified-key>",
		Short:   "Print one effective property",
		Example: "ruleconf get 'complexity>LongMethod>threshold' --build-upon-default-config",
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			values, _, err := f.values(args)
			if err != nil {
				return err
			}
			v, ok := values[args[0]]
			if !ok {
				return fmt.Errorf("%s is not set", args[0])
			}
			fmt.Println(formatValue(v))
			return nil
		},
	}

	// ---- generate-config command ----
	var force bool
	generateCmd := &cobra.Command{
		Use:   "generate-config [path]",
		Short: "Write the bundled default configuration to a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dst := "ruleconf.yml"
			if len(args) == 1 {
				dst = args[0]
			}
			osfs := filesys.OS()
			if _, err := osfs.Stat(dst); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", dst)
			}
			if err := filesys.AtomicWrite(osfs, dst, baseline.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", dst, err)
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ Wrote default configuration %s to %s\n", baseline.Version, dst)
			return nil
		},
	}
	generateCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	// ---- status command ----
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show ruleconfd status",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			st, err := client.New(f.socketPath).Status(ctx)
			if err != nil {
				if errors.Is(err, socket.ErrNotRunning) {
					color.Yellow("ruleconfd is not running.")
					return nil
				}
				return err
			}
			fmt.Printf("version:  %s (%s)\n", st.Version, st.Commit)
			fmt.Printf("baseline: %s\n", st.BaselineVersion)
			fmt.Printf("uptime:   %s\n", st.Uptime.Round(time.Second))
			fmt.Printf("mounts:   %d (created %d, reused %d, failed %d)\n",
				st.Mounts.Mounts, st.Mounts.Created, st.Mounts.Reused, st.Mounts.Failures)
			return nil
		},
	}

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
			fmt.Printf("baseline: %s\n", baseline.Version)
		},
	}

	root.AddCommand(resolveCmd, getCmd, generateCmd, statusCmd, versionCmd)
	err := root.Execute()
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func absPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p
		if abs, err := filepath.Abs(p); err == nil {
			out[i] = abs
		}
	}
	return out
}

func renderTable(values map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Property", "Value"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
	)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetColumnColor(
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
		tablewriter.Colors{tablewriter.FgGreenColor},
	)
	for _, k := range keys {
		table.Append([]string{k, formatValue(values[k])})
	}
	table.Render()
}

func formatValue(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = fmt.Sprint(item)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
