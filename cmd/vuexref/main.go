// vuexref checks string references to Vuex store symbols (actions,
// mutations, getters, state) against the store declared in a project.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	_ "github.com/spetr/vuexref/builtin"
	"github.com/spetr/vuexref/internal/index"
)

var (
	version   = "0.1.0"
	cfgFile   string
	logLevel  string
	logFormat string
)

func main() {
	index.ToolVersion = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "vuexref",
	Short: "Check Vuex store references in Vue projects",
	Long: `vuexref resolves the string references a Vue project makes to its Vuex
store and reports the ones that do not exist.

It understands:
- dispatch and commit calls, including handler contexts and root calls
- mapState, mapGetters, mapMutations, mapActions and createNamespacedHelpers
- vuex-class decorators (@Action, @Getter, namespace('x'))
- getters[...] and state[...] indexed access
- namespaced modules, imported module files and Nuxt store directories`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vuexref %s\n", version)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Extract the store model of a project",
	Long:  `Extract the store model of a project into the store index. If no path is provided, indexes the current directory.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		runIndex(path, force)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Report store references that do not resolve",
	Long: `Index the project in the current directory and report unresolved store
references. Without arguments every project file is checked. The exit code is
non-zero when diagnostics reach the analysis.fail_on threshold.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		failOn, _ := cmd.Flags().GetString("fail-on")
		soft, _ := cmd.Flags().GetBool("soft")
		runCheck(args, format, failOn, soft)
	},
}

var refsCmd = &cobra.Command{
	Use:   "refs <file>",
	Short: "List the store references in a file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		line, _ := cmd.Flags().GetInt("line")
		format, _ := cmd.Flags().GetString("format")
		runRefs(args[0], line, format)
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols",
	Short: "List declared store symbols",
	Run: func(cmd *cobra.Command, args []string) {
		namespace, _ := cmd.Flags().GetString("namespace")
		recursive, _ := cmd.Flags().GetBool("recursive")
		kind, _ := cmd.Flags().GetString("kind")
		query, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		runSymbols(namespace, recursive, kind, query, limit, format)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch for file changes, re-index and re-check automatically",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		debounce, _ := cmd.Flags().GetInt("debounce")
		runWatch(path, debounce)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server on stdio",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigInit()
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigValidate()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		runConfigShow()
	},
}

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "Plugin management",
}

var pluginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available store index plugins",
	Run: func(cmd *cobra.Command, args []string) {
		runPluginList()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: .vuexref/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	indexCmd.Flags().Bool("force", false, "re-index even if no file changed")

	checkCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	checkCmd.Flags().String("fail-on", "", "override analysis.fail_on (error, warning, never)")
	checkCmd.Flags().Bool("soft", false, "also report unresolved soft references")

	refsCmd.Flags().IntP("line", "l", 0, "only references on this line")
	refsCmd.Flags().StringP("format", "f", "text", "output format (text, json)")

	symbolsCmd.Flags().StringP("namespace", "n", "", "namespace to list, e.g. cart/")
	symbolsCmd.Flags().BoolP("recursive", "r", false, "include nested namespaces")
	symbolsCmd.Flags().StringP("kind", "k", "", "symbol kind (action, mutation, getter, state)")
	symbolsCmd.Flags().StringP("query", "q", "", "substring of the qualified name")
	symbolsCmd.Flags().Int("limit", 0, "maximum results (0 = all)")
	symbolsCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml)")

	watchCmd.Flags().Int("debounce", 500, "debounce time in milliseconds")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)

	pluginCmd.AddCommand(pluginListCmd)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(refsCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(pluginCmd)
}

func setupLogging() {
	var level slog.Level
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
