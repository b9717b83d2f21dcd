package bundl

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "A rule-driven front-end bundler"
	MsgBuildShort      = "Bundle the project into the output directory"
	MsgWatchShort      = "Build, then rebuild on every change"
	MsgDispatchShort   = "Show which rule and pipeline handle each path"
	MsgRulesShort      = "List the effective rules"
	MsgCheckShort      = "Report rule conflicts found in the rule examples"
	MsgConfigShort     = "Print the effective configuration"
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"

	// Status messages
	MsgBuilding       = "Building"
	MsgBuildDone      = "Compiled successfully in %s"
	MsgRebuildDone    = "Rebuilt in %s"
	MsgWatching       = "Watching %s for changes"
	MsgNoConflicts    = "No conflicts: every example lands on its rule."
	MsgConflictsFound = "%d conflict(s) found"
	MsgUnhandledFound = "%d file(s) are not handled by any rule"
	MsgAllHandled     = "All %d file(s) are handled."

	// Error messages
	MsgErrLoadConfig = "failed to load configuration: %w"
	MsgErrMetrics    = "failed to write metrics: %w"
	MsgErrConflicts  = "rule check failed with %d conflict(s)"
	MsgErrUnhandled  = "%d file(s) are not handled by any rule"

	// Flag descriptions
	MsgFlagVerbose     = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig      = "Read the project configuration from this file"
	MsgFlagContext     = "Project directory (default: current directory)"
	MsgFlagMode        = "Build mode: development, production or none"
	MsgFlagColor       = "Color output: auto, always or never"
	MsgFlagMetricsFile = "Write Prometheus metrics to this file after each build"
	MsgFlagFormat      = "Output format: toml, yaml or json"
	MsgFlagRulesFormat = "Output format: table, toml, yaml or json"
	MsgFlagStrict      = "Fail on any conflict"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/build-long.txt
	msgBuildLongRaw string
	MsgBuildLong    = strings.TrimSpace(msgBuildLongRaw)

	//go:embed msgs/build-example.txt
	msgBuildExampleRaw string
	MsgBuildExample    = strings.TrimRight(msgBuildExampleRaw, "\n")

	//go:embed msgs/watch-long.txt
	msgWatchLongRaw string
	MsgWatchLong    = strings.TrimSpace(msgWatchLongRaw)

	//go:embed msgs/dispatch-long.txt
	msgDispatchLongRaw string
	MsgDispatchLong    = strings.TrimSpace(msgDispatchLongRaw)

	//go:embed msgs/dispatch-example.txt
	msgDispatchExampleRaw string
	MsgDispatchExample    = strings.TrimRight(msgDispatchExampleRaw, "\n")

	//go:embed msgs/rules-long.txt
	msgRulesLongRaw string
	MsgRulesLong    = strings.TrimSpace(msgRulesLongRaw)

	//go:embed msgs/check-long.txt
	msgCheckLongRaw string
	MsgCheckLong    = strings.TrimSpace(msgCheckLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
