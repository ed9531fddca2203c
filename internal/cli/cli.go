// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"projviz/internal/config"
	"projviz/internal/output"
	"projviz/internal/scan"
	"projviz/internal/server"
	"projviz/internal/services/clipboard"
	"projviz/internal/types"
	"projviz/internal/utils"
)

const (
	pathFlagName         = "path"
	outputFlagName       = "output"
	listFlagName         = "list"
	ignoreFlagName       = "ignore"
	noIgnoreFileFlagName = "no-ignore-file"
	copyFlagName         = "copy"
	jsonFileFlagName     = "json-file"
	hostFlagName         = "host"
	portFlagName         = "port"
	versionFlagName      = "version"

	versionTemplate       = "projviz version: %s\n"
	defaultScanPath       = "."
	defaultOutputFileName = "project_structure.json"

	rootUse              = "projviz"
	rootShortDescription = "projviz command line interface"
	rootLongDescription  = `projviz scans a project directory into a deterministic tree model,
detects the web framework from marker files, and serves the result
through a browser UI with file preview.`

	scanUse              = "scan"
	scanShortDescription = "scan a project directory into a JSON document"
	scanLongDescription  = `Walk a project directory, applying ignore rules, and write the
resulting tree with scan metadata to a JSON document.`
	scanUsageExample = `  # Scan the current directory
  projviz scan

  # Scan with extra ignore patterns and print the listing
  projviz scan --path ./myproject --ignore "*.log" --list`

	serveUse              = "serve"
	serveShortDescription = "serve a scanned project in the browser"
	serveLongDescription  = `Load a previously written scan document and serve it over HTTP with
an interactive tree UI and file preview.`
	serveUsageExample = `  # Serve the default document on the default port
  projviz serve

  # Serve a specific document on another port
  projviz serve --json-file out.json --port 9000`

	runUse              = "run"
	runShortDescription = "scan a project and serve it in one command"

	pathFlagDescription         = "path to the project directory"
	outputFlagDescription       = "output JSON file name"
	listFlagDescription         = "print every entry in tree order while scanning"
	ignoreFlagDescription       = "additional ignore pattern (repeatable)"
	noIgnoreFileFlagDescription = "do not read " + config.IgnoreFileName + " from the project root"
	copyFlagDescription         = "copy the rendered listing to the clipboard"
	jsonFileFlagDescription     = "JSON file with the project structure"
	hostFlagDescription         = "host to bind the server to"
	portFlagDescription         = "port to run the server on"
	versionFlagDescription      = "display application version"

	frameworkNoneLabel = "none"

	messageSavedFormat      = "Project structure saved to %s\n"
	messageFrameworkFormat  = "Detected framework: %s\n"
	messageProjectFormat    = "Project name: %s\n"
	messageScanReportFormat = "Scan report: nodes=%d (directories=%d, files=%d), root_children=%d, duration=%dms\n"
	messageServerFormat     = "Starting visualization server on http://%s\n"
	warningFormat           = "Warning: %s\n"
	warningClipboardFormat  = "Warning: copying listing to clipboard: %v\n"
	errorDocumentMissing    = "scan document %s not found, run 'projviz scan' first"
	errorConfigFormat       = "loading configuration: %w"
)

// Execute runs the projviz application.
func Execute() error {
	return createRootCommand().Execute()
}

func createRootCommand() *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		createScanCommand(),
		createServeCommand(),
		createRunCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// scanOptions stores flag values for the scan command. Empty values fall
// back to the configuration file and then to built-in defaults.
type scanOptions struct {
	projectPath    string
	outputPath     string
	listEntries    bool
	ignorePatterns []string
	disableIgnFile bool
	copyListing    bool
}

// serveOptions stores flag values for the serve command.
type serveOptions struct {
	documentPath string
	host         string
	port         int
}

func addScanFlags(command *cobra.Command, options *scanOptions) {
	command.Flags().StringVar(&options.projectPath, pathFlagName, defaultScanPath, pathFlagDescription)
	command.Flags().StringVarP(&options.outputPath, outputFlagName, "o", "", outputFlagDescription)
	command.Flags().StringArrayVar(&options.ignorePatterns, ignoreFlagName, nil, ignoreFlagDescription)
	command.Flags().BoolVar(&options.disableIgnFile, noIgnoreFileFlagName, false, noIgnoreFileFlagDescription)
}

func addServeFlags(command *cobra.Command, options *serveOptions) {
	command.Flags().StringVar(&options.host, hostFlagName, "", hostFlagDescription)
	command.Flags().IntVarP(&options.port, portFlagName, "p", 0, portFlagDescription)
}

func createScanCommand() *cobra.Command {
	var options scanOptions

	scanCommand := &cobra.Command{
		Use:     scanUse,
		Short:   scanShortDescription,
		Long:    scanLongDescription,
		Example: scanUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			applicationConfiguration, configError := config.LoadApplicationConfiguration(config.LoadOptions{})
			if configError != nil {
				return fmt.Errorf(errorConfigFormat, configError)
			}
			_, runError := runScan(options, applicationConfiguration)
			return runError
		},
	}

	addScanFlags(scanCommand, &options)
	scanCommand.Flags().BoolVar(&options.listEntries, listFlagName, false, listFlagDescription)
	scanCommand.Flags().BoolVar(&options.copyListing, copyFlagName, false, copyFlagDescription)
	return scanCommand
}

func createServeCommand() *cobra.Command {
	var options serveOptions

	serveCommand := &cobra.Command{
		Use:     serveUse,
		Short:   serveShortDescription,
		Long:    serveLongDescription,
		Example: serveUsageExample,
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			applicationConfiguration, configError := config.LoadApplicationConfiguration(config.LoadOptions{})
			if configError != nil {
				return fmt.Errorf(errorConfigFormat, configError)
			}
			return runServe(options, applicationConfiguration)
		},
	}

	serveCommand.Flags().StringVarP(&options.documentPath, jsonFileFlagName, "j", "", jsonFileFlagDescription)
	addServeFlags(serveCommand, &options)
	return serveCommand
}

func createRunCommand() *cobra.Command {
	var scanConfiguration scanOptions
	var serveConfiguration serveOptions

	runCommand := &cobra.Command{
		Use:   runUse,
		Short: runShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			applicationConfiguration, configError := config.LoadApplicationConfiguration(config.LoadOptions{})
			if configError != nil {
				return fmt.Errorf(errorConfigFormat, configError)
			}
			outputPath, runError := runScan(scanConfiguration, applicationConfiguration)
			if runError != nil {
				return runError
			}
			serveConfiguration.documentPath = outputPath
			return runServe(serveConfiguration, applicationConfiguration)
		},
	}

	addScanFlags(runCommand, &scanConfiguration)
	addServeFlags(runCommand, &serveConfiguration)
	return runCommand
}

// runScan performs a scan with the effective options and writes the JSON
// document. It returns the output path so the run command can chain serve.
func runScan(options scanOptions, applicationConfiguration config.ApplicationConfiguration) (string, error) {
	outputPath := options.outputPath
	if outputPath == "" {
		outputPath = applicationConfiguration.Scan.Output
	}
	if outputPath == "" {
		outputPath = defaultOutputFileName
	}

	useIgnoreFile := !options.disableIgnFile
	if useIgnoreFile && applicationConfiguration.Scan.UseIgnoreFile != nil {
		useIgnoreFile = *applicationConfiguration.Scan.UseIgnoreFile
	}

	absoluteRoot, absoluteError := filepath.Abs(options.projectPath)
	if absoluteError != nil {
		return "", fmt.Errorf("resolving %s: %w", options.projectPath, absoluteError)
	}

	extraPatterns := append([]string{}, applicationConfiguration.Scan.Ignore...)
	extraPatterns = append(extraPatterns, options.ignorePatterns...)
	ignorePatterns, patternsError := config.LoadCombinedIgnorePatterns(absoluteRoot, extraPatterns, useIgnoreFile)
	if patternsError != nil {
		return "", patternsError
	}

	scanConfiguration := scan.Options{
		IgnorePatterns: ignorePatterns,
		Warn: func(message string) {
			fmt.Fprintf(os.Stderr, warningFormat, message)
		},
	}
	if options.listEntries {
		scanConfiguration.Visit = func(node *types.Node, depth int) {
			fmt.Println(output.FormatListingLine(node, depth))
		}
	}

	startedAt := time.Now()
	result, scanError := scan.Scan(absoluteRoot, scanConfiguration)
	if scanError != nil {
		return "", scanError
	}
	scanDuration := time.Since(startedAt)

	document, marshalError := output.MarshalScanResult(result)
	if marshalError != nil {
		return "", marshalError
	}
	if writeError := os.WriteFile(outputPath, document, 0o644); writeError != nil {
		return "", fmt.Errorf("writing %s: %w", outputPath, writeError)
	}

	fmt.Printf(messageSavedFormat, outputPath)
	fmt.Printf(messageFrameworkFormat, frameworkLabel(result.Framework))
	fmt.Printf(messageProjectFormat, result.Root.Name)

	totals := result.Totals()
	fmt.Printf(messageScanReportFormat,
		totals.Nodes(), totals.Directories, totals.Files,
		len(result.Root.Children), scanDuration.Milliseconds())

	if options.copyListing {
		if copyError := clipboard.NewService().Copy(output.RenderListing(result)); copyError != nil {
			fmt.Fprintf(os.Stderr, warningClipboardFormat, copyError)
		}
	}
	return outputPath, nil
}

// runServe loads a persisted scan document and blocks serving it until
// interrupted.
func runServe(options serveOptions, applicationConfiguration config.ApplicationConfiguration) error {
	documentPath := options.documentPath
	if documentPath == "" {
		documentPath = applicationConfiguration.Scan.Output
	}
	if documentPath == "" {
		documentPath = defaultOutputFileName
	}

	documentData, readError := os.ReadFile(documentPath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return fmt.Errorf(errorDocumentMissing, documentPath)
		}
		return fmt.Errorf("reading %s: %w", documentPath, readError)
	}
	result, unmarshalError := output.UnmarshalScanResult(documentData)
	if unmarshalError != nil {
		return unmarshalError
	}

	serverConfiguration := server.Config{
		Host:        options.host,
		Port:        options.port,
		CORSOrigins: applicationConfiguration.Serve.CORSOrigins,
	}
	if serverConfiguration.Host == "" {
		serverConfiguration.Host = applicationConfiguration.Serve.Host
	}
	if serverConfiguration.Port <= 0 && applicationConfiguration.Serve.Port != nil {
		serverConfiguration.Port = *applicationConfiguration.Serve.Port
	}
	if applicationConfiguration.Serve.PreviewMaxBytes != nil {
		serverConfiguration.PreviewMaxBytes = *applicationConfiguration.Serve.PreviewMaxBytes
	}

	logger, loggerError := utils.NewApplicationLogger()
	if loggerError != nil {
		return fmt.Errorf("creating logger: %w", loggerError)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visualizationServer := server.New(serverConfiguration, result, logger)
	return visualizationServer.Run(ctx, func(address string) {
		fmt.Printf(messageServerFormat, address)
	})
}

func frameworkLabel(framework types.Framework) string {
	if framework == types.FrameworkNone {
		return frameworkNoneLabel
	}
	return string(framework)
}
