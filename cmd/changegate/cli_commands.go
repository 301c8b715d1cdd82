// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/changegate/cmd/changegate/config"
	"github.com/AleutianAI/changegate/pkg/logging"
	"github.com/AleutianAI/changegate/services/gate/adapters"
	"github.com/AleutianAI/changegate/services/gate/audit"
	"github.com/AleutianAI/changegate/services/gate/constraints"
	"github.com/AleutianAI/changegate/services/gate/resources"
	"github.com/AleutianAI/changegate/services/gate/safety"
	"github.com/AleutianAI/changegate/services/gate/telemetry"
)

// errChangeRejected makes `changegate validate` exit non-zero for an
// invalid change without printing a usage screen.
var errChangeRejected = errors.New("change rejected")

var (
	rootCmd = &cobra.Command{
		Use:   "changegate",
		Short: "Safety gate for autonomous code changes",
		Long: `Changegate decides whether a machine-generated code modification is
permitted to proceed, under a declarative constraints document and live
resource ceilings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Runs the full validation pipeline over one proposed change",
		Long: `Loads the operating constraints, reads a proposed-change document, runs
the static gates and (if they pass) deep validation, prints the verdict,
and appends it to the audit store. Exits non-zero if the change is
rejected.`,
		RunE: runValidateCommand,
	}

	policyCmd = &cobra.Command{
		Use:   "policy",
		Short: "Inspect the file-access policy",
	}

	policyCheckCmd = &cobra.Command{
		Use:   "check [path...]",
		Short: "Classifies paths against the three file-access tiers",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPolicyCheckCommand,
	}

	auditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Inspect recorded validation verdicts",
	}

	auditListCmd = &cobra.Command{
		Use:   "list",
		Short: "Lists the verdicts recorded for a session",
		RunE:  runAuditListCommand,
	}

	usageCmd = &cobra.Command{
		Use:   "usage",
		Short: "Prints a resource usage report against the configured limits",
		Long: `Samples this process's memory usage, records it against the constraints
document's resource limits, and prints the per-dimension usage report. CPU
and disk gauges are left to the session supervisor's own sampler.`,
		RunE: runUsageCommand,
	}

	constraintsPath string
	changePath      string
	projectRoot     string
	sessionID       string
	dryRun          bool
)

func init() {
	validateCmd.Flags().StringVar(&constraintsPath, "constraints", "", "Path to the constraints yaml (defaults to the config file entry)")
	validateCmd.Flags().StringVar(&changePath, "change", "", "Path to the proposed-change yaml document")
	validateCmd.Flags().StringVar(&projectRoot, "project-root", "", "Project root the change targets (defaults to the config file entry)")
	validateCmd.Flags().StringVar(&sessionID, "session", "", "Session id for the audit record (generated when empty)")
	validateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Use fixture backends instead of real test/benchmark/lint runs")
	_ = validateCmd.MarkFlagRequired("change")

	policyCheckCmd.Flags().StringVar(&constraintsPath, "constraints", "", "Path to the constraints yaml (defaults to the config file entry)")
	policyCmd.AddCommand(policyCheckCmd)

	auditListCmd.Flags().StringVar(&sessionID, "session", "", "Session id to list")
	_ = auditListCmd.MarkFlagRequired("session")
	auditCmd.AddCommand(auditListCmd)

	usageCmd.Flags().StringVar(&constraintsPath, "constraints", "", "Path to the constraints yaml (defaults to the config file entry)")

	rootCmd.AddCommand(validateCmd, policyCmd, auditCmd, usageCmd)
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	if err := config.Load(); err != nil {
		return err
	}
	log := logging.New(logging.Config{
		Level:   logging.ParseLevel(config.Global.Logging.Level),
		LogDir:  config.Global.Logging.Dir,
		Service: "changegate",
	})
	defer func() { _ = log.Close() }()
	logger := log.Slog()

	if config.Global.Features.Tracing {
		if err := telemetry.Init(); err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		defer func() { _ = telemetry.Shutdown(context.Background()) }()
	}

	store, err := loadConstraints()
	if err != nil {
		return err
	}
	root := projectRoot
	if root == "" {
		root = config.Global.Gate.ProjectRoot
	}

	change, err := readChange(changePath)
	if err != nil {
		return err
	}
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger = telemetry.LoggerWithSession(cmd.Context(), logger, sessionID)

	opts := append([]safety.Option{safety.WithLogger(logger)}, deepValidationOptions(root)...)
	validator := safety.NewValidator(store, root, opts...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := validator.ValidateChange(ctx, change)

	out, err := yaml.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Print(string(out))

	if err := appendAudit(ctx, logger, change, result); err != nil {
		logger.Warn("failed to append audit record", slog.String("error", err.Error()))
	}

	if !result.Valid {
		return errChangeRejected
	}
	return nil
}

// deepValidationOptions wires the real adapters, or the fixture backends
// under --dry-run.
func deepValidationOptions(root string) []safety.Option {
	if dryRun {
		return []safety.Option{
			safety.WithTestValidator(&safety.MockTestValidator{}),
			safety.WithPerformanceValidator(&safety.MockPerformanceValidator{}),
			safety.WithQualityValidator(&safety.MockQualityValidator{}),
		}
	}
	return []safety.Option{
		safety.WithTestValidator(&adapters.GoTestRunner{ProjectRoot: root}),
		safety.WithPerformanceValidator(&adapters.GoBenchRunner{
			ProjectRoot:  root,
			BaselinePath: config.Global.Gate.BaselinePath,
		}),
		safety.WithQualityValidator(&adapters.GolangciRunner{ProjectRoot: root}),
	}
}

func runPolicyCheckCommand(cmd *cobra.Command, args []string) error {
	if err := config.Load(); err != nil {
		return err
	}
	store, err := loadConstraints()
	if err != nil {
		return err
	}
	for _, path := range args {
		fmt.Printf("%s\t%s\n", path, store.Classify(path))
	}
	return nil
}

func runUsageCommand(cmd *cobra.Command, args []string) error {
	if err := config.Load(); err != nil {
		return err
	}
	store, err := loadConstraints()
	if err != nil {
		return err
	}

	monitor := resources.NewMonitor(store.Limits())
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	monitor.RecordMemoryUsage(float64(ms.Alloc) / (1 << 20))

	out, err := yaml.Marshal(struct {
		Report resources.Report     `yaml:"report"`
		Check  resources.LimitCheck `yaml:"check"`
	}{
		Report: monitor.UsageReport(),
		Check:  monitor.CheckLimits(),
	})
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func runAuditListCommand(cmd *cobra.Command, args []string) error {
	if err := config.Load(); err != nil {
		return err
	}
	store, err := audit.Open(audit.Config{
		Path:       config.Global.Audit.Dir,
		SyncWrites: config.Global.Audit.SyncWrites,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s\t%s\t%s\tvalid=%t\t%s\n",
			rec.RecordedAt.Format("2006-01-02T15:04:05"),
			rec.ChangeID, rec.ChangeType, rec.Result.Valid, rec.Result.Reason)
	}
	return nil
}

func loadConstraints() (*constraints.Store, error) {
	path := constraintsPath
	if path == "" {
		path = config.Global.Gate.ConstraintsPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// No constraints file: fall back to the conservative defaults.
		return constraints.NewStore(constraints.Default())
	}
	return constraints.Load(path)
}

func readChange(path string) (*safety.ProposedChange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read change document: %w", err)
	}
	var change safety.ProposedChange
	if err := yaml.Unmarshal(data, &change); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the change document: %w", err)
	}
	return &change, nil
}

func appendAudit(ctx context.Context, logger *slog.Logger, change *safety.ProposedChange, result *safety.ValidationResult) error {
	store, err := audit.Open(audit.Config{
		Path:       config.Global.Audit.Dir,
		SyncWrites: config.Global.Audit.SyncWrites,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Append(ctx, &audit.Record{
		SessionID:  sessionID,
		ChangeID:   change.ID,
		ChangeType: change.Type,
		RiskLevel:  change.RiskLevel,
		Files:      change.Files,
		Result:     *result,
	})
}
