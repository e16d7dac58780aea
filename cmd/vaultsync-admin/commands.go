package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	redisadapter "github.com/Liad-hossain/test-voice-export/internal/adapters/redis"
	"github.com/Liad-hossain/test-voice-export/internal/bootstrap"
	"github.com/Liad-hossain/test-voice-export/internal/domain/model"
	"github.com/Liad-hossain/test-voice-export/internal/domain/naming"
	"github.com/dustin/go-humanize"
)

func runFindExport(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("find-export", flag.ContinueOnError)
	matter := fs.String("matter", cmdCtx.Config.Vault.MatterID, "matter id to inspect")
	timeout := fs.Duration("timeout", time.Minute, "lookup timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, *timeout)
	defer cancel()

	finder, err := bootstrap.NewJobFinder(ctx, &cmdCtx.Config, cmdCtx.Logger)
	if err != nil {
		return err
	}
	job, ok, err := finder.FindCompleted(ctx, *matter)
	if err != nil {
		return err
	}
	return printExport(cmdCtx.Out, *matter, job, ok)
}

func printExport(w io.Writer, matterID string, job model.ExportJob, ok bool) error {
	if !ok {
		return writef(w, "No completed export for matter %s\n", matterID)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "Export:\t%s\nName:\t%s\nStatus:\t%s\n", job.ID, job.Name, job.Status); err != nil {
		return err
	}
	for i, blob := range job.Blobs {
		marker := ""
		if i == 0 {
			marker = " (retrieved)"
		}
		size := "unknown"
		if blob.Size > 0 {
			size = humanize.IBytes(uint64(blob.Size))
		}
		if err := writef(tw, "File %d:\t%s\t%s%s\n", i+1, blob.String(), size, marker); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runLockStatus(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("lock-status", flag.ContinueOnError)
	matter := fs.String("matter", cmdCtx.Config.Vault.MatterID, "matter id whose lock to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cmdCtx.Config.RunLock.IsEnabled() {
		return errors.New("run lock is disabled; set RUN_LOCK_ENABLED and RUN_LOCK_REDIS_URI")
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 30*time.Second)
	defer cancel()

	client, err := bootstrap.ConnectRedis(ctx, cmdCtx.Config.RunLock, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", closeErr)
		}
	}()

	lock := redisadapter.NewRunLockWithPrefix(client, cmdCtx.Config.RunLock.Prefix)
	holder, err := lock.Holder(ctx, *matter)
	if err != nil {
		return err
	}
	remaining, err := lock.Remaining(ctx, *matter)
	if err != nil {
		return err
	}
	return printLockStatus(cmdCtx.Out, *matter, holder, remaining)
}

func printLockStatus(w io.Writer, matterID, holder string, remaining time.Duration) error {
	if holder == "" {
		return writef(w, "Matter %s: unlocked\n", matterID)
	}
	return writef(w, "Matter %s: locked by %s, expires in %s\n", matterID, holder, remaining.Round(time.Second))
}

func runDeriveName(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("derive-name", flag.ContinueOnError)
	at := fs.String("at", "", "RFC 3339 instant to name against (default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("derive-name needs at least one member file name")
	}

	var clock naming.Clock = naming.RealClock{}
	if *at != "" {
		t, err := time.Parse(time.RFC3339Nano, *at)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
		clock = naming.NewFixedClock(t)
	}

	deriver := naming.NewDeriver(clock)
	for _, base := range fs.Args() {
		if err := writef(cmdCtx.Out, "%s\t%s\n", base, deriver.Name(base)); err != nil {
			return err
		}
	}
	return nil
}
