package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	domerrors "github.com/campusnav/campus-navigator-go/internal/errors"
	"github.com/campusnav/campus-navigator-go/internal/r2client"
	"github.com/campusnav/campus-navigator-go/internal/snapshot"
)

const publishLockTTL = 10 * time.Minute

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the local database as the published snapshot",
	Long: `Write a consistent copy of the local database, compress it with zstd and
upload it to R2. Servers polling the snapshot pick it up on their next
check. A lock object keeps two publishers from racing.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.cfg.R2.Enabled {
		return errors.New("publish needs R2: set CAMPUS_R2_ENABLED=true and its credentials")
	}
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    e.cfg.R2Endpoint(),
		AccessKeyID: e.cfg.R2.AccessKeyID,
		SecretKey:   e.cfg.R2.SecretAccessKey,
		Bucket:      e.cfg.R2.BucketName,
	})
	if err != nil {
		return err
	}

	buildings, err := e.db.CountBuildings(ctx)
	if err != nil {
		return err
	}
	if buildings == 0 {
		return errors.New("refusing to publish an empty catalog, run seed first")
	}
	chunks, err := e.db.CountChunks(ctx)
	if err != nil {
		return err
	}
	if chunks == 0 {
		warn("No knowledge chunks: published servers will only answer location and route queries")
	}

	key := e.cfg.R2.SnapshotKey
	lock := r2client.NewLock(client, key+".lock", publishLockTTL)
	wrap := domerrors.NewWrapper("campusctl", "publish")
	ok, err := lock.TryAcquire(ctx)
	if err != nil {
		return wrap.Wrap(err, "Cannot reach R2 to take the publish lock")
	}
	if !ok {
		return errors.New("another publish is in progress")
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			e.log.WithError(err).Warn("Publish lock release failed")
		}
	}()

	section("Publishing snapshot")
	start := time.Now()
	etag, err := snapshot.Publish(ctx, client, e.db, key, e.cfg.Data.DataDir)
	if err != nil {
		return wrap.Wrapf(err, "Snapshot upload to %s failed", key)
	}

	success("Published in %s", time.Since(start).Round(time.Millisecond))
	field(os.Stderr, "bucket", e.cfg.R2.BucketName)
	field(os.Stderr, "key", key)
	field(os.Stderr, "etag", etag)
	field(os.Stderr, "buildings", buildings)
	field(os.Stderr, "chunks", chunks)
	return nil
}
