package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kzgceremony/seqdeploy/internal/config"
	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/platform/s3"
	"github.com/kzgceremony/seqdeploy/internal/ui/tui"
)

// releaseBucket is the object store behind the release store.
type releaseBucket interface {
	s3.ObjectStore
	EnsureBucket(ctx context.Context) error
}

// Factory function variables for release - can be replaced in tests.
var (
	newReleaseBucket = func(ctx context.Context, cfg config.S3) (releaseBucket, error) {
		client, err := s3.NewClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
)

func openReleaseBucket(ctx context.Context) (releaseBucket, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if err := s.RequireS3(); err != nil {
		return nil, err
	}
	bucket, err := newReleaseBucket(ctx, s.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return bucket, nil
}

// ReleasePush stores the validated manifest as a new release. With keep > 0,
// older releases beyond the newest keep are deleted afterwards.
func ReleasePush(ctx context.Context, configPath string, keep int) error {
	m, _, err := loadManifest(configPath)
	if err != nil {
		return err
	}

	bucket, err := openReleaseBucket(ctx)
	if err != nil {
		return err
	}
	if err := bucket.EnsureBucket(ctx); err != nil {
		return err
	}
	store := s3.NewStore(bucket)

	r, err := store.Push(ctx, m)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s %s\n", tui.Mark(true), r.Key)

	if keep > 0 {
		pruned, err := store.Prune(ctx, m.App, keep)
		if err != nil {
			return err
		}
		for _, p := range pruned {
			fmt.Fprintf(out, "  pruned %s\n", p.Key)
		}
	}
	return nil
}

// ReleaseList prints the releases of app, newest first. app defaults to the
// manifest's app name.
func ReleaseList(ctx context.Context, configPath, app string) error {
	if app == "" {
		m, _, err := loadRaw(configPath)
		if err != nil {
			return err
		}
		app = m.App
	}

	bucket, err := openReleaseBucket(ctx)
	if err != nil {
		return err
	}
	store := s3.NewStore(bucket)

	releases, err := store.List(ctx, app)
	if err != nil {
		return err
	}
	if len(releases) == 0 {
		fmt.Fprintf(out, "No releases for %s.\n", app)
		return nil
	}

	rows := make([][]string, 0, len(releases))
	for i, r := range releases {
		marker := ""
		if i == 0 {
			marker = "*"
		}
		rows = append(rows, []string{marker, r.Created.Format(time.RFC3339), r.Digest, tui.Dim(r.Key)})
	}
	fmt.Fprintln(out, tui.Table([]string{"", "CREATED", "DIGEST", "KEY"}, rows))
	return nil
}

// ReleaseGet downloads a release. key "latest" selects the newest release
// of the manifest's app.
func ReleaseGet(ctx context.Context, configPath, key, outputPath string) error {
	bucket, err := openReleaseBucket(ctx)
	if err != nil {
		return err
	}
	store := s3.NewStore(bucket)

	if key == "latest" {
		m, _, err := loadRaw(configPath)
		if err != nil {
			return err
		}
		latest, err := store.Latest(ctx, m.App)
		if errors.Is(err, s3.ErrNoReleases) {
			return fmt.Errorf("no releases for %s", m.App)
		}
		if err != nil {
			return err
		}
		key = latest.Key
	}

	m, err := store.Get(ctx, key)
	if err != nil {
		return err
	}

	format := manifest.FormatTOML
	if outputPath != "" && outputPath != "-" {
		format = manifest.FormatFromPath(outputPath)
	}
	data, err := manifest.Marshal(m, format)
	if err != nil {
		return err
	}
	return writeOutput(outputPath, data)
}
