package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/susu3304/tweetguessr/internal/config"
	"github.com/susu3304/tweetguessr/internal/imagestore"
	"github.com/susu3304/tweetguessr/internal/maps"
)

func newRootCmd() *cobra.Command {
	var mapsFile string

	root := &cobra.Command{
		Use:   "tweetguessr",
		Short: "Guess where a tweet was posted on a map of Argentina",
		Long: "tweetguessr shows a geotagged tweet and lets players place it on a\n" +
			"south-pole Lambert azimuthal equal-area map, from the web or Discord.",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&mapsFile, "maps", "", "maps YAML file (default: MAPS_FILE or the builtin Argentina map)")

	loadMaps := func() (*maps.Registry, error) {
		return loadRegistry(mapsFile)
	}

	root.AddCommand(
		newServeCmd(&mapsFile),
		newProjectCmd(loadMaps),
		newUnprojectCmd(loadMaps),
		newCalibrateCmd(loadMaps),
		newImagesCmd(),
	)
	return root
}

func loadRegistry(path string) (*maps.Registry, error) {
	if path == "" {
		return maps.Builtin(), nil
	}
	return maps.Load(path)
}

func openImageStore(ctx context.Context, cfg *config.Config) (imagestore.Store, error) {
	switch cfg.ImageStore {
	case "minio":
		s, err := imagestore.NewMinIO(ctx, imagestore.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "fs", "":
		s, err := imagestore.NewFS(cfg.ImagesDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
	}
}
