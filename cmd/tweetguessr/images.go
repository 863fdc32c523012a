package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/susu3304/tweetguessr/internal/config"
	"github.com/susu3304/tweetguessr/internal/logging"
	"github.com/susu3304/tweetguessr/internal/tweets"
)

func newImagesCmd() *cobra.Command {
	images := &cobra.Command{
		Use:   "images",
		Short: "Manage tweet images",
	}

	var (
		tweetsFile string
		rewrite    bool
	)
	download := &cobra.Command{
		Use:   "download",
		Short: "Mirror tweet images into the image store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			if tweetsFile == "" {
				tweetsFile = cfg.TweetsFile
			}

			catalog, err := tweets.Load(tweetsFile)
			if err != nil {
				return err
			}
			store, err := openImageStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			stats, err := tweets.NewDownloader(store, log).Run(cmd.Context(), catalog)
			fmt.Fprintf(cmd.OutOrStdout(), "downloaded %d, skipped %d, failed %d\n", stats.Downloaded, stats.Skipped, stats.Failed)
			if err != nil {
				return err
			}
			if rewrite {
				if err := catalog.Save(tweetsFile); err != nil {
					return err
				}
				log.WithField("file", tweetsFile).Info("Tweets file rewritten with local image paths")
			}
			return nil
		},
	}
	download.Flags().StringVar(&tweetsFile, "tweets", "", "tweets JSON file (default: TWEETS_FILE)")
	download.Flags().BoolVar(&rewrite, "rewrite", false, "write newSrc and imgId back to the tweets file")

	images.AddCommand(download)
	return images
}
