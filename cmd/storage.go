package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"cliplink/config"
	"cliplink/model"
	"cliplink/storage"

	"github.com/spf13/cobra"
)

var storageCheckWrite bool

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check object storage connectivity",
	Long:  `Connect to the configured MinIO endpoint, verify the bucket, and optionally run a test session write.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Storage config: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.NewStore(cfg)
		if err != nil {
			log.Fatalf("Storage connection failed: %v", err)
		}
		fmt.Println("Storage connection OK.")

		if storageCheckWrite {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			session := &model.Session{
				ID:     "connchk-" + model.NewSessionID(),
				Kind:   model.KindSingle,
				Tracks: []model.Track{{SourceURL: "https://example.com/check.mp3", Volume: 1}},
			}
			url, err := store.SaveSession(ctx, session)
			if err != nil {
				log.Fatalf("Test write failed: %v", err)
			}
			fmt.Printf("Test session written: %s\n", url)
		}
	},
}

func init() {
	rootCmd.AddCommand(storageCmd)
	storageCmd.Flags().BoolVarP(&storageCheckWrite, "write", "w", false, "also write a throwaway test session document")
}
