package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"cliplink/cache"
	"cliplink/config"
	"cliplink/model"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Check Redis connectivity",
	Long:  `Connect to the configured Redis instance and run a session cache round trip.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis config: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		defer client.Close()
		fmt.Println("Redis connection OK.")

		sessionCache := cache.NewSessionCache(client, time.Minute)
		ctx := context.Background()

		session := &model.Session{
			ID:     "connchk-" + model.NewSessionID(),
			Kind:   model.KindSingle,
			Tracks: []model.Track{{SourceURL: "https://example.com/check.mp3", Volume: 1}},
		}
		sessionCache.SetSession(ctx, session)
		if got := sessionCache.GetSession(ctx, session.ID); got == nil {
			log.Fatal("Cache round trip failed: entry not found after write")
		}
		sessionCache.Invalidate(ctx, session.ID)
		fmt.Println("Cache round trip OK.")
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
