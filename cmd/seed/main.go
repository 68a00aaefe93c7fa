// Command seed fills the remote document store with demo data.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"studygram/internal/config"
	"studygram/internal/observability"
	"studygram/internal/remote"
	"studygram/internal/seed"
)

func main() {
	log := observability.GlobalLogger

	users := flag.Int("users", 0, "number of users to create (0 = default set)")
	postsPerUser := flag.Int("posts", 0, "posts per user")
	commentsPerPost := flag.Int("comments", 0, "comments per post")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := remote.ConnectMongo(ctx, cfg.RemoteURI, cfg.RemoteDBName, cfg.RemoteTimeoutDuration())
	if err != nil {
		log.Error("failed to connect remote store", "error", err, "uri", cfg.RemoteURI)
		os.Exit(1)
	}
	defer store.Disconnect(context.Background())

	opts := seed.DefaultOptions()
	if *users > 0 {
		opts.Users = *users
	}
	if *postsPerUser > 0 {
		opts.PostsPerUser = *postsPerUser
	}
	if *commentsPerPost > 0 {
		opts.CommentsPerPost = *commentsPerPost
	}

	if err := seed.Run(ctx, remote.NewClient(store), opts); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}
