// Command main fills the configured database with a generated social graph.
package main

import (
	"flag"
	"log"
	"time"

	"feedengine/internal/config"
	"feedengine/internal/database"
	"feedengine/internal/seed"
)

func main() {
	defaults := seed.DefaultGraphOptions()

	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	numPosts := flag.Int("posts", defaults.Posts, "Number of posts to create")
	numComments := flag.Int("comments", defaults.Comments, "Number of comments to create")
	numFollows := flag.Int("follows", defaults.Follows, "Number of follow edges to attempt")
	numLikes := flag.Int("likes", defaults.Likes, "Number of likes to attempt")
	numReposts := flag.Int("reposts", defaults.Reposts, "Number of reposts to attempt")
	days := flag.Int("days", defaults.Days, "Spread activity over this many days")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Connect skips migrations in production.
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Seeding %d users, %d posts, %d comments (seed=%d)", *numUsers, *numPosts, *numComments, *seedValue)

	graph, err := seed.NewFactory(db, *seedValue).SeedGraph(seed.GraphOptions{
		Users:    *numUsers,
		Posts:    *numPosts,
		Comments: *numComments,
		Follows:  *numFollows,
		Likes:    *numLikes,
		Reposts:  *numReposts,
		Days:     *days,
		Now:      time.Now().UTC(),
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d posts, %d comments, %d follows, %d likes, %d reposts",
		len(graph.Users), len(graph.Posts), len(graph.Comments), graph.Follows, graph.Likes, graph.Reposts)
}
