// Package main is clipctl, the operational CLI for the ClipArena ranking and
// delivery layer. It talks to the same Redis and PostgreSQL instances as the
// worker and exposes the read paths plus a few maintenance commands:
//
//	clipctl health                         queue depths and worker watermark
//	clipctl top -season s1 -slot 3         clip leaderboard page
//	clipctl voters -timeframe today        voter leaderboard page
//	clipctl creators -season s1            creator leaderboard page
//	clipctl counts clip-a clip-b           vote totals and comment counts
//	clipctl feed -user u1 -slot 3 clip-a   filter a user's slot candidates
//	clipctl reset-slot -season s1 -slot 3  clear a retired slot's ranking set
//	clipctl rebuild                        re-derive clip rankings now
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cliparena/clip-arena-hub/config"
	"github.com/cliparena/clip-arena-hub/internal/application/command"
	"github.com/cliparena/clip-arena-hub/internal/application/query"
	"github.com/cliparena/clip-arena-hub/internal/domain/ranking"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/persistence/postgres"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/persistence/redis"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/scheduler"
	"github.com/cliparena/clip-arena-hub/internal/infrastructure/scheduler/jobs"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "clipctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: clipctl <health|top|voters|creators|counts|feed|reset-slot|rebuild> [flags]")
}

// deps bundles the wired stores and repositories one command run needs.
type deps struct {
	cfg    *config.Config
	db     *postgres.Connection
	client *redis.Client

	votes        *postgres.VoteRepository
	comments     *postgres.CommentRepository
	queue        *redis.CommentQueue
	leaderboards *redis.LeaderboardStore
	counts       *redis.VoteCountCache
	seen         *redis.SeenTracker

	logger *slog.Logger
}

func (d *deps) close() {
	if d.client != nil {
		_ = d.client.Close()
	}
	if d.db != nil {
		d.db.Close()
	}
}

func connect(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// Quiet by default; this is an interactive tool.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	redisCfg := redis.DefaultConfig()
	redisCfg.URL = cfg.Redis.URL
	redisCfg.Host = cfg.Redis.Host
	redisCfg.Port = cfg.Redis.Port
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB

	client, err := redis.NewClient(redisCfg)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL

	db, err := postgres.NewConnection(ctx, pgCfg)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return &deps{
		cfg:          cfg,
		db:           db,
		client:       client,
		votes:        postgres.NewVoteRepository(db),
		comments:     postgres.NewCommentRepository(db),
		queue:        redis.NewCommentQueue(client, logger),
		leaderboards: redis.NewLeaderboardStore(client, logger),
		counts:       redis.NewVoteCountCache(client, logger),
		seen:         redis.NewSeenTracker(client, logger),
		logger:       logger,
	}, nil
}

func run(ctx context.Context, cmd string, args []string) error {
	d, err := connect(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	switch cmd {
	case "health":
		return runHealth(ctx, d)
	case "top":
		return runTop(ctx, d, args)
	case "voters":
		return runVoters(ctx, d, args)
	case "creators":
		return runCreators(ctx, d, args)
	case "counts":
		return runCounts(ctx, d, args)
	case "feed":
		return runFeed(ctx, d, args)
	case "reset-slot":
		return runResetSlot(ctx, d, args)
	case "rebuild":
		return runRebuild(ctx, d)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runHealth(ctx context.Context, d *deps) error {
	health := query.NewQueueHealthHandler(d.queue).Handle(ctx)
	return printJSON(health)
}

func runTop(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	season := fs.String("season", "", "season ID")
	slot := fs.Int("slot", 0, "slot position")
	limit := fs.Int("limit", 10, "page size")
	offset := fs.Int("offset", 0, "page offset")
	_ = fs.Parse(args)

	if *season == "" {
		return fmt.Errorf("-season is required")
	}

	h := query.NewLeaderboardHandler(d.leaderboards, d.votes, d.logger)
	page, err := h.ClipLeaderboard(ctx, query.GetClipLeaderboardQuery{
		SeasonID:     *season,
		SlotPosition: *slot,
		Limit:        *limit,
		Offset:       *offset,
	})
	if err != nil {
		return err
	}
	return printJSON(page)
}

func runVoters(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("voters", flag.ExitOnError)
	timeframe := fs.String("timeframe", "all", "all or today")
	limit := fs.Int("limit", 10, "page size")
	offset := fs.Int("offset", 0, "page offset")
	_ = fs.Parse(args)

	h := query.NewLeaderboardHandler(d.leaderboards, d.votes, d.logger)
	page := h.VoterLeaderboard(ctx, query.GetVoterLeaderboardQuery{
		Timeframe: ranking.Timeframe(*timeframe),
		Limit:     *limit,
		Offset:    *offset,
	})
	return printJSON(page)
}

func runCreators(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("creators", flag.ExitOnError)
	season := fs.String("season", "", "season ID (empty = all-time)")
	limit := fs.Int("limit", 10, "page size")
	offset := fs.Int("offset", 0, "page offset")
	_ = fs.Parse(args)

	h := query.NewLeaderboardHandler(d.leaderboards, d.votes, d.logger)
	page := h.CreatorLeaderboard(ctx, query.GetCreatorLeaderboardQuery{
		SeasonID: *season,
		Limit:    *limit,
		Offset:   *offset,
	})
	return printJSON(page)
}

func runCounts(ctx context.Context, d *deps, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: clipctl counts <clip-id> [clip-id...]")
	}

	counts := query.NewVoteCountsHandler(d.counts, d.votes, d.logger)
	h := query.NewEngagementHandler(counts, d.comments, d.logger)
	engagement, err := h.Handle(ctx, query.GetVoteCountsQuery{ClipIDs: args})
	if err != nil {
		return err
	}
	return printJSON(engagement)
}

func runFeed(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	user := fs.String("user", "", "user key (device fingerprint or account ID)")
	slot := fs.Int("slot", 0, "slot position")
	_ = fs.Parse(args)

	candidates := fs.Args()
	if len(candidates) == 0 {
		return fmt.Errorf("usage: clipctl feed -user <key> -slot <n> <clip-id> [clip-id...]")
	}

	dedup := d.cfg.Features.IsEnabled(config.FeatureFeedSeenFilter, &config.FeatureContext{UserKey: *user})

	h := query.NewFeedHandler(d.seen, d.logger)
	served := h.Handle(ctx, query.GetFeedQuery{
		UserKey:      *user,
		SlotPosition: *slot,
		CandidateIDs: candidates,
		Dedup:        dedup,
	})
	return printJSON(served)
}

func runResetSlot(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("reset-slot", flag.ExitOnError)
	season := fs.String("season", "", "season ID")
	slot := fs.Int("slot", 0, "slot position")
	_ = fs.Parse(args)

	if *season == "" {
		return fmt.Errorf("-season is required")
	}

	h := command.NewResetSlotHandler(d.leaderboards, d.logger)
	h.Handle(ctx, command.ResetSlotCommand{SeasonID: *season, SlotPosition: *slot})
	fmt.Printf("cleared clip ranking for season %s slot %d\n", *season, *slot)
	return nil
}

func runRebuild(ctx context.Context, d *deps) error {
	job := jobs.NewRebuildLeaderboardJob(d.votes, d.leaderboards, jobs.RebuildLeaderboardConfig{
		TopN: d.cfg.Scheduler.RebuildTopN,
	}, d.logger)

	// Run through the scheduler so manual and periodic rebuilds share one
	// execution path and result record.
	sched := scheduler.NewScheduler(d.logger)
	if err := sched.Register(job, scheduler.NewIntervalSchedule(d.cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
		return err
	}

	result, err := sched.RunNow(ctx, job.Name())
	if err != nil {
		return err
	}

	return printJSON(struct {
		Job      string             `json:"job"`
		Duration string             `json:"duration"`
		Success  bool               `json:"success"`
		Stats    *jobs.RebuildStats `json:"stats"`
	}{
		Job:      result.JobName,
		Duration: result.Duration.String(),
		Success:  result.Success,
		Stats:    job.LastRebuildStats(),
	})
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
