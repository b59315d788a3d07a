package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	account "auction-bidding/internal/accountService"
	"auction-bidding/internal/auth"
	bidding "auction-bidding/internal/biddingService"
	"auction-bidding/internal/config"
	"auction-bidding/internal/directory"
	"auction-bidding/internal/livechannel"
	model "auction-bidding/internal/models"
	"auction-bidding/internal/notification"
	"auction-bidding/internal/objectstore"
	"auction-bidding/internal/repository"
	"auction-bidding/internal/server"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
)

// store is what every listing backend provides
type store interface {
	repository.ListingStore
	repository.UserStore
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		utils.Fatal("Failed to load configuration", map[string]any{"error": err.Error()})
	}
	utils.SetLevel(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		utils.Fatal("Failed to open listing store", map[string]any{"driver": cfg.StoreDriver, "error": err.Error()})
	}
	defer closeStore()

	// utils.Fatal exits without running defers, release what is already open first
	fatal := func(message string, fields map[string]any, closers ...func()) {
		releaseAll(append(closers, closeStore)...)
		utils.Fatal(message, fields)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	live := livechannel.NewServer(tokens, directory.New())

	notifier, closeNotifier, err := openNotifier(ctx, cfg, live)
	if err != nil {
		fatal("Failed to start outbid notifier", map[string]any{"error": err.Error()})
	}
	defer closeNotifier()

	deps := server.Dependencies{
		Verifier: tokens,
		Accounts: account.NewAccountService(repo, tokens),
		Bidding:  bidding.NewBiddingService(repo, notifier),
		Live:     live,
	}
	if cfg.MediaEnabled() {
		signer, err := objectstore.NewSigner(objectstore.Config{
			Bucket:     cfg.GCSBucket,
			AccessID:   cfg.GCSAccessID,
			PrivateKey: []byte(cfg.GCSPrivateKey),
			TTL:        cfg.URLTTL,
		})
		if err != nil {
			fatal("Failed to configure object URL signer", map[string]any{"error": err.Error()}, closeNotifier)
		}
		deps.Signer = signer
	}

	apiServer := &http.Server{Addr: cfg.Addr(), Handler: server.SetupRouter(deps), ReadHeaderTimeout: 10 * time.Second}
	wsServer := &http.Server{Addr: cfg.WSAddr(), Handler: live, ReadHeaderTimeout: 10 * time.Second}

	for _, srv := range []*http.Server{apiServer, wsServer} {
		go func(srv *http.Server) {
			utils.Info("Starting server", map[string]any{"addr": srv.Addr})
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				utils.Error("Server stopped unexpectedly", map[string]any{"addr": srv.Addr, "error": err.Error()})
				stop()
			}
		}(srv)
	}

	<-ctx.Done()
	utils.Info("Shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{apiServer, wsServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			utils.Warn("Graceful shutdown failed", map[string]any{"addr": srv.Addr, "error": err.Error()})
		}
	}
}

// releaseAll runs closers in the order given
func releaseAll(closers ...func()) {
	for _, closeFn := range closers {
		closeFn()
	}
}

// openStore selects the listing backend named by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreBolt:
		repo, err := repository.NewBoltRepo(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil

	case config.StoreMongo:
		client, err := repository.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoRepo(client.Database(cfg.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return repo, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		repo := repository.NewMemoryRepo()
		prepopulateListings(ctx, repo)
		return repo, func() {}, nil
	}
}

// openNotifier publishes through redis when REDIS_URL is set, otherwise pushes in process
func openNotifier(ctx context.Context, cfg *config.Config, live *livechannel.Server) (notification.Notifier, func(), error) {
	if cfg.RedisURL == "" {
		pool := notification.NewPoolNotifier(live, cfg.NotifyWorkers, cfg.NotifyScheduleTimeout)
		return pool, pool.Close, nil
	}

	client, err := notification.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	go notification.NewSubscriber(client, live).Run(ctx)
	publisher := notification.NewRedisNotifier(client, cfg.NotifyWorkers, cfg.NotifyScheduleTimeout)
	return publisher, func() {
		publisher.Close()
		_ = client.Close()
	}, nil
}

// prepopulateListings adds sample listings to the in-memory store
func prepopulateListings(ctx context.Context, repo *repository.MemoryRepo) {
	seeds := []struct {
		number int64
		name   string
		price  string
	}{
		{1, "Vintage desk lamp", "$10"},
		{2, "Mechanical keyboard", "$45"},
		{3, "Oil painting", "€120"},
	}

	for _, s := range seeds {
		price := model.MustParsePrice(s.price)
		_, err := repo.Insert(ctx, model.Listing{
			Number:     s.number,
			Name:       s.name,
			BidPrice:   price,
			BidHistory: []model.Bid{{Username: "admin", BidPrice: price}},
		})
		if err != nil {
			utils.Warn("Failed to seed listing", map[string]any{"number": s.number, "error": err.Error()})
		}
	}
}
