package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	cartrepo "storefront/internal/repository/cart"
	catalogrepo "storefront/internal/repository/catalog"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/seed"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/service/identity"
	ordersvc "storefront/internal/service/order"
)

func main() {
	cfg, help, err := config.Parse()
	if err != nil {
		if errors.Is(err, config.ErrHelpWanted) {
			fmt.Println(help)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.WithField("cmd", "api")

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("api stopped")
	}
}

type stores struct {
	catalog catalogrepo.Repository
	carts   cartrepo.Repository
	orders  orderrepo.Repository
	db      httpserver.Pinger
	close   func()
}

func openStores(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*stores, error) {
	if cfg.Store.Driver == "memory" {
		log.Warn("using in-memory store with the development menu; data is lost on restart")
		return &stores{
			catalog: catalogrepo.NewMemory(seed.CatalogItems()...),
			carts:   cartrepo.NewMemory(),
			orders:  orderrepo.NewMemory(),
			close:   func() {},
		}, nil
	}

	pool, err := db.Connect(ctx, cfg.DB.DSN, log)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	return &stores{
		catalog: catalogrepo.NewPostgres(pool, log),
		carts:   cartrepo.NewPostgres(pool),
		orders:  orderrepo.NewPostgres(pool, log),
		db:      pool,
		close:   pool.Close,
	}, nil
}

func run(cfg config.Config, log logrus.FieldLogger) error {
	log.Infof("config:\n%s", cfg)

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	m := metrics.NewServerMetrics()
	cartService := cartsvc.New(st.carts, st.catalog, log)
	orderService := ordersvc.New(st.orders, st.carts, st.catalog, log).WithMetrics(m)

	srv, err := httpserver.New(httpserver.Options{
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}, log, st.db, httpserver.Deps{
		CartSvc:     cartService,
		OrderSvc:    orderService,
		Identity:    identity.NewResolver(cfg.Auth.JWTSecret, cfg.Auth.AdminEmails),
		Metrics:     m,
		CORSOrigins: cfg.Web.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
