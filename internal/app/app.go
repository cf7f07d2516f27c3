package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsdevblog/cafe-pos/internal/config"
	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/pgrepo"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/internal/service"
	"github.com/fsdevblog/cafe-pos/internal/transport/api"
	"github.com/fsdevblog/cafe-pos/internal/transport/events"
	"github.com/fsdevblog/cafe-pos/internal/transport/reconcile"
	"github.com/fsdevblog/cafe-pos/pkg/keylock"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

const (
	shutdownTimeout  = 10 * time.Second
	redisPingTimeout = 3 * time.Second
	reconcileWorkers = 4
	reconcileLimit   = 50
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app with config: %s", a.Config)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	locker, closeLocker, lockErr := a.initLocker(notifyCtx)
	if lockErr != nil {
		return fmt.Errorf("app run: %s", lockErr.Error())
	}
	defer closeLocker()

	publisher, pubErr := a.initPublisher()
	if pubErr != nil {
		return fmt.Errorf("app run: %s", pubErr.Error())
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			a.Logger.WithError(err).Error("closing event publisher")
		}
	}()

	services, sErr := service.Factory(service.FactoryArgs{
		UOW:            unitOfWork,
		Locker:         locker,
		Publisher:      publisher,
		Logger:         a.Logger,
		JWTSecret:      []byte(a.Config.JWTSecret),
		Credentials:    a.credentials(),
		ReconcileGrace: a.Config.ReconcileGrace,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router, rErr := api.New(api.RouterArgs{
		Logger:        a.Logger,
		AuthService:   services.AuthService,
		LedgerService: services.LedgerService,
		OrderService:  services.OrderService,
		MemberService: services.MemberService,
		MenuService:   services.MenuService,
		StoreService:  services.StoreService,
		NoteService:   services.NoteService,
		ReportService: services.ReportService,
		JWTSecretKey:  []byte(a.Config.JWTSecret),
	})
	if rErr != nil {
		return fmt.Errorf("app run: %s", rErr.Error())
	}

	srv := &http.Server{
		Addr:              a.Config.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second, //nolint:mnd
	}

	errChan := make(chan error, 1)
	go func() {
		if runErr := srv.ListenAndServe(); runErr != nil && !errors.Is(runErr, http.ErrServerClosed) {
			errChan <- runErr
		}
	}()

	processor := reconcile.New(services.OrderService, a.Logger).
		SetInterval(a.Config.ReconcileInterval).
		SetWorkers(reconcileWorkers).
		SetLimitPerIteration(reconcileLimit)

	go processor.Run(notifyCtx)

	select {
	case <-notifyCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.WithError(err).Error("http server shutdown")
		}
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

func (a *App) credentials() []service.StaffCredentials {
	return []service.StaffCredentials{
		{
			Username: a.Config.ShopkeeperUsername,
			Password: a.Config.ShopkeeperPassword,
			Role:     domain.RoleShopkeeper,
		},
		{
			Username: a.Config.AdminUsername,
			Password: a.Config.AdminPassword,
			Role:     domain.RoleAdmin,
		},
	}
}

// initLocker блокировка участника: через redis, если он настроен, иначе в пределах процесса.
// Строка участника блокируется в БД в любом случае.
func (a *App) initLocker(ctx context.Context) (service.MemberLocker, func(), error) {
	if a.Config.RedisAddr == "" {
		a.Logger.Warn("REDIS_ADDR is not set, member lock is in-process only")
		return keylock.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: a.Config.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("init locker: %w", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			a.Logger.WithError(err).Error("closing redis client")
		}
	}
	return keylock.NewRedisLocker(client, a.Logger), closeFn, nil
}

type closablePublisher interface {
	service.LedgerEventPublisher
	Close() error
}

func (a *App) initPublisher() (closablePublisher, error) {
	if a.Config.AMQPURL == "" {
		a.Logger.Warn("AMQP_URL is not set, ledger events are not published")
		return events.NoopPublisher{}, nil
	}
	publisher, err := events.NewPublisher(a.Config.AMQPURL, a.Config.AMQPExchange, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("init publisher: %w", err)
	}
	return publisher, nil
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	factories := map[repoargs.RepositoryName]uow.RepositoryFactory{
		repoargs.MemberRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewMemberRepository(dbtx)
		},
		repoargs.TransactionRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewTransactionRepository(dbtx)
		},
		repoargs.OrderRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewOrderRepository(dbtx)
		},
		repoargs.MenuRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewMenuRepository(dbtx)
		},
		repoargs.StoreRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewStoreRepository(dbtx)
		},
		repoargs.NoteRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewNoteRepository(dbtx)
		},
		repoargs.ReportRepoName: func(dbtx uow.DBTX) uow.Repository {
			return pgrepo.NewReportRepository(dbtx)
		},
	}
	for name, factory := range factories {
		if regErr := unitOfWork.Register(uow.RepositoryName(name), factory); regErr != nil {
			return nil, fmt.Errorf("init UOW: %s", regErr.Error())
		}
	}

	return unitOfWork, nil
}
