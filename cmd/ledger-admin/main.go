package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-ledger/internal/adapter"
	"github.com/feral-file/ff-ledger/internal/admin"
	"github.com/feral-file/ff-ledger/internal/config"
	"github.com/feral-file/ff-ledger/internal/domain"
	"github.com/feral-file/ff-ledger/internal/logger"
	"github.com/feral-file/ff-ledger/internal/messaging"
	"github.com/feral-file/ff-ledger/internal/providers/feed"
	"github.com/feral-file/ff-ledger/internal/providers/jetstream"
	temporal "github.com/feral-file/ff-ledger/internal/providers/temporal"
	"github.com/feral-file/ff-ledger/internal/reconcile"
	"github.com/feral-file/ff-ledger/internal/store"
	"github.com/feral-file/ff-ledger/internal/store/schema"
	"github.com/feral-file/ff-ledger/internal/workflows"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

const usage = `Usage: ledger-admin [-config file] [-env dir] <command> [args]

Commands:
  migrate                                    create or update the ledger tables
  faults list [-chain c] [-status s] [-user id] [-limit n]
  faults skip <fault-id>                     skip an open fault; its user is quarantined
  faults resolve <fault-id>                  resolve a fault so its event is applied when delivered again
  quarantine release [-replay=true] <user-id>
  repair <user-id>                           overwrite stored totals with the recomputed ones
  reconcile -user <user-id> [-policy v]      reconcile one user
  reconcile -chain <chain> [-policy v] [-local]
                                             reconcile a chain on the worker, or here with -local
`

type app struct {
	cfg    *config.AdminConfig
	db     *gorm.DB
	store  store.Store
	engine reconcile.Engine
	json   adapter.JSON
}

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAdminConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "ledger-admin",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{Logger: logger.Gorm(cfg.Debug)})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	decimals, err := cfg.Ledger.DomainDecimals()
	if err != nil {
		logger.FatalCtx(ctx, "Invalid ledger decimals", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)
	a := &app{
		cfg:    cfg,
		db:     db,
		store:  dataStore,
		engine: reconcile.NewEngine(reconcile.Config{Decimals: decimals}, dataStore, adapter.NewClock(), nil),
		json:   adapter.NewJSON(),
	}

	if err := a.run(ctx, flag.Args()); err != nil {
		logger.ErrorCtx(ctx, err, zap.Strings("args", flag.Args()))
		fmt.Fprintln(os.Stderr, err)
		logger.Flush(2 * time.Second)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "migrate":
		if err := store.Migrate(a.db); err != nil {
			return err
		}
		return a.print(map[string]string{"status": "migrated"})
	case "faults":
		return a.faults(ctx, args[1:])
	case "quarantine":
		return a.quarantine(ctx, args[1:])
	case "repair":
		if len(args) != 2 {
			return errors.New("repair requires a user id")
		}
		report, err := admin.NewService(a.store, a.engine, nil, a.json).Repair(ctx, args[1])
		if err != nil {
			return err
		}
		return a.print(report)
	case "reconcile":
		return a.reconcile(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func (a *app) faults(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("faults requires a subcommand: list, skip or resolve")
	}
	svc := admin.NewService(a.store, a.engine, nil, a.json)

	switch args[0] {
	case "list":
		fs := flag.NewFlagSet("faults list", flag.ContinueOnError)
		chain := fs.String("chain", "", "Chain name or CAIP-2 id")
		status := fs.String("status", "", "open, skipped, released or resolved")
		user := fs.String("user", "", "User id")
		limit := fs.Int("limit", 100, "Maximum number of faults")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		filter := store.FaultFilter{Status: schema.FaultStatus(*status), EntityID: *user, Limit: *limit}
		if *chain != "" {
			c, err := domain.ParseChain(*chain)
			if err != nil {
				return err
			}
			filter.Chain = c
		}
		faults, err := svc.ListFaults(ctx, filter)
		if err != nil {
			return err
		}
		return a.print(faults)
	case "skip", "resolve":
		if len(args) != 2 {
			return fmt.Errorf("faults %s requires a fault id", args[0])
		}
		var fault *schema.IngestFault
		var err error
		if args[0] == "skip" {
			fault, err = svc.SkipFault(ctx, args[1])
		} else {
			fault, err = svc.ResolveFault(ctx, args[1])
		}
		if err != nil {
			return err
		}
		return a.print(fault)
	default:
		return fmt.Errorf("unknown faults subcommand %q", args[0])
	}
}

func (a *app) quarantine(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "release" {
		return errors.New("quarantine requires the release subcommand")
	}
	fs := flag.NewFlagSet("quarantine release", flag.ContinueOnError)
	replay := fs.Bool("replay", true, "Publish the held back events again")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("quarantine release requires a user id")
	}

	var publisher messaging.Publisher
	if *replay {
		var err error
		publisher, err = feed.NewPublisher(feed.Config{
			Feed: a.cfg.Feed,
			NATS: jetstream.Config{
				URL:            a.cfg.NATS.URL,
				MaxReconnects:  a.cfg.NATS.MaxReconnects,
				ReconnectWait:  a.cfg.NATS.ReconnectWait,
				ConnectionName: a.cfg.NATS.ConnectionName,
			},
			Brokers:     a.cfg.Kafka.Brokers,
			EventsTopic: a.cfg.Kafka.EventsTopic,
			DriftTopic:  a.cfg.Kafka.DriftTopic,
		}, adapter.NewNatsJetStream(), a.json)
		if err != nil {
			return fmt.Errorf("failed to create publisher: %w", err)
		}
		defer publisher.Close()
	}

	result, err := admin.NewService(a.store, a.engine, publisher, a.json).ReleaseQuarantine(ctx, fs.Arg(0), *replay)
	if err != nil {
		return err
	}
	return a.print(result)
}

func (a *app) reconcile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	user := fs.String("user", "", "User id")
	chain := fs.String("chain", "", "Chain name or CAIP-2 id")
	policy := fs.String("policy", reconcile.CurrentPolicy, "Reconciliation policy version")
	local := fs.Bool("local", false, "Reconcile the chain in this process instead of on the worker")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *user != "" {
		report, err := a.engine.Reconcile(ctx, *user, *policy)
		if err != nil {
			return err
		}
		return a.print(report)
	}

	if *chain == "" {
		return errors.New("reconcile requires -user or -chain")
	}
	c, err := domain.ParseChain(*chain)
	if err != nil {
		return err
	}

	if *local {
		summary, err := a.engine.ReconcileAll(ctx, c, *policy)
		if err != nil {
			return err
		}
		return a.print(summary)
	}

	temporalClient, err := temporal.Dial(temporal.Config{
		HostPort:  a.cfg.Temporal.HostPort,
		Namespace: a.cfg.Temporal.Namespace,
	})
	if err != nil {
		return err
	}
	defer temporalClient.Close()

	run, err := workflows.StartReconcileChain(ctx, temporalClient, a.cfg.Temporal.TaskQueue,
		workflows.ReconcileChainInput{Chain: c, PolicyVersion: *policy})
	if err != nil {
		return err
	}
	return a.print(map[string]string{"workflow_id": run.GetID(), "run_id": run.GetRunID()})
}

func (a *app) print(v interface{}) error {
	data, err := a.json.MarshalIndent(v)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
