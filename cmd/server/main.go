package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"gridfactory.ai/internal/logging"
	"gridfactory.ai/internal/persistence/indexdb"
	persistlog "gridfactory.ai/internal/persistence/log"
	"gridfactory.ai/internal/sim/catalogs"
	"gridfactory.ai/internal/sim/host"
	"gridfactory.ai/internal/sim/tuning"
	"gridfactory.ai/internal/sim/world"
	"gridfactory.ai/internal/transport/ws"
)

var log = logging.Component("server")

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "world seed (used only when starting a fresh world)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index (ticks, events, saves)")

		savePath   = flag.String("load", "", "path to a save file to resume from (optional)")
		loadLatest = flag.Bool("load_latest", true, "resume from the latest save in the data dir when -load is empty")
	)
	flag.Parse()
	logging.Init()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		log.WithError(err).Fatal("load catalogs")
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Fatal("load tuning")
		}
		log.WithField("path", tp).Warn("tuning not found; using defaults")
		tune = tuning.Defaults()
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	saveDir := filepath.Join(worldDir, "saves")
	if err := os.MkdirAll(saveDir, 0o755); err != nil {
		log.WithError(err).Fatal("create data dir")
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.sqlite"))
		if err != nil {
			log.WithError(err).Fatal("open index")
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			log.WithError(err).Warn("index: upsert catalogs")
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	toLoad := strings.TrimSpace(*savePath)
	if toLoad == "" && *loadLatest {
		toLoad = latestSave(ctx, idx, *worldID, saveDir)
	}

	var w *world.World
	if toLoad != "" {
		w, err = host.LoadSave(toLoad, cats, nil)
		if err != nil {
			log.WithError(err).WithField("path", toLoad).Fatal("load save")
		}
		if w.ID() != "" && w.ID() != *worldID {
			log.WithFields(logrus.Fields{"flag": *worldID, "save": w.ID()}).Fatal("save world id mismatch")
		}
		log.WithFields(logrus.Fields{"save": filepath.Base(toLoad), "tick": w.CurrentTick()}).Info("resumed")
	} else {
		w, err = world.New(world.ConfigFromTuning(*worldID, *seed, tune), cats, nil)
		if err != nil {
			log.WithError(err).Fatal("world")
		}
		log.WithFields(logrus.Fields{"world": *worldID, "seed": *seed}).Info("fresh world")
	}

	tickLog := persistlog.NewTickLogger(worldDir)
	eventLog := persistlog.NewEventLogger(worldDir)
	defer tickLog.Close()
	defer eventLog.Close()

	ticks := multiTickLogger{tickLog}
	events := multiEventSink{eventLog}
	var saves host.SaveIndex
	if idx != nil {
		ticks = append(ticks, idx)
		events = append(events, idx)
		saves = idx
	}
	w.SetTickLogger(ticks)

	runner := host.New(w, host.Config{
		SaveDir:            saveDir,
		AutosaveEveryTicks: uint64(tune.AutosaveEverySec) * uint64(w.TickRateHz()),
		Index:              saves,
		Events:             events,
	})
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("runner stopped")
		}
	}()

	wsSrv := ws.NewServer(runner, ws.Config{
		CommandsPerSec: tune.Transport.CommandsPerSec,
		CommandBurst:   tune.Transport.CommandBurst,
		TuningDigest:   tune.Digest(),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithFields(logrus.Fields{"addr": *addr, "world": *worldID}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("http server")
		cancel()
	}
	<-runDone
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

// latestSave asks the index first and falls back to the newest file in dir.
func latestSave(ctx context.Context, idx *indexdb.SQLiteIndex, worldID, dir string) string {
	if idx != nil {
		row, err := idx.LatestSave(ctx, worldID)
		if err == nil {
			if _, statErr := os.Stat(row.Path); statErr == nil {
				return row.Path
			}
		} else if !errors.Is(err, indexdb.ErrNoSave) {
			log.WithError(err).Warn("index: latest save")
		}
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var names []string
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".save.zst") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return ""
	}
	// Names are zero-padded ticks.
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1])
}

type multiTickLogger []world.TickLogger

func (m multiTickLogger) WriteTick(entry world.TickLogEntry) error {
	var errs []error
	for _, l := range m {
		if err := l.WriteTick(entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type multiEventSink []host.EventSink

func (m multiEventSink) WriteEvents(events []world.Event) error {
	var errs []error
	for _, s := range m {
		if err := s.WriteEvents(events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
