package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"

	"voxelworld.ai/internal/persistence/indexdb"
	persistlog "voxelworld.ai/internal/persistence/log"
	"voxelworld.ai/internal/sim/catalogs"
	"voxelworld.ai/internal/sim/stage"
	"voxelworld.ai/internal/sim/tuning"
	"voxelworld.ai/internal/sim/world"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory (empty keeps chunks in memory)")
		stageID    = flag.Int("stage", -1, "stage id (default: tuning stage_id)")
		frames     = flag.Uint64("frames", 600, "frames to run before exiting (0 runs until interrupted)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
		events     = flag.Bool("events", true, "write the compressed event log")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[voxeld] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	logger.Printf("catalogs from %s: blocks=%d structures=%d", cats.Source, len(cats.Blocks.Defs), len(cats.Structures.ByID))

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	sid := tune.StageID
	if *stageID >= 0 {
		sid = *stageID
	}
	st, err := stage.Default().Get(sid)
	if err != nil {
		logger.Fatalf("stage: %v", err)
	}

	deps := world.Deps{Logger: logger}
	appDir := ""
	if *dataDir != "" {
		appDir = filepath.Join(*dataDir, tune.AppName)
	}

	if !*disableDB && appDir != "" {
		idx, err := indexdb.OpenSQLite(filepath.Join(appDir, "index", "world.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer func() {
			s := idx.Stats()
			if s.DropChunkTotal > 0 || s.DropMutationTotal > 0 {
				logger.Printf("index dropped chunk=%d mutation=%d", s.DropChunkTotal, s.DropMutationTotal)
			}
			_ = idx.Close()
		}()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		deps.Index = idx
	}
	if *events && appDir != "" {
		el := persistlog.NewEventLogger(appDir)
		defer el.Close()
		deps.Events = el
	}
	deps.Audio = logAudio{logger}

	w, err := world.New(world.Config{
		Tuning:   tune,
		Catalogs: cats,
		Stage:    st,
		DataDir:  *dataDir,
	}, deps)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	spawn := mgl64.Vec3{0.5, float64(tune.Terrain.SurfaceHeight) + 4, 0.5}
	w.InitWorld(spawn)
	w.SetPlayer(spawn)
	logger.Printf("run=%s stage=%s resident=%d", w.RunID(), st.Name(), w.Store().Len())

	ctx, cancel := signalContext()
	defer cancel()

	sc := newScript(tune.FrameRateHz, tune.Physics.RunSpeed)
	err = w.Run(ctx, func(frame uint64) (world.FrameInput, bool) {
		if *frames > 0 && frame >= *frames {
			return world.FrameInput{}, false
		}
		return sc.next(frame), true
	})
	if err != nil {
		logger.Printf("run: %v", err)
	}
	p := w.Player()
	logger.Printf("stopped frame=%d resident=%d pos=%.2f,%.2f,%.2f", w.CurrentFrame(), w.Store().Len(), p.Pos[0], p.Pos[1], p.Pos[2])
}

type logAudio struct{ logger *log.Logger }

func (a logAudio) Trigger(s world.Sound) { a.logger.Printf("sound %s", s) }

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
