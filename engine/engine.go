package engine

import (
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/assets"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"github.com/spaghettifunk/anima-skin/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const defaultTickRate = time.Second / 60

/**
 * @brief Drives a game: loads the combiner config, watches the assets
 * directory and runs the character system once per tick.
 */
type Engine struct {
	currentStage Stage
	gameInstance *Game
	isRunning    atomic.Bool
	started      atomic.Bool
	assetManager *assets.AssetManager
	characters   *systems.CharacterSystem
	config       *metadata.CombinerConfig
	clock        *core.Clock
	lastTime     time.Duration
	ticks        uint64
	done         chan struct{}
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, errors.New("game and application config are required")
	}
	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		done:         make(chan struct{}),
	}
	core.SetLogLevel(g.ApplicationConfig.LogLevel)

	e.currentStage = EngineStageBooting
	if g.FnBoot != nil {
		if err := g.FnBoot(); err != nil {
			core.LogError("game boot failed: %s", err)
			return nil, err
		}
	}
	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	appConfig := e.gameInstance.ApplicationConfig

	core.EventInitialize()
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)

	e.config = metadata.DefaultCombinerConfig()
	if appConfig.ConfigPath != "" {
		cfg, err := assets.LoadCombinerConfig(appConfig.ConfigPath)
		if err != nil {
			return err
		}
		e.config = cfg
		core.SetLogLevel(core.ParseLogLevel(cfg.LogLevel))
	}

	cs, err := systems.NewCharacterSystem(&systems.CharacterSystemConfig{
		Combiner: e.config,
		Workers:  appConfig.Workers,
	})
	if err != nil {
		return err
	}
	e.characters = cs
	e.gameInstance.Characters = cs

	if appConfig.AssetsDir != "" {
		am, err := assets.NewAssetManager()
		if err != nil {
			return err
		}
		if err := am.Initialize(appConfig.AssetsDir); err != nil {
			return err
		}
		e.assetManager = am
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	// plans and cutouts present at startup are applied once the game
	// registered its characters
	if e.assetManager != nil {
		for _, t := range []metadata.ResourceType{metadata.ResourceTypeBakePlan, metadata.ResourceTypeCutout} {
			for _, info := range e.assetManager.Assets(t) {
				res, err := e.assetManager.LoadAsset(info.Path)
				if err != nil {
					core.LogWarn("loading %s %s: %s", t, info.Path, err)
					continue
				}
				e.applyResource(res)
			}
		}
	}

	e.isRunning.Store(true)
	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized", appConfig.Name)
	return nil
}

// Run ticks until Shutdown is called or EVENT_CODE_APPLICATION_QUIT fires,
// then releases every system.
func (e *Engine) Run() error {
	e.started.Store(true)
	defer close(e.done)
	e.currentStage = EngineStageRunning
	tickRate := e.gameInstance.ApplicationConfig.TickRate
	if tickRate <= 0 {
		tickRate = defaultTickRate
	}

	e.clock.Start()
	e.lastTime = 0
	var runErr error
	for e.isRunning.Load() {
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := (currentTime - e.lastTime).Seconds()

		e.drainReloads()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(delta); err != nil {
				core.LogError("game update failed, shutting down: %s", err)
				runErr = err
				break
			}
		}
		e.characters.Update()
		e.ticks++

		e.clock.Update()
		if remaining := tickRate - (e.clock.Elapsed() - currentTime); remaining > 0 {
			time.Sleep(remaining)
		}
		e.lastTime = currentTime
	}

	if err := e.shutdownSystems(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Ticks is the number of completed ticks.
func (e *Engine) Ticks() uint64 {
	return e.ticks
}

// Shutdown asks the run loop to stop and waits for it to release every
// system. It must not be called from the tick goroutine; fire
// EVENT_CODE_APPLICATION_QUIT there instead.
func (e *Engine) Shutdown() error {
	e.isRunning.Store(false)
	if e.started.Load() {
		<-e.done
	}
	return nil
}

func (e *Engine) shutdownSystems() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)
	core.EventUnregister(core.EVENT_CODE_APPLICATION_QUIT, e)
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			core.LogError("game shutdown failed: %s", err)
		}
	}
	if e.assetManager != nil {
		if err := e.assetManager.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.characters.Shutdown(); err != nil {
		return err
	}
	e.currentStage = EngineStageUninitialized
	return nil
}

func (e *Engine) drainReloads() {
	if e.assetManager == nil {
		return
	}
	for {
		select {
		case res, ok := <-e.assetManager.Reloads():
			if !ok {
				return
			}
			e.applyResource(res)
		default:
			return
		}
	}
}

// applyResource hands a bake plan or a cutout to the character of the same
// name and applies the log level of a reloaded config. Other config changes
// need a restart since combiners keep their skeleton.
func (e *Engine) applyResource(res *metadata.Resource) {
	switch data := res.Data.(type) {
	case *metadata.BlendShapeBakePlan:
		if err := e.characters.ApplyPlan(res.Name, data); err != nil {
			core.LogDebug("bake plan %s: %s", res.FullPath, err)
			return
		}
	case *metadata.Cutout:
		if err := e.characters.ApplyCutout(data.Character, data.Part, data.Image); err != nil {
			core.LogDebug("cutout %s: %s", res.FullPath, err)
			return
		}
	case *metadata.CombinerConfig:
		core.SetLogLevel(core.ParseLogLevel(data.LogLevel))
	default:
		return
	}
	ctx := core.EventContext{}
	ctx.Data.C[0] = res.Name
	ctx.Data.C[1] = res.FullPath
	core.EventFire(core.EVENT_CODE_ASSET_RELOADED, e, ctx)
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down")
		e.isRunning.Store(false)
		return true
	}
	return false
}
