package testbed

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine"
	"github.com/spaghettifunk/anima-skin/engine/combiner"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/math"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
	"github.com/spaghettifunk/anima-skin/engine/skeleton"
)

const characterName = "hero"

type TestGame struct {
	*engine.Game
}

type gameState struct {
	elapsed  float64
	interval float64
	nextPass float64
	passes   int
	maxPass  int

	// the body is masked under the trousers by assets/hero.body.png
	body     *metadata.MeshPart
	trousers *metadata.MeshPart
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:       "Anima Skin testbed",
				AssetsDir:  "assets",
				ConfigPath: "assets/testbed.config.toml",
				Workers:    2,
				LogLevel:   core.DebugLevel,
			},
			State: &gameState{
				interval: 0.5,
				maxPass:  10,
			},
		},
	}

	tg.FnBoot = tg.Boot
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Boot() error {
	core.LogInfo("booting testbed...")
	state := g.State.(*gameState)
	state.body = legPart("body", 24, 0)
	state.trousers = legPart("trousers", 12, 0.01)
	return nil
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")
	if g.Characters == nil {
		return errors.New("the engine is not yet initialized with the character system")
	}
	_, err := g.Characters.Register(characterName, combiner.ModifierFunc("breathing", g.breathe))
	if err != nil {
		return err
	}

	core.EventRegister(core.EVENT_CODE_MESH_COMBINED, g, g.onCombined)
	core.EventRegister(core.EVENT_CODE_COMBINE_FAILED, g, g.onCombined)
	core.EventRegister(core.EVENT_CODE_ASSET_RELOADED, g, g.onReloaded)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime
	if state.elapsed < state.nextPass {
		return nil
	}
	state.nextPass = state.elapsed + state.interval

	req := &metadata.CombineRequest{
		Parts: []metadata.PartEntry{
			{Part: state.body, TargetSubMeshes: []int{0}},
			{Part: state.trousers, TargetSubMeshes: []int{1}},
		},
		PreservedBones: []int32{core.StringToHash("Hips")},
	}
	if err := g.Characters.Enqueue(characterName, req); err != nil {
		core.LogWarn("skipping pass: %s", err)
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	core.EventUnregister(core.EVENT_CODE_MESH_COMBINED, g)
	core.EventUnregister(core.EVENT_CODE_COMBINE_FAILED, g)
	core.EventUnregister(core.EVENT_CODE_ASSET_RELOADED, g)
	return nil
}

// breathe scales the hips slowly over time.
func (g *TestGame) breathe(graph *skeleton.BoneGraph) error {
	state := g.State.(*gameState)
	s := 1 + 0.05*math32.Sin(float32(state.elapsed)*2)
	return graph.SetScale(core.StringToHash("Hips"), math.NewVec3(s, 1, s))
}

func (g *TestGame) onCombined(code core.SystemEventCode, sender interface{}, listener interface{}, ctx core.EventContext) bool {
	state := g.State.(*gameState)
	if code == core.EVENT_CODE_COMBINE_FAILED {
		core.LogError("%s: combine failed: %s", ctx.Data.C[0], ctx.Err)
		return false
	}
	state.passes++
	core.LogInfo("%s: %s with %d vertices, %d bones, %d warnings in %.3fms",
		ctx.Data.C[0], ctx.Data.C[1], ctx.Data.U32[0], ctx.Data.U32[1], ctx.Data.U32[2], ctx.Data.F64[0])
	if state.passes >= state.maxPass {
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, g, core.EventContext{})
	}
	return false
}

func (g *TestGame) onReloaded(code core.SystemEventCode, sender interface{}, listener interface{}, ctx core.EventContext) bool {
	core.LogInfo("reloaded %s from %s", ctx.Data.C[0], ctx.Data.C[1])
	return false
}
