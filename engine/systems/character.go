package systems

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-skin/engine/combiner"
	"github.com/spaghettifunk/anima-skin/engine/containers"
	"github.com/spaghettifunk/anima-skin/engine/core"
	"github.com/spaghettifunk/anima-skin/engine/metadata"
)

var (
	ErrUnknownCharacter = errors.New("unknown character")
	ErrCharacterExists  = errors.New("character already registered")
)

type CharacterSystemConfig struct {
	Combiner *metadata.CombinerConfig
	// Workers bounds how many characters are combined in parallel per tick.
	Workers int
}

/**
 * @brief One character: its combiner, the requests waiting for it and the
 * outcome of its last pass.
 */
type Character struct {
	Name string

	combiner *combiner.Combiner
	queue    *containers.RingQueue[*metadata.CombineRequest]
	plan     *metadata.BlendShapeBakePlan
	metrics  *core.Metrics
	// occlusion cutouts keyed by part name
	cutouts map[string]image.Image

	last    *combiner.Result
	lastErr error
}

func (c *Character) Combiner() *combiner.Combiner {
	return c.combiner
}

func (c *Character) Metrics() *core.Metrics {
	return c.metrics
}

/**
 * @brief Owns the combiners of all characters. Requests are queued per
 * character and Update runs at most one pass per character per tick, so a
 * combiner never sees two passes at once.
 */
type CharacterSystem struct {
	config     *CharacterSystemConfig
	jobs       *JobSystem
	characters map[string]*Character
	// registration order, kept for a deterministic tick
	order   []string
	metrics *core.Metrics
}

func NewCharacterSystem(config *CharacterSystemConfig) (*CharacterSystem, error) {
	if config == nil {
		config = &CharacterSystemConfig{}
	}
	if config.Combiner == nil {
		config.Combiner = metadata.DefaultCombinerConfig()
	}
	if err := config.Combiner.Validate(); err != nil {
		return nil, err
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	js, err := NewJobSystem(config.Workers, config.Workers)
	if err != nil {
		return nil, err
	}
	return &CharacterSystem{
		config:     config,
		jobs:       js,
		characters: make(map[string]*Character),
		metrics:    core.NewMetrics(),
	}, nil
}

// Register adds a character with its own skeleton and combiner. Modifiers
// run on every pass of that character.
func (cs *CharacterSystem) Register(name string, modifiers ...combiner.SkeletonModifier) (*Character, error) {
	if _, ok := cs.characters[name]; ok {
		return nil, errors.Wrap(ErrCharacterExists, name)
	}
	c := &Character{
		Name:     name,
		combiner: combiner.New(cs.config.Combiner),
		queue:    containers.NewRingQueue[*metadata.CombineRequest](cs.config.Combiner.QueueSize),
		metrics:  core.NewMetrics(),
		cutouts:  make(map[string]image.Image),
	}
	for _, m := range modifiers {
		c.combiner.AddModifier(m)
	}
	cs.characters[name] = c
	cs.order = append(cs.order, name)
	core.LogDebug("registered character %s", name)
	return c, nil
}

func (cs *CharacterSystem) Character(name string) (*Character, bool) {
	c, ok := cs.characters[name]
	return c, ok
}

// Enqueue queues a request for the next free tick of the character.
func (cs *CharacterSystem) Enqueue(name string, req *metadata.CombineRequest) error {
	c, ok := cs.characters[name]
	if !ok {
		return errors.Wrap(ErrUnknownCharacter, name)
	}
	if err := c.queue.Enqueue(req); err != nil {
		return errors.Wrapf(err, "character %s has %d pending requests", name, c.queue.Len())
	}
	return nil
}

func (cs *CharacterSystem) Pending(name string) int {
	if c, ok := cs.characters[name]; ok {
		return c.queue.Len()
	}
	return 0
}

// ApplyPlan sets the bake plan used by requests of the character that do
// not carry their own.
func (cs *CharacterSystem) ApplyPlan(name string, plan *metadata.BlendShapeBakePlan) error {
	c, ok := cs.characters[name]
	if !ok {
		return errors.Wrap(ErrUnknownCharacter, name)
	}
	c.plan = plan
	return nil
}

// ApplyCutout sets the occlusion cutout of a part of the character. Parts
// of that name in later requests without their own occlusion masks are
// masked by sampling img under their first UV channel. A nil img removes
// the cutout.
func (cs *CharacterSystem) ApplyCutout(name, part string, img image.Image) error {
	c, ok := cs.characters[name]
	if !ok {
		return errors.Wrap(ErrUnknownCharacter, name)
	}
	if img == nil {
		delete(c.cutouts, part)
		return nil
	}
	c.cutouts[part] = img
	return nil
}

// occlude returns req with the cutouts of the character applied to the
// parts that carry no occlusion of their own. req itself is left alone.
func (c *Character) occlude(req *metadata.CombineRequest) *metadata.CombineRequest {
	var out *metadata.CombineRequest
	for i, entry := range req.Parts {
		if entry.Part == nil || entry.Occlusion != nil {
			continue
		}
		img, ok := c.cutouts[entry.Part.Name]
		if !ok {
			continue
		}
		masks := combiner.OcclusionFromCutout(entry.Part, img)
		if masks == nil {
			core.LogWarn("character %s: part %s has no uvs to sample its cutout", c.Name, entry.Part.Name)
			continue
		}
		if out == nil {
			r := *req
			r.Parts = append([]metadata.PartEntry(nil), req.Parts...)
			out = &r
		}
		out.Parts[i].Occlusion = masks
	}
	if out == nil {
		return req
	}
	return out
}

// Result returns the outcome of the last pass of the character. The mesh
// is valid until the character's next pass.
func (cs *CharacterSystem) Result(name string) (*combiner.Result, error) {
	c, ok := cs.characters[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownCharacter, name)
	}
	return c.last, c.lastErr
}

// Metrics aggregates the pass durations of every character.
func (cs *CharacterSystem) Metrics() *core.Metrics {
	return cs.metrics
}

// Update runs one queued pass for every character that has one and
// returns the number of passes run. Events are fired on the calling
// goroutine once all passes of the tick are done.
func (cs *CharacterSystem) Update() int {
	var wg sync.WaitGroup
	var ran []*Character
	for _, name := range cs.order {
		c := cs.characters[name]
		req, err := c.queue.Dequeue()
		if err != nil {
			continue
		}
		if req.BlendShapes == nil && c.plan != nil {
			r := *req
			r.BlendShapes = c.plan
			req = &r
		}
		ran = append(ran, c)
		wg.Add(1)
		err = cs.jobs.Submit(JobTask{
			Name: "combine " + c.Name,
			OnStart: func() error {
				c.last, c.lastErr = c.combiner.Combine(c.occlude(req))
				return c.lastErr
			},
			OnCompletionCallback: wg.Done,
		})
		if err != nil {
			c.last, c.lastErr = nil, err
			wg.Done()
		}
	}
	wg.Wait()

	for _, c := range ran {
		cs.report(c)
	}
	return len(ran)
}

func (cs *CharacterSystem) report(c *Character) {
	ctx := core.EventContext{}
	ctx.Data.C[0] = c.Name
	if c.lastErr != nil {
		c.last = nil
		ctx.Err = c.lastErr
		core.EventFire(core.EVENT_CODE_COMBINE_FAILED, cs, ctx)
		return
	}
	res := c.last
	c.metrics.Update(res.Duration)
	cs.metrics.Update(res.Duration)
	for _, w := range res.Warnings {
		core.LogWarn("character %s: %s", c.Name, w)
	}

	ctx.Data.C[1] = res.Mesh.Name
	ctx.Data.U32[0] = uint32(res.Mesh.VertexCount)
	ctx.Data.U32[1] = uint32(res.Mesh.BoneCount())
	ctx.Data.U32[2] = uint32(len(res.Warnings))
	ctx.Data.F64[0] = c.metrics.LastMS()
	core.EventFire(core.EVENT_CODE_MESH_COMBINED, cs, ctx)
}

func (cs *CharacterSystem) Shutdown() error {
	return cs.jobs.Shutdown()
}
