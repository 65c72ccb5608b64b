// warp-sandbox is an interactive terminal visualizer for the warp engine.
// It drives a fake content provider with randomized latency and renders the
// batched frame parameters as a starfield tunnel, with the flash mask drawn
// as a whiteout overlay.
//
// Keys:
//
//	w - request warp to the next scene
//	f - fast path (bypass cinematic)
//	c - cancel in-progress cinematic
//	p - suspend/resume (simulated visibility loss)
//	a - toggle attention animation
//	q - quit
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/warpcore/audio"
	"github.com/lixenwraith/warpcore/engine"
	"github.com/lixenwraith/warpcore/events"
	"github.com/lixenwraith/warpcore/parameter"
)

// fakeProvider simulates asset loading with randomized latency and an
// occasional failure
type fakeProvider struct {
	minDelay time.Duration
	maxDelay time.Duration
	failOdds float64
}

func (p *fakeProvider) LoadSceneContent(sceneID string, _ engine.SceneConfig, _ []engine.ContentRef) error {
	span := p.maxDelay - p.minDelay
	time.Sleep(p.minDelay + time.Duration(rand.Int63n(int64(span))))
	if rand.Float64() < p.failOdds {
		return fmt.Errorf("simulated load failure for %s", sceneID)
	}
	return nil
}

// frameState collects the engine's outputs for the draw pass
type frameState struct {
	mu     sync.Mutex
	params map[string]float64
	mask   float64
	calls  int
}

func (f *frameState) ApplyBatchedParameters(_ string, params map[string]float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.params == nil {
		f.params = make(map[string]float64)
	}
	for k, v := range params {
		f.params[k] = v
	}
	f.calls++
}

func (f *frameState) SetMaskOpacity(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mask = v
}

func (f *frameState) snapshot() (map[string]float64, float64, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]float64, len(f.params))
	for k, v := range f.params {
		out[k] = v
	}
	return out, f.mask, f.calls
}

// star is one particle of the background field
type star struct {
	angle float64
	depth float64
	speed float64
}

func main() {
	withAudio := flag.Bool("audio", false, "play warp audio cues")
	failOdds := flag.Float64("fail", 0.1, "simulated content load failure probability")
	flag.Parse()

	state := &frameState{}
	cfg := engine.DefaultConfig()

	eng, err := engine.New(cfg, engine.Deps{
		Content: &fakeProvider{minDelay: 150 * time.Millisecond, maxDelay: 1800 * time.Millisecond, failOdds: *failOdds},
		Mask:    state,
		Sink:    state,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		os.Exit(1)
	}
	defer eng.Destroy()

	var cues *audio.CueManager
	if *withAudio {
		cues = audio.NewCueManager(cfg.WarpDuration())
		if err := cues.Initialize(); err != nil {
			fmt.Fprintln(os.Stderr, "audio:", err)
			cues = nil
		} else {
			defer cues.Cleanup()
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "screen:", err)
		os.Exit(1)
	}
	defer screen.Fini()

	// Dedicated input goroutine
	eventCh := make(chan tcell.Event, 16)
	go func() {
		for {
			eventCh <- screen.PollEvent()
		}
	}()

	stars := make([]star, 160)
	for i := range stars {
		stars[i] = star{
			angle: rand.Float64() * 2 * math.Pi,
			depth: rand.Float64(),
			speed: 0.2 + rand.Float64()*0.8,
		}
	}

	var eventLog []string
	sceneNum := 0
	suspended := false
	attention := false

	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	for {
		// Handle all pending input
	inputLoop:
		for {
			select {
			case ev := <-eventCh:
				key, ok := ev.(*tcell.EventKey)
				if !ok {
					continue
				}
				switch {
				case key.Key() == tcell.KeyEscape, key.Key() == tcell.KeyCtrlC,
					key.Key() == tcell.KeyRune && key.Rune() == 'q':
					return
				case key.Key() == tcell.KeyRune && key.Rune() == 'w':
					sceneNum++
					_ = eng.Request(engine.TransitionRequest{TargetSceneID: fmt.Sprintf("sector-%d", sceneNum)})
				case key.Key() == tcell.KeyRune && key.Rune() == 'f':
					sceneNum++
					_ = eng.Request(engine.TransitionRequest{TargetSceneID: fmt.Sprintf("sector-%d", sceneNum), BypassCinematic: true})
				case key.Key() == tcell.KeyRune && key.Rune() == 'c':
					eng.Cancel()
				case key.Key() == tcell.KeyRune && key.Rune() == 'p':
					suspended = !suspended
					if suspended {
						eng.Suspend()
					} else {
						eng.Resume()
					}
				case key.Key() == tcell.KeyRune && key.Rune() == 'a':
					attention = !attention
					eng.SetAttention(attention)
				}
			default:
				break inputLoop
			}
		}

		eng.Tick()

		for _, ev := range eng.Events().Consume() {
			eventLog = append(eventLog, describeEvent(ev))
			if len(eventLog) > 8 {
				eventLog = eventLog[1:]
			}
			if cues != nil {
				switch ev.Type {
				case events.EventWarpStart:
					cues.StartCharge()
				case events.EventSceneLoading:
					cues.Flash()
				case events.EventWarpComplete, events.EventWarpCancel:
					cues.StopCharge()
				}
			}
		}

		params, mask, calls := state.snapshot()
		draw(screen, stars, params, mask, calls, eng, eventLog, suspended)

		<-ticker.C
	}
}

func describeEvent(ev events.Event) string {
	switch p := ev.Payload.(type) {
	case *events.WarpStartPayload:
		return "warpStart " + p.SceneID
	case *events.WarpCompletePayload:
		if p.Degraded {
			return fmt.Sprintf("warpComplete %s (degraded, queue=%d)", p.SceneID, p.RemainingQueue)
		}
		return fmt.Sprintf("warpComplete %s (queue=%d)", p.SceneID, p.RemainingQueue)
	case *events.WarpCancelPayload:
		return "warpCancel " + p.SceneID
	case *events.QueueChangedPayload:
		return fmt.Sprintf("queueChanged %d", p.Length)
	case *events.SceneLoadingPayload:
		if ev.Type == events.EventFlashHoldTimeout {
			return "flashHoldTimeout " + p.SceneID
		}
		return "sceneLoading " + p.SceneID
	case *events.SceneReadyPayload:
		return fmt.Sprintf("sceneReady %s (first=%v)", p.SceneID, p.FirstRender)
	case *events.QueueItemFailedPayload:
		return "queueItemFailed " + p.SceneID
	}
	return "event"
}

func draw(screen tcell.Screen, stars []star, params map[string]float64, mask float64, calls int, eng *engine.Engine, eventLog []string, suspended bool) {
	screen.Clear()
	w, h := screen.Size()
	cx, cy := float64(w)/2, float64(h)/2

	shake := params["shake"]
	tunnel := params["tunnel"]
	drift := params["drift"]
	progress := params["progress"]
	attention := params["attention"]

	// Shake jitters the vanishing point
	jx := shake * 3 * math.Sin(drift*400)
	jy := shake * 1.5 * math.Cos(drift*523)

	for i := range stars {
		s := &stars[i]
		// Tunnel pulls stars outward faster; drift rotates the field slowly
		depth := math.Mod(s.depth+drift*s.speed*(0.3+tunnel*3), 1.0)
		r := depth * depth * (cx * (0.4 + tunnel*0.8))
		a := s.angle + drift*0.3 + attention*0.2*math.Sin(drift*50+s.angle)

		x := int(cx + jx + math.Cos(a)*r*2)
		y := int(cy + jy + math.Sin(a)*r)
		if x < 0 || x >= w || y < 0 || y >= h-3 {
			continue
		}

		ch := '.'
		style := tcell.StyleDefault.Foreground(tcell.ColorGray)
		if depth > 0.6 {
			ch = '*'
			style = tcell.StyleDefault.Foreground(tcell.ColorWhite)
		}
		if tunnel > 0.5 && depth > 0.5 {
			ch = '-'
			if math.Abs(math.Cos(a)) < 0.4 {
				ch = '|'
			}
			style = tcell.StyleDefault.Foreground(tcell.ColorAqua)
		}
		screen.SetContent(x, y, ch, nil, style)
	}

	// Flash mask whiteout
	if mask > 0.02 {
		maskStyle := tcell.StyleDefault.Background(tcell.ColorWhite)
		step := int(1 / (mask*mask + 0.01))
		if step < 1 {
			step = 1
		}
		n := 0
		for y := 0; y < h-3; y++ {
			for x := 0; x < w; x++ {
				if n%step == 0 {
					screen.SetContent(x, y, ' ', nil, maskStyle)
				}
				n++
			}
		}
	}

	// Status lines
	phase, pp := eng.State(), progress
	bar := int(pp * float64(w-20))
	line := fmt.Sprintf("[%s] queue=%v mask=%.2f batch_calls=%d", phase, eng.QueueState(), mask, calls)
	if suspended {
		line += "  ** SUSPENDED **"
	}
	putText(screen, 0, h-3, line, tcell.StyleDefault.Foreground(tcell.ColorYellow))
	putText(screen, 0, h-2, "progress "+barString(bar, w-20), tcell.StyleDefault.Foreground(tcell.ColorAqua))
	if len(eventLog) > 0 {
		putText(screen, 0, h-1, eventLog[len(eventLog)-1], tcell.StyleDefault.Foreground(tcell.ColorGreen))
	}

	screen.Show()
}

func barString(fill, width int) string {
	out := make([]rune, width)
	for i := range out {
		if i < fill {
			out[i] = '='
		} else {
			out[i] = ' '
		}
	}
	return string(out)
}

func putText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, style)
	}
}
