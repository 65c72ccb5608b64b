// warp-bridge runs the warp engine headless and streams its batched frame
// parameters and lifecycle events to browser clients over a websocket, the
// shape a web front end consumes during development.
//
// Endpoints:
//
//	GET  /ws            - websocket stream of parameter batches and events
//	GET  /status        - metrics registry snapshot as JSON
//	POST /warp?scene=ID - request a transition (query flags: bypass, nomask, nocooldown)
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lixenwraith/warpcore/engine"
	"github.com/lixenwraith/warpcore/events"
)

// wsMessage is the wire envelope for both parameter batches and events
type wsMessage struct {
	Kind    string             `json:"kind"` // "params" or "event"
	Target  string             `json:"target,omitempty"`
	Params  map[string]float64 `json:"params,omitempty"`
	Event   string             `json:"event,omitempty"`
	Payload any                `json:"payload,omitempty"`
}

// hub fans messages out to connected websocket clients
type hub struct {
	mu   sync.Mutex
	subs map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[*websocket.Conn]struct{})}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[conn] = struct{}{}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, conn)
	conn.Close()
}

// broadcast serializes once and writes to every subscriber, dropping
// connections whose write fails
func (h *hub) broadcast(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("bridge: marshal: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.subs {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.subs, conn)
			conn.Close()
		}
	}
}

// hubSink adapts the hub to the engine's ParameterSink
type hubSink struct {
	h *hub
}

func (s *hubSink) ApplyBatchedParameters(targetID string, params map[string]float64) {
	s.h.broadcast(wsMessage{Kind: "params", Target: targetID, Params: params})
}

// nullMask discards mask writes; the browser applies its own mask from the
// sceneLoading/sceneReady events
type nullMask struct{}

func (nullMask) SetMaskOpacity(float64) {}

// sleepProvider simulates content loading latency
type sleepProvider struct {
	min, max time.Duration
}

func (p *sleepProvider) LoadSceneContent(string, engine.SceneConfig, []engine.ContentRef) error {
	time.Sleep(p.min + time.Duration(rand.Int63n(int64(p.max-p.min))))
	return nil
}

// requestCmd carries a transition request onto the tick goroutine, which
// owns the engine; the reply channel surfaces synchronous admission errors
type requestCmd struct {
	req   engine.TransitionRequest
	reply chan error
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	configPath := flag.String("config", "", "optional YAML engine config")
	flag.Parse()

	cfg := engine.DefaultConfig()
	if *configPath != "" {
		loaded, err := engine.LoadConfigFile(*configPath)
		if err != nil {
			log.Fatalf("bridge: config: %v", err)
		}
		cfg = loaded
	}

	h := newHub()
	eng, err := engine.New(cfg, engine.Deps{
		Content: &sleepProvider{min: 100 * time.Millisecond, max: 1200 * time.Millisecond},
		Mask:    nullMask{},
		Sink:    &hubSink{h: h},
	})
	if err != nil {
		log.Fatalf("bridge: engine: %v", err)
	}
	defer eng.Destroy()

	cmds := make(chan requestCmd, 16)

	// Tick goroutine owns the engine
	go func() {
		ticker := time.NewTicker(33 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			for {
				select {
				case cmd := <-cmds:
					cmd.reply <- eng.Request(cmd.req)
					continue
				default:
				}
				break
			}

			eng.Tick()

			for _, ev := range eng.Events().Consume() {
				h.broadcast(wsMessage{Kind: "event", Event: eventName(ev.Type), Payload: ev.Payload})
			}
		}
	}()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("bridge: upgrade: %v", err)
			return
		}
		h.add(conn)
		// Reader loop only detects close; clients don't send data
		go func() {
			defer h.remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	http.HandleFunc("/warp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}
		q := r.URL.Query()
		cmd := requestCmd{
			req: engine.TransitionRequest{
				TargetSceneID:   q.Get("scene"),
				BypassCinematic: q.Get("bypass") != "",
				BypassFlashMask: q.Get("nomask") != "",
				BypassCooldown:  q.Get("nocooldown") != "",
			},
			reply: make(chan error, 1),
		}

		select {
		case cmds <- cmd:
		case <-time.After(time.Second):
			http.Error(w, "engine busy", http.StatusServiceUnavailable)
			return
		}

		select {
		case err := <-cmd.reply:
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprintln(w, "queued")
		case <-time.After(time.Second):
			http.Error(w, "engine busy", http.StatusServiceUnavailable)
		}
	})

	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ints":   eng.Status().SnapshotInts(),
			"floats": eng.Status().SnapshotFloats(),
		})
	})

	log.Printf("warp-bridge listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

func eventName(t events.EventType) string {
	switch t {
	case events.EventWarpStart:
		return "warpStart"
	case events.EventWarpComplete:
		return "warpComplete"
	case events.EventWarpCancel:
		return "warpCancel"
	case events.EventWarpQueueChanged:
		return "warpQueueChanged"
	case events.EventSceneLoading:
		return "sceneLoading"
	case events.EventSceneReady:
		return "sceneReady"
	case events.EventFlashHoldTimeout:
		return "flashHoldTimeout"
	case events.EventQueueItemFailed:
		return "queueItemFailed"
	}
	return "unknown"
}
