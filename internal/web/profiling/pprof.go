// Package profiling serves pprof and runtime statistics for operators.
//
// The handler exposes goroutine stacks and heap contents. Serve it on a
// loopback or otherwise private address, never on the public API listener.
package profiling

import (
	"net/http"
	"net/http/pprof"
	"runtime"

	"github.com/go-chi/chi/v5"

	"github.com/amaironohi/shop/internal/web/response"
)

// Path is the prefix of the pprof endpoints
const Path = "/debug/pprof"

// Handler returns a router serving pprof under Path and runtime statistics at
// /debug/stats
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Route(Path, func(r chi.Router) {
		r.HandleFunc("/", pprof.Index)
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)

		for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
			r.Handle("/"+name, pprof.Handler(name))
		}
	})
	r.Get("/debug/stats", statsHandler)
	return r
}

// Stats is a snapshot of the Go runtime
type Stats struct {
	Goroutines int    `json:"goroutines"`
	NumCPU     int    `json:"num_cpu"`
	Alloc      uint64 `json:"alloc_bytes"`
	TotalAlloc uint64 `json:"total_alloc_bytes"`
	Sys        uint64 `json:"sys_bytes"`
	NumGC      uint32 `json:"num_gc"`
}

// RuntimeStats reads the current runtime statistics
func RuntimeStats() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Stats{
		Goroutines: runtime.NumGoroutine(),
		NumCPU:     runtime.NumCPU(),
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

func statsHandler(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, RuntimeStats())
}
