package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	promadapter "github.com/H1ghBre4k3r/notizia/adapters/prometheus"
	"github.com/H1ghBre4k3r/notizia/core/pool"
	"github.com/H1ghBre4k3r/notizia/core/task"
)

// === Config ===

var (
	logLevel    = slog.LevelInfo
	N           = getEnvInt("N", 1_000_000)
	batchSize   = getEnvInt("B", 100_000)
	numWorkers  = getEnvInt("WORKERS", runtime.GOMAXPROCS(0))
	numKeys     = getEnvInt("KEYS", 10_000)
	metricsAddr = getEnv("METRICS_ADDR", "")
	useMetrics  = getEnvBool("METRICS", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "0")
	if v == "" {
		return fallback
	}
	if v == "1" || strings.ToLower(v) == "true" {
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

type counterMsg struct {
	inc int
	get *task.Reply[int]
}

func counterWorker(tc *task.Context[counterMsg]) {
	total := 0
	for {
		msg, err := tc.Recv()
		if err != nil {
			return
		}
		if msg.get != nil {
			msg.get.Send(total)
			continue
		}
		total += msg.inc
	}
}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	metrics := task.NopMetrics()
	if useMetrics {
		reg := prometheus.NewRegistry()
		metrics = promadapter.NewTaskMetrics(reg)
		if metricsAddr != "" {
			go serveMetrics(log, reg)
		}
	}

	fmt.Printf("Workers: %d\n", numWorkers)
	fmt.Printf("   Keys: %d\n", numKeys)
	fmt.Printf("Metrics: %s\n", strconv.FormatBool(useMetrics))

	p := pool.New(pool.Options{
		Context: ctx,
		Logger:  log,
		Metrics: metrics,
		Name:    "loadtest",
	}, numWorkers, counterWorker)

	// === START ===

	log.Info("==================================")
	log.Info("Starting ...")

	startAt := time.Now()
	lastTime := startAt

	for i := 0; i < N; i++ {
		key := fmt.Sprintf("key-%d", i%numKeys)
		checkErr(p.Route(key, counterMsg{inc: 1}))

		if i == 0 {
			continue
		}
		if i%batchSize == 0 {
			mu := getMemUsage()

			n := time.Now()
			took := n.Sub(lastTime)
			fmt.Printf(" | %8d msgs | %6d ms | %8d msgs/s | (%d / %d) MiB mem (sys) |\n", batchSize, took.Milliseconds(), int(float64(batchSize)/took.Seconds()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
			lastTime = n
		}
	}

	// A call per key drains the queue ahead of it, so the sum below
	// covers every message routed above.
	total := 0
	for i := 0; i < numKeys; i++ {
		key := fmt.Sprintf("key-%d", i)
		n, err := task.Call(ctx, p.Addr(key), func(r task.Reply[int]) counterMsg {
			return counterMsg{get: &r}
		})
		checkErr(err)
		total += n
	}

	doneAt := time.Now()
	took := doneAt.Sub(startAt)
	runtime.GC()

	// === stats ===
	println("")
	println("==========================================")

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("    delivered: %d\n", total)
	fmt.Printf("  avg. msgs/s: %d\n", int(float64(N)/took.Seconds()))

	checkErr(p.Shutdown(ctx, 10*time.Second))
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// === Metrics ===

func serveMetrics(log *slog.Logger, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info("serving metrics", slog.String("addr", metricsAddr))
	if err := http.ListenAndServe(metricsAddr, mux); err != nil {
		log.Error("metrics listener failed", slog.String("error", err.Error()))
	}
}

// === Helpers ===

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}
