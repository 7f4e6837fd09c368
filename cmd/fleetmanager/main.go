package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chianfern/free-fleet/config"
	"github.com/chianfern/free-fleet/diag"
	"github.com/chianfern/free-fleet/events"
	"github.com/chianfern/free-fleet/geometry"
	"github.com/chianfern/free-fleet/manager"
	"github.com/chianfern/free-fleet/navgraph"
	"github.com/chianfern/free-fleet/robot"
	"github.com/chianfern/free-fleet/transform"
	"github.com/chianfern/free-fleet/transport"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "fleetmanager.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("fleetmanager", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	graph, err := navgraph.LoadYAML(cfg.NavGraph.Path)
	if err != nil {
		log.Fatalf("load navigation graph: %v", err)
	}
	log.Printf("fleetmanager: navigation graph loaded (%d waypoints, %d lanes)", graph.NumWaypoints(), graph.NumLanes())

	tr := transform.Affine{
		Scale:       cfg.Transform.Scale,
		RotationRad: cfg.Transform.RotationRad,
		Translation: geometry.Point{X: cfg.Transform.TranslationX, Y: cfg.Transform.TranslationY},
	}

	msgClient := transport.New(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Fatalf("fleetmanager: messaging connect failed: %v", err)
	}
	log.Printf("fleetmanager: messaging connected (%s)", cfg.Messaging.Backend)
	defer msgClient.Close()

	bus := events.NewBus()
	bus.SubscribeKinds(func(e events.Event) {
		a := e.Payload.(events.AdmittedCommand)
		log.Printf("fleetmanager: command %d admitted for %s", a.CommandID, a.RobotName)
	}, events.CommandAdmitted)
	bus.Emit(events.Event{Kind: events.TransportConnected})

	mgr := manager.New(graph, msgClient, manager.Options{
		Threshold:               cfg.Tracking.Threshold,
		RelocalizationThreshold: cfg.Tracking.EffectiveRelocalizationThreshold(),
		Transformer:             tr,
		Events:                  bus,
		OnRobotUpdated: func(v robot.View) {
			log.Printf("fleetmanager: robot %s -> %s(%d)", v.Name, v.TrackingState, v.TrackingIndex)
		},
	})
	sync := manager.NewSyncManager(mgr)

	addr := fmt.Sprintf("%s:%d", cfg.Diag.Host, cfg.Diag.Port)
	srv := &http.Server{Addr: addr, Handler: diag.NewRouter(sync)}
	go func() {
		log.Printf("fleetmanager: diagnostics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("diagnostics server: %v", err)
		}
	}()

	stop := make(chan struct{})
	go runTicker(sync, stop)

	log.Printf("fleetmanager: ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("fleetmanager: shutting down...")
	close(stop)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("fleetmanager: stopped")
}

// runTicker drives Manager.RunOnce at a fixed cadence. run_once itself
// never sleeps; cadence is the caller's responsibility per spec.md §4.4.
func runTicker(m *manager.SyncManager, stop <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.RunOnce()
		case <-stop:
			return
		}
	}
}
