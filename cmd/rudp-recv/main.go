// Command rudp-recv listens for a peer's stream over the reliable
// transport and writes every delivered payload to a file, optionally
// verifying the result against a known-good source file the way the
// original Python receiver's check() did.
package main

import (
	"bytes"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"rudp-go/internal/carrier"
	"rudp-go/internal/config"
	"rudp-go/internal/logging"
	"rudp-go/internal/metrics"
	"rudp-go/internal/protocol"
)

const version = "0.1.0"

// idleTimeout bounds how long recv() may return nothing before this
// driver gives up, mitigating a lost close sentinel (Open Question ii).
const idleTimeout = 30 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		listenAddr = flag.String("listen", "", "local address to bind (overrides config)")
		peerAddr   = flag.String("peer", "", "peer address to accept from (overrides config)")
		outputPath = flag.String("out", "recv.out", "path to write the received stream")
		verifyPath = flag.String("verify", "", "compare the received stream against this ground-truth file")
		metricsOn  = flag.Bool("metrics", false, "expose Prometheus metrics over HTTP")
	)
	flag.Parse()

	logging.Banner("rudp-recv", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config: load failed")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *peerAddr != "" {
		cfg.DialAddr = *peerAddr
	}

	log := logging.New(cfg.LogLevel)

	laddr, err := net.ResolveUDPAddr("udp", cfg.ListenAddr)
	if err != nil {
		log.WithError(err).Fatal("resolve listen address")
	}
	raddr, err := net.ResolveUDPAddr("udp", cfg.DialAddr)
	if err != nil {
		log.WithError(err).Fatal("resolve peer address")
	}
	conn, err := net.DialUDP("udp", laddr, raddr)
	if err != nil {
		log.WithError(err).Fatal("bind")
	}
	defer conn.Close()

	var base carrier.Carrier = carrier.NewUDP(conn, cfg.WindowCapacity, log)

	engine := protocol.New(base, protocol.Config{
		Name:           "receiver-" + xid.New().String(),
		SegmentSize:    cfg.SegmentSize,
		ResendTimeout:  cfg.ResendTimeout,
		WindowCapacity: cfg.WindowCapacity,
		Log:            log,
	})
	engine.OnEvent(protocol.EventChecksumFailure, func(ev protocol.Event) {
		log.Warn("dropped a corrupted frame")
	})

	collector := metrics.NewCollector()
	collector.Add(engine.ID(), engine)
	if *metricsOn {
		serveMetrics(cfg.MetricsAddr, collector, log)
	}

	out, err := os.Create(*outputPath)
	if err != nil {
		log.WithError(err).Fatal("create output file")
	}
	defer out.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		done <- recvLoop(engine, out, log)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.WithError(err).Fatal("recv failed")
		}
		log.Info("connection closed")
	case sig := <-sigChan:
		log.WithField("signal", sig).Warn("interrupted")
		engine.Close()
		return
	}

	if *verifyPath != "" {
		verify(*outputPath, *verifyPath, log)
	}
}

// recvLoop polls Recv, writing every delivered payload to out, until
// the engine reports a connection reset or idleTimeout elapses with
// nothing delivered.
func recvLoop(engine *protocol.Engine, out *os.File, log logrus.FieldLogger) error {
	lastProgress := time.Now()
	for {
		payload, err := engine.Recv()
		if err == protocol.ErrConnectionReset {
			return nil
		}
		if err != nil {
			return err
		}
		if payload != nil {
			if _, writeErr := out.Write(payload); writeErr != nil {
				return writeErr
			}
			lastProgress = time.Now()
			continue
		}
		if time.Since(lastProgress) > idleTimeout {
			log.Warn("idle timeout waiting for peer, giving up")
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

// verify reads the ground-truth file at wantPath and compares it
// byte-for-byte against what was actually written to disk.
func verify(gotPath, wantPath string, log logrus.FieldLogger) {
	got, err := os.ReadFile(gotPath)
	if err != nil {
		log.WithError(err).Error("verify: read received file")
		return
	}
	want, err := os.ReadFile(wantPath)
	if err != nil {
		log.WithError(err).Error("verify: read ground-truth file")
		return
	}
	if bytes.Equal(got, want) {
		log.Info("verify: Pass")
		return
	}
	log.Error("verify: Fail")
}

func serveMetrics(addr string, collector *metrics.Collector, log logrus.FieldLogger) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.WithError(err).Warn("metrics server stopped")
		}
	}()
	log.WithField("addr", addr).Info("metrics server listening")
}
