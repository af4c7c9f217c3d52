// Command rudp-send streams a file to a peer over the reliable
// transport, segmenting it per the configured segment size and
// blocking on Flush until every byte is acknowledged.
package main

import (
	"flag"
	"io"
	"math/rand"
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

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		dialAddr   = flag.String("dial", "", "peer address to send to (overrides config)")
		inputPath  = flag.String("file", "", "path of the file to send (required)")
		metricsOn  = flag.Bool("metrics", false, "expose Prometheus metrics over HTTP")
	)
	flag.Parse()

	logging.Banner("rudp-send", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("config: load failed")
	}
	if *dialAddr != "" {
		cfg.DialAddr = *dialAddr
	}
	if *inputPath == "" {
		logrus.Fatal("-file is required")
	}

	log := logging.New(cfg.LogLevel)

	addr, err := net.ResolveUDPAddr("udp", cfg.DialAddr)
	if err != nil {
		log.WithError(err).Fatal("resolve dial address")
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		log.WithError(err).Fatal("dial")
	}
	defer conn.Close()

	var base carrier.Carrier = carrier.NewUDP(conn, cfg.WindowCapacity, log)
	base = wrapFaults(base, cfg, log)

	engine := protocol.New(base, protocol.Config{
		Name:           "sender-" + xid.New().String(),
		SegmentSize:    cfg.SegmentSize,
		ResendTimeout:  cfg.ResendTimeout,
		WindowCapacity: cfg.WindowCapacity,
		Log:            log,
	})
	engine.OnEvent(protocol.EventRetransmit, func(ev protocol.Event) {
		log.WithField("seq", ev.SeqNum).Debug("retransmit")
	})

	collector := metrics.NewCollector()
	collector.Add(engine.ID(), engine)
	if *metricsOn {
		serveMetrics(cfg.MetricsAddr, collector, log)
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		log.WithError(err).Fatal("open input file")
	}
	defer f.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		done <- sendFile(engine, f, cfg.SegmentSize)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.WithError(err).Fatal("send failed")
		}
		log.Info("send complete")
	case sig := <-sigChan:
		log.WithField("signal", sig).Warn("interrupted, closing")
		engine.Close()
		return
	}

	if err := engine.Close(); err != nil {
		log.WithError(err).Warn("close")
	}
}

// sendFile streams f through engine in segmentSize chunks and blocks
// on Flush until the peer has acknowledged every byte.
func sendFile(engine *protocol.Engine, f *os.File, segmentSize int) error {
	buf := make([]byte, segmentSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if sendErr := engine.Send(buf[:n]); sendErr != nil {
				return sendErr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return engine.Flush()
}

// wrapFaults layers the configured fault-injecting carriers, in the
// same order the original adaptors.py composed them: drop, then
// corrupt, then reorder.
func wrapFaults(base carrier.Carrier, cfg config.Config, log logrus.FieldLogger) carrier.Carrier {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	out := base
	if cfg.DropRate > 0 {
		out = carrier.NewDrop(out, cfg.DropRate, rng)
	}
	if cfg.CorruptRate > 0 {
		out = carrier.NewCorrupt(out, cfg.CorruptRate, rng)
	}
	if cfg.ReorderRate > 0 {
		out = carrier.NewReorder(out, cfg.ReorderRate, rng)
	}
	return carrier.NewDebug(out, log)
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
