package mainboilerplate

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// DiagnosticsConfig configures pull-based application metrics.
type DiagnosticsConfig struct {
	Port string `long:"port" env:"PORT" description:"Port serving Prometheus metrics at /debug/metrics. Metrics are not served if empty"`
}

// InitDiagnostics serves metrics at /debug/metrics and a liveness check at
// /debug/ready, if a Port is configured.
func InitDiagnostics(cfg DiagnosticsConfig) {
	if cfg.Port == "" {
		return
	}
	var mux = http.NewServeMux()
	mux.HandleFunc("/debug/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/debug/metrics", promhttp.Handler())

	var ln, err = net.Listen("tcp", ":"+cfg.Port)
	Must(err, "failed to bind diagnostics port", "port", cfg.Port)

	go func() {
		if err := http.Serve(ln, mux); err != nil {
			log.WithField("err", err).Warn("diagnostics server stopped")
		}
	}()
	log.WithField("addr", ln.Addr().String()).Info("serving diagnostics")
}

// InitDiagnosticsAndRecover is InitDiagnostics, returning LogPanic to be
// deferred by the caller.
func InitDiagnosticsAndRecover(cfg DiagnosticsConfig) func() {
	InitDiagnostics(cfg)
	return LogPanic
}

// LogPanic logs a recovered panic before propagating it. It must be called
// directly by defer.
func LogPanic() {
	if r := recover(); r != nil {
		log.WithField("panic", r).Error("fatal error")
		panic(r)
	}
}

// Must panics if |err| is non-nil, supplying |msg| and |extra| as
// formatter and fields of the generated panic.
func Must(err error, msg string, extra ...interface{}) {
	if err == nil {
		return
	}
	var f = log.Fields{"err": err}
	for i := 0; i+1 < len(extra); i += 2 {
		f[extra[i].(string)] = extra[i+1]
	}
	log.WithFields(f).Panic(msg)
}
