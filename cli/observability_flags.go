package cli

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kopia/filejanitor/internal/clock"
)

// DirMode is the directory mode for output directories.
const DirMode = 0o700

const metricsServerReadHeaderTimeout = 10 * time.Second

//nolint:gochecknoglobals
var metricsPushFormats = map[string]expfmt.Format{
	"text":          expfmt.NewFormat(expfmt.TypeTextPlain),
	"proto-text":    expfmt.NewFormat(expfmt.TypeProtoText),
	"proto-delim":   expfmt.NewFormat(expfmt.TypeProtoDelim),
	"proto-compact": expfmt.NewFormat(expfmt.TypeProtoCompact),
	"open-metrics":  expfmt.NewFormat(expfmt.TypeOpenMetrics),
}

type observabilityFlags struct {
	enablePProf         bool
	metricsListenAddr   string
	metricsPushAddr     string
	metricsJob          string
	metricsGroupings    []string
	metricsPushUsername string
	metricsPushPassword string
	metricsPushFormat   string
	metricsOutputDir    string
	outputFilePrefix    string

	enableTracing bool

	listener      net.Listener
	pusher        *push.Pusher
	traceProvider *trace.TracerProvider
}

func (c *observabilityFlags) setup(svc appServices, app *kingpin.Application) {
	app.Flag("metrics-listen-addr", "Expose Prometheus metrics on a given host:port").Hidden().StringVar(&c.metricsListenAddr)
	app.Flag("enable-pprof", "Expose pprof handlers").Hidden().BoolVar(&c.enablePProf)

	// push gateway parameters
	app.Flag("metrics-push-addr", "Address of push gateway").Envar(svc.EnvName("FILEJANITOR_METRICS_PUSH_ADDR")).Hidden().StringVar(&c.metricsPushAddr)
	app.Flag("metrics-push-job", "Job ID for to push gateway").Envar(svc.EnvName("FILEJANITOR_METRICS_JOB")).Hidden().Default("filejanitor").StringVar(&c.metricsJob)
	app.Flag("metrics-push-grouping", "Grouping for push gateway").Envar(svc.EnvName("FILEJANITOR_METRICS_PUSH_GROUPING")).Hidden().StringsVar(&c.metricsGroupings)
	app.Flag("metrics-push-username", "Username for push gateway").Envar(svc.EnvName("FILEJANITOR_METRICS_PUSH_USERNAME")).Hidden().StringVar(&c.metricsPushUsername)
	app.Flag("metrics-push-password", "Password for push gateway").Envar(svc.EnvName("FILEJANITOR_METRICS_PUSH_PASSWORD")).Hidden().StringVar(&c.metricsPushPassword)

	app.Flag("enable-tracing", "Emit OpenTelemetry traces to OTLP collector configured with OTEL_EXPORTER_OTLP_* environment variables").Hidden().Envar(svc.EnvName("FILEJANITOR_ENABLE_TRACING")).BoolVar(&c.enableTracing)

	var formats []string

	for k := range metricsPushFormats {
		formats = append(formats, k)
	}

	sort.Strings(formats)

	app.Flag("metrics-push-format", "Format to use for push gateway").Envar(svc.EnvName("FILEJANITOR_METRICS_FORMAT")).Hidden().EnumVar(&c.metricsPushFormat, formats...)

	app.Flag("metrics-directory", "Directory where the metrics should be saved when filejanitor exits. A file per process execution will be created in this directory").Hidden().StringVar(&c.metricsOutputDir)

	app.PreAction(c.initialize)
}

func (c *observabilityFlags) initialize(ctx *kingpin.ParseContext) error {
	if c.metricsOutputDir == "" {
		return nil
	}

	// write to a separate file per command and process execution to avoid
	// conflicts with previously created files
	command := "unknown"
	if cmd := ctx.SelectedCommand; cmd != nil {
		command = strings.ReplaceAll(cmd.FullCommand(), " ", "-")
	}

	c.outputFilePrefix = clock.Now().Format("20060102-150405-") + command

	return nil
}

func (c *observabilityFlags) startMetrics(ctx context.Context) error {
	if err := c.maybeStartListener(ctx); err != nil {
		return err
	}

	if err := c.maybeStartMetricsPusher(ctx); err != nil {
		return err
	}

	if c.metricsOutputDir != "" {
		c.metricsOutputDir = filepath.Clean(c.metricsOutputDir)

		// ensure the metrics output dir can be created
		if err := os.MkdirAll(c.metricsOutputDir, DirMode); err != nil {
			return errors.Wrapf(err, "could not create metrics output directory: %s", c.metricsOutputDir)
		}
	}

	return c.maybeStartTraceExporter(ctx)
}

// Starts observability listener when a listener address is specified.
func (c *observabilityFlags) maybeStartListener(ctx context.Context) error {
	if c.metricsListenAddr == "" {
		return nil
	}

	m := mux.NewRouter()
	m.Handle("/metrics", promhttp.Handler())

	if c.enablePProf {
		m.HandleFunc("/debug/pprof/", pprof.Index)
		m.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		m.HandleFunc("/debug/pprof/profile", pprof.Profile)
		m.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		m.HandleFunc("/debug/pprof/trace", pprof.Trace)
		m.HandleFunc("/debug/pprof/{cmd}", pprof.Index)
	}

	l, err := net.Listen("tcp", c.metricsListenAddr)
	if err != nil {
		return errors.Wrap(err, "unable to listen for metrics")
	}

	c.listener = l

	log(ctx).Infof("starting prometheus metrics on %v", l.Addr())

	srv := &http.Server{
		Handler:           m,
		ReadHeaderTimeout: metricsServerReadHeaderTimeout,
	}

	go srv.Serve(l) //nolint:errcheck

	return nil
}

func (c *observabilityFlags) maybeStartMetricsPusher(ctx context.Context) error {
	if c.metricsPushAddr == "" {
		return nil
	}

	pusher := push.New(c.metricsPushAddr, c.metricsJob)

	pusher.Gatherer(prometheus.DefaultGatherer)

	for _, g := range c.metricsGroupings {
		const nParts = 2

		parts := strings.SplitN(g, ":", nParts)
		if len(parts) != nParts {
			return errors.New("grouping must be name:value")
		}

		pusher.Grouping(parts[0], parts[1])
	}

	if c.metricsPushUsername != "" {
		pusher.BasicAuth(c.metricsPushUsername, c.metricsPushPassword)
	}

	if c.metricsPushFormat != "" {
		pusher.Format(metricsPushFormats[c.metricsPushFormat])
	}

	log(ctx).Debugf("metrics will be pushed to %v when the command completes", c.metricsPushAddr)

	c.pusher = pusher

	return nil
}

func (c *observabilityFlags) maybeStartTraceExporter(ctx context.Context) error {
	if !c.enableTracing {
		return nil
	}

	se, err := otlptracegrpc.New(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to create OTLP trace exporter")
	}

	r := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("filejanitor"),
	)

	tp := trace.NewTracerProvider(
		trace.WithBatcher(se),
		trace.WithResource(r),
	)

	otel.SetTracerProvider(tp)

	c.traceProvider = tp

	return nil
}

func (c *observabilityFlags) stopMetrics(ctx context.Context) {
	if c.pusher != nil {
		log(ctx).Debugw("pushing prometheus metrics", "addr", c.metricsPushAddr)

		if err := c.pusher.Push(); err != nil {
			log(ctx).Warnf("error pushing prometheus metrics: %v", err)
		}
	}

	if c.traceProvider != nil {
		if err := c.traceProvider.Shutdown(ctx); err != nil {
			log(ctx).Warnf("unable to shutdown trace provider: %v", err)
		}
	}

	if c.listener != nil {
		if err := c.listener.Close(); err != nil {
			log(ctx).Debugf("unable to close metrics listener: %v", err)
		}
	}

	if c.metricsOutputDir != "" {
		filename := filepath.Join(c.metricsOutputDir, c.outputFilePrefix+".prom")

		if err := prometheus.WriteToTextfile(filename, prometheus.DefaultGatherer); err != nil {
			log(ctx).Warnf("unable to write metrics file '%s': %v", filename, err)
		}
	}
}
