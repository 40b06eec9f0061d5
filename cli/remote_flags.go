package cli

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/pkg/errors"

	"github.com/kopia/filejanitor/archive"
	"github.com/kopia/filejanitor/exchange"
	"github.com/kopia/filejanitor/storage"
)

// keyPlaceholder in a local path is replaced with the resolved remote key.
const keyPlaceholder = "{Key}"

type retryFlags struct {
	maxAttempts int
	minimumWait time.Duration
	waitPerMiB  time.Duration
}

func (c *retryFlags) setup(svc appServices, cmd *kingpin.CmdClause) {
	d := exchange.DefaultRetryPolicy()

	cmd.Flag("max-attempts", "Maximum number of attempts of each remote call").Envar(svc.EnvName("FILEJANITOR_MAX_ATTEMPTS")).Default(strconv.Itoa(d.MaxAttempts)).IntVar(&c.maxAttempts)
	cmd.Flag("retry-minimum-wait", "Linear backoff step between attempts").Envar(svc.EnvName("FILEJANITOR_RETRY_MINIMUM_WAIT")).Default(d.MinimumWait.String()).DurationVar(&c.minimumWait)
	cmd.Flag("retry-wait-per-mib", "Additional backoff step per MiB uploaded").Hidden().Default(d.WaitPerMiB.String()).DurationVar(&c.waitPerMiB)
}

func (c *retryFlags) exchanger(fm storage.FileManager, reg *archive.Registry) *exchange.Exchanger {
	return exchange.New(fm, reg, exchange.WithRetryPolicy(exchange.RetryPolicy{
		MaxAttempts: c.maxAttempts,
		MinimumWait: c.minimumWait,
		WaitPerMiB:  c.waitPerMiB,
	}))
}

type containerFlags struct {
	containerLocation string
	container         string
}

func (c *containerFlags) setup(svc appServices, cmd *kingpin.CmdClause) {
	cmd.Flag("container-location", "Location of the container, e.g. region or storage account").Envar(svc.EnvName("FILEJANITOR_CONTAINER_LOCATION")).Required().StringVar(&c.containerLocation)
	cmd.Flag("container", "Name of the container, e.g. bucket").Envar(svc.EnvName("FILEJANITOR_CONTAINER")).Required().StringVar(&c.container)
}

// remoteFileFlags select a single remote file either by key or by key prefix and strategy.
type remoteFileFlags struct {
	containerFlags

	key      string
	prefix   string
	strategy string
}

func (c *remoteFileFlags) setup(svc appServices, cmd *kingpin.CmdClause) {
	c.containerFlags.setup(svc, cmd)

	cmd.Flag("key", "Key of the remote file").StringVar(&c.key)
	cmd.Flag("prefix", "Prefix of the remote key, used when --key is not provided").StringVar(&c.prefix)
	cmd.Flag("strategy", "Strategy used when more than one key matches the prefix").Default(string(exchange.SingleMatchExpectedThrow)).EnumVar(&c.strategy, strategyNames()...)
}

func (c *remoteFileFlags) resolve(ctx context.Context, e *exchange.Exchanger) (storage.FileLocation, error) {
	if c.key != "" {
		if c.prefix != "" {
			return storage.FileLocation{}, errors.New("--key and --prefix are mutually exclusive")
		}

		return storage.FileLocation{ContainerLocation: c.containerLocation, Container: c.container, Key: c.key}, nil
	}

	if c.prefix == "" {
		return storage.FileLocation{}, errors.New("either --key or --prefix must be provided")
	}

	//nolint:wrapcheck
	return e.FindFile(ctx, c.containerLocation, c.container, c.prefix, exchange.MultipleKeysFoundStrategy(c.strategy))
}

func strategyNames() []string {
	var result []string

	for _, s := range exchange.SupportedStrategies() {
		result = append(result, string(s))
	}

	return result
}

func replaceKeyPlaceholder(localPath, key string) string {
	return strings.ReplaceAll(localPath, keyPlaceholder, key)
}
