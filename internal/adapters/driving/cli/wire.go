package cli

import (
	"fmt"

	"github.com/custodia-labs/sfmc-extract/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sfmc-extract/internal/adapters/driven/sink/jsonl"
	"github.com/custodia-labs/sfmc-extract/internal/adapters/driven/sink/kafka"
	"github.com/custodia-labs/sfmc-extract/internal/connectors/marketingcloud"
	"github.com/custodia-labs/sfmc-extract/internal/connectors/marketingcloud/soap"
	"github.com/custodia-labs/sfmc-extract/internal/core/domain"
	"github.com/custodia-labs/sfmc-extract/internal/core/ports/driven"
	"github.com/custodia-labs/sfmc-extract/internal/core/services"
	"github.com/custodia-labs/sfmc-extract/internal/normalisers/soapobject"
)

// Sink kinds.
const (
	sinkJSONL = "jsonl"
	sinkKafka = "kafka"
)

// defaultOutputDir is where the jsonl sink writes when no directory is set.
const defaultOutputDir = "output"

func loadSettings() (*file.Settings, error) {
	return file.Load(configPath)
}

// newRegistry builds the object type registry from settings.
func newRegistry(settings *file.Settings) (*services.ObjectTypeRegistry, error) {
	specs, err := settings.ObjectSpecs()
	if err != nil {
		return nil, err
	}
	return services.NewObjectTypeRegistry(specs)
}

// newExtractor wires the SOAP source, normaliser and orchestrator.
func newExtractor(
	settings *file.Settings,
	creds marketingcloud.Credentials,
	opts services.OrchestratorOptions,
) (*services.ExtractionOrchestrator, error) {
	cfg, err := settings.ConnectorConfig()
	if err != nil {
		return nil, err
	}

	oauth := marketingcloud.NewOAuthClient(cfg)
	client := soap.NewClient(cfg.SOAPEndpoint(creds.Subdomain), cfg.CallTimeout, cfg.RateLimiter())
	source := soap.NewSource(client, oauth.TokenSource(creds))

	return services.NewExtractionOrchestrator(source, soapobject.New(), opts), nil
}

// newSink builds the configured record sink.
func newSink(cfg file.SinkConfig) (driven.RecordSink, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = sinkJSONL
	}

	switch kind {
	case sinkJSONL:
		dir := cfg.Dir
		if dir == "" {
			dir = defaultOutputDir
		}
		return jsonl.New(dir)
	case sinkKafka:
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("%w: kafka sink requires at least one broker", domain.ErrInvalidConfig)
		}
		return kafka.New(kafka.Config{Brokers: cfg.Brokers, TopicPrefix: cfg.TopicPrefix}), nil
	default:
		return nil, fmt.Errorf("%w: unknown sink %q (expected %s or %s)",
			domain.ErrInvalidConfig, kind, sinkJSONL, sinkKafka)
	}
}
