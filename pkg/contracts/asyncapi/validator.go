package asyncapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/wms-platform/fulfillment-orchestrator/pkg/cloudevents"
)

// EventTypeExtension marks a component schema as the payload of an event type
const EventTypeExtension = "x-event-type"

//go:embed inbound.asyncapi.yaml
var inboundSpec []byte

// Spec is the subset of an AsyncAPI document the validator reads
type Spec struct {
	AsyncAPI   string             `yaml:"asyncapi"`
	Info       Info               `yaml:"info"`
	Channels   map[string]Channel `yaml:"channels"`
	Components Components         `yaml:"components"`
}

// Info is the AsyncAPI info section
type Info struct {
	Title   string `yaml:"title"`
	Version string `yaml:"version"`
}

// Channel is one AsyncAPI channel
type Channel struct {
	Address  string         `yaml:"address"`
	Messages map[string]any `yaml:"messages"`
}

// Components holds the reusable schemas and messages
type Components struct {
	Schemas  map[string]any `yaml:"schemas"`
	Messages map[string]any `yaml:"messages"`
}

// EventValidator validates CloudEvent payloads against AsyncAPI schemas
type EventValidator struct {
	schemas  map[string]*jsonschema.Schema
	channels map[string]string
}

// NewInboundValidator builds a validator for the events the orchestrator consumes
func NewInboundValidator() (*EventValidator, error) {
	return NewEventValidatorFromBytes(inboundSpec)
}

// NewEventValidatorFromBytes creates a validator from an AsyncAPI document.
// Only component schemas carrying x-event-type are compiled; a schema that
// does not compile is an error.
func NewEventValidatorFromBytes(specBytes []byte) (*EventValidator, error) {
	var spec Spec
	if err := yaml.Unmarshal(specBytes, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse AsyncAPI spec: %w", err)
	}

	v := &EventValidator{
		schemas:  make(map[string]*jsonschema.Schema),
		channels: make(map[string]string),
	}
	for name, ch := range spec.Channels {
		v.channels[name] = ch.Address
	}

	compiler := jsonschema.NewCompiler()
	for name, raw := range spec.Components.Schemas {
		schemaMap, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		eventType, _ := schemaMap[EventTypeExtension].(string)
		if eventType == "" {
			continue
		}

		doc, err := toJSONValue(schemaMap)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		uri := "asyncapi://schemas/" + name
		if err := compiler.AddResource(uri, doc); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		compiled, err := compiler.Compile(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[eventType] = compiled
	}
	return v, nil
}

// Validate checks the data of event against the schema of its type
func (v *EventValidator) Validate(event *cloudevents.WMSCloudEvent) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("no schema found for event type: %s", event.Type)
	}
	if event.Data == nil {
		return fmt.Errorf("event data is required")
	}

	data, err := toJSONValue(event.Data)
	if err != nil {
		return fmt.Errorf("failed to read event data: %w", err)
	}
	if err := schema.Validate(data); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}
	return nil
}

// HasSchema reports whether eventType has a registered schema
func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}

// SupportedEventTypes returns the event types with a schema, sorted
func (v *EventValidator) SupportedEventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for t := range v.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ChannelAddress returns the address (topic) of a named channel
func (v *EventValidator) ChannelAddress(channel string) (string, bool) {
	addr, ok := v.channels[channel]
	return addr, ok
}

// toJSONValue round-trips v through JSON so numbers decode the way the
// schema library expects
func toJSONValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}
