package opreg

// Descriptor is the declarative description of one field's backing
// operation. Exactly one of Path and PubSubTopic is set.
type Descriptor struct {
	// Type is the root operation type: Query, Mutation or Subscription
	// (operation keywords in any case are accepted).
	Type  string `mapstructure:"type" json:"type" yaml:"type" validate:"required"`
	Field string `mapstructure:"field" json:"field" yaml:"field" validate:"required"`

	// Method defaults to POST for mutations and GET otherwise.
	Method      string `mapstructure:"method" json:"method,omitempty" yaml:"method,omitempty"`
	Path        string `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty" validate:"required_without=PubSubTopic,excluded_with=PubSubTopic"`
	PubSubTopic string `mapstructure:"pubsubTopic" json:"pubsubTopic,omitempty" yaml:"pubsubTopic,omitempty" validate:"required_without=Path"`

	Headers         map[string]string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"`
	RequestBaseBody map[string]any    `mapstructure:"requestBaseBody" json:"requestBaseBody,omitempty" yaml:"requestBaseBody,omitempty"`
	Binary          bool              `mapstructure:"binary" json:"binary,omitempty" yaml:"binary,omitempty"`
	Description     string            `mapstructure:"description" json:"description,omitempty" yaml:"description,omitempty"`

	// ArgTypeMap overrides the GraphQL type of arguments derived from
	// placeholders, keyed by argument name.
	ArgTypeMap map[string]string `mapstructure:"argTypeMap" json:"argTypeMap,omitempty" yaml:"argTypeMap,omitempty"`
}

// Config holds everything Build needs besides the schema.
type Config struct {
	BaseURL          string
	OperationHeaders map[string]string
	Operations       []Descriptor

	// Debug replaces HTTP field descriptions with a rendering of the
	// method, base URL and path.
	Debug bool
}
