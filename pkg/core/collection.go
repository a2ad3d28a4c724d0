package core

// DefaultCommand is the log-reading command used when none is configured.
const DefaultCommand = "logcat"

// CollectionConfig holds the caller-supplied settings for one collection.
type CollectionConfig struct {
	FilterByOwningProcess bool     `json:"filter_by_owning_process"`
	BufferName            *string  `json:"buffer_name,omitempty"`
	ExtraArguments        []string `json:"extra_arguments,omitempty"`
}

// Buffer returns a pointer suitable for CollectionConfig.BufferName.
// An empty name means the source's default buffer.
func Buffer(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}

// Invocation is the derived command line handed to the log source.
// Args[0] is the command name.
type Invocation struct {
	Args     []string `json:"args"`
	Capacity int      `json:"capacity"`
}

// BufferLog is the tail collected from a single log buffer.
type BufferLog struct {
	Name  string `json:"name"` // "" for the default buffer
	Text  string `json:"text"`
	Lines int    `json:"lines"`
}
