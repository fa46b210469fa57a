package errors

import (
	"runtime"
	"sort"
	"strings"
)

// ContextOS is the context key holding the operating system (e.g. "linux").
const ContextOS = "os"

// OS values for platform-specific suggestions.
const (
	OSLinux   = "linux"
	OSDarwin  = "darwin"
	OSWindows = "windows"
)

// Suggestion represents a remediation suggestion with optional conditions.
type Suggestion struct {
	// Text is the suggestion message displayed to the user.
	Text string

	// Conditions are key-value pairs that must ALL match the error context.
	// Empty conditions match any context.
	Conditions map[string]string

	// Priority determines order when multiple suggestions apply.
	// Higher priority suggestions are shown first.
	Priority int
}

// Matches returns true if this suggestion's conditions match the given context.
func (s *Suggestion) Matches(ctx map[string]string) bool {
	for key, value := range s.Conditions {
		if ctx[key] != value {
			return false
		}
	}
	return true
}

// Registry maps error codes to their remediation suggestions.
type Registry struct {
	suggestions map[string][]Suggestion
}

// NewRegistry creates a new suggestion registry.
func NewRegistry() *Registry {
	return &Registry{
		suggestions: make(map[string][]Suggestion),
	}
}

// Register adds a suggestion for an error code.
func (r *Registry) Register(code, text string) *Registry {
	return r.RegisterSuggestion(code, Suggestion{Text: text})
}

// RegisterWithCondition adds a suggestion that only applies when the context matches.
func (r *Registry) RegisterWithCondition(code, text string, conditions map[string]string) *Registry {
	return r.RegisterSuggestion(code, Suggestion{Text: text, Conditions: conditions})
}

// RegisterSuggestion adds a complete Suggestion struct.
func (r *Registry) RegisterSuggestion(code string, suggestion Suggestion) *Registry {
	r.suggestions[code] = append(r.suggestions[code], suggestion)
	return r
}

// Get returns all suggestions for an error code that match the given context,
// highest priority first.
func (r *Registry) Get(code string, ctx map[string]string) []string {
	all, ok := r.suggestions[code]
	if !ok {
		return nil
	}

	matching := make([]Suggestion, 0, len(all))
	for _, s := range all {
		if s.Matches(ctx) {
			matching = append(matching, s)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Priority > matching[j].Priority
	})

	texts := make([]string, len(matching))
	for i, s := range matching {
		texts[i] = s.Text
	}
	return texts
}

// HasSuggestions returns true if any suggestion is registered for code.
func (r *Registry) HasSuggestions(code string) bool {
	return len(r.suggestions[code]) > 0
}

// DefaultContext returns the runtime context used for conditional suggestions.
func DefaultContext() map[string]string {
	return map[string]string{ContextOS: runtime.GOOS}
}

// MergeContext merges context maps; later maps win.
func MergeContext(contexts ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, ctx := range contexts {
		for k, v := range ctx {
			merged[k] = v
		}
	}
	return merged
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the global suggestions registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func init() {
	registerStimulusSuggestions()
	registerActivationSuggestions()
	registerIOSuggestions()
	registerConfigSuggestions()
}

func registerStimulusSuggestions() {
	defaultRegistry.Register(ErrStimMissingHeader,
		"A stimulus file must start with type=, title= and path= lines")
	defaultRegistry.Register(ErrStimMissingData,
		"Add a data= line listing the column names, e.g. data=stimID,RT")
	defaultRegistry.Register(ErrStimRaggedTable,
		"Every row must have one value per column named on the data= line")
	defaultRegistry.Register(ErrStimMalformedLine,
		"Header lines use the form key=value")
	defaultRegistry.Register(ErrStimDuplicateColumn,
		"Column names on the data= line must be unique")
}

func registerActivationSuggestions() {
	defaultRegistry.Register(ErrActMissingRawShape,
		"Each layer dataset needs a raw_shape attribute with the original tensor shape")
	defaultRegistry.Register(ErrActShapeMismatch,
		"The number of values must equal the product of the shape")
	defaultRegistry.Register(ErrActUnsupportedDType,
		"Supported element types are float32, float64, int32 and int64")
	defaultRegistry.Register(ErrActLayerNotFound,
		"Run 'dnnbrain act show FILE' to list the layers in the file")
	defaultRegistry.Register(ErrActInvalidLayerName,
		"Layer names must be non-empty and must not contain '/'")
}

func registerIOSuggestions() {
	defaultRegistry.Register(ErrIOFileNotFound,
		"Check the file path is correct")
	defaultRegistry.Register(ErrIOPermissionDenied,
		"Check file ownership and permissions")
	defaultRegistry.RegisterWithCondition(ErrIOPermissionDenied,
		"Use 'ls -l' to inspect the file mode",
		map[string]string{ContextOS: OSLinux})
	defaultRegistry.RegisterWithCondition(ErrIOPermissionDenied,
		"Use 'ls -l' to inspect the file mode",
		map[string]string{ContextOS: OSDarwin})
	defaultRegistry.Register(ErrIOWriteFailed,
		"Ensure the directory exists and there is sufficient disk space")
	defaultRegistry.Register(ErrActStorageFailed,
		"The file may be corrupted or not an HDF5 container")
}

func registerConfigSuggestions() {
	defaultRegistry.Register(ErrConfigNotFound,
		"Run 'dnnbrain --init' to create a default configuration file")
	defaultRegistry.Register(ErrConfigParseFailed,
		"Check the YAML syntax of the configuration file")
}

// AttachSuggestions adds suggestions from the registry to a DnnError.
func AttachSuggestions(err *DnnError) *DnnError {
	if err == nil {
		return nil
	}
	ctx := MergeContext(DefaultContext(), err.Context)
	if suggestions := defaultRegistry.Get(err.Code, ctx); len(suggestions) > 0 {
		err.Suggestions = append(err.Suggestions, suggestions...)
	}
	return err
}

// FormatSuggestionList formats a list of suggestions for display.
func FormatSuggestionList(suggestions []string) string {
	lines := make([]string, len(suggestions))
	for i, s := range suggestions {
		lines[i] = "→ " + s
	}
	return strings.Join(lines, "\n")
}
