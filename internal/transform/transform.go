// internal/transform/transform.go
package transform

import (
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"github.com/record-harvest/harvest/pkg/models"
)

// scriptTimeout bounds a single hook invocation. User scripts run on the
// hot path of every record; a loop in one must not hang the harvest.
const scriptTimeout = 200 * time.Millisecond

// Hook runs a user-supplied JavaScript snippet against each extracted
// record. The script must define a global function transform(record)
// where record is {term, fields}; it may mutate the object in place or
// return a replacement. Scripts get no network, filesystem or DOM.
type Hook struct {
	prog   *goja.Program
	logger zerolog.Logger
}

// New compiles a hook from source.
func New(source string, logger zerolog.Logger) (*Hook, error) {
	prog, err := goja.Compile("transform", source, true)
	if err != nil {
		return nil, fmt.Errorf("failed to compile transform script: %w", err)
	}
	return &Hook{prog: prog, logger: logger.With().Str("component", "transform").Logger()}, nil
}

// Load compiles a hook from a script file.
func Load(path string, logger zerolog.Logger) (*Hook, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transform script: %w", err)
	}
	return New(string(source), logger)
}

// Apply runs the hook on one record. A fresh VM per call keeps user
// scripts from smuggling state between records.
func (h *Hook) Apply(rec models.Record) (models.Record, error) {
	vm := goja.New()

	timer := time.AfterFunc(scriptTimeout, func() {
		vm.Interrupt("transform script timed out")
	})
	defer timer.Stop()

	vm.Set("console", map[string]interface{}{
		"log": func(call goja.FunctionCall) goja.Value {
			h.logger.Debug().Str("source", "script").Msg(callArgs(call))
			return nil
		},
		"error": func(call goja.FunctionCall) goja.Value {
			h.logger.Warn().Str("source", "script").Msg(callArgs(call))
			return nil
		},
	})

	if _, err := vm.RunProgram(h.prog); err != nil {
		return rec, fmt.Errorf("transform script failed: %w", err)
	}

	fn, ok := goja.AssertFunction(vm.Get("transform"))
	if !ok {
		return rec, fmt.Errorf("transform script does not define transform(record)")
	}

	fields := make(map[string]interface{}, len(rec.Fields))
	for k, v := range rec.Fields {
		fields[k] = v
	}
	input := vm.ToValue(map[string]interface{}{
		"term":   rec.Term,
		"fields": fields,
	})

	out, err := fn(goja.Undefined(), input)
	if err != nil {
		return rec, fmt.Errorf("transform(record) failed: %w", err)
	}

	// Mutation in place is the common case; a returned object wins when
	// the script provides one.
	result := input
	if out != nil && !goja.IsUndefined(out) && !goja.IsNull(out) {
		result = out
	}
	return h.merge(rec, result)
}

// merge reads the script's record object back into a models.Record.
func (h *Hook) merge(rec models.Record, val goja.Value) (models.Record, error) {
	exported, ok := val.Export().(map[string]interface{})
	if !ok {
		return rec, fmt.Errorf("transform must produce an object, got %T", val.Export())
	}

	out := models.Record{
		Term:        rec.Term,
		ExtractedAt: rec.ExtractedAt,
		Fields:      make(map[string]string, len(rec.Fields)),
	}
	rawFields, ok := exported["fields"].(map[string]interface{})
	if !ok {
		return rec, fmt.Errorf("transform dropped the fields object")
	}
	for k, v := range rawFields {
		if s, ok := v.(string); ok {
			out.Fields[k] = s
		} else {
			out.Fields[k] = fmt.Sprintf("%v", v)
		}
	}
	return out, nil
}

func callArgs(call goja.FunctionCall) string {
	if len(call.Arguments) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", call.Arguments[0].Export())
}
